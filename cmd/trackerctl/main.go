package main

import (
	"context"
	"os"
	"time"
	_ "time/tzdata"

	"baselav/internal/cli"
	"baselav/internal/config"
	"baselav/internal/reminder"
	"baselav/internal/service/sheet"
	"baselav/internal/service/tracker"
	pkg_config "baselav/pkg/config"
	"baselav/pkg/zaplogger"
)

func main() {
	cfg := config.CLIConfig{}
	app := &cli.App{
		Connect: func(ctx context.Context) (cli.Tracker, *time.Location, error) {
			// логи в stderr, чтобы не мешать выводу --json
			logger, err := zaplogger.New("warn", "stderr")
			if err != nil {
				return nil, nil, err
			}
			if err := pkg_config.LoadEnv(".env", &cfg, logger); err != nil {
				return nil, nil, err
			}
			if logger, err = zaplogger.New(cfg.LogConfig.Level, "stderr"); err != nil {
				return nil, nil, err
			}

			location, err := cfg.AlertConfig.Location()
			if err != nil {
				return nil, nil, err
			}
			sheetService, err := sheet.NewSheetService(
				ctx,
				cfg.GoogleSheetConfig.CredentialsBase64,
				cfg.GoogleSheetConfig.SpreadsheetID,
				cfg.GoogleSheetConfig.SheetName,
				cfg.GoogleSheetConfig.PauseMs,
				logger,
			)
			if err != nil {
				return nil, nil, err
			}
			return tracker.NewService(sheetService, reminder.SystemClock(), location, logger), location, nil
		},
		Timeout: 2 * time.Minute,
	}

	if err := cli.NewRootCmd(app).Execute(); err != nil {
		os.Exit(1)
	}
}
