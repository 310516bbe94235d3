package main

import (
	"context"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"baselav/internal/config"
	"baselav/internal/model"
	"baselav/internal/reminder"
	notification_ps "baselav/internal/repository/postgres"
	"baselav/internal/service/alert_bot"
	"baselav/internal/service/sheet"
	"baselav/internal/service/tg"
	"baselav/internal/service/tracker"
	"baselav/internal/utils"
	pkg_config "baselav/pkg/config"
	"baselav/pkg/db/postgres"
	"baselav/pkg/masker"
	"baselav/pkg/tgbot"
	"baselav/pkg/zaplogger"
)

func main() {
	logger, err := zaplogger.New("info")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Config{}
	utils.FatalIf(logger, "error loading configs", pkg_config.LoadEnv(".env", &cfg, logger))

	if cfg.LogConfig.Level != "info" {
		leveled, err := zaplogger.New(cfg.LogConfig.Level)
		utils.FatalIf(logger, "error creating logger", err)
		logger = leveled
	}

	utils.FatalIf(logger, "error logging configs", masker.LogConfigs(logger, &cfg))

	location, err := cfg.AlertConfig.Location()
	utils.FatalIf(logger, "error loading timezone", err)

	dbGorm, err := postgres.NewGormConnection(cfg.DBConfig, &model.AlertNotification{})
	utils.FatalIf(logger, "error creating gorm connection", err)
	notificationRepo := notification_ps.NewNotificationRepository(dbGorm)

	ctx := context.Background()
	sheetService, err := sheet.NewSheetService(
		ctx,
		cfg.GoogleSheetConfig.CredentialsBase64,
		cfg.GoogleSheetConfig.SpreadsheetID,
		cfg.GoogleSheetConfig.SheetName,
		cfg.GoogleSheetConfig.PauseMs,
		logger,
	)
	utils.FatalIf(logger, "error creating sheet service", err)

	trackerService := tracker.NewService(sheetService, reminder.SystemClock(), location, logger)

	forceUpdate := make(chan struct{}, 1)

	tgHandler := tg.NewTGHandler(trackerService, forceUpdate, logger, tg.Options{
		PasswordHash: cfg.AuthConfig.AdminPasswordHash,
		SessionTTL:   cfg.AuthConfig.SessionTTL,
		Timeout:      cfg.GoogleSheetConfig.Timeout,
		Location:     location,
	})

	bot, err := tgbot.NewBot(tgbot.Config{
		Token:           cfg.TelegramConfig.BotToken,
		Expiration:      24 * time.Hour,
		CleanupInterval: 1 * time.Hour,
		States:          tgHandler.StatesMap(),
		Admins:          cfg.TelegramConfig.Admins,
	}, []int64{}, logger)
	utils.FatalIf(logger, "error creating bot", err)

	if len(bot.Admins()) == 0 {
		logger.Warn("ADMINS is empty, alerts will only be visible through /alertas")
	}

	alertBot := alert_bot.NewAlertBot(trackerService, notificationRepo, bot, logger, forceUpdate, alert_bot.Options{
		Interval: cfg.AlertConfig.CheckInterval,
		Timeout:  cfg.GoogleSheetConfig.Timeout,
	})
	defer alertBot.Stop()

	// Запускаем бота в основной горутине
	errChan := bot.Start(0, 30)
	if err := <-errChan; err != nil {
		logger.Fatal("error starting bot", zap.Error(err))
	}
}
