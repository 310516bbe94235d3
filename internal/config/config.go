package config

import (
	"fmt"
	"time"
)

type Config struct {
	TelegramConfig
	DBConfig
	GoogleSheetConfig
	AlertConfig
	AuthConfig
	LogConfig
}

// CLIConfig то, что нужно консольной утилите: только таблица и логи.
type CLIConfig struct {
	GoogleSheetConfig
	AlertConfig
	LogConfig
}

type GoogleSheetConfig struct {
	SpreadsheetID     string        `envconfig:"SPREADSHEET_ID" required:"true" masked:"true"`
	SheetName         string        `envconfig:"SHEET_NAME" default:"Base Lavadoras - BD"`
	CredentialsBase64 string        `envconfig:"CREDENTIALS_BASE64" required:"true" masked:"true"`
	PauseMs           int           `envconfig:"SHEET_PAUSE_MS" required:"false"`
	Timeout           time.Duration `envconfig:"SHEET_TIMEOUT" default:"30s"`
}

type TelegramConfig struct {
	BotToken string  `envconfig:"BOT_TOKEN" required:"true" masked:"true"`
	Admins   []int64 `envconfig:"ADMINS"`
}

type DBConfig struct {
	User   string `envconfig:"DBUSER" required:"true" masked:"true"`
	Pass   string `envconfig:"DBPASS" required:"true" masked:"true"`
	Host   string `envconfig:"DBHOST" required:"true" masked:"true"`
	DBName string `envconfig:"DBNAME" required:"true" masked:"true"`

	Port    string `envconfig:"DBPORT" required:"true" masked:"true"`
	SSLMode string `envconfig:"DBSSLMODE" required:"true" masked:"true"`
}

type AlertConfig struct {
	CheckInterval time.Duration `envconfig:"ALERT_CHECK_INTERVAL" default:"1h"`
	Timezone      string        `envconfig:"TIMEZONE" default:"America/Lima"`
}

// Location часовой пояс для месячной статистики и дат в сообщениях.
func (c AlertConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("неизвестный часовой пояс %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type AuthConfig struct {
	// bcrypt-хеш содержит '$': в .env значение пишется в одинарных кавычках,
	// иначе godotenv подставит переменные и испортит хеш.
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH" masked:"true"`
	SessionTTL        time.Duration `envconfig:"SESSION_TTL" default:"1h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}
