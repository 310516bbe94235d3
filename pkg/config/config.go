package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// ConfigFile структура предоставляет путь к файлу, а также указатель на структуру.
// Config - указатель на структуру.
// Структуры могу содержать теги envconfig и godotenv.
type ConfigFile struct {
	// Путь к файлу.
	Path string
	// Конфигурация - указатель на структуру.
	Config interface{}
}

// LoadConfigFiles предоставляет возможность загрузки сразу нескольких конфигурационных файлов
// и анмаршалинга в структуры.
// Структуры могу содержать теги envconfig и godotenv.
func LoadConfigFiles(configFiles ...*ConfigFile) error {
	for _, configFile := range configFiles {
		if configFile.Path != "" {
			if err := godotenv.Load(configFile.Path); err != nil {
				return err
			}
		}

		err := envconfig.Process("", configFile.Config)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadConfigs предоставляет возможность загрузки сразу нескольких конфигураций и анмаршалинга в структуры.
//   - config - ссылки на структуры. Структуры могу содержать теги envconfig и godotenv.
func LoadConfigs(config ...interface{}) error {
	for _, cfg := range config {
		err := envconfig.Process("", cfg)
		if err != nil {
			return err
		}
	}
	return nil
}

// LoadEnv подгружает .env, если он есть, и заполняет cfg из окружения.
// Отсутствие файла не ошибка: переменные могут быть заданы снаружи.
//
// godotenv подставляет $VAR в значениях без кавычек и в двойных кавычках,
// поэтому значения с '$' (bcrypt-хеши) в .env нужно брать в одинарные кавычки.
func LoadEnv(path string, cfg interface{}, logger *zap.Logger) error {
	if path == "" {
		return LoadConfigs(cfg)
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Info("no .env file loaded, using environment variables", zap.String("path", path))
		return LoadConfigs(cfg)
	}
	return LoadConfigFiles(&ConfigFile{Path: path, Config: cfg})
}
