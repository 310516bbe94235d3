package utils

import (
	"go.uber.org/zap"
)

// FatalIf завершает процесс через logger.Fatal, если err не nil.
// Если логгер nil, вызывает panic.
func FatalIf(logger *zap.Logger, msg string, err error) {
	if err == nil {
		return
	}
	if logger == nil {
		panic(msg + ": " + err.Error())
	}
	logger.Fatal(msg, zap.Error(err))
}
