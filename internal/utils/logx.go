package utils

import (
	"log"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewNodeLogger builds the node's zap logger. Info and error output always
// go to stdout; when basePath is non-empty, info.log and error.log are
// additionally written there.
func NewNodeLogger(basePath string) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "level",
		TimeKey:     "ts",
		EncodeLevel: zapcore.CapitalLevelEncoder,
		EncodeTime:  zapcore.ISO8601TimeEncoder,
		LineEnding:  zapcore.DefaultLineEnding,
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel),
	}

	if basePath != "" {
		if err := os.MkdirAll(basePath, 0744); err != nil {
			log.Printf("failed to create log dir %s: %v", basePath, err)
		} else {
			infoOut := zapcore.AddSync(openLogFile(filepath.Join(basePath, "info.log")))
			errorOut := zapcore.AddSync(openLogFile(filepath.Join(basePath, "error.log")))

			infoLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l == zapcore.InfoLevel })
			errLv := zap.LevelEnablerFunc(func(l zapcore.Level) bool { return l >= zapcore.ErrorLevel })

			cores = append(cores,
				zapcore.NewCore(encoder, infoOut, infoLv),
				zapcore.NewCore(encoder, errorOut, errLv),
			)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

func openLogFile(path string) *os.File {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file %s: %v", path, err)
		return os.Stdout
	}
	return f
}
