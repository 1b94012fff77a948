package node

import (
	"context"
	"strings"

	"github.com/tokenized/pkg/logger"
)

// ContextWithLogger returns a context carrying a configured logger. The
// format is "TEXT" or "JSON"; an empty file path logs to stdout only.
func ContextWithLogger(ctx context.Context, development bool, format string,
	filePath string) context.Context {

	logConfig := logger.NewDevelopmentConfig()
	if strings.ToUpper(format) == "TEXT" {
		logConfig.IsText = true
	}

	if !development {
		logConfig.Main.MinLevel = logger.LevelInfo
	}

	if len(filePath) > 0 {
		logConfig.Main.AddFile(filePath)
	}

	return logger.ContextWithLogConfig(ctx, logConfig)
}

func ContextWithNoLogger(ctx context.Context) context.Context {
	return logger.ContextWithNoLogger(ctx)
}

func ContextWithLogTrace(ctx context.Context, trace string) context.Context {
	return logger.ContextWithLogTrace(ctx, trace)
}

// Log adds an info level entry to the log.
func Log(ctx context.Context, format string, values ...interface{}) error {
	return logger.LogDepth(ctx, logger.LevelInfo, 1, format, values...)
}

// LogVerbose adds a verbose level entry to the log.
func LogVerbose(ctx context.Context, format string, values ...interface{}) error {
	return logger.LogDepth(ctx, logger.LevelVerbose, 1, format, values...)
}

// LogWarn adds a warning level entry to the log.
func LogWarn(ctx context.Context, format string, values ...interface{}) error {
	return logger.LogDepth(ctx, logger.LevelWarn, 1, format, values...)
}

// LogError adds a error level entry to the log.
func LogError(ctx context.Context, format string, values ...interface{}) error {
	return logger.LogDepth(ctx, logger.LevelError, 1, format, values...)
}
