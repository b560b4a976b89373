package migrate

import (
	"fmt"
	"log/slog"
	"os"
)

// gooseSlogLogger routes goose output through the service logger.
type gooseSlogLogger struct {
	logger *slog.Logger
}

func (l gooseSlogLogger) Printf(format string, v ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Info(fmt.Sprintf(format, v...), "component", "migrate")
}

func (l gooseSlogLogger) Fatalf(format string, v ...interface{}) {
	if l.logger != nil {
		l.logger.Error(fmt.Sprintf(format, v...), "component", "migrate")
	}
	os.Exit(1)
}
