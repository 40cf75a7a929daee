package logsvc

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/nkashama/duetrack/core"
)

// CronLogger adapts core.Logger to the cron scheduler's logging interface.
type CronLogger struct {
	logger core.Logger
}

var _ cron.Logger = (*CronLogger)(nil)

func NewCronLogger(logger core.Logger) *CronLogger {
	return &CronLogger{logger: logger}
}

func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := make([]interface{}, 0, len(keysAndValues)+2)
	args = append(args, "err", err)
	args = append(args, keysAndValues...)
	l.logger.Error(fmt.Sprintf("cron: %s", msg), args...)
}
