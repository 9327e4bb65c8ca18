package eutelescope

import "log/slog"

type Logger interface {
	Info(message string, module string)
	Warn(message string, module string)
	Error(string)
}

var logger Logger = slogLogger{}

func SetLogger(l Logger) {
	if l == nil {
		l = slogLogger{}
	}
	logger = l
}

func GetLogger() Logger {
	return logger
}

// slogLogger is used until the binary installs its own logger.
type slogLogger struct{}

func (slogLogger) Info(message string, module string) {
	slog.Info(message, "module", module)
}

func (slogLogger) Warn(message string, module string) {
	slog.Warn(message, "module", module)
}

func (slogLogger) Error(message string) {
	slog.Error(message)
}
