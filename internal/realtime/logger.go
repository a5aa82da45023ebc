package realtime

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// slogAdapter はwatermillのログ出力をslogへ橋渡しする。
type slogAdapter struct {
	logger *slog.Logger
}

// NewWatermillLogger はslogを使用するwatermill.LoggerAdapterを返す。
func NewWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return &slogAdapter{logger: logger}
}

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	attrs := fieldsToAttrs(fields)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	a.logger.Error(msg, attrs...)
}

func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Info(msg, fieldsToAttrs(fields)...)
}

func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, fieldsToAttrs(fields)...)
}

func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, fieldsToAttrs(fields)...)
}

func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	attrs := fieldsToAttrs(fields)
	return &slogAdapter{logger: a.logger.With(attrs...)}
}

func fieldsToAttrs(fields watermill.LogFields) []any {
	attrs := make([]any, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}
