package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldStrategy names the extraction strategy handling a document.
	FieldStrategy = "strategy"
	// FieldProvider is the remote model provider.
	FieldProvider = "ai_provider"
	// FieldModel is the remote model identifier.
	FieldModel = "ai_model"
	// FieldRequestID correlates log lines of one HTTP request or CLI run.
	FieldRequestID = "request_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts key/value pairs into zap fields, trimming whitespace
// and omitting entries with an empty key or value.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields attaches the fields to the logger. A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// CommonFields describes the remote provider and model. Empty values are skipped.
func CommonFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithCommonFields attaches the provider and model fields to the logger.
func WithCommonFields(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, CommonFields(provider, model)...)
}

// WithStrategy attaches the strategy name to the logger.
func WithStrategy(logger *zap.Logger, strategy string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldStrategy, Value: strategy})...)
}

// WithRequestID attaches the request identifier to the logger.
func WithRequestID(logger *zap.Logger, id string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldRequestID, Value: id})...)
}
