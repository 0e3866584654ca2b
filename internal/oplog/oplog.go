// Package oplog forwards book operation events to a zap logger.
package oplog

import (
	"context"

	"github.com/MarkoPoloResearchLab/bookledger/pkg/book"
	"go.uber.org/zap"
)

const operationMessage = "book operation"

// Logger implements book.OperationLogger.
type Logger struct {
	logger *zap.Logger
}

// New wraps logger. A nil logger discards every event.
func New(logger *zap.Logger) *Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger.Named("book")}
}

// LogOperation records entry at info level, or at warn level when it failed.
func (logger *Logger) LogOperation(_ context.Context, entry book.OperationLog) {
	fields := []zap.Field{
		zap.String("operation", entry.Operation),
		zap.String("status", entry.Status),
	}
	if !entry.MatchID.IsZero() {
		fields = append(fields, zap.String("match_id", entry.MatchID.String()))
	}
	if !entry.CustomerID.IsZero() {
		fields = append(fields, zap.String("customer_id", entry.CustomerID.String()))
	}
	if !entry.EntryID.IsZero() {
		fields = append(fields, zap.String("entry_id", entry.EntryID.String()))
	}
	if entry.Side != "" {
		fields = append(fields, zap.String("side", entry.Side.String()))
	}
	if entry.Amount != 0 {
		fields = append(fields, zap.Float64("amount", entry.Amount))
	}
	if entry.Count != 0 {
		fields = append(fields, zap.Int("count", entry.Count))
	}
	if entry.Error != nil {
		logger.logger.Warn(operationMessage, append(fields, zap.Error(entry.Error))...)
		return
	}
	logger.logger.Info(operationMessage, fields...)
}
