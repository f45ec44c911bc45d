package processors

import (
	"context"
	"errors"
	"strings"

	"secretariat_import/internal/logger"
	"secretariat_import/internal/metrics"
	"secretariat_import/internal/ports"
	"secretariat_import/internal/repository/imports"

	"go.uber.org/zap"
)

// ItemLogger records the outcome of one row.
type ItemLogger interface {
	LogMongo(ctx context.Context, p imports.LogParams)
}

// Row outcomes counted in metrics.
const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

type BaseProcessor struct {
	Items   ItemLogger
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func NewBaseProcessor(items ItemLogger, m *metrics.Metrics, log *zap.Logger) *BaseProcessor {
	return &BaseProcessor{Items: items, Metrics: m, Log: logger.OrNop(log)}
}

func (b *BaseProcessor) logger() *zap.Logger {
	if b == nil {
		return zap.NewNop()
	}
	return logger.OrNop(b.Log)
}

// CheckDeps names every dependency reported missing.
func CheckDeps(deps map[string]bool) error {
	var missing []string
	for name, ok := range deps {
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.New(strings.Join(sortedCopy(missing), ", ") + " not available")
}

// record stores a row outcome and counts it.
func (b *BaseProcessor) record(ctx context.Context, importType string, model imports.ModelType, modelID string, payload ports.Row, status, outcome string, msgs []string) {
	if b == nil {
		return
	}
	b.Metrics.IncRow(importType, outcome)
	if b.Items == nil {
		return
	}
	b.Items.LogMongo(ctx, imports.LogParams{
		ImportRecordID: ports.ImportRecordID(ctx),
		ModelType:      model,
		ModelID:        modelID,
		Payload:        payload,
		Status:         status,
		Errors:         strings.Join(msgs, "; "),
	})
}

func (b *BaseProcessor) reject(ctx context.Context, importType string, model imports.ModelType, payload ports.Row, reason string) {
	b.record(ctx, importType, model, newModelID(), payload, imports.ItemFailed, outcomeFailed, []string{reason})
}
