package ports

import (
	"context"
	"strings"
)

type ctxKey string

const CtxImportRecordID ctxKey = "import_record_id"

// Row is one spreadsheet line keyed by normalized header.
type Row = map[string]string

// Processor persists one batch of rows for a given import type.
// Row-level failures are recorded, not returned; an error aborts the import.
type Processor interface {
	Type() string
	ProcessBatch(ctx context.Context, batch []Row) error
}

func WithImportRecordID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, CtxImportRecordID, strings.TrimSpace(id))
}

func ImportRecordID(ctx context.Context) string {
	if s, ok := ctx.Value(CtxImportRecordID).(string); ok {
		return s
	}
	return ""
}
