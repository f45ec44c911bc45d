package processors

import (
	"context"

	"secretariat_import/internal/ports"
)

// NoopProcessor accepts every batch and stores nothing. It lets an upload be
// dry-run through the reader.
type NoopProcessor struct{}

func (NoopProcessor) Type() string { return "noop" }

func (NoopProcessor) ProcessBatch(context.Context, []ports.Row) error {
	return nil
}

// NewRegistry indexes processors by type. The noop processor is always
// present.
func NewRegistry(procs ...ports.Processor) map[string]ports.Processor {
	reg := map[string]ports.Processor{
		"noop": NoopProcessor{},
	}
	for _, p := range procs {
		reg[p.Type()] = p
	}
	return reg
}
