package app

import (
	"context"

	"github.com/google/uuid"
)

// NopDispatcher accepts every task and drops it. Used when no message broker
// is configured, so the export/report endpoints keep working with the same
// fire-and-forget contract.
type NopDispatcher struct{}

func (NopDispatcher) Submit(context.Context, string, map[string]any) (string, error) {
	return uuid.NewString(), nil
}
