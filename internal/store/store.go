// Package store persists per-category run history.
package store

import (
	"context"

	"github.com/dorinvancea/pricewatch/internal/model"
)

// RunFilter specifies criteria for listing run summaries.
type RunFilter struct {
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Store is the run-history persistence interface.
type Store interface {
	RecordRun(ctx context.Context, run model.RunSummary) (model.RunSummary, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error)
	ListCategories(ctx context.Context) ([]string, error)

	Migrate(ctx context.Context) error
	Close() error
}
