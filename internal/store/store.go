// Package store persists accepted markdown plans so analysts can review
// past optimization runs.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/retaillab/markdown-cli/internal/model"
)

// ErrNotFound is returned when a plan ID has no row.
var ErrNotFound = eris.New("plan not found")

// PlanFilter specifies criteria for listing plans.
type PlanFilter struct {
	Status model.PlanStatus `json:"status,omitempty"`
	Limit  int              `json:"limit,omitempty"`
	Offset int              `json:"offset,omitempty"`
}

// Store defines the persistence interface for plan history.
type Store interface {
	CreatePlan(ctx context.Context, plan model.Plan) (*model.Plan, error)
	GetPlan(ctx context.Context, planID string) (*model.Plan, error)
	ListPlans(ctx context.Context, filter PlanFilter) ([]model.Plan, error)

	Migrate(ctx context.Context) error
	Close() error
}
