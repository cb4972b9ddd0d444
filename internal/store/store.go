package store

import (
	"context"

	"github.com/me/reel/pkg/model"
)

// Store defines the persistence layer for the scenario catalog.
// Sessions are runtime-only and never touch the store.
type Store interface {
	CreateScenario(ctx context.Context, scn *model.Scenario) error
	GetScenario(ctx context.Context, id string) (*model.Scenario, error)
	GetScenarioByName(ctx context.Context, name string) (*model.Scenario, error)
	GetScenarioByHash(ctx context.Context, hash string) (*model.Scenario, error)
	ListScenarios(ctx context.Context, opts model.ListOptions) ([]*model.Scenario, int, error)
	UpdateScenario(ctx context.Context, scn *model.Scenario) error
	DeleteScenario(ctx context.Context, id string) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
