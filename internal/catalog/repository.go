// Package catalog provides the event store: a Postgres-backed repository
// for catalog events and an in-memory twin for testing and development.
package catalog

import (
	"context"
	"errors"

	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/search"
)

// ErrNotFound is returned when a lookup by ID matches no event.
var ErrNotFound = errors.New("event not found")

// Repository defines the event store operations. Search returns a coarse
// candidate set in ascending start order; the search pipeline re-verifies
// every candidate, so implementations may over-return but must never
// silently drop events that satisfy the filters.
type Repository interface {
	// Upsert inserts or updates a batch of events atomically. Events are
	// keyed by ID; an event with an unknown ID is inserted.
	Upsert(ctx context.Context, events []event.Event) error

	// Search returns candidates for a normalized filter set in ascending
	// start order, events without a start day last.
	Search(ctx context.Context, f search.Filters) ([]event.Event, error)

	// MostRecent returns up to limit events by descending start order.
	// Used by the recommendation fallback when relaxation finds nothing.
	MostRecent(ctx context.Context, limit int) ([]event.Event, error)

	// GetByID retrieves one event. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*event.Event, error)
}
