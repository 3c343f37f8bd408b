package api

import (
	"context"
	"errors"

	"github.com/sceneseek/sceneseek/internal/event"
	"github.com/sceneseek/sceneseek/internal/search"
)

var errStoreDown = errors.New("store down")

// failingStore satisfies search.Store and fails every call.
type failingStore struct{}

func (failingStore) Search(ctx context.Context, f search.Filters) ([]event.Event, error) {
	return nil, errStoreDown
}

// failingRepo satisfies catalog.Repository and fails every call.
type failingRepo struct{}

func (failingRepo) Upsert(ctx context.Context, events []event.Event) error {
	return errStoreDown
}

func (failingRepo) Search(ctx context.Context, f search.Filters) ([]event.Event, error) {
	return nil, errStoreDown
}

func (failingRepo) MostRecent(ctx context.Context, limit int) ([]event.Event, error) {
	return nil, errStoreDown
}

func (failingRepo) GetByID(ctx context.Context, id string) (*event.Event, error) {
	return nil, errStoreDown
}
