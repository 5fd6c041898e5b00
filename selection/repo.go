package selection

import (
	"context"
	"fmt"
)

type Repo interface {
	// Get returns errors.ErrNotFound when nothing is stored under key.
	Get(ctx context.Context, key string) (Selection, error)
	Upsert(ctx context.Context, key string, s Selection) error
	// Update applies fn to the stored selection, or to an empty one, and stores
	// the result atomically with respect to other updates of the same key.
	// fn may run more than once and must not have side effects.
	Update(ctx context.Context, key string, fn func(*Selection)) (Selection, error)
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}

func requireKey(key string) error {
	if key == "" {
		return fmt.Errorf("selection key is required")
	}
	return nil
}
