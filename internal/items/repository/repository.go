package repository

import (
	"context"
	"itemshare/pkg/model"
	"time"
)

const (
	CollectionName = "items"
)

// UpdateFunc mutates the freshly loaded item in place. Returning an error
// aborts the write.
type UpdateFunc func(item *model.Item) error

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByID(ctx context.Context, id string) (*model.Item, error)
	// FindByIdentity returns items the identity created, was shared or holds
	// a reservation on.
	FindByIdentity(ctx context.Context, identity string) ([]*model.Item, error)
	FindCreatedBy(ctx context.Context, identity string) ([]string, error)
	// FindDue returns ids of items whose timeline changes at or before now,
	// skipping the ids in exclude.
	FindDue(ctx context.Context, now time.Time, limit int, exclude []string) ([]string, error)
	// Update performs an atomic read-modify-write of a single item.
	// Concurrent writers surface as ErrConcurrentModification.
	Update(ctx context.Context, id string, fn UpdateFunc) (*model.Item, error)
	Delete(ctx context.Context, id string) error
}

func withoutIDs(ids, exclude []string) []string {
	if len(exclude) == 0 {
		return ids
	}
	skip := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func limitIDs(ids []string, limit int) []string {
	if limit > 0 && len(ids) > limit {
		return ids[:limit]
	}
	return ids
}
