package repository

import (
	"context"
	itemserrors "itemshare/internal/items/errors"
	"itemshare/internal/items/timeline"
	"itemshare/pkg/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_UpdateDetectsConcurrentWriter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Create(ctx, newItem(timeline.Timeline{})))

	interfered := false
	repo.OnBeforeCommit(func(id string) {
		if interfered {
			return
		}
		interfered = true
		_, err := repo.Update(ctx, id, func(item *model.Item) error {
			item.Name = "Hammer"
			return nil
		})
		require.NoError(t, err)
	})

	_, err := repo.Update(ctx, "item-1", func(item *model.Item) error {
		item.Name = "Saw"
		return nil
	})
	assert.ErrorIs(t, err, itemserrors.ErrConcurrentModification)

	got, err := repo.FindByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Hammer", got.Name)
	assert.Equal(t, int64(4), got.Version)
}

func TestMemoryRepository_UpdateAbortsOnCallbackError(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	require.NoError(t, repo.Create(ctx, newItem(timeline.Timeline{})))

	_, err := repo.Update(ctx, "item-1", func(item *model.Item) error {
		item.Name = "changed"
		return itemserrors.ErrUnavailable
	})
	assert.ErrorIs(t, err, itemserrors.ErrUnavailable)

	got, err := repo.FindByID(ctx, "item-1")
	require.NoError(t, err)
	assert.Equal(t, "Drill", got.Name)
}

func TestMemoryRepository_Queries(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	due := newItem(timeline.Timeline{Queue: []timeline.Interval{
		{Holder: "zed@example.com", Start: at(5), End: at(30)},
	}})
	due.ID = "due"
	due.SharedWith = nil

	later := newItem(timeline.Timeline{
		Occupancy: timeline.Occupancy{Kind: timeline.ImmediateHold, Holders: []string{"alice@example.com"}, End: ptr(at(60))},
	})
	later.ID = "later"
	later.CreatedBy = "alice@example.com"

	require.NoError(t, repo.Create(ctx, due))
	require.NoError(t, repo.Create(ctx, later))
	assert.Error(t, repo.Create(ctx, later))

	ids, err := repo.FindDue(ctx, at(10), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"due"}, ids)

	ids, err = repo.FindDue(ctx, at(60), 1, nil)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	items, err := repo.FindByIdentity(ctx, "zed@example.com")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "due", items[0].ID)

	ids, err = repo.FindCreatedBy(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"later"}, ids)

	require.NoError(t, repo.Delete(ctx, "due"))
	assert.ErrorIs(t, repo.Delete(ctx, "due"), itemserrors.ErrItemNotFound)
	_, err = repo.FindByID(ctx, "due")
	assert.ErrorIs(t, err, itemserrors.ErrItemNotFound)
}

func TestMemoryRepository_FindDueSkipsExcluded(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	for _, id := range []string{"a", "b", "c"} {
		item := newItem(timeline.Timeline{
			Occupancy: timeline.Occupancy{Kind: timeline.ImmediateHold, Holders: []string{"alice@example.com"}, End: ptr(at(10))},
		})
		item.ID = id
		require.NoError(t, repo.Create(ctx, item))
	}

	ids, err := repo.FindDue(ctx, at(10), 2, []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)

	ids, err = repo.FindDue(ctx, at(10), 2, []string{"b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids)
}
