package repository

import (
	"context"
	"errors"
	"fmt"
	itemserrors "itemshare/internal/items/errors"
	"itemshare/pkg/config"
	"itemshare/pkg/model"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreItemRepository struct {
	cfg    *config.Config
	client *firestore.Client
}

func NewFirestoreItemRepository(cfg *config.Config) ItemRepository {
	return &firestoreItemRepository{
		cfg:    cfg,
		client: cfg.Client.Firestore,
	}
}

func (r *firestoreItemRepository) items() *firestore.CollectionRef {
	return r.client.Collection(CollectionName)
}

func (r *firestoreItemRepository) Create(ctx context.Context, item *model.Item) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.items().Doc(item.ID).Create(ctx, ToDocument(item)); err != nil {
		return r.storeError("failed to create item", err)
	}
	return nil
}

func (r *firestoreItemRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	snap, err := r.items().Doc(id).Get(ctx)
	if err != nil {
		return nil, r.storeError("failed to find item", err)
	}
	return decodeSnapshot(snap)
}

func (r *firestoreItemRepository) FindByIdentity(ctx context.Context, identity string) ([]*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// Firestore cannot OR across fields, so each membership is its own query.
	queries := []firestore.Query{
		r.items().Where("createdBy", "==", identity),
		r.items().Where("sharedWith", "array-contains", identity),
		r.items().Where("inUseBy", "array-contains", identity),
		r.items().Where("scheduledBy", "array-contains", identity),
	}

	seen := make(map[string]*model.Item)
	for _, q := range queries {
		err := r.each(ctx, q, func(snap *firestore.DocumentSnapshot) error {
			if _, ok := seen[snap.Ref.ID]; ok {
				return nil
			}
			item, err := decodeSnapshot(snap)
			if err != nil {
				r.cfg.Log.Warn("Skipping item with unreadable timeline", "id", snap.Ref.ID, "error", err)
				return nil
			}
			seen[snap.Ref.ID] = item
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	items := make([]*model.Item, 0, len(seen))
	for _, item := range seen {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
	return items, nil
}

func (r *firestoreItemRepository) FindCreatedBy(ctx context.Context, identity string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.ids(ctx, r.items().Where("createdBy", "==", identity))
}

// FindDue relies on the derived wake-up field only; every document this
// service writes carries it. Firestore caps not-in filters at a handful of
// values, so excluded ids are over-fetched and dropped here.
func (r *firestoreItemRepository) FindDue(ctx context.Context, now time.Time, limit int, exclude []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	q := r.items().Where("nextWakeAt", "<=", now).OrderBy("nextWakeAt", firestore.Asc)
	if limit > 0 {
		q = q.Limit(limit + len(exclude))
	}
	ids, err := r.ids(ctx, q)
	if err != nil {
		return nil, err
	}
	return limitIDs(withoutIDs(ids, exclude), limit), nil
}

func (r *firestoreItemRepository) ids(ctx context.Context, q firestore.Query) ([]string, error) {
	var ids []string
	err := r.each(ctx, q.Select(), func(snap *firestore.DocumentSnapshot) error {
		ids = append(ids, snap.Ref.ID)
		return nil
	})
	return ids, err
}

func (r *firestoreItemRepository) each(ctx context.Context, q firestore.Query, fn func(*firestore.DocumentSnapshot) error) error {
	iter := q.Documents(ctx)
	defer iter.Stop()

	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return r.storeError("failed to scan items", err)
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}

// Update runs a single-attempt Firestore transaction. Contention surfaces as
// ErrConcurrentModification and is retried by the caller's policy.
func (r *firestoreItemRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*model.Item, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	ref := r.items().Doc(id)
	var updated *model.Item

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return r.storeError("failed to find item", err)
		}
		item, err := decodeSnapshot(snap)
		if err != nil {
			return err
		}

		if err := fn(item); err != nil {
			return err
		}
		item.Version++

		if err := tx.Set(ref, ToDocument(item)); err != nil {
			return fmt.Errorf("failed to update item: %w", err)
		}
		updated = item
		return nil
	}, firestore.MaxAttempts(1))
	if err != nil {
		return nil, r.storeError("transaction failed", err)
	}
	return updated, nil
}

func (r *firestoreItemRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.items().Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return r.storeError("failed to delete item", err)
	}
	return nil
}

func (r *firestoreItemRepository) storeError(msg string, err error) error {
	if errors.Is(err, itemserrors.ErrItemNotFound) || errors.Is(err, itemserrors.ErrConcurrentModification) {
		return err
	}
	switch status.Code(err) {
	case codes.NotFound:
		return itemserrors.ErrItemNotFound
	case codes.Aborted, codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%s: %w: %v", msg, itemserrors.ErrConcurrentModification, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func decodeSnapshot(snap *firestore.DocumentSnapshot) (*model.Item, error) {
	var doc model.ItemDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode item %s: %w", snap.Ref.ID, err)
	}
	doc.ID = snap.Ref.ID
	return FromDocument(&doc)
}
