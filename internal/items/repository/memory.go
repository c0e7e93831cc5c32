package repository

import (
	"context"
	"fmt"
	itemserrors "itemshare/internal/items/errors"
	"itemshare/pkg/model"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps items in process. It stores the same flattened
// documents as the persistent backends and applies optimistic version checks,
// so it behaves like them under concurrent updates. Used for local runs and
// tests.
type MemoryRepository struct {
	mu   sync.Mutex
	docs map[string]model.ItemDocument

	// beforeCommit, when set, runs between the read and the write of Update.
	beforeCommit func(id string)
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]model.ItemDocument)}
}

// OnBeforeCommit installs a hook that runs after an update has read the item
// and before it writes it back.
func (r *MemoryRepository) OnBeforeCommit(fn func(id string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeCommit = fn
}

func (r *MemoryRepository) Create(_ context.Context, item *model.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[item.ID]; ok {
		return fmt.Errorf("item %s already exists", item.ID)
	}
	r.docs[item.ID] = *ToDocument(item)
	return nil
}

func (r *MemoryRepository) FindByID(_ context.Context, id string) (*model.Item, error) {
	r.mu.Lock()
	doc, ok := r.docs[id]
	r.mu.Unlock()

	if !ok {
		return nil, itemserrors.ErrItemNotFound
	}
	return FromDocument(&doc)
}

func (r *MemoryRepository) FindByIdentity(_ context.Context, identity string) ([]*model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []*model.Item
	for _, doc := range r.docs {
		if doc.CreatedBy != identity &&
			!slices.Contains(doc.SharedWith, identity) &&
			!slices.Contains(doc.InUseBy, identity) &&
			!slices.Contains(doc.ScheduledBy, identity) {
			continue
		}
		item, err := FromDocument(&doc)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name == items[j].Name {
			return items[i].ID < items[j].ID
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (r *MemoryRepository) FindCreatedBy(_ context.Context, identity string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, doc := range r.docs {
		if doc.CreatedBy == identity {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *MemoryRepository) FindDue(_ context.Context, now time.Time, limit int, exclude []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids []string
	for id, doc := range r.docs {
		if doc.NextWakeAt != nil && !doc.NextWakeAt.After(now) {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return limitIDs(withoutIDs(ids, exclude), limit), nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, fn UpdateFunc) (*model.Item, error) {
	r.mu.Lock()
	doc, ok := r.docs[id]
	hook := r.beforeCommit
	r.mu.Unlock()

	if !ok {
		return nil, itemserrors.ErrItemNotFound
	}
	item, err := FromDocument(&doc)
	if err != nil {
		return nil, err
	}
	readVersion := item.Version

	if err := fn(item); err != nil {
		return nil, err
	}
	if hook != nil {
		hook(id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.docs[id]
	if !ok {
		return nil, itemserrors.ErrItemNotFound
	}
	if current.Version != readVersion {
		return nil, itemserrors.ErrConcurrentModification
	}
	item.Version = readVersion + 1
	r.docs[id] = *ToDocument(item)
	return item, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return itemserrors.ErrItemNotFound
	}
	delete(r.docs, id)
	return nil
}

// Document returns the stored shape of an item.
func (r *MemoryRepository) Document(id string) (model.ItemDocument, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	return doc, ok
}
