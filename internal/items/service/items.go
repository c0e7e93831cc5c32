package service

import (
	"context"
	"errors"
	"slices"
	"time"

	itemserrors "itemshare/internal/items/errors"
	"itemshare/internal/items/repository"
	"itemshare/internal/items/validator"
	"itemshare/internal/notifications"
	"itemshare/pkg/config"
	"itemshare/pkg/model"
	"itemshare/pkg/sanitizer"

	"github.com/google/uuid"
)

type ItemService interface {
	Create(ctx context.Context, owner string, req *model.CreateItemRequest) (*model.ItemView, error)
	GetByID(ctx context.Context, id, requester string) (*model.ItemView, error)
	List(ctx context.Context, identity string) ([]*model.ItemView, error)
	Delete(ctx context.Context, id, requester string) error
	// Rename changes the display name. Only the owner may rename.
	Rename(ctx context.Context, id, owner string, req *model.RenameItemRequest) (*Result, error)
	Share(ctx context.Context, id, owner string, req *model.ShareRequest) (*Result, error)
	// Unshare removes identity from the item and drops whatever it holds on
	// it. The owner may unshare anyone; anyone may unshare themselves.
	Unshare(ctx context.Context, id, requester, identity string) (*Result, error)
	DeleteAccount(ctx context.Context, identity string) (*AccountCleanup, error)
}

type itemService struct {
	*core
}

func NewItemService(
	repo repository.ItemRepository,
	validator *validator.ItemValidator,
	composer *notifications.Composer,
	dispatcher *notifications.Dispatcher,
	cfg *config.Config,
	opts ...Option,
) ItemService {
	return &itemService{core: newCore(repo, validator, composer, dispatcher, cfg, opts)}
}

func (s *itemService) Create(ctx context.Context, owner string, req *model.CreateItemRequest) (*model.ItemView, error) {
	owner = sanitizer.NormalizeIdentity(owner)
	req.Name = sanitizer.NormalizeItemName(req.Name)
	req.SharedWith = sanitizer.NormalizeIdentities(req.SharedWith)
	req.SharedWith = slices.DeleteFunc(req.SharedWith, func(id string) bool { return id == owner })

	if err := s.validator.ValidateCreate(req); err != nil {
		s.cfg.Log.Warn("Item validation failed", "owner", owner, "error", err)
		return nil, toAppError(err, "")
	}

	item := &model.Item{
		ID:         uuid.NewString(),
		Name:       req.Name,
		CreatedBy:  owner,
		SharedWith: req.SharedWith,
		Version:    1,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.Create(ctx, item); err != nil {
		s.cfg.Log.Error("Failed to create item", "owner", owner, "error", err)
		return nil, toAppError(err, "Failed to create item")
	}

	s.cfg.Log.Info("Item created successfully",
		"id", item.ID,
		"owner", owner,
		"shared_with", len(item.SharedWith),
	)
	return model.NewItemView(item), nil
}

func (s *itemService) GetByID(ctx context.Context, id, requester string) (*model.ItemView, error) {
	if err := s.checkID(id); err != nil {
		return nil, toAppError(err, "")
	}
	requester = sanitizer.NormalizeIdentity(requester)

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toAppError(err, "Failed to retrieve item")
	}
	if !item.IsStakeholder(requester) {
		return nil, toAppError(itemserrors.ErrNotStakeholder, "")
	}
	return model.NewItemView(item), nil
}

func (s *itemService) List(ctx context.Context, identity string) ([]*model.ItemView, error) {
	identity = sanitizer.NormalizeIdentity(identity)

	items, err := s.repo.FindByIdentity(ctx, identity)
	if err != nil {
		s.cfg.Log.Error("Failed to list items", "identity", identity, "error", err)
		return nil, toAppError(err, "Failed to retrieve items")
	}

	visible := slices.DeleteFunc(items, func(item *model.Item) bool { return !item.IsStakeholder(identity) })
	return model.NewItemViews(visible), nil
}

func (s *itemService) Delete(ctx context.Context, id, requester string) error {
	if err := s.checkID(id); err != nil {
		return toAppError(err, "")
	}
	requester = sanitizer.NormalizeIdentity(requester)

	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return toAppError(err, "Failed to retrieve item")
	}
	if item.CreatedBy != requester {
		return toAppError(itemserrors.ErrNotOwner, "")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		s.cfg.Log.Error("Failed to delete item", "id", id, "error", err)
		return toAppError(err, "Failed to delete item")
	}

	s.cfg.Log.Info("Item deleted successfully", "id", id, "owner", requester)
	return nil
}

func (s *itemService) Rename(ctx context.Context, id, owner string, req *model.RenameItemRequest) (*Result, error) {
	owner = sanitizer.NormalizeIdentity(owner)
	req.Name = sanitizer.NormalizeItemName(req.Name)
	if err := s.validator.ValidateRename(req); err != nil {
		return nil, toAppError(err, "")
	}

	item, events, changed, err := s.mutate(ctx, id, func(item *model.Item, _ time.Time) (composeFunc, error) {
		if item.CreatedBy != owner {
			return nil, itemserrors.ErrNotOwner
		}
		if item.Name == req.Name {
			return nil, errUnchanged
		}
		item.Name = req.Name
		return nil, nil
	})
	if err != nil {
		s.cfg.Log.Warn("Rename rejected", "id", id, "owner", owner, "error", err)
		return nil, toAppError(err, "Failed to rename item")
	}
	if !changed {
		return s.current(ctx, id)
	}

	s.cfg.Log.Info("Item renamed successfully", "id", id, "name", item.Name)
	return s.result(item, events), nil
}

func (s *itemService) Share(ctx context.Context, id, owner string, req *model.ShareRequest) (*Result, error) {
	owner = sanitizer.NormalizeIdentity(owner)
	req.Identity = sanitizer.NormalizeIdentity(req.Identity)
	if err := s.validator.ValidateShare(req); err != nil {
		return nil, toAppError(err, "")
	}

	item, events, _, err := s.mutate(ctx, id, func(item *model.Item, _ time.Time) (composeFunc, error) {
		if item.CreatedBy != owner {
			return nil, itemserrors.ErrNotOwner
		}
		if item.IsStakeholder(req.Identity) {
			return nil, itemserrors.ErrAlreadyShared
		}
		item.SharedWith = append(item.SharedWith, req.Identity)
		return nil, nil
	})
	if err != nil {
		s.cfg.Log.Warn("Share rejected", "id", id, "identity", req.Identity, "error", err)
		return nil, toAppError(err, "Failed to share item")
	}

	s.cfg.Log.Info("Item shared successfully", "id", id, "identity", req.Identity)
	return s.result(item, events), nil
}

func (s *itemService) Unshare(ctx context.Context, id, requester, identity string) (*Result, error) {
	requester = sanitizer.NormalizeIdentity(requester)
	identity = sanitizer.NormalizeIdentity(identity)

	remove := removeIdentity(s.core, identity, true)
	item, events, _, err := s.mutate(ctx, id, func(item *model.Item, now time.Time) (composeFunc, error) {
		if item.CreatedBy != requester && requester != identity {
			return nil, itemserrors.ErrNotOwner
		}
		if !slices.Contains(item.SharedWith, identity) {
			return nil, itemserrors.ErrNotShared
		}
		return remove(item, now)
	})
	if err != nil {
		s.cfg.Log.Warn("Unshare rejected", "id", id, "identity", identity, "error", err)
		return nil, toAppError(err, "Failed to unshare item")
	}

	s.cfg.Log.Info("Item unshared successfully", "id", id, "identity", identity, "requester", requester)
	return s.result(item, events), nil
}

// AccountCleanup reports what DeleteAccount got through. Rerunning it
// picks up whatever failed.
type AccountCleanup struct {
	DeletedItems []string `json:"deleted_items"`
	CleanedItems []string `json:"cleaned_items"`
	Failed       int      `json:"failed"`
}

func (s *itemService) DeleteAccount(ctx context.Context, identity string) (*AccountCleanup, error) {
	identity = sanitizer.NormalizeIdentity(identity)
	if err := s.validator.ValidateIdentity(identity); err != nil {
		return nil, toAppError(err, "")
	}

	cleanup := &AccountCleanup{DeletedItems: []string{}, CleanedItems: []string{}}

	owned, err := s.repo.FindCreatedBy(ctx, identity)
	if err != nil {
		return nil, toAppError(err, "Failed to find owned items")
	}
	for _, id := range owned {
		if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, itemserrors.ErrItemNotFound) {
			s.cfg.Log.Error("Failed to delete owned item", "id", id, "identity", identity, "error", err)
			cleanup.Failed++
			continue
		}
		cleanup.DeletedItems = append(cleanup.DeletedItems, id)
	}

	mentioned, err := s.repo.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, toAppError(err, "Failed to find shared items")
	}
	remove := removeIdentity(s.core, identity, true)
	for _, found := range mentioned {
		if found.CreatedBy == identity {
			continue
		}
		_, _, changed, err := s.mutate(ctx, found.ID, remove)
		if err != nil {
			if errors.Is(err, itemserrors.ErrItemNotFound) {
				continue
			}
			s.cfg.Log.Error("Failed to remove identity from item", "id", found.ID, "identity", identity, "error", err)
			cleanup.Failed++
			continue
		}
		if changed {
			cleanup.CleanedItems = append(cleanup.CleanedItems, found.ID)
		}
	}

	if s.inbox != nil {
		if err := s.inbox.DeleteInbox(ctx, identity); err != nil {
			s.cfg.Log.Error("Failed to delete notification inbox", "identity", identity, "error", err)
			cleanup.Failed++
		}
	}

	s.cfg.Log.Info("Account cleanup finished",
		"identity", identity,
		"deleted_items", len(cleanup.DeletedItems),
		"cleaned_items", len(cleanup.CleanedItems),
		"failed", cleanup.Failed,
	)
	return cleanup, nil
}
