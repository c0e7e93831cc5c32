package service

import (
	"context"
	"time"

	itemserrors "itemshare/internal/items/errors"
	"itemshare/internal/items/repository"
	"itemshare/internal/items/timeline"
	"itemshare/internal/items/validator"
	"itemshare/internal/notifications"
	"itemshare/pkg/config"
	"itemshare/pkg/model"
	"itemshare/pkg/sanitizer"
)

type ReservationService interface {
	ReserveImmediate(ctx context.Context, id, requester string, req *model.ImmediateReservationRequest) (*Result, error)
	ReserveScheduled(ctx context.Context, id, requester string, req *model.ScheduledReservationRequest) (*Result, error)
	Relinquish(ctx context.Context, id, requester string) (*Result, error)
	Cancel(ctx context.Context, id, requester string, index int) (*Result, error)
	// RemoveIdentity releases and cancels everything identity holds on the
	// item without touching who it is shared with.
	RemoveIdentity(ctx context.Context, id, identity string) (*Result, error)
}

type reservationService struct {
	*core
}

func NewReservationService(
	repo repository.ItemRepository,
	validator *validator.ItemValidator,
	composer *notifications.Composer,
	dispatcher *notifications.Dispatcher,
	cfg *config.Config,
	opts ...Option,
) ReservationService {
	return &reservationService{core: newCore(repo, validator, composer, dispatcher, cfg, opts)}
}

func (s *reservationService) ReserveImmediate(ctx context.Context, id, requester string, req *model.ImmediateReservationRequest) (*Result, error) {
	requester = sanitizer.NormalizeIdentity(requester)
	if err := s.validator.ValidateImmediate(req); err != nil {
		s.cfg.Log.Warn("Immediate reservation validation failed", "id", id, "error", err)
		return nil, toAppError(err, "")
	}

	item, events, _, err := s.mutate(ctx, id, func(item *model.Item, now time.Time) (composeFunc, error) {
		if !item.IsStakeholder(requester) {
			return nil, itemserrors.ErrNotStakeholder
		}
		next, err := timeline.ReserveImmediate(item.Timeline, requester, req.Until, now, s.policy)
		if err != nil {
			return nil, err
		}
		item.Timeline = next
		return func(ctx context.Context, item *model.Item, now time.Time) []notifications.Event {
			return s.composer.ImmediateReserved(ctx, item, requester, req.Until, now)
		}, nil
	})
	if err != nil {
		s.cfg.Log.Warn("Immediate reservation rejected", "id", id, "requester", requester, "error", err)
		return nil, toAppError(err, "Failed to reserve item")
	}

	s.cfg.Log.Info("Immediate reservation created successfully",
		"id", id,
		"holder", requester,
		"until", req.Until,
	)
	return s.result(item, events), nil
}

func (s *reservationService) ReserveScheduled(ctx context.Context, id, requester string, req *model.ScheduledReservationRequest) (*Result, error) {
	requester = sanitizer.NormalizeIdentity(requester)
	if err := s.validator.ValidateScheduled(req); err != nil {
		s.cfg.Log.Warn("Scheduled reservation validation failed", "id", id, "error", err)
		return nil, toAppError(err, "")
	}

	var index int
	item, events, _, err := s.mutate(ctx, id, func(item *model.Item, now time.Time) (composeFunc, error) {
		if !item.IsStakeholder(requester) {
			return nil, itemserrors.ErrNotStakeholder
		}
		next, idx, err := timeline.ReserveScheduled(item.Timeline, requester, req.Start, req.End, now, s.policy)
		if err != nil {
			return nil, err
		}
		item.Timeline = next
		index = idx
		iv := timeline.Interval{Holder: requester, Start: req.Start, End: req.End}
		return func(ctx context.Context, item *model.Item, now time.Time) []notifications.Event {
			return s.composer.ScheduledReserved(ctx, item, iv, now)
		}, nil
	})
	if err != nil {
		s.cfg.Log.Warn("Scheduled reservation rejected", "id", id, "requester", requester, "error", err)
		return nil, toAppError(err, "Failed to schedule reservation")
	}

	s.cfg.Log.Info("Scheduled reservation created successfully",
		"id", id,
		"holder", requester,
		"start", req.Start,
		"end", req.End,
		"queue_index", index,
	)
	return s.result(item, events), nil
}

func (s *reservationService) Relinquish(ctx context.Context, id, requester string) (*Result, error) {
	requester = sanitizer.NormalizeIdentity(requester)

	item, events, _, err := s.mutate(ctx, id, func(item *model.Item, now time.Time) (composeFunc, error) {
		next, transition, err := timeline.Relinquish(item.Timeline, requester, now)
		if err != nil {
			return nil, err
		}
		item.Timeline = next
		return func(ctx context.Context, item *model.Item, now time.Time) []notifications.Event {
			return s.composer.Transitions(ctx, item, []timeline.Transition{transition}, now)
		}, nil
	})
	if err != nil {
		s.cfg.Log.Warn("Relinquish rejected", "id", id, "requester", requester, "error", err)
		return nil, toAppError(err, "Failed to relinquish item")
	}

	s.cfg.Log.Info("Item relinquished successfully", "id", id, "holder", requester)
	return s.result(item, events), nil
}

func (s *reservationService) Cancel(ctx context.Context, id, requester string, index int) (*Result, error) {
	requester = sanitizer.NormalizeIdentity(requester)

	var removed timeline.Interval
	item, events, _, err := s.mutate(ctx, id, func(item *model.Item, now time.Time) (composeFunc, error) {
		if !item.IsStakeholder(requester) {
			return nil, itemserrors.ErrNotStakeholder
		}
		queue := item.Timeline.QueuedIntervals()
		if index < 0 || index >= len(queue) {
			return nil, itemserrors.ErrReservationNotFound
		}
		if queue[index].Holder != requester && item.CreatedBy != requester {
			return nil, itemserrors.ErrNotReservationOwner
		}
		next, iv, err := timeline.Cancel(item.Timeline, index)
		if err != nil {
			return nil, err
		}
		item.Timeline = next
		removed = iv
		return func(ctx context.Context, item *model.Item, now time.Time) []notifications.Event {
			return s.composer.Canceled(ctx, item, requester, now)
		}, nil
	})
	if err != nil {
		s.cfg.Log.Warn("Cancel rejected", "id", id, "requester", requester, "queue_index", index, "error", err)
		return nil, toAppError(err, "Failed to cancel reservation")
	}

	s.cfg.Log.Info("Reservation canceled successfully",
		"id", id,
		"canceled_by", requester,
		"holder", removed.Holder,
		"queue_index", index,
	)
	return s.result(item, events), nil
}

func (s *reservationService) RemoveIdentity(ctx context.Context, id, identity string) (*Result, error) {
	identity = sanitizer.NormalizeIdentity(identity)
	if err := s.validator.ValidateIdentity(identity); err != nil {
		return nil, toAppError(err, "")
	}

	item, events, changed, err := s.mutate(ctx, id, removeIdentity(s.core, identity, false))
	if err != nil {
		s.cfg.Log.Error("Failed to remove identity from item", "id", id, "identity", identity, "error", err)
		return nil, toAppError(err, "Failed to remove identity")
	}
	if !changed {
		return s.current(ctx, id)
	}

	s.cfg.Log.Info("Identity removed from item successfully", "id", id, "identity", identity)
	return s.result(item, events), nil
}

// removeIdentity strips identity from the timeline and, when unshare is
// set, from the share list as well.
func removeIdentity(c *core, identity string, unshare bool) mutation {
	return func(item *model.Item, now time.Time) (composeFunc, error) {
		next, removal := timeline.RemoveIdentity(item.Timeline, identity)
		shared := len(item.SharedWith)
		if unshare {
			item.SharedWith = sanitizer.WithoutIdentity(item.SharedWith, identity)
		}
		if !removal.Changed() && shared == len(item.SharedWith) {
			return nil, errUnchanged
		}
		item.Timeline = next
		if !removal.Changed() {
			return nil, nil
		}
		return func(ctx context.Context, item *model.Item, now time.Time) []notifications.Event {
			return c.composer.Removed(ctx, item, identity, removal, now)
		}, nil
	}
}

// current loads the item for callers whose mutation turned out to be a
// no-op.
func (c *core) current(ctx context.Context, id string) (*Result, error) {
	item, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, toAppError(err, "Failed to retrieve item")
	}
	return c.result(item, nil), nil
}
