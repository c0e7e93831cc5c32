package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	itemserrors "itemshare/internal/items/errors"
	"itemshare/internal/items/repository"
	"itemshare/internal/items/timeline"
	"itemshare/internal/items/validator"
	"itemshare/internal/notifications"
	"itemshare/pkg/config"
	"itemshare/pkg/model"
)

// Result is the committed item plus the notifications its change produced.
type Result struct {
	Item          *model.ItemView
	Notifications []notifications.Event
}

// InboxRemover drops an identity's stored notifications.
type InboxRemover interface {
	DeleteInbox(ctx context.Context, recipient string) error
}

type Option func(*core)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *core) { c.now = now }
}

// WithInbox lets account deletion clear the identity's notification inbox.
func WithInbox(inbox InboxRemover) Option {
	return func(c *core) { c.inbox = inbox }
}

// core holds what every service in this package shares: the store, the
// notification pipeline, the policy and the retry loop.
type core struct {
	repo       repository.ItemRepository
	validator  *validator.ItemValidator
	composer   *notifications.Composer
	dispatcher *notifications.Dispatcher
	inbox      InboxRemover
	cfg        *config.Config
	policy     timeline.Policy
	retry      retryConfig
	now        func() time.Time
}

func newCore(
	repo repository.ItemRepository,
	validator *validator.ItemValidator,
	composer *notifications.Composer,
	dispatcher *notifications.Dispatcher,
	cfg *config.Config,
	opts []Option,
) *core {
	c := &core{
		repo:       repo,
		validator:  validator,
		composer:   composer,
		dispatcher: dispatcher,
		cfg:        cfg,
		policy:     cfg.Policy(),
		retry: retryConfig{
			maxAttempts: max(cfg.StoreMaxAttempts, 1),
			baseDelay:   cfg.StoreRetryBaseDelay,
			maxDelay:    cfg.StoreRetryMaxDelay,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// composeFunc builds notifications from the committed item.
type composeFunc func(ctx context.Context, item *model.Item, now time.Time) []notifications.Event

// mutation changes item in place at now and says how to announce it.
// Returning errUnchanged skips the write.
type mutation func(item *model.Item, now time.Time) (composeFunc, error)

var errUnchanged = errors.New("item unchanged")

// checkID rejects malformed item IDs before they reach the store. IDs the
// advancer reads back from the store are trusted.
func (c *core) checkID(id string) error {
	if c.validator == nil {
		return nil
	}
	if err := c.validator.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %q", itemserrors.ErrInvalidID, id)
	}
	return nil
}

// mutate runs fn inside one store transaction, retrying when another writer
// got there first. Elapsed holds and due reservations are applied before fn
// sees the item, so fn always works on the timeline as of now.
func (c *core) mutate(ctx context.Context, id string, fn mutation) (*model.Item, []notifications.Event, bool, error) {
	if err := c.checkID(id); err != nil {
		return nil, nil, false, err
	}

	var (
		compose     composeFunc
		transitions []timeline.Transition
		now         time.Time
	)

	var committed *model.Item
	err := retryOp(ctx, c.retry, func() error {
		compose, transitions = nil, nil
		now = c.now()

		item, err := c.repo.Update(ctx, id, func(item *model.Item) error {
			before := item.Timeline
			item.Timeline, transitions = timeline.Advance(item.Timeline, now)

			var fnErr error
			compose, fnErr = fn(item, now)
			if errors.Is(fnErr, errUnchanged) && len(transitions) > 0 {
				fnErr = nil
			}
			if fnErr != nil {
				return fnErr
			}
			return c.checkInvariants(id, before, item.Timeline)
		})
		if err != nil {
			return err
		}
		committed = item
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}

	var events []notifications.Event
	if len(transitions) > 0 {
		events = append(events, c.composer.Transitions(ctx, committed, transitions, now)...)
	}
	if compose != nil {
		events = append(events, compose(ctx, committed, now)...)
	}
	c.dispatcher.Dispatch(ctx, events)

	return committed, events, true, nil
}

// checkInvariants refuses to write a broken timeline produced from a sound
// one. A timeline that was already broken in storage is left to the
// operator rather than blocking every further write.
func (c *core) checkInvariants(id string, before, after timeline.Timeline) error {
	if timeline.Validate(before, c.policy.MinGap) != nil {
		c.cfg.Log.Warn("Stored timeline already violates invariants", "id", id)
		return nil
	}
	if err := timeline.Validate(after, c.policy.MinGap); err != nil {
		c.cfg.Log.Error("Refusing to store inconsistent timeline", "id", id, "error", err)
		return fmt.Errorf("item %s: %w", id, err)
	}
	return nil
}

func (c *core) result(item *model.Item, events []notifications.Event) *Result {
	return &Result{Item: model.NewItemView(item), Notifications: events}
}
