package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"itemshare/internal/items/repository"
	"itemshare/internal/items/validator"
	"itemshare/internal/notifications"
	"itemshare/pkg/config"
	apperrors "itemshare/pkg/errors"
	"itemshare/pkg/logger"
	"itemshare/pkg/model"

	"github.com/stretchr/testify/require"
)

const (
	owner = "owner@example.com"
	alice = "alice@example.com"
	bob   = "bob@example.com"
	carol = "carol@example.com"

	unknownID = "4f1c2b8e-0d7a-4c1e-9a54-7b1f0f6d2c11"
)

var base = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func ptr(t time.Time) *time.Time {
	return &t
}

type recordingSink struct {
	mu     sync.Mutex
	events []notifications.Event
}

func (s *recordingSink) Deliver(_ context.Context, events []notifications.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

func (s *recordingSink) take() []notifications.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.events
	s.events = nil
	return out
}

type recordingInbox struct {
	deleted []string
}

func (r *recordingInbox) DeleteInbox(_ context.Context, recipient string) error {
	r.deleted = append(r.deleted, recipient)
	return nil
}

type fixture struct {
	repo     *repository.MemoryRepository
	sink     *recordingSink
	inbox    *recordingInbox
	items    ItemService
	reserve  ReservationService
	advancer AdvancerService
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.Discard()
	cfg := &config.Config{
		MinGap:              5 * time.Minute,
		MinLeadTime:         4 * time.Minute,
		MinDuration:         4 * time.Minute,
		StoreMaxAttempts:    3,
		StoreRetryBaseDelay: time.Millisecond,
		StoreRetryMaxDelay:  2 * time.Millisecond,
		AdvancerBatchLimit:  2,
		Log:                 log,
	}

	f := &fixture{
		repo:  repository.NewMemoryRepository(),
		sink:  &recordingSink{},
		inbox: &recordingInbox{},
		clock: base,
	}
	v := validator.NewItemValidator(log)
	composer := notifications.NewComposer(notifications.IdentityAsName, time.UTC, log)
	dispatcher := notifications.NewDispatcher(f.sink, time.Second, log)
	opts := []Option{WithClock(func() time.Time { return f.clock }), WithInbox(f.inbox)}

	f.items = NewItemService(f.repo, v, composer, dispatcher, cfg, opts...)
	f.reserve = NewReservationService(f.repo, v, composer, dispatcher, cfg, opts...)
	f.advancer = NewAdvancerService(f.repo, composer, dispatcher, cfg, opts...)
	return f
}

func (f *fixture) createDrill(t *testing.T) string {
	t.Helper()
	view, err := f.items.Create(context.Background(), owner, &model.CreateItemRequest{
		Name:       " Drill ",
		SharedWith: []string{"Alice@example.com", bob, owner},
	})
	require.NoError(t, err)
	return view.ID
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	require.Error(t, err)
	return apperrors.AsAppError(err).StatusCode()
}

func recipientsOf(events []notifications.Event, message string) []string {
	var out []string
	for _, e := range events {
		if e.Message == message {
			out = append(out, e.Recipient)
		}
	}
	return out
}
