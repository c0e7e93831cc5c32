package service

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"testing"
	"time"

	itemserrors "itemshare/internal/items/errors"
	apperrors "itemshare/pkg/errors"
	"itemshare/pkg/logger"
	"itemshare/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_EndsAndStartsReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	_, err := f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{Until: ptr(at(30))})
	require.NoError(t, err)
	_, err = f.reserve.ReserveScheduled(ctx, id, bob, &model.ScheduledReservationRequest{Start: at(40), End: at(70)})
	require.NoError(t, err)
	f.sink.take()

	f.clock = at(10)
	summary, err := f.advancer.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, AdvanceSummary{}, *summary)

	f.clock = at(31)
	summary, err = f.advancer.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Mutated)
	events := f.sink.take()
	assert.Equal(t, []string{alice}, recipientsOf(events, "Your reservation for Drill has ended."))
	assert.ElementsMatch(t, []string{owner, bob}, recipientsOf(events, "Drill has been released by alice@example.com."))

	f.clock = at(41)
	_, err = f.advancer.Advance(ctx)
	require.NoError(t, err)
	events = f.sink.take()
	assert.Equal(t, []string{bob}, recipientsOf(events, "Your reservation for Drill has started."))

	view, err := f.items.GetByID(ctx, id, owner)
	require.NoError(t, err)
	assert.Equal(t, "scheduled", view.Current.Kind)
	assert.Equal(t, []string{bob}, view.Current.Holders)

	doc, ok := f.repo.Document(id)
	require.True(t, ok)
	assert.True(t, doc.NeedsScheduledEndUpdate)
	assert.Equal(t, ptr(at(70)), doc.NextWakeAt)
}

func TestAdvance_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	_, err := f.reserve.ReserveScheduled(ctx, id, alice, &model.ScheduledReservationRequest{Start: at(10), End: at(20)})
	require.NoError(t, err)

	f.clock = at(15)
	first, err := f.advancer.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Mutated)

	before, _ := f.repo.Document(id)
	second, err := f.advancer.Advance(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.Mutated)
	assert.Zero(t, second.Scanned)

	after, _ := f.repo.Document(id)
	assert.Equal(t, before, after)
}

func TestAdvance_CatchesUpSeveralBoundaries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	_, err := f.reserve.ReserveScheduled(ctx, id, alice, &model.ScheduledReservationRequest{Start: at(10), End: at(20)})
	require.NoError(t, err)
	_, err = f.reserve.ReserveScheduled(ctx, id, bob, &model.ScheduledReservationRequest{Start: at(30), End: at(40)})
	require.NoError(t, err)
	f.sink.take()

	f.clock = at(35)
	summary, err := f.advancer.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Mutated)

	events := f.sink.take()
	assert.Equal(t, []string{alice, bob}, recipientsOf(events, "Your reservation for Drill has started."))
	assert.Equal(t, []string{alice}, recipientsOf(events, "Your scheduled reservation for Drill has ended."))

	view, err := f.items.GetByID(ctx, id, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{bob}, view.Current.Holders)
	assert.Empty(t, view.Queue)
}

func TestAdvance_WorksThroughBatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := f.createDrill(t)
		_, err := f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{Until: ptr(at(10))})
		require.NoError(t, err)
	}

	f.clock = at(11)
	summary, err := f.advancer.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Scanned)
	assert.Equal(t, 5, summary.Mutated)
	assert.Zero(t, summary.Failed)
}

func TestAdvance_FailingItemsDoNotHideTheRest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		id := f.createDrill(t)
		_, err := f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{Until: ptr(at(10))})
		require.NoError(t, err)
		ids = append(ids, id)
	}
	sort.Strings(ids)
	stuck := map[string]bool{ids[0]: true, ids[1]: true}
	healthy := ids[2]

	busy := false
	f.repo.OnBeforeCommit(func(id string) {
		if busy || !stuck[id] {
			return
		}
		busy = true
		defer func() { busy = false }()
		_, err := f.repo.Update(ctx, id, func(item *model.Item) error { return nil })
		require.NoError(t, err)
	})

	f.clock = at(11)
	summary, err := f.advancer.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 1, summary.Mutated)
	assert.Equal(t, 2, summary.Failed)

	doc, ok := f.repo.Document(healthy)
	require.True(t, ok)
	assert.Nil(t, doc.NextWakeAt)
	view, err := f.items.GetByID(ctx, healthy, alice)
	require.NoError(t, err)
	assert.True(t, view.Available)
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantMsg    string
	}{
		{itemserrors.ErrItemNotFound, http.StatusNotFound, "Item not found"},
		{fmtWrap(itemserrors.ErrSlotConflict), http.StatusConflict, "slot conflicts or insufficient gap"},
		{fmtWrap(itemserrors.ErrStartTooSoon), http.StatusUnprocessableEntity, "start is too soon"},
		{itemserrors.ErrNotOwner, http.StatusForbidden, "requester does not own the item"},
		{itemserrors.ErrConcurrentModification, http.StatusServiceUnavailable, "Item store is busy, please retry"},
		{fmtWrap(itemserrors.ErrInvariantViolated), http.StatusInternalServerError, "fallback"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "Request timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			appErr := apperrors.AsAppError(toAppError(tt.err, "fallback"))
			assert.Equal(t, tt.wantStatus, appErr.StatusCode())
			assert.Equal(t, tt.wantMsg, appErr.Message)
			assert.NotContains(t, appErr.Message, "index")
		})
	}
}

func fmtWrap(err error) error {
	return errors.Join(err, errors.New("at queue index 3"))
}

func TestBackoffDelay(t *testing.T) {
	cfg := retryConfig{maxAttempts: 5, baseDelay: 10 * time.Millisecond, maxDelay: 50 * time.Millisecond}

	for attempt := 0; attempt < 8; attempt++ {
		d := backoffDelay(cfg, attempt)
		assert.GreaterOrEqual(t, d, cfg.baseDelay)
		assert.Less(t, d, cfg.maxDelay+cfg.baseDelay)
	}
	assert.Zero(t, backoffDelay(retryConfig{}, 3))
}

func TestRetryOp_StopsOnOtherErrors(t *testing.T) {
	cfg := retryConfig{maxAttempts: 4, baseDelay: time.Microsecond, maxDelay: time.Microsecond}
	calls := 0

	err := retryOp(context.Background(), cfg, func() error {
		calls++
		if calls == 1 {
			return itemserrors.ErrConcurrentModification
		}
		return itemserrors.ErrUnavailable
	})
	assert.ErrorIs(t, err, itemserrors.ErrUnavailable)
	assert.Equal(t, 2, calls)

	calls = 0
	err = retryOp(context.Background(), cfg, func() error {
		calls++
		return itemserrors.ErrConcurrentModification
	})
	assert.ErrorIs(t, err, itemserrors.ErrConcurrentModification)
	assert.Equal(t, 4, calls)
}

func TestRunner(t *testing.T) {
	f := newFixture(t)
	log := logger.Discard()

	_, err := NewRunner(f.advancer, "not a schedule", time.UTC, time.Second, log)
	assert.Error(t, err)

	runner, err := NewRunner(f.advancer, "@every 1h", nil, time.Second, log)
	require.NoError(t, err)
	runner.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, runner.Stop(ctx))
}
