package service

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"itemshare/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveImmediate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	res, err := f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{})
	require.NoError(t, err)
	require.NotNil(t, res.Item.Current)
	assert.Equal(t, "immediate", res.Item.Current.Kind)
	assert.Equal(t, []string{alice}, res.Item.Current.Holders)
	assert.Nil(t, res.Item.Current.Until)

	assert.Equal(t, []string{alice}, recipientsOf(res.Notifications, "You reserved Drill."))
	assert.ElementsMatch(t, []string{owner, bob},
		recipientsOf(res.Notifications, "Drill reserved immediately without expiration by alice@example.com"))

	_, err = f.reserve.ReserveImmediate(ctx, id, bob, &model.ImmediateReservationRequest{})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = f.reserve.ReserveScheduled(ctx, id, bob, &model.ScheduledReservationRequest{Start: at(60), End: at(90)})
	assert.Equal(t, http.StatusConflict, statusOf(t, err))
	assert.EqualError(t, err, "CONFLICT: item held indefinitely")
}

func TestReserve_RequiresStakeholder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	_, err := f.reserve.ReserveImmediate(ctx, id, carol, &model.ImmediateReservationRequest{})
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.reserve.ReserveImmediate(ctx, unknownID, alice, &model.ImmediateReservationRequest{})
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))

	_, err = f.reserve.ReserveImmediate(ctx, "", alice, &model.ImmediateReservationRequest{})
	assert.Equal(t, http.StatusBadRequest, statusOf(t, err))
}

func TestReserveScheduled_ValidationAndConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	tests := []struct {
		name       string
		start, end int
		wantStatus int
		wantErr    string
	}{
		{"starts too soon", 2, 30, http.StatusUnprocessableEntity, "VALIDATION_ERROR: start is too soon"},
		{"too short", 10, 12, http.StatusUnprocessableEntity, "VALIDATION_ERROR: reservation is too short"},
		{"end before start", 30, 20, http.StatusUnprocessableEntity, "VALIDATION_ERROR: Invalid request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reserve.ReserveScheduled(ctx, id, alice, &model.ScheduledReservationRequest{Start: at(tt.start), End: at(tt.end)})
			assert.Equal(t, tt.wantStatus, statusOf(t, err))
			assert.EqualError(t, err, tt.wantErr)
		})
	}

	res, err := f.reserve.ReserveScheduled(ctx, id, alice, &model.ScheduledReservationRequest{Start: at(60), End: at(90)})
	require.NoError(t, err)
	require.Len(t, res.Item.Queue, 1)
	assert.ElementsMatch(t, []string{owner, bob}, recipientsOf(res.Notifications,
		"Drill scheduled reservation by alice@example.com from March 2, 11:00 AM to March 2, 11:30 AM"))
	assert.Empty(t, recipientsOf(res.Notifications, "You reserved Drill."))

	_, err = f.reserve.ReserveScheduled(ctx, id, bob, &model.ScheduledReservationRequest{Start: at(92), End: at(100)})
	assert.EqualError(t, err, "CONFLICT: slot conflicts or insufficient gap")

	res, err = f.reserve.ReserveScheduled(ctx, id, bob, &model.ScheduledReservationRequest{Start: at(20), End: at(50)})
	require.NoError(t, err)
	assert.Equal(t, bob, res.Item.Queue[0].Holder)
	assert.Equal(t, 1, res.Item.Queue[1].Index)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	_, err := f.reserve.ReserveScheduled(ctx, id, alice, &model.ScheduledReservationRequest{Start: at(60), End: at(90)})
	require.NoError(t, err)
	_, err = f.reserve.ReserveScheduled(ctx, id, bob, &model.ScheduledReservationRequest{Start: at(120), End: at(150)})
	require.NoError(t, err)

	_, err = f.reserve.Cancel(ctx, id, bob, 0)
	assert.Equal(t, http.StatusForbidden, statusOf(t, err))

	_, err = f.reserve.Cancel(ctx, id, bob, 5)
	assert.Equal(t, http.StatusNotFound, statusOf(t, err))
	assert.EqualError(t, err, "NOT_FOUND: reservation not found (caused by: reservation not found)")

	res, err := f.reserve.Cancel(ctx, id, bob, 1)
	require.NoError(t, err)
	require.Len(t, res.Item.Queue, 1)
	assert.ElementsMatch(t, []string{owner, alice}, recipientsOf(res.Notifications, "Reservation for item Drill has been canceled."))

	res, err = f.reserve.Cancel(ctx, id, owner, 0)
	require.NoError(t, err)
	assert.Empty(t, res.Item.Queue)
}

func TestRelinquish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	_, err := f.reserve.Relinquish(ctx, id, alice)
	assert.Equal(t, http.StatusConflict, statusOf(t, err))

	_, err = f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{Until: ptr(at(45))})
	require.NoError(t, err)

	res, err := f.reserve.Relinquish(ctx, id, alice)
	require.NoError(t, err)
	assert.True(t, res.Item.Available)
	assert.Equal(t, []string{alice}, recipientsOf(res.Notifications, "You have relinquished item Drill."))
	assert.ElementsMatch(t, []string{owner, bob}, recipientsOf(res.Notifications, "Drill has been relinquished by alice@example.com."))
}

func TestRemoveIdentity_KeepsSharing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	_, err := f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{Until: ptr(at(30))})
	require.NoError(t, err)

	res, err := f.reserve.RemoveIdentity(ctx, id, alice)
	require.NoError(t, err)
	assert.True(t, res.Item.Available)
	assert.Equal(t, []string{alice, bob}, res.Item.SharedWith)

	again, err := f.reserve.RemoveIdentity(ctx, id, alice)
	require.NoError(t, err)
	assert.Empty(t, again.Notifications)
}

func TestReserve_ExpiredHoldIsReleasedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	_, err := f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{Until: ptr(at(30))})
	require.NoError(t, err)

	f.clock = at(40)
	res, err := f.reserve.ReserveImmediate(ctx, id, bob, &model.ImmediateReservationRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{bob}, res.Item.Current.Holders)
	assert.Equal(t, []string{alice}, recipientsOf(res.Notifications, "Your reservation for Drill has ended."))
	assert.Equal(t, []string{bob}, recipientsOf(res.Notifications, "You reserved Drill."))
}

func TestReserve_RetriesConcurrentWriter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	interfered := 0
	f.repo.OnBeforeCommit(func(id string) {
		if interfered > 0 {
			return
		}
		interfered++
		_, err := f.items.Share(ctx, id, owner, &model.ShareRequest{Identity: carol})
		require.NoError(t, err)
	})

	res, err := f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{alice}, res.Item.Current.Holders)
	assert.Contains(t, res.Item.SharedWith, carol)
}

func TestReserve_GivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	busy := false
	f.repo.OnBeforeCommit(func(id string) {
		if busy {
			return
		}
		busy = true
		defer func() { busy = false }()
		_, err := f.repo.Update(ctx, id, func(item *model.Item) error { return nil })
		require.NoError(t, err)
	})

	_, err := f.reserve.ReserveImmediate(ctx, id, alice, &model.ImmediateReservationRequest{})
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))

	f.repo.OnBeforeCommit(nil)
	view, err := f.items.GetByID(ctx, id, alice)
	require.NoError(t, err)
	assert.True(t, view.Available)
}

func TestReserve_ConcurrentRequestsSingleWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDrill(t)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i, who := range []string{owner, alice, bob} {
		wg.Add(1)
		go func(i int, who string) {
			defer wg.Done()
			_, errs[i] = f.reserve.ReserveImmediate(ctx, id, who, &model.ImmediateReservationRequest{})
		}(i, who)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.Contains(t, []int{http.StatusConflict, http.StatusServiceUnavailable}, statusOf(t, err))
	}
	assert.Equal(t, 1, wins)

	view, err := f.items.GetByID(ctx, id, owner)
	require.NoError(t, err)
	assert.Len(t, view.Current.Holders, 1)
}
