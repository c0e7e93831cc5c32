package timeline

import (
	itemserrors "itemshare/internal/items/errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenario_IndefiniteImmediateBlocksSecondHolder(t *testing.T) {
	p := DefaultPolicy()

	tl, err := ReserveImmediate(Timeline{}, "alice@example.com", nil, base, p)
	require.NoError(t, err)

	flags := tl.NeedsAttention()
	assert.False(t, flags.Availability)
	assert.False(t, flags.NeedsImmediateUpdate)
	assert.Equal(t, []string{"alice@example.com"}, tl.Occupancy.Holders)

	_, err = ReserveImmediate(tl, "bob@example.com", nil, base, p)
	assert.ErrorIs(t, err, itemserrors.ErrUnavailable)
}

func TestScenario_ScheduledAfterImmediateHoldRespectsGap(t *testing.T) {
	p := DefaultPolicy()
	tl := Timeline{Occupancy: Occupancy{Kind: ImmediateHold, Holders: []string{"alice@example.com"}, End: ptr(at(10))}}

	_, _, err := ReserveScheduled(tl, "carol@example.com", at(12), at(20), base, p)
	assert.ErrorIs(t, err, itemserrors.ErrTooCloseToCurrent)

	got, idx, err := ReserveScheduled(tl, "carol@example.com", at(16), at(24), base, p)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.True(t, got.NeedsAttention().NeedsScheduledStartUpdate)
	assert.True(t, got.NeedsAttention().NeedsImmediateUpdate)
}

func TestScenario_AdvanceStartsQueuedReservation(t *testing.T) {
	tl := Timeline{Queue: []Interval{queued("alice@example.com", 10, 40)}}

	got, transitions := Advance(tl, at(11))
	require.Len(t, transitions, 1)
	assert.Equal(t, Started, transitions[0].Kind)

	flags := got.NeedsAttention()
	assert.False(t, flags.Availability)
	assert.True(t, flags.NeedsScheduledEndUpdate)
	assert.Equal(t, []string{"alice@example.com"}, got.Occupancy.Holders)
}

func TestScenario_RemoveIdentityClearsHoldAndQueue(t *testing.T) {
	p := DefaultPolicy()

	tl, err := ReserveImmediate(Timeline{}, "alice@example.com", ptr(at(30)), base, p)
	require.NoError(t, err)
	tl, _, err = ReserveScheduled(tl, "alice@example.com", at(60), at(90), base, p)
	require.NoError(t, err)
	tl, _, err = ReserveScheduled(tl, "alice@example.com", at(120), at(150), base, p)
	require.NoError(t, err)

	got, removal := RemoveIdentity(tl, "alice@example.com")
	assert.True(t, removal.ReleasedHold)
	assert.Len(t, removal.Canceled, 2)
	assert.True(t, got.Available())
	assert.Empty(t, got.Queue)
	assert.NoError(t, Validate(got, p.MinGap))
}

// Random operation sequences must never leave a timeline that breaks the
// ordering, gap or single-occupancy rules.
func TestRandomOperationsPreserveInvariants(t *testing.T) {
	p := DefaultPolicy()
	rng := rand.New(rand.NewSource(42))
	holders := []string{"alice@example.com", "bob@example.com", "carol@example.com"}

	for run := 0; run < 50; run++ {
		tl := Timeline{}
		now := base

		for step := 0; step < 200; step++ {
			holder := holders[rng.Intn(len(holders))]
			var next Timeline
			var err error

			switch rng.Intn(6) {
			case 0:
				var until *time.Time
				if rng.Intn(3) > 0 {
					until = ptr(now.Add(time.Duration(rng.Intn(120)) * time.Minute))
				}
				next, err = ReserveImmediate(tl, holder, until, now, p)
			case 1, 2:
				start := now.Add(time.Duration(rng.Intn(600)) * time.Minute)
				end := start.Add(time.Duration(rng.Intn(90)) * time.Minute)
				next, _, err = ReserveScheduled(tl, holder, start, end, now, p)
			case 3:
				if len(tl.Queue) > 0 {
					next, _, err = Cancel(tl, rng.Intn(len(tl.Queue)))
				} else {
					next = tl
				}
			case 4:
				next, _, err = Relinquish(tl, holder, now)
				if err != nil {
					next = tl
					err = nil
				}
			case 5:
				now = now.Add(time.Duration(rng.Intn(60)) * time.Minute)
				next, _ = Advance(tl, now)
			}

			if err != nil {
				continue
			}
			require.NoError(t, Validate(next, p.MinGap), "run %d step %d", run, step)
			flags := next.NeedsAttention()
			require.False(t, flags.NeedsImmediateUpdate && flags.NeedsScheduledEndUpdate)
			tl = next
		}
	}
}
