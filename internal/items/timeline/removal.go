package timeline

import (
	itemserrors "itemshare/internal/items/errors"
	"slices"
	"time"
)

// Cancel removes the queued interval at index. Ownership is checked by the
// caller, which knows who created the item.
func Cancel(t Timeline, index int) (Timeline, Interval, error) {
	if index < 0 || index >= len(t.Queue) {
		return t, Interval{}, itemserrors.ErrReservationNotFound
	}
	next := t.Clone()
	removed := next.Queue[index]
	next.Queue = slices.Delete(next.Queue, index, index+1)
	return next, removed, nil
}

// Relinquish ends holder's part of the current hold ahead of time. The
// occupancy is released once no holders remain.
func Relinquish(t Timeline, holder string, now time.Time) (Timeline, Transition, error) {
	if !t.IsHolder(holder) {
		return t, Transition{}, itemserrors.ErrNotHolder
	}
	next := t.Clone()
	transition := Transition{
		Kind:    Relinquished,
		Variant: t.Occupancy.Kind,
		Holders: []string{holder},
		At:      now,
	}
	next.Occupancy.Holders = withoutHolder(next.Occupancy.Holders, holder)
	if len(next.Occupancy.Holders) == 0 {
		next.Occupancy = Occupancy{Kind: Free}
	}
	return next, transition, nil
}

// Removal summarises what RemoveIdentity took out of a timeline.
type Removal struct {
	ReleasedHold bool
	Variant      OccupancyKind
	Canceled     []Interval
}

func (r Removal) Changed() bool {
	return r.ReleasedHold || len(r.Canceled) > 0
}

// RemoveIdentity drops identity from the current hold, releasing it the way
// an expiry would, and deletes every queued interval it owns.
func RemoveIdentity(t Timeline, identity string) (Timeline, Removal) {
	next := t.Clone()
	var removal Removal

	if next.IsHolder(identity) {
		removal.ReleasedHold = true
		removal.Variant = next.Occupancy.Kind
		next.Occupancy.Holders = withoutHolder(next.Occupancy.Holders, identity)
		if len(next.Occupancy.Holders) == 0 {
			next.Occupancy = Occupancy{Kind: Free}
		}
	}

	for {
		i := slices.IndexFunc(next.Queue, func(iv Interval) bool { return iv.Holder == identity })
		if i < 0 {
			break
		}
		removal.Canceled = append(removal.Canceled, next.Queue[i])
		next.Queue = slices.Delete(next.Queue, i, i+1)
	}

	return next, removal
}
