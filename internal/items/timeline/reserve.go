package timeline

import (
	"fmt"
	itemserrors "itemshare/internal/items/errors"
	"slices"
	"sort"
	"time"
)

const (
	DefaultMinGap      = 5 * time.Minute
	DefaultMinLeadTime = 4 * time.Minute
	DefaultMinDuration = 4 * time.Minute
)

// Policy holds the spacing rules applied to new reservations.
type Policy struct {
	MinGap      time.Duration
	MinLeadTime time.Duration
	MinDuration time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MinGap:      DefaultMinGap,
		MinLeadTime: DefaultMinLeadTime,
		MinDuration: DefaultMinDuration,
	}
}

// ReserveImmediate makes holder the current occupant. A nil until holds the
// item until it is released.
func ReserveImmediate(t Timeline, holder string, until *time.Time, now time.Time, p Policy) (Timeline, error) {
	if t.Occupancy.Kind != Free {
		return t, itemserrors.ErrUnavailable
	}
	if until != nil && until.Before(now.Add(p.MinLeadTime)) {
		return t, fmt.Errorf("%w: must end at least %s from now", itemserrors.ErrExpiryTooSoon, p.MinLeadTime)
	}
	if len(t.Queue) > 0 {
		if until == nil {
			return t, itemserrors.ErrTooCloseToNext
		}
		if until.After(t.Queue[0].Start.Add(-p.MinGap)) {
			return t, itemserrors.ErrTooCloseToNext
		}
	}

	next := t.Clone()
	next.Occupancy = Occupancy{
		Kind:    ImmediateHold,
		Holders: withHolder(nil, holder),
		End:     cloneTime(until),
	}
	return next, nil
}

// ReserveScheduled inserts [start, end) into the queue and returns the new
// timeline together with the position the interval was inserted at.
func ReserveScheduled(t Timeline, holder string, start, end, now time.Time, p Policy) (Timeline, int, error) {
	if !start.Before(end) {
		return t, -1, itemserrors.ErrInvalidInterval
	}
	if start.Before(now.Add(p.MinLeadTime)) {
		return t, -1, fmt.Errorf("%w: must start at least %s from now", itemserrors.ErrStartTooSoon, p.MinLeadTime)
	}
	if end.Before(start.Add(p.MinDuration)) {
		return t, -1, fmt.Errorf("%w: must last at least %s", itemserrors.ErrDurationTooShort, p.MinDuration)
	}

	if t.Occupancy.Kind != Free {
		if t.Occupancy.End == nil {
			return t, -1, itemserrors.ErrHeldIndefinitely
		}
		if start.Before(t.Occupancy.End.Add(p.MinGap)) {
			return t, -1, itemserrors.ErrTooCloseToCurrent
		}
	}

	idx := sort.Search(len(t.Queue), func(i int) bool {
		return !t.Queue[i].Start.Before(start)
	})
	if idx > 0 && start.Before(t.Queue[idx-1].End.Add(p.MinGap)) {
		return t, -1, itemserrors.ErrSlotConflict
	}
	if idx < len(t.Queue) && end.Add(p.MinGap).After(t.Queue[idx].Start) {
		return t, -1, itemserrors.ErrSlotConflict
	}

	next := t.Clone()
	next.Queue = slices.Insert(next.Queue, idx, Interval{Holder: holder, Start: start, End: end})
	return next, idx, nil
}
