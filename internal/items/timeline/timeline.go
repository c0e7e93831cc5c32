// Package timeline models the reservation state of a single shared item:
// who occupies it right now and which future intervals are queued behind
// the current occupancy. Every operation in this package is pure; callers
// load a Timeline, derive the next one and persist it atomically.
package timeline

import (
	"slices"
	"time"
)

type OccupancyKind int

const (
	Free OccupancyKind = iota
	ImmediateHold
	ScheduledHold
)

func (k OccupancyKind) String() string {
	switch k {
	case ImmediateHold:
		return "immediate"
	case ScheduledHold:
		return "scheduled"
	default:
		return "free"
	}
}

// Occupancy is the current holder state. A ScheduledHold always carries an
// End; an ImmediateHold without End is held until released.
type Occupancy struct {
	Kind    OccupancyKind
	Holders []string
	End     *time.Time
}

type Interval struct {
	Holder string
	Start  time.Time
	End    time.Time
}

type Timeline struct {
	Occupancy Occupancy
	Queue     []Interval
}

// Current describes the occupancy in effect, if any.
type Current struct {
	Kind    OccupancyKind
	Holders []string
	End     *time.Time
}

// Flags are the legacy scan markers derived from a timeline. They are
// recomputed on every write and never read back as source of truth.
type Flags struct {
	Availability              bool
	NeedsImmediateUpdate      bool
	NeedsScheduledStartUpdate bool
	NeedsScheduledEndUpdate   bool
	NextWakeAt                *time.Time
}

func (t Timeline) Available() bool {
	return t.Occupancy.Kind == Free
}

func (t Timeline) CurrentInterval() (Current, bool) {
	if t.Occupancy.Kind == Free {
		return Current{}, false
	}
	return Current{
		Kind:    t.Occupancy.Kind,
		Holders: slices.Clone(t.Occupancy.Holders),
		End:     cloneTime(t.Occupancy.End),
	}, true
}

// QueuedIntervals returns the pending intervals ordered by start.
func (t Timeline) QueuedIntervals() []Interval {
	return slices.Clone(t.Queue)
}

func (t Timeline) IsHolder(identity string) bool {
	return t.Occupancy.Kind != Free && slices.Contains(t.Occupancy.Holders, identity)
}

func (t Timeline) Clone() Timeline {
	return Timeline{
		Occupancy: Occupancy{
			Kind:    t.Occupancy.Kind,
			Holders: slices.Clone(t.Occupancy.Holders),
			End:     cloneTime(t.Occupancy.End),
		},
		Queue: slices.Clone(t.Queue),
	}
}

// NeedsAttention derives the advancer flags and the earliest instant at
// which the timeline will change on its own.
func (t Timeline) NeedsAttention() Flags {
	f := Flags{
		Availability:              t.Occupancy.Kind == Free,
		NeedsImmediateUpdate:      t.Occupancy.Kind == ImmediateHold && t.Occupancy.End != nil,
		NeedsScheduledEndUpdate:   t.Occupancy.Kind == ScheduledHold,
		NeedsScheduledStartUpdate: len(t.Queue) > 0 && t.Occupancy.Kind != ScheduledHold,
	}

	var wake *time.Time
	if t.Occupancy.Kind != Free && t.Occupancy.End != nil {
		wake = cloneTime(t.Occupancy.End)
	}
	if len(t.Queue) > 0 && (wake == nil || t.Queue[0].Start.Before(*wake)) {
		if t.Occupancy.Kind == Free || t.Occupancy.End != nil {
			start := t.Queue[0].Start
			wake = &start
		}
	}
	f.NextWakeAt = wake
	return f
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func withHolder(holders []string, identity string) []string {
	if slices.Contains(holders, identity) {
		return slices.Clone(holders)
	}
	return append(slices.Clone(holders), identity)
}

func withoutHolder(holders []string, identity string) []string {
	return slices.DeleteFunc(slices.Clone(holders), func(h string) bool { return h == identity })
}
