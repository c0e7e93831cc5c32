package timeline

import (
	"slices"
	"time"
)

type TransitionKind int

const (
	Started TransitionKind = iota
	Ended
	Relinquished
)

func (k TransitionKind) String() string {
	switch k {
	case Started:
		return "started"
	case Ended:
		return "ended"
	default:
		return "relinquished"
	}
}

// Transition records one boundary crossed while advancing or releasing a
// timeline. Variant is the kind of hold that started or ended.
type Transition struct {
	Kind    TransitionKind
	Variant OccupancyKind
	Holders []string
	At      time.Time
}

// Advance moves the timeline forward to now: an elapsed hold ends, then the
// head of the queue is promoted once its start has passed. Both steps repeat
// until nothing is due, so a late sweep catches up in one call. Advancing an
// already advanced timeline returns it unchanged with no transitions.
func Advance(t Timeline, now time.Time) (Timeline, []Transition) {
	next := t.Clone()
	var transitions []Transition

	for {
		occ := next.Occupancy
		switch {
		case occ.Kind != Free && occ.End != nil && !occ.End.After(now):
			transitions = append(transitions, Transition{
				Kind:    Ended,
				Variant: occ.Kind,
				Holders: slices.Clone(occ.Holders),
				At:      *occ.End,
			})
			next.Occupancy = Occupancy{Kind: Free}

		case occ.Kind == Free && len(next.Queue) > 0 && !next.Queue[0].Start.After(now):
			head := next.Queue[0]
			end := head.End
			next.Queue = slices.Clone(next.Queue[1:])
			next.Occupancy = Occupancy{
				Kind:    ScheduledHold,
				Holders: []string{head.Holder},
				End:     &end,
			}
			transitions = append(transitions, Transition{
				Kind:    Started,
				Variant: ScheduledHold,
				Holders: []string{head.Holder},
				At:      head.Start,
			})

		default:
			return next, transitions
		}
	}
}
