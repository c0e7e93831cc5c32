package timeline

import (
	"fmt"
	itemserrors "itemshare/internal/items/errors"
	"time"
)

// Validate checks the structural rules every committed timeline obeys: one
// well-formed occupancy, a queue sorted by start, and at least gap between
// neighbouring intervals, including the current hold and the queue head.
func Validate(t Timeline, gap time.Duration) error {
	occ := t.Occupancy
	switch occ.Kind {
	case Free:
		if len(occ.Holders) > 0 || occ.End != nil {
			return fmt.Errorf("%w: free occupancy carries holders or end", itemserrors.ErrInvariantViolated)
		}
	case ImmediateHold, ScheduledHold:
		if len(occ.Holders) == 0 {
			return fmt.Errorf("%w: %s hold without holders", itemserrors.ErrInvariantViolated, occ.Kind)
		}
		if occ.Kind == ScheduledHold && occ.End == nil {
			return fmt.Errorf("%w: scheduled hold without end", itemserrors.ErrInvariantViolated)
		}
	default:
		return fmt.Errorf("%w: unknown occupancy kind %d", itemserrors.ErrInvariantViolated, occ.Kind)
	}

	for i, iv := range t.Queue {
		if !iv.Start.Before(iv.End) {
			return fmt.Errorf("%w: queue[%d] starts at or after its end", itemserrors.ErrInvariantViolated, i)
		}
		if i > 0 && iv.Start.Before(t.Queue[i-1].End.Add(gap)) {
			return fmt.Errorf("%w: queue[%d] and queue[%d] are unordered or closer than %s",
				itemserrors.ErrInvariantViolated, i-1, i, gap)
		}
	}

	if len(t.Queue) > 0 && occ.Kind != Free {
		if occ.End == nil {
			return fmt.Errorf("%w: indefinite hold with queued reservations", itemserrors.ErrInvariantViolated)
		}
		if t.Queue[0].Start.Before(occ.End.Add(gap)) {
			return fmt.Errorf("%w: queue[0] closer than %s to current hold", itemserrors.ErrInvariantViolated, gap)
		}
	}
	return nil
}
