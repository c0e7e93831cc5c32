package repository

import (
	"fmt"
	itemserrors "itemshare/internal/items/errors"
	"itemshare/internal/items/timeline"
	"itemshare/pkg/model"
	"slices"
	"time"
)

// ToDocument flattens an item into its stored shape.
//
// End times follow two numberings. While a scheduled hold is current,
// nextAvailabilityScheduledChangeTime is that hold's end and
// availabilityScheduledChangeTime holds one end per queued interval.
// Otherwise the queue head's end lives in nextAvailabilityScheduledChangeTime
// and availabilityScheduledChangeTime is shifted by one.
func ToDocument(item *model.Item) *model.ItemDocument {
	tl := item.Timeline
	flags := tl.NeedsAttention()

	doc := &model.ItemDocument{
		ID:         item.ID,
		Name:       item.Name,
		CreatedBy:  item.CreatedBy,
		SharedWith: nonNil(item.SharedWith),
		CreatedAt:  item.CreatedAt,
		Version:    item.Version,

		Availability:              flags.Availability,
		InUseBy:                   []string{},
		NeedsImmediateUpdate:      flags.NeedsImmediateUpdate,
		NeedsScheduledStartUpdate: flags.NeedsScheduledStartUpdate,
		NeedsScheduledEndUpdate:   flags.NeedsScheduledEndUpdate,
		NextWakeAt:                flags.NextWakeAt,

		ScheduledBy:                     make([]string, 0, len(tl.Queue)),
		AvailabilityStartTime:           make([]time.Time, 0, len(tl.Queue)),
		AvailabilityScheduledChangeTime: make([]time.Time, 0, len(tl.Queue)),
	}

	if tl.Occupancy.Kind != timeline.Free {
		doc.InUseBy = nonNil(tl.Occupancy.Holders)
	}
	if tl.Occupancy.Kind == timeline.ImmediateHold {
		doc.AvailabilityChangeTime = copyTime(tl.Occupancy.End)
	}

	for _, iv := range tl.Queue {
		doc.ScheduledBy = append(doc.ScheduledBy, iv.Holder)
		doc.AvailabilityStartTime = append(doc.AvailabilityStartTime, iv.Start)
	}

	switch {
	case tl.Occupancy.Kind == timeline.ScheduledHold:
		doc.NextAvailabilityScheduledChangeTime = copyTime(tl.Occupancy.End)
		for _, iv := range tl.Queue {
			doc.AvailabilityScheduledChangeTime = append(doc.AvailabilityScheduledChangeTime, iv.End)
		}
	case len(tl.Queue) > 0:
		end := tl.Queue[0].End
		doc.NextAvailabilityScheduledChangeTime = &end
		for _, iv := range tl.Queue[1:] {
			doc.AvailabilityScheduledChangeTime = append(doc.AvailabilityScheduledChangeTime, iv.End)
		}
	}

	return doc
}

// FromDocument rebuilds the item from its stored shape, rejecting documents
// whose reservation arrays do not line up.
func FromDocument(doc *model.ItemDocument) (*model.Item, error) {
	if len(doc.ScheduledBy) != len(doc.AvailabilityStartTime) {
		return nil, fmt.Errorf("%w: %d holders for %d start times",
			itemserrors.ErrCorruptTimeline, len(doc.ScheduledBy), len(doc.AvailabilityStartTime))
	}

	tl := timeline.Timeline{}
	n := len(doc.ScheduledBy)
	ends := make([]time.Time, 0, n)

	held := !doc.Availability && len(doc.InUseBy) > 0
	switch {
	case held && doc.NeedsScheduledEndUpdate:
		if doc.NextAvailabilityScheduledChangeTime == nil {
			return nil, fmt.Errorf("%w: scheduled hold without end", itemserrors.ErrCorruptTimeline)
		}
		tl.Occupancy = timeline.Occupancy{
			Kind:    timeline.ScheduledHold,
			Holders: slices.Clone(doc.InUseBy),
			End:     copyTime(doc.NextAvailabilityScheduledChangeTime),
		}
		if len(doc.AvailabilityScheduledChangeTime) != n {
			return nil, fmt.Errorf("%w: %d end times for %d queued reservations",
				itemserrors.ErrCorruptTimeline, len(doc.AvailabilityScheduledChangeTime), n)
		}
		ends = append(ends, doc.AvailabilityScheduledChangeTime...)

	default:
		if held {
			tl.Occupancy = timeline.Occupancy{
				Kind:    timeline.ImmediateHold,
				Holders: slices.Clone(doc.InUseBy),
				End:     copyTime(doc.AvailabilityChangeTime),
			}
		}
		if n > 0 {
			if doc.NextAvailabilityScheduledChangeTime == nil || len(doc.AvailabilityScheduledChangeTime) != n-1 {
				return nil, fmt.Errorf("%w: %d end times for %d queued reservations",
					itemserrors.ErrCorruptTimeline, len(doc.AvailabilityScheduledChangeTime)+1, n)
			}
			ends = append(ends, *doc.NextAvailabilityScheduledChangeTime)
			ends = append(ends, doc.AvailabilityScheduledChangeTime...)
		}
	}

	for i := 0; i < n; i++ {
		tl.Queue = append(tl.Queue, timeline.Interval{
			Holder: doc.ScheduledBy[i],
			Start:  doc.AvailabilityStartTime[i],
			End:    ends[i],
		})
	}

	return &model.Item{
		ID:         doc.ID,
		Name:       doc.Name,
		CreatedBy:  doc.CreatedBy,
		SharedWith: slices.Clone(doc.SharedWith),
		Timeline:   tl,
		Version:    doc.Version,
		CreatedAt:  doc.CreatedAt,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
