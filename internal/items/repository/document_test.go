package repository

import (
	itemserrors "itemshare/internal/items/errors"
	"itemshare/internal/items/timeline"
	"itemshare/pkg/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func ptr(t time.Time) *time.Time {
	return &t
}

func newItem(tl timeline.Timeline) *model.Item {
	return &model.Item{
		ID:         "item-1",
		Name:       "Drill",
		CreatedBy:  "owner@example.com",
		SharedWith: []string{"alice@example.com", "bob@example.com"},
		Timeline:   tl,
		Version:    3,
		CreatedAt:  base,
	}
}

func TestToDocument_FreeWithQueueUsesShiftedNumbering(t *testing.T) {
	item := newItem(timeline.Timeline{Queue: []timeline.Interval{
		{Holder: "alice@example.com", Start: at(0), End: at(30)},
		{Holder: "bob@example.com", Start: at(35), End: at(60)},
	}})

	doc := ToDocument(item)

	assert.True(t, doc.Availability)
	assert.Empty(t, doc.InUseBy)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, doc.ScheduledBy)
	assert.Equal(t, []time.Time{at(0), at(35)}, doc.AvailabilityStartTime)
	assert.Equal(t, ptr(at(30)), doc.NextAvailabilityScheduledChangeTime)
	assert.Equal(t, []time.Time{at(60)}, doc.AvailabilityScheduledChangeTime)
	assert.True(t, doc.NeedsScheduledStartUpdate)
	assert.False(t, doc.NeedsScheduledEndUpdate)
	assert.Equal(t, ptr(at(0)), doc.NextWakeAt)
}

func TestToDocument_ScheduledHoldUsesDirectNumbering(t *testing.T) {
	item := newItem(timeline.Timeline{
		Occupancy: timeline.Occupancy{Kind: timeline.ScheduledHold, Holders: []string{"alice@example.com"}, End: ptr(at(30))},
		Queue:     []timeline.Interval{{Holder: "bob@example.com", Start: at(35), End: at(60)}},
	})

	doc := ToDocument(item)

	assert.False(t, doc.Availability)
	assert.Equal(t, []string{"alice@example.com"}, doc.InUseBy)
	assert.Nil(t, doc.AvailabilityChangeTime)
	assert.Equal(t, ptr(at(30)), doc.NextAvailabilityScheduledChangeTime)
	assert.Equal(t, []time.Time{at(60)}, doc.AvailabilityScheduledChangeTime)
	assert.Equal(t, len(doc.ScheduledBy), len(doc.AvailabilityStartTime))
	assert.True(t, doc.NeedsScheduledEndUpdate)
	assert.False(t, doc.NeedsScheduledStartUpdate)
	assert.False(t, doc.NeedsImmediateUpdate)
}

func TestToDocument_IndefiniteImmediateHold(t *testing.T) {
	item := newItem(timeline.Timeline{
		Occupancy: timeline.Occupancy{Kind: timeline.ImmediateHold, Holders: []string{"alice@example.com"}},
	})

	doc := ToDocument(item)

	assert.False(t, doc.Availability)
	assert.Equal(t, []string{"alice@example.com"}, doc.InUseBy)
	assert.Nil(t, doc.AvailabilityChangeTime)
	assert.False(t, doc.NeedsImmediateUpdate)
	assert.Nil(t, doc.NextWakeAt)
}

func TestDocumentRoundTrip(t *testing.T) {
	timelines := map[string]timeline.Timeline{
		"empty": {},
		"finite immediate with queue": {
			Occupancy: timeline.Occupancy{Kind: timeline.ImmediateHold, Holders: []string{"carol@example.com"}, End: ptr(at(10))},
			Queue: []timeline.Interval{
				{Holder: "alice@example.com", Start: at(15), End: at(30)},
				{Holder: "bob@example.com", Start: at(35), End: at(60)},
				{Holder: "alice@example.com", Start: at(70), End: at(90)},
			},
		},
		"scheduled hold with queue": {
			Occupancy: timeline.Occupancy{Kind: timeline.ScheduledHold, Holders: []string{"alice@example.com"}, End: ptr(at(30))},
			Queue: []timeline.Interval{
				{Holder: "bob@example.com", Start: at(35), End: at(60)},
				{Holder: "carol@example.com", Start: at(65), End: at(80)},
			},
		},
		"scheduled hold alone": {
			Occupancy: timeline.Occupancy{Kind: timeline.ScheduledHold, Holders: []string{"alice@example.com"}, End: ptr(at(30))},
		},
	}

	for name, tl := range timelines {
		t.Run(name, func(t *testing.T) {
			item := newItem(tl)
			got, err := FromDocument(ToDocument(item))
			require.NoError(t, err)
			assert.Equal(t, item.Timeline.Occupancy, got.Timeline.Occupancy)
			assert.Equal(t, item.Timeline.QueuedIntervals(), got.Timeline.QueuedIntervals())
			assert.Equal(t, item.Version, got.Version)
			assert.Equal(t, item.SharedWith, got.SharedWith)
		})
	}
}

// Cancelling the head of a two-entry queue leaves the survivor's end in
// the "next" slot and nothing in the shifted array.
func TestCancelHeadKeepsNumberingConsistent(t *testing.T) {
	item := newItem(timeline.Timeline{Queue: []timeline.Interval{
		{Holder: "alice@example.com", Start: at(0), End: at(30)},
		{Holder: "bob@example.com", Start: at(35), End: at(60)},
	}})

	next, removed, err := timeline.Cancel(item.Timeline, 0)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", removed.Holder)

	item.Timeline = next
	doc := ToDocument(item)

	assert.Equal(t, []string{"bob@example.com"}, doc.ScheduledBy)
	assert.Equal(t, []time.Time{at(35)}, doc.AvailabilityStartTime)
	assert.Equal(t, ptr(at(60)), doc.NextAvailabilityScheduledChangeTime)
	assert.Empty(t, doc.AvailabilityScheduledChangeTime)
	assert.True(t, doc.NeedsScheduledStartUpdate)
}

func TestFromDocument_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		doc  model.ItemDocument
	}{
		{
			name: "holders and starts differ",
			doc: model.ItemDocument{
				Availability:          true,
				ScheduledBy:           []string{"alice@example.com", "bob@example.com"},
				AvailabilityStartTime: []time.Time{at(0)},
			},
		},
		{
			name: "queue without next end",
			doc: model.ItemDocument{
				Availability:          true,
				ScheduledBy:           []string{"alice@example.com"},
				AvailabilityStartTime: []time.Time{at(0)},
			},
		},
		{
			name: "scheduled hold without end",
			doc: model.ItemDocument{
				InUseBy:                 []string{"alice@example.com"},
				NeedsScheduledEndUpdate: true,
			},
		},
		{
			name: "scheduled hold with shifted ends",
			doc: model.ItemDocument{
				InUseBy:                             []string{"alice@example.com"},
				NeedsScheduledEndUpdate:             true,
				NextAvailabilityScheduledChangeTime: ptr(at(30)),
				ScheduledBy:                         []string{"bob@example.com", "carol@example.com"},
				AvailabilityStartTime:               []time.Time{at(35), at(65)},
				AvailabilityScheduledChangeTime:     []time.Time{at(60)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromDocument(&tt.doc)
			assert.ErrorIs(t, err, itemserrors.ErrCorruptTimeline)
		})
	}
}

func TestFromDocument_LegacyFlagsWithoutWakeField(t *testing.T) {
	doc := model.ItemDocument{
		ID:                     "legacy",
		Availability:           false,
		InUseBy:                []string{"alice@example.com"},
		AvailabilityChangeTime: ptr(at(20)),
		NeedsImmediateUpdate:   true,
	}

	item, err := FromDocument(&doc)
	require.NoError(t, err)
	assert.Equal(t, timeline.ImmediateHold, item.Timeline.Occupancy.Kind)
	assert.Equal(t, ptr(at(20)), item.Timeline.Occupancy.End)
	assert.Equal(t, ptr(at(20)), ToDocument(item).NextWakeAt)
}
