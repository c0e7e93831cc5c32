package model

import (
	"slices"
	"time"
)

type ItemView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	CreatedBy  string            `json:"created_by"`
	SharedWith []string          `json:"shared_with"`
	Available  bool              `json:"available"`
	Current    *HoldView         `json:"current,omitempty"`
	Queue      []ReservationView `json:"queue"`
	CreatedAt  time.Time         `json:"created_at"`
}

type HoldView struct {
	Kind    string     `json:"kind"`
	Holders []string   `json:"holders"`
	Until   *time.Time `json:"until,omitempty"`
}

// ReservationView is a queued reservation. Index is the handle used to
// cancel it and is only stable until the queue changes.
type ReservationView struct {
	Index  int       `json:"index"`
	Holder string    `json:"holder"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

func NewItemView(item *Item) *ItemView {
	view := &ItemView{
		ID:         item.ID,
		Name:       item.Name,
		CreatedBy:  item.CreatedBy,
		SharedWith: slices.Clone(item.SharedWith),
		Available:  item.Timeline.Available(),
		Queue:      []ReservationView{},
		CreatedAt:  item.CreatedAt,
	}
	if view.SharedWith == nil {
		view.SharedWith = []string{}
	}

	if current, ok := item.Timeline.CurrentInterval(); ok {
		view.Current = &HoldView{
			Kind:    current.Kind.String(),
			Holders: current.Holders,
			Until:   current.End,
		}
	}

	for i, iv := range item.Timeline.QueuedIntervals() {
		view.Queue = append(view.Queue, ReservationView{
			Index:  i,
			Holder: iv.Holder,
			Start:  iv.Start,
			End:    iv.End,
		})
	}
	return view
}

func NewItemViews(items []*Item) []*ItemView {
	views := make([]*ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, NewItemView(item))
	}
	return views
}
