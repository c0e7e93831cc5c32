package model

import (
	"itemshare/internal/items/timeline"
	"slices"
	"time"
)

// Item is a shared resource together with its reservation timeline.
type Item struct {
	ID         string
	Name       string
	CreatedBy  string
	SharedWith []string
	Timeline   timeline.Timeline
	Version    int64
	CreatedAt  time.Time
}

// Stakeholders returns the creator followed by everyone the item is shared with.
func (i *Item) Stakeholders() []string {
	out := make([]string, 0, len(i.SharedWith)+1)
	out = append(out, i.CreatedBy)
	for _, id := range i.SharedWith {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func (i *Item) IsStakeholder(identity string) bool {
	return identity == i.CreatedBy || slices.Contains(i.SharedWith, identity)
}

// Mentions reports whether identity appears anywhere on the item.
func (i *Item) Mentions(identity string) bool {
	if i.IsStakeholder(identity) || i.Timeline.IsHolder(identity) {
		return true
	}
	return slices.ContainsFunc(i.Timeline.Queue, func(iv timeline.Interval) bool {
		return iv.Holder == identity
	})
}
