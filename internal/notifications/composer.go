package notifications

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"itemshare/internal/items/timeline"
	"itemshare/pkg/logger"
	"itemshare/pkg/model"

	"github.com/google/uuid"
)

const timeLayout = "January 2, 3:04 PM"

// Composer builds the notification events for each state change. Names are
// looked up through the resolver and fall back to the raw identity.
type Composer struct {
	resolver IdentityResolver
	loc      *time.Location
	log      *logger.Logger
}

func NewComposer(resolver IdentityResolver, loc *time.Location, log *logger.Logger) *Composer {
	if resolver == nil {
		resolver = IdentityAsName
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Composer{resolver: resolver, loc: loc, log: log}
}

func (c *Composer) ImmediateReserved(ctx context.Context, item *model.Item, requester string, until *time.Time, now time.Time) []Event {
	b := c.batch(ctx, item, now)
	name := b.name(requester)

	var others, own string
	if until != nil {
		others = fmt.Sprintf("%s reserved immediately by %s until %s", item.Name, name, c.format(*until))
		own = fmt.Sprintf("You reserved %s until %s.", item.Name, c.format(*until))
	} else {
		others = fmt.Sprintf("%s reserved immediately without expiration by %s", item.Name, name)
		own = fmt.Sprintf("You reserved %s.", item.Name)
	}

	b.add(requester, own, CategoryReserve)
	b.broadcast(others, CategoryReserve, requester)
	return b.events
}

func (c *Composer) ScheduledReserved(ctx context.Context, item *model.Item, iv timeline.Interval, now time.Time) []Event {
	b := c.batch(ctx, item, now)
	msg := fmt.Sprintf("%s scheduled reservation by %s from %s to %s",
		item.Name, b.name(iv.Holder), c.format(iv.Start), c.format(iv.End))
	b.broadcast(msg, CategoryReserve, iv.Holder)
	return b.events
}

// Transitions covers holds started or ended by the advancer and holds
// given up by their holder.
func (c *Composer) Transitions(ctx context.Context, item *model.Item, transitions []timeline.Transition, now time.Time) []Event {
	b := c.batch(ctx, item, now)
	for _, tr := range transitions {
		names := b.names(tr.Holders)
		switch tr.Kind {
		case timeline.Started:
			for _, h := range tr.Holders {
				b.add(h, fmt.Sprintf("Your reservation for %s has started.", item.Name), CategoryReserve)
			}
			b.broadcast(fmt.Sprintf("%s reservation started by %s.", item.Name, names), CategoryReserve, tr.Holders...)

		case timeline.Ended:
			own := fmt.Sprintf("Your reservation for %s has ended.", item.Name)
			if tr.Variant == timeline.ScheduledHold {
				own = fmt.Sprintf("Your scheduled reservation for %s has ended.", item.Name)
			}
			for _, h := range tr.Holders {
				b.add(h, own, CategoryRelease)
			}
			b.broadcast(fmt.Sprintf("%s has been released by %s.", item.Name, names), CategoryRelease, tr.Holders...)

		case timeline.Relinquished:
			for _, h := range tr.Holders {
				b.add(h, fmt.Sprintf("You have relinquished item %s.", item.Name), CategoryRelease)
			}
			b.broadcast(fmt.Sprintf("%s has been relinquished by %s.", item.Name, names), CategoryRelease, tr.Holders...)
		}
	}
	return b.events
}

func (c *Composer) Canceled(ctx context.Context, item *model.Item, canceller string, now time.Time) []Event {
	b := c.batch(ctx, item, now)
	b.broadcast(fmt.Sprintf("Reservation for item %s has been canceled.", item.Name), CategoryCancel, canceller)
	return b.events
}

// Removed tells the remaining stakeholders what an identity's removal
// took with it. item must already reflect the removal.
func (c *Composer) Removed(ctx context.Context, item *model.Item, identity string, removal timeline.Removal, now time.Time) []Event {
	b := c.batch(ctx, item, now)
	if removal.ReleasedHold {
		b.broadcast(fmt.Sprintf("%s has been released by %s.", item.Name, b.name(identity)), CategoryRelease, identity)
	}
	if len(removal.Canceled) > 0 {
		b.broadcast(fmt.Sprintf("Reservation for item %s has been canceled.", item.Name), CategoryCancel, identity)
	}
	return b.events
}

func (c *Composer) format(t time.Time) string {
	return t.In(c.loc).Format(timeLayout)
}

func (c *Composer) batch(ctx context.Context, item *model.Item, now time.Time) *batch {
	return &batch{ctx: ctx, c: c, item: item, now: now, resolved: map[string]string{}}
}

type batch struct {
	ctx      context.Context
	c        *Composer
	item     *model.Item
	now      time.Time
	resolved map[string]string
	events   []Event
}

func (b *batch) name(identity string) string {
	if n, ok := b.resolved[identity]; ok {
		return n
	}
	n, err := b.c.resolver.DisplayName(b.ctx, identity)
	if err != nil || n == "" {
		if err != nil && b.c.log != nil {
			b.c.log.Warn("Failed to resolve display name", "identity", identity, "error", err)
		}
		n = identity
	}
	b.resolved[identity] = n
	return n
}

func (b *batch) names(identities []string) string {
	out := make([]string, 0, len(identities))
	for _, id := range identities {
		out = append(out, b.name(id))
	}
	return strings.Join(out, ", ")
}

func (b *batch) add(recipient, message string, category Category) {
	b.events = append(b.events, Event{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Message:   message,
		Category:  category,
		ItemID:    b.item.ID,
		At:        b.now,
	})
}

// broadcast addresses every stakeholder except the excluded identities.
func (b *batch) broadcast(message string, category Category, exclude ...string) {
	for _, recipient := range b.item.Stakeholders() {
		if slices.Contains(exclude, recipient) {
			continue
		}
		b.add(recipient, message, category)
	}
}
