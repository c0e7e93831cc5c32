package notifications

import (
	"context"
	"time"
)

type Category string

const (
	CategoryReserve Category = "reserve"
	CategoryRelease Category = "release"
	CategoryCancel  Category = "cancel"
)

// Event is one message addressed to one identity.
type Event struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	ItemID    string    `json:"itemId"`
	At        time.Time `json:"at"`
}

// Sink delivers composed events. Implementations must tolerate being
// handed events for several recipients at once.
type Sink interface {
	Deliver(ctx context.Context, events []Event) error
}

// IdentityResolver turns an identity into the name shown in messages.
type IdentityResolver interface {
	DisplayName(ctx context.Context, identity string) (string, error)
}

type ResolverFunc func(ctx context.Context, identity string) (string, error)

func (f ResolverFunc) DisplayName(ctx context.Context, identity string) (string, error) {
	return f(ctx, identity)
}

// IdentityAsName resolves every identity to itself.
var IdentityAsName = ResolverFunc(func(_ context.Context, identity string) (string, error) {
	return identity, nil
})
