package notifications

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"
)

type userLookup interface {
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
}

// FirebaseResolver uses the display name stored on the Firebase Auth user.
type FirebaseResolver struct {
	users userLookup
}

func NewFirebaseResolver(client *auth.Client) *FirebaseResolver {
	return &FirebaseResolver{users: client}
}

func (r *FirebaseResolver) DisplayName(ctx context.Context, identity string) (string, error) {
	user, err := r.users.GetUserByEmail(ctx, identity)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return identity, nil
		}
		return "", fmt.Errorf("lookup firebase user %s: %w", identity, err)
	}
	if user.UserInfo == nil || user.DisplayName == "" {
		return identity, nil
	}
	return user.DisplayName, nil
}
