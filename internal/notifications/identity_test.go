package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachingResolver(t *testing.T) {
	calls := 0
	fail := false
	next := ResolverFunc(func(_ context.Context, identity string) (string, error) {
		calls++
		if fail {
			return "", errors.New("lookup failed")
		}
		return "Alice", nil
	})

	clock := now
	r := NewCachingResolver(next, time.Minute)
	r.now = func() time.Time { return clock }

	name, err := r.DisplayName(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	_, _ = r.DisplayName(context.Background(), "alice@example.com")
	assert.Equal(t, 1, calls)

	clock = clock.Add(2 * time.Minute)
	fail = true
	_, err = r.DisplayName(context.Background(), "alice@example.com")
	assert.Error(t, err)
	assert.Equal(t, 2, calls)

	fail = false
	name, err = r.DisplayName(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)
	assert.Equal(t, 3, calls)
}

type stubUsers struct {
	users map[string]*auth.UserRecord
	err   error
}

func (s stubUsers) GetUserByEmail(_ context.Context, email string) (*auth.UserRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	return &auth.UserRecord{}, nil
}

func TestFirebaseResolver(t *testing.T) {
	r := &FirebaseResolver{users: stubUsers{users: map[string]*auth.UserRecord{
		"alice@example.com": {UserInfo: &auth.UserInfo{Email: "alice@example.com", DisplayName: "Alice"}},
		"bob@example.com":   {UserInfo: &auth.UserInfo{Email: "bob@example.com"}},
	}}}

	name, err := r.DisplayName(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	name, err = r.DisplayName(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", name)

	name, err = r.DisplayName(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Equal(t, "nobody@example.com", name)

	failing := &FirebaseResolver{users: stubUsers{err: errors.New("quota exceeded")}}
	_, err = failing.DisplayName(context.Background(), "alice@example.com")
	assert.ErrorContains(t, err, "quota exceeded")
}
