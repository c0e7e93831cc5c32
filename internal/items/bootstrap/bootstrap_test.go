package bootstrap

import (
	"context"
	"testing"
	"time"

	"itemshare/pkg/client"
	"itemshare/pkg/config"
	"itemshare/pkg/logger"
	"itemshare/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv(config.EnvStoreBackend, config.BackendMemory)
	t.Setenv(config.EnvNotificationSinks, config.SinkLog)
	t.Setenv(config.EnvIdentityResolver, config.ResolverNone)

	cfg := config.FromEnv(nil)
	cfg.Log = logger.Discard()
	cfg.Client = client.NewClient()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestBuild_MemoryBackend(t *testing.T) {
	cfg := memoryConfig(t)

	c, err := Build(cfg)
	require.NoError(t, err)
	defer c.Close(context.Background(), cfg)

	assert.Nil(t, c.Ping)
	assert.Empty(t, c.Stoppers)

	ctx := context.Background()
	view, err := c.Items.Create(ctx, "owner@example.com", &model.CreateItemRequest{Name: "Ladder"})
	require.NoError(t, err)

	until := time.Now().Add(time.Hour)
	res, err := c.Reservations.ReserveImmediate(ctx, view.ID, "owner@example.com", &model.ImmediateReservationRequest{Until: &until})
	require.NoError(t, err)
	assert.False(t, res.Item.Available)

	summary, err := c.Advancer.Advance(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Mutated)
}

func TestBuild_RejectsUnknownSink(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.NotificationSinks = []string{"pigeon"}

	_, err := Build(cfg)
	assert.ErrorContains(t, err, "pigeon")
}
