package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"itemshare/internal/items/handler"
	"itemshare/internal/items/repository"
	"itemshare/internal/items/service"
	"itemshare/internal/items/validator"
	"itemshare/internal/notifications"
	"itemshare/pkg/config"
	"itemshare/pkg/contracts"
	"itemshare/pkg/kafka"
	kafka_config "itemshare/pkg/kafka/config"
	kafka_middleware "itemshare/pkg/kafka/middleware"

	"google.golang.org/api/iterator"
)

// Components is the wired service graph shared by the binaries.
type Components struct {
	Repo         repository.ItemRepository
	Items        service.ItemService
	Reservations service.ReservationService
	Advancer     service.AdvancerService
	Handler      *handler.ItemHandler
	Ping         handler.Pinger

	// Stoppers release what Build opened, beyond the store clients owned by
	// cfg.Client.
	Stoppers []contracts.Stopper
}

// Build connects the configured store and notification sinks and wires the
// services on top. cfg must be validated.
func Build(cfg *config.Config, opts ...service.Option) (*Components, error) {
	cfg.Connect()

	c := &Components{}
	repo, ping, err := buildRepository(cfg)
	if err != nil {
		return nil, err
	}
	c.Repo, c.Ping = repo, ping

	sink, inbox, err := c.buildSink(cfg)
	if err != nil {
		c.stopAll(context.Background())
		return nil, err
	}
	if inbox != nil {
		opts = append(opts, service.WithInbox(inbox))
	}

	composer := notifications.NewComposer(buildResolver(cfg), cfg.Location, cfg.Log)
	dispatcher := notifications.NewDispatcher(sink, cfg.NotificationTimeout, cfg.Log)
	v := validator.NewItemValidator(cfg.Log)

	c.Items = service.NewItemService(repo, v, composer, dispatcher, cfg, opts...)
	c.Reservations = service.NewReservationService(repo, v, composer, dispatcher, cfg, opts...)
	c.Advancer = service.NewAdvancerService(repo, composer, dispatcher, cfg, opts...)
	c.Handler = handler.NewItemHandler(c.Items, c.Reservations, c.Advancer, cfg.Log)

	cfg.Log.Info("Item services initialized",
		"store_backend", cfg.StoreBackend,
		"notification_sinks", cfg.NotificationSinks,
		"identity_resolver", cfg.IdentityResolver,
	)
	return c, nil
}

// Close stops what Build started and then the store clients.
func (c *Components) Close(ctx context.Context, cfg *config.Config) {
	c.stopAll(ctx)
	cfg.GracefulShutdown()
}

func (c *Components) stopAll(ctx context.Context) {
	for _, s := range c.Stoppers {
		_ = s.Stop(ctx)
	}
	c.Stoppers = nil
}

func buildRepository(cfg *config.Config) (repository.ItemRepository, handler.Pinger, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client := cfg.Client.Mongo
		return repository.NewMongoItemRepository(cfg), func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}, nil

	case config.BackendFirestore:
		fs := cfg.Client.Firestore
		return repository.NewFirestoreItemRepository(cfg), func(ctx context.Context) error {
			_, err := fs.Collection(repository.CollectionName).Limit(1).Documents(ctx).Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			return err
		}, nil

	case config.BackendMemory:
		cfg.Log.Warn("Using the in-memory item store; state is lost on restart")
		return repository.NewMemoryRepository(), nil, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func (c *Components) buildSink(cfg *config.Config) (notifications.Sink, *notifications.InboxSink, error) {
	var (
		sinks notifications.FanoutSink
		inbox *notifications.InboxSink
	)

	for _, name := range cfg.NotificationSinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, notifications.NewLogSink(cfg.Log))

		case config.SinkInbox:
			db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
			inbox = notifications.NewInboxSink(db, cfg.NotificationTimeout)
			sinks = append(sinks, inbox)

		case config.SinkKafka:
			producer, err := newProducer(cfg)
			if err != nil {
				return nil, nil, err
			}
			c.Stoppers = append(c.Stoppers, contracts.StopFunc(func(context.Context) error {
				return producer.Close()
			}))
			sinks = append(sinks, notifications.NewKafkaSink(producer))

		default:
			return nil, nil, fmt.Errorf("unknown notification sink %q", name)
		}
	}

	if len(sinks) == 1 {
		return sinks[0], inbox, nil
	}
	return sinks, inbox, nil
}

func newProducer(cfg *config.Config) (*kafka.Producer, error) {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load kafka configuration: %w", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationTopic, cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	return producer, nil
}

func buildResolver(cfg *config.Config) notifications.IdentityResolver {
	var resolver notifications.IdentityResolver
	switch cfg.IdentityResolver {
	case config.ResolverMongo:
		resolver = notifications.NewMongoResolver(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.NotificationTimeout)
	case config.ResolverFirebase:
		resolver = notifications.NewFirebaseResolver(cfg.Client.Auth)
	default:
		return notifications.IdentityAsName
	}
	if cfg.IdentityCacheTTL > 0 {
		resolver = notifications.NewCachingResolver(resolver, cfg.IdentityCacheTTL)
	}
	return resolver
}
