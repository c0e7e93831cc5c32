package config

import (
	"fmt"
	"itemshare/internal/items/timeline"
	"itemshare/pkg/client"
	"itemshare/pkg/logger"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
)

type Config struct {
	ServiceName  string
	StoreBackend string

	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	FirebaseProjectID            string
	GoogleApplicationCredentials string

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	MinGap      time.Duration
	MinLeadTime time.Duration
	MinDuration time.Duration

	StoreMaxAttempts    int
	StoreRetryBaseDelay time.Duration
	StoreRetryMaxDelay  time.Duration

	AdvancerSchedule   string
	AdvancerBatchLimit int

	NotificationSinks   []string
	NotificationTopic   string
	NotificationTimeout time.Duration
	IdentityResolver    string
	IdentityCacheTTL    time.Duration
	Timezone            string
	Location            *time.Location

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	log := logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:    logger.JSON,
		AddSource: true,
		Service:   serviceName,
	})

	file, err := LoadFile(getEnvStr(EnvConfigFile, ""))
	if err != nil {
		log.Fatal("Failed to load configuration file", "error", err)
	}

	cfg := FromEnv(file)
	cfg.ServiceName = serviceName
	cfg.Log = log
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv builds a configuration from the environment on top of the file
// overlay and the defaults. It does not validate.
func FromEnv(file *FileConfig) *Config {
	if file == nil {
		file = &FileConfig{}
	}
	sinks := DefaultNotificationSinks
	if len(file.Notifications.Sinks) > 0 {
		sinks = strings.Join(file.Notifications.Sinks, ",")
	}

	cfg := &Config{
		StoreBackend: getEnvStr(EnvStoreBackend, orStr(file.Store.Backend, DefaultStoreBackend)),

		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		FirebaseProjectID:            getEnvStr(EnvFirebaseProjectID, ""),
		GoogleApplicationCredentials: getEnvStr(EnvGoogleApplicationCredentials, ""),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		MinGap:      getEnvDuration(EnvMinGap, orDuration(file.Policy.MinGap, DefaultMinGap)),
		MinLeadTime: getEnvDuration(EnvMinLeadTime, orDuration(file.Policy.MinLeadTime, DefaultMinLeadTime)),
		MinDuration: getEnvDuration(EnvMinDuration, orDuration(file.Policy.MinDuration, DefaultMinDuration)),

		StoreMaxAttempts:    getEnvNum(EnvStoreMaxAttempts, orNum(file.Store.MaxAttempts, DefaultStoreMaxAttempts)),
		StoreRetryBaseDelay: getEnvDuration(EnvStoreRetryBaseDelay, orDuration(file.Store.RetryBaseDelay, DefaultStoreRetryBaseDelay)),
		StoreRetryMaxDelay:  getEnvDuration(EnvStoreRetryMaxDelay, orDuration(file.Store.RetryMaxDelay, DefaultStoreRetryMaxDelay)),

		AdvancerSchedule:   getEnvStr(EnvAdvancerSchedule, orStr(file.Advancer.Schedule, DefaultAdvancerSchedule)),
		AdvancerBatchLimit: getEnvNum(EnvAdvancerBatchLimit, orNum(file.Advancer.BatchLimit, DefaultAdvancerBatchLimit)),

		NotificationSinks:   splitList(getEnvStr(EnvNotificationSinks, sinks)),
		NotificationTopic:   getEnvStr(EnvNotificationTopic, orStr(file.Notifications.Topic, DefaultNotificationTopic)),
		NotificationTimeout: getEnvDuration(EnvNotificationTimeout, DefaultNotificationTimeout),
		IdentityResolver:    getEnvStr(EnvIdentityResolver, orStr(file.Notifications.IdentityResolver, DefaultIdentityResolver)),
		IdentityCacheTTL:    getEnvDuration(EnvIdentityCacheTTL, orDuration(file.Notifications.IdentityCacheTTL, DefaultIdentityCacheTTL)),
		Timezone:            getEnvStr(EnvTimezone, orStr(file.Notifications.Timezone, DefaultTimezone)),
	}
	return cfg
}

// Connect opens the store clients the configured backends need.
func (cfg *Config) Connect() {
	if cfg.StoreBackend == BackendMongo || cfg.IdentityResolver == ResolverMongo || slices.Contains(cfg.NotificationSinks, SinkInbox) {
		cfg.SetMongo()
	}
	if cfg.StoreBackend == BackendFirestore || cfg.IdentityResolver == ResolverFirebase {
		cfg.SetFirebase()
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.ServiceName, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetFirebase() {
	cfg.Client.SetFirebase(cfg.Log, cfg.FirebaseProjectID, cfg.GoogleApplicationCredentials, cfg.MongoConnTimeout)
}

func (cfg *Config) Policy() timeline.Policy {
	return timeline.Policy{
		MinGap:      cfg.MinGap,
		MinLeadTime: cfg.MinLeadTime,
		MinDuration: cfg.MinDuration,
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreBackend {
	case BackendMongo, BackendFirestore, BackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("StoreBackend must be one of [mongo, firestore, memory], got: %s", cfg.StoreBackend))
	}

	if cfg.StoreBackend == BackendMongo {
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
	}

	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.MinGap <= 0 {
		errors = append(errors, fmt.Sprintf("MinGap must be positive, got: %s", cfg.MinGap))
	}
	if cfg.MinLeadTime < 0 {
		errors = append(errors, fmt.Sprintf("MinLeadTime cannot be negative, got: %s", cfg.MinLeadTime))
	}
	if cfg.MinDuration <= 0 {
		errors = append(errors, fmt.Sprintf("MinDuration must be positive, got: %s", cfg.MinDuration))
	}

	if cfg.StoreMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("StoreMaxAttempts must be at least 1, got: %d", cfg.StoreMaxAttempts))
	}
	if cfg.StoreRetryBaseDelay <= 0 {
		errors = append(errors, fmt.Sprintf("StoreRetryBaseDelay must be positive, got: %s", cfg.StoreRetryBaseDelay))
	}
	if cfg.StoreRetryMaxDelay < cfg.StoreRetryBaseDelay {
		errors = append(errors, fmt.Sprintf("StoreRetryMaxDelay (%s) must be >= StoreRetryBaseDelay (%s)", cfg.StoreRetryMaxDelay, cfg.StoreRetryBaseDelay))
	}

	if _, err := cron.ParseStandard(cfg.AdvancerSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("AdvancerSchedule is not a valid cron spec: %s (%v)", cfg.AdvancerSchedule, err))
	}
	if cfg.AdvancerBatchLimit <= 0 {
		errors = append(errors, fmt.Sprintf("AdvancerBatchLimit must be positive, got: %d", cfg.AdvancerBatchLimit))
	}

	for _, sink := range cfg.NotificationSinks {
		switch sink {
		case SinkKafka, SinkLog:
		case SinkInbox:
			if cfg.StoreBackend == BackendFirestore {
				errors = append(errors, "The inbox notification sink requires MongoDB and cannot be combined with the firestore backend")
			}
		default:
			errors = append(errors, fmt.Sprintf("NotificationSinks entries must be one of [kafka, inbox, log], got: %s", sink))
		}
	}
	if cfg.NotificationTopic == "" {
		errors = append(errors, "NotificationTopic cannot be empty")
	}
	if cfg.NotificationTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("NotificationTimeout must be positive, got: %s", cfg.NotificationTimeout))
	}

	switch cfg.IdentityResolver {
	case ResolverMongo, ResolverFirebase, ResolverNone:
	default:
		errors = append(errors, fmt.Sprintf("IdentityResolver must be one of [mongo, firebase, none], got: %s", cfg.IdentityResolver))
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		errors = append(errors, fmt.Sprintf("Timezone is not a valid IANA zone: %s", cfg.Timezone))
	} else {
		cfg.Location = loc
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"store_backend", cfg.StoreBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"firebase_project_id", cfg.FirebaseProjectID,
		"google_credentials_set", cfg.GoogleApplicationCredentials != "",
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"min_gap", cfg.MinGap,
		"min_lead_time", cfg.MinLeadTime,
		"min_duration", cfg.MinDuration,
		"store_max_attempts", cfg.StoreMaxAttempts,
		"store_retry_base_delay", cfg.StoreRetryBaseDelay,
		"advancer_schedule", cfg.AdvancerSchedule,
		"advancer_batch_limit", cfg.AdvancerBatchLimit,
		"notification_sinks", cfg.NotificationSinks,
		"notification_topic", cfg.NotificationTopic,
		"identity_resolver", cfg.IdentityResolver,
		"timezone", cfg.Timezone,
	)
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
