package config

import "time"

const (
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"

	SinkKafka = "kafka"
	SinkInbox = "inbox"
	SinkLog   = "log"

	ResolverMongo    = "mongo"
	ResolverFirebase = "firebase"
	ResolverNone     = "none"
)

const (
	DefaultStoreBackend = BackendMongo

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "itemshare"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 64 * 1024

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultMinGap      = 5 * time.Minute
	DefaultMinLeadTime = 4 * time.Minute
	DefaultMinDuration = 4 * time.Minute

	DefaultStoreMaxAttempts    = 5
	DefaultStoreRetryBaseDelay = 50 * time.Millisecond
	DefaultStoreRetryMaxDelay  = 2 * time.Second

	DefaultAdvancerSchedule   = "@every 1m"
	DefaultAdvancerBatchLimit = 500

	DefaultNotificationSinks   = SinkLog
	DefaultNotificationTopic   = "item-notifications"
	DefaultNotificationTimeout = 10 * time.Second
	DefaultIdentityResolver    = ResolverNone
	DefaultIdentityCacheTTL    = 10 * time.Minute
	DefaultTimezone            = "UTC"
)
