package config

const (
	EnvConfigFile = "CONFIG_FILE"

	EnvStoreBackend = "STORE_BACKEND"

	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvFirebaseProjectID            = "FIREBASE_PROJECT_ID"
	EnvGoogleApplicationCredentials = "GOOGLE_APPLICATION_CREDENTIALS"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvMinGap      = "MIN_GAP"
	EnvMinLeadTime = "MIN_LEAD_TIME"
	EnvMinDuration = "MIN_DURATION"

	EnvStoreMaxAttempts    = "STORE_MAX_ATTEMPTS"
	EnvStoreRetryBaseDelay = "STORE_RETRY_BASE_DELAY"
	EnvStoreRetryMaxDelay  = "STORE_RETRY_MAX_DELAY"

	EnvAdvancerSchedule   = "ADVANCER_SCHEDULE"
	EnvAdvancerBatchLimit = "ADVANCER_BATCH_LIMIT"

	EnvNotificationSinks   = "NOTIFICATION_SINKS"
	EnvNotificationTopic   = "NOTIFICATION_TOPIC"
	EnvNotificationTimeout = "NOTIFICATION_TIMEOUT"
	EnvIdentityResolver    = "IDENTITY_RESOLVER"
	EnvIdentityCacheTTL    = "IDENTITY_CACHE_TTL"
	EnvTimezone            = "TIMEZONE"
)
