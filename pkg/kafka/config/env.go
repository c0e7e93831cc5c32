package kafka_config

const (
	EnvKafkaBrokers = "KAFKA_BROKERS"

	EnvKafkaProducerMaxAttempts  = "KAFKA_PRODUCER_MAX_ATTEMPTS"
	EnvKafkaProducerBatchTimeout = "KAFKA_PRODUCER_BATCH_TIMEOUT"
	EnvKafkaProducerRequireAcks  = "KAFKA_PRODUCER_REQUIRE_ACKS"
	EnvKafkaProducerCompression  = "KAFKA_PRODUCER_COMPRESSION"

	EnvKafkaDLQTopic = "KAFKA_DLQ_TOPIC"

	EnvKafkaEnableMiddleware = "KAFKA_ENABLE_MIDDLEWARE"
)
