package config

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "STOREFRONT_APP_ENV"
	EnvPort      = "STOREFRONT_APP_PORT"
	EnvLogLevel  = "STOREFRONT_LOG_LEVEL"
	EnvLogFormat = "STOREFRONT_LOG_FORMAT"

	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"

	EnvRedisURL = "STOREFRONT_REDIS_URL"

	EnvJWTSecret = "STOREFRONT_JWT_SECRET"
	EnvJWTIssuer = "STOREFRONT_JWT_ISSUER"

	EnvCartTaxRate               = "STOREFRONT_CART_TAX_RATE"
	EnvCartFreeShippingThreshold = "STOREFRONT_CART_FREE_SHIPPING_THRESHOLD"
	EnvCartShippingFee           = "STOREFRONT_CART_SHIPPING_FEE"
	EnvCartSnapshotPolicy        = "STOREFRONT_CART_SNAPSHOT_POLICY"
	EnvCartLocalStorage          = "STOREFRONT_CART_LOCAL_STORAGE"
	EnvCartMaxSessions           = "STOREFRONT_CART_MAX_SESSIONS"

	EnvUseSQLite   = "STOREFRONT_USE_SQLITE"
	EnvAutoMigrate = "STOREFRONT_AUTO_MIGRATE"

	EnvGCPProjectID       = "STOREFRONT_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "STOREFRONT_PUBSUB_ORDERS_TOPIC"
	EnvRabbitMQURL        = "STOREFRONT_RABBITMQ_URL"
	EnvRabbitMQExchange   = "STOREFRONT_RABBITMQ_EXCHANGE"
	EnvOutboxBroker       = "STOREFRONT_OUTBOX_BROKER"
	EnvOutboxMaxAttempts  = "STOREFRONT_OUTBOX_MAX_ATTEMPTS"
	EnvBreakerMaxFailures = "STOREFRONT_BREAKER_MAX_FAILURES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	SnapshotPolicyResnapshot = "resnapshot"
	SnapshotPolicyKeep       = "keep"

	LocalStorageMemory = "memory"
	LocalStorageRedis  = "redis"

	BrokerPubSub   = "pubsub"
	BrokerRabbitMQ = "rabbitmq"
)
