package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Breaker      BreakerConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	RabbitMQ     RabbitMQConfig
	Outbox       OutboxConfig
	Maintenance  MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type DBConfig struct {
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret string `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"STOREFRONT_JWT_ISSUER" required:"true"`
}

// CartConfig holds the pricing rules and persistence knobs of the cart engine.
type CartConfig struct {
	TaxRate               decimal.Decimal `envconfig:"STOREFRONT_CART_TAX_RATE" default:"0.08"`
	FreeShippingThreshold decimal.Decimal `envconfig:"STOREFRONT_CART_FREE_SHIPPING_THRESHOLD" default:"50"`
	ShippingFee           decimal.Decimal `envconfig:"STOREFRONT_CART_SHIPPING_FEE" default:"9.99"`
	SnapshotPolicy        string          `envconfig:"STOREFRONT_CART_SNAPSHOT_POLICY" default:"resnapshot"`
	LocalStorage          string          `envconfig:"STOREFRONT_CART_LOCAL_STORAGE" default:"memory"`
	LocalTTL              time.Duration   `envconfig:"STOREFRONT_CART_LOCAL_TTL" default:"720h"`
	SessionIdleTTL        time.Duration   `envconfig:"STOREFRONT_CART_SESSION_IDLE_TTL" default:"30m"`
	MaxSessions           int             `envconfig:"STOREFRONT_CART_MAX_SESSIONS" default:"10000"`
	RemoteTimeout         time.Duration   `envconfig:"STOREFRONT_CART_REMOTE_TIMEOUT" default:"3s"`
}

func (c CartConfig) validate() error {
	if c.TaxRate.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvCartTaxRate)
	}
	if c.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvCartFreeShippingThreshold)
	}
	if c.ShippingFee.IsNegative() {
		return fmt.Errorf("%s must not be negative", EnvCartShippingFee)
	}
	switch strings.ToLower(c.SnapshotPolicy) {
	case SnapshotPolicyResnapshot, SnapshotPolicyKeep:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvCartSnapshotPolicy, SnapshotPolicyResnapshot, SnapshotPolicyKeep)
	}
	switch strings.ToLower(c.LocalStorage) {
	case LocalStorageMemory, LocalStorageRedis:
	default:
		return fmt.Errorf("%s must be %q or %q", EnvCartLocalStorage, LocalStorageMemory, LocalStorageRedis)
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("%s must not be negative", EnvCartMaxSessions)
	}
	return nil
}

type BreakerConfig struct {
	MaxFailures uint32        `envconfig:"STOREFRONT_BREAKER_MAX_FAILURES" default:"5"`
	OpenTimeout time.Duration `envconfig:"STOREFRONT_BREAKER_OPEN_TIMEOUT" default:"30s"`
	Interval    time.Duration `envconfig:"STOREFRONT_BREAKER_INTERVAL" default:"1m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"storefront-order-events"`
}

type RabbitMQConfig struct {
	URL      string `envconfig:"STOREFRONT_RABBITMQ_URL"`
	Exchange string `envconfig:"STOREFRONT_RABBITMQ_EXCHANGE" default:"storefront.events"`
}

type OutboxConfig struct {
	Broker         string `envconfig:"STOREFRONT_OUTBOX_BROKER" default:"pubsub"`
	BatchSize      int    `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// MaintenanceConfig drives the cron worker retention jobs.
type MaintenanceConfig struct {
	Interval        time.Duration `envconfig:"STOREFRONT_MAINTENANCE_INTERVAL" default:"1h"`
	CartRetention   time.Duration `envconfig:"STOREFRONT_MAINTENANCE_CART_RETENTION" default:"720h"`
	OutboxRetention time.Duration `envconfig:"STOREFRONT_MAINTENANCE_OUTBOX_RETENTION" default:"720h"`
}

func (o OutboxConfig) validate() error {
	switch strings.ToLower(o.Broker) {
	case BrokerPubSub, BrokerRabbitMQ:
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvOutboxBroker, BrokerPubSub, BrokerRabbitMQ)
	}
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" || useSQLite {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
