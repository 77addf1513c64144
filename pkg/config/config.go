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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Cart         CartConfig
	Sync         SyncConfig
	Baskets      BasketsConfig
	Cron         CronConfig
	Prediction   PredictionConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FRESHBASKET_APP_ENV" required:"true"`
	Port         string `envconfig:"FRESHBASKET_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"FRESHBASKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FRESHBASKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FRESHBASKET_SERVICE_KIND" default:"cron-worker"`
}

type DBConfig struct {
	DSN    string `envconfig:"FRESHBASKET_DB_DSN"`
	Driver string `envconfig:"FRESHBASKET_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FRESHBASKET_DB_HOST"`
	LegacyPort     int    `envconfig:"FRESHBASKET_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FRESHBASKET_DB_USER"`
	LegacyPassword string `envconfig:"FRESHBASKET_DB_PASSWORD"`
	LegacyName     string `envconfig:"FRESHBASKET_DB_NAME"`
	LegacySSLMode  string `envconfig:"FRESHBASKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FRESHBASKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FRESHBASKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FRESHBASKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FRESHBASKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FRESHBASKET_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FRESHBASKET_REDIS_ADDR"`
	Password     string        `envconfig:"FRESHBASKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"FRESHBASKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FRESHBASKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FRESHBASKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FRESHBASKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FRESHBASKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FRESHBASKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// CartConfig carries the checkout math knobs shared by every cart mutation.
type CartConfig struct {
	TaxRate string `envconfig:"FRESHBASKET_CART_TAX_RATE" default:"0.08"`
}

func (c CartConfig) validate() error {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", c.TaxRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("tax rate must be non-negative, got %s", rate)
	}
	return nil
}

// TaxRateDecimal returns the configured tax rate. Load has already
// validated the raw value.
func (c CartConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

type SyncConfig struct {
	BatchLogEvery int `envconfig:"FRESHBASKET_SYNC_BATCH_LOG_EVERY" default:"500"`
}

type BasketsConfig struct {
	InterUserDelay time.Duration `envconfig:"FRESHBASKET_BASKETS_INTER_USER_DELAY" default:"200ms"`
	RetentionWeeks int           `envconfig:"FRESHBASKET_BASKETS_RETENTION_WEEKS" default:"4"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"FRESHBASKET_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"FRESHBASKET_CRON_LOCK_TTL" default:"25h"`
}

type PredictionConfig struct {
	BaseURL     string        `envconfig:"FRESHBASKET_PREDICTION_BASE_URL" required:"true"`
	Timeout     time.Duration `envconfig:"FRESHBASKET_PREDICTION_TIMEOUT" default:"10s"`
	MaxRetries  int           `envconfig:"FRESHBASKET_PREDICTION_MAX_RETRIES" default:"3"`
	RetryDelay  time.Duration `envconfig:"FRESHBASKET_PREDICTION_RETRY_DELAY" default:"2s"`
	APIKey      string        `envconfig:"FRESHBASKET_PREDICTION_API_KEY"`
	MaxProducts int           `envconfig:"FRESHBASKET_PREDICTION_MAX_PRODUCTS" default:"25"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FRESHBASKET_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FRESHBASKET_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FRESHBASKET_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FRESHBASKET_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"FRESHBASKET_PUBSUB_DOMAIN_TOPIC" default:"fb-domain-events"`
	DomainSubscription string `envconfig:"FRESHBASKET_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FRESHBASKET_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FRESHBASKET_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FRESHBASKET_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
