package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Store         StoreConfig
	Checkout      CheckoutConfig
	Razorpay      RazorpayConfig
	Gateway       GatewayRetryConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZAIKA_APP_ENV" required:"true"`
	Port         string `envconfig:"ZAIKA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZAIKA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZAIKA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ZAIKA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ZAIKA_DB_DSN"`
	Driver string `envconfig:"ZAIKA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZAIKA_DB_HOST"`
	LegacyPort     int    `envconfig:"ZAIKA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZAIKA_DB_USER"`
	LegacyPassword string `envconfig:"ZAIKA_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZAIKA_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZAIKA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZAIKA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZAIKA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZAIKA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZAIKA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZAIKA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ZAIKA_REDIS_ADDR"`
	Password     string        `envconfig:"ZAIKA_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZAIKA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZAIKA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZAIKA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZAIKA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZAIKA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZAIKA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"ZAIKA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"ZAIKA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"ZAIKA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"ZAIKA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"ZAIKA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"ZAIKA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"ZAIKA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"ZAIKA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"ZAIKA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"ZAIKA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"ZAIKA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"ZAIKA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"ZAIKA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"ZAIKA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"ZAIKA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZAIKA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZAIKA_AUTO_MIGRATE" default:"false"`
}

// StoreConfig carries storefront-wide knobs that are not merchant-editable
// settings rows.
type StoreConfig struct {
	CurrencyCode     string        `envconfig:"ZAIKA_STORE_CURRENCY_CODE" default:"INR"`
	SettingsCacheTTL time.Duration `envconfig:"ZAIKA_STORE_SETTINGS_CACHE_TTL" default:"60s"`
	GuestSessionTTL  time.Duration `envconfig:"ZAIKA_STORE_GUEST_SESSION_TTL" default:"720h"`
}

type CheckoutConfig struct {
	SessionTTL     time.Duration `envconfig:"ZAIKA_CHECKOUT_SESSION_TTL" default:"45m"`
	PlacingLockTTL time.Duration `envconfig:"ZAIKA_CHECKOUT_PLACING_LOCK_TTL" default:"30s"`
}

type RazorpayConfig struct {
	KeyID         string `envconfig:"ZAIKA_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"ZAIKA_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"ZAIKA_RAZORPAY_WEBHOOK_SECRET"`
}

// GatewayRetryConfig bounds outbound calls to the payment gateway and other
// third parties: per-call timeout plus capped exponential backoff.
type GatewayRetryConfig struct {
	CallTimeout time.Duration `envconfig:"ZAIKA_GATEWAY_CALL_TIMEOUT" default:"10s"`
	BaseBackoff time.Duration `envconfig:"ZAIKA_GATEWAY_RETRY_BASE_BACKOFF" default:"250ms"`
	MaxBackoff  time.Duration `envconfig:"ZAIKA_GATEWAY_RETRY_MAX_BACKOFF" default:"2s"`
	MaxAttempts int           `envconfig:"ZAIKA_GATEWAY_RETRY_MAX_ATTEMPTS" default:"3"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ZAIKA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ZAIKA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ZAIKA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"ZAIKA_PUBSUB_ORDERS_TOPIC" default:"zaika-order-events"`
	OrdersSubscription string `envconfig:"ZAIKA_PUBSUB_ORDERS_SUBSCRIPTION" default:"zaika-order-events-kitchen"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ZAIKA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ZAIKA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ZAIKA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"ZAIKA_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
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
