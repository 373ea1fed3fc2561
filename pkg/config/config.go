package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Mail         MailConfig
	Sync         SyncConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"MARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"MARKET_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"MARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MARKET_DB_DSN"`
	Driver string `envconfig:"MARKET_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MARKET_DB_HOST"`
	Port     int    `envconfig:"MARKET_DB_PORT" default:"5432"`
	User     string `envconfig:"MARKET_DB_USER"`
	Password string `envconfig:"MARKET_DB_PASSWORD"`
	Name     string `envconfig:"MARKET_DB_NAME"`
	SSLMode  string `envconfig:"MARKET_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MARKET_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MARKET_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MARKET_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MARKET_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKET_REDIS_URL"`
	Address      string        `envconfig:"MARKET_REDIS_ADDR"`
	Password     string        `envconfig:"MARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKET_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MARKET_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKET_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MARKET_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MARKET_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MARKET_JWT_ISSUER" default:"market-backend"`
	ExpirationMinutes int    `envconfig:"MARKET_JWT_EXPIRATION_MINUTES" default:"1440"`
}

// SessionTTL returns how long issued bearer sessions stay valid.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKET_ARGON_KEY_LEN" default:"32"`
}

type MailConfig struct {
	Host     string `envconfig:"MARKET_MAIL_HOST"`
	Port     int    `envconfig:"MARKET_MAIL_PORT" default:"587"`
	Username string `envconfig:"MARKET_MAIL_USERNAME"`
	Password string `envconfig:"MARKET_MAIL_PASSWORD"`
	From     string `envconfig:"MARKET_MAIL_FROM"`
}

type SyncConfig struct {
	FetchTimeout time.Duration `envconfig:"MARKET_SYNC_FETCH_TIMEOUT" default:"30s"`
	MaxBodyBytes int64         `envconfig:"MARKET_SYNC_MAX_BODY_BYTES" default:"10485760"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MARKET_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
