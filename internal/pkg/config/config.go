package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/99minutos/reserved-realm/internal/core/domain"
)

const envProduction = "production"

type Config struct {
	Port      string        `env:"PORT,      default=8080"`
	Env       string        `env:"ENV,       default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL, default=1h"`
	LogLevel  string        `env:"LOG_LEVEL, default=info"`

	// BootstrapPassword, when set, is installed as the superuser password on
	// startup unless one was already chosen.
	BootstrapPassword string `env:"BOOTSTRAP_PASSWORD"`
	StoreWorkers      int    `env:"STORE_WORKERS, default=8"`
	BcryptCost        int    `env:"BCRYPT_COST,   default=10"`

	Realm RealmConfig
	Mongo MongoConfig
	Redis RedisConfig
}

type RealmConfig struct {
	Enabled               bool     `env:"REALM_ENABLED,           default=true"`
	AcceptDefaultPassword bool     `env:"ACCEPT_DEFAULT_PASSWORD, default=true"`
	AnonymousUsername     string   `env:"ANONYMOUS_USERNAME,      default=_anonymous"`
	AnonymousRoles        []string `env:"ANONYMOUS_ROLES"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=security"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.IsProduction() && c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	if c.StoreWorkers < 0 {
		errs = append(errs, errors.New("STORE_WORKERS must not be negative"))
	}
	if c.BootstrapPassword != "" && len(c.BootstrapPassword) < 6 {
		errs = append(errs, errors.New("BOOTSTRAP_PASSWORD must be at least 6 characters"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in the production environment.
func (c *Config) IsProduction() bool {
	return c.Env == envProduction
}

func (c *Config) RealmSettings() domain.RealmSettings {
	return domain.RealmSettings{
		Enabled:               c.Realm.Enabled,
		AcceptDefaultPassword: c.Realm.AcceptDefaultPassword,
	}
}

func (c *Config) AnonymousUser() domain.AnonymousUser {
	return domain.NewAnonymousUser(c.Realm.AnonymousUsername, c.Realm.AnonymousRoles)
}
