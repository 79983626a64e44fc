package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"

	"github.com/aussiebroadwan/consoleauth/pkg/httpx"
)

// Storage drivers accepted by CONSOLE_STORAGE.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageFile   = "file"
	StorageMemory = "memory"
)

type Config struct {
	IdentityURL string `env:"CONSOLE_IDENTITY_URL,default=http://localhost:3333"` // Base URL of the identity provider
	PublicURL   string `env:"CONSOLE_PUBLIC_URL,default=http://localhost:5555"`   // How browsers reach this agent; callback URLs are built from it
	Realm       string `env:"CONSOLE_REALM,default=master"`                       // Realm used for refreshes and /readyz
	ClientID    string `env:"CONSOLE_CLIENT_ID,default=security-admin-console"`
	Scope       string `env:"CONSOLE_SCOPE,default=openid profile email"`

	Storage       string `env:"CONSOLE_STORAGE,default=sqlite"` // sqlite, redis, file or memory
	DatabaseFile  string `env:"CONSOLE_DATABASE_FILE,default=console.db"`
	StateDir      string `env:"CONSOLE_STATE_DIR,default=state"`
	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
	RedisPrefix   string `env:"CONSOLE_REDIS_PREFIX,default=consoleauth:"`
	MasterKeyPath string `env:"CONSOLE_MASTER_KEY_PATH"` // Optional: falls back to CONSOLE_MASTER_KEY, then an ephemeral key

	RefreshLead         time.Duration `env:"CONSOLE_REFRESH_LEAD,default=60s"`
	RefreshRetryBackoff time.Duration `env:"CONSOLE_REFRESH_RETRY_BACKOFF,default=30s"`
	ExpirySkew          time.Duration `env:"CONSOLE_EXPIRY_SKEW,default=60s"`
	HTTPTimeout         time.Duration `env:"CONSOLE_HTTP_TIMEOUT,default=10s"`
	WatchInterval       time.Duration `env:"CONSOLE_WATCH_INTERVAL,default=1s"` // Poll interval for drivers that cannot report changes

	Env                 string        `env:"ENV,default=dev"`
	LogLevel            string        `env:"LOG_LEVEL,default=info"`
	LogFormat           string        `env:"LOG_FORMAT,default=json"`
	Port                int           `env:"PORT,default=5555"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD,default=10s"`

	// Rate limit overrides. Unset values keep httpx.DefaultRateLimits.
	StrictRequests   int           `env:"RATELIMIT_STRICT_REQUESTS"`
	StrictWindow     time.Duration `env:"RATELIMIT_STRICT_WINDOW"`
	StrictBurst      int           `env:"RATELIMIT_STRICT_BURST"`
	ModerateRequests int           `env:"RATELIMIT_MODERATE_REQUESTS"`
	ModerateWindow   time.Duration `env:"RATELIMIT_MODERATE_WINDOW"`
	ModerateBurst    int           `env:"RATELIMIT_MODERATE_BURST"`
	LenientRequests  int           `env:"RATELIMIT_LENIENT_REQUESTS"`
	LenientWindow    time.Duration `env:"RATELIMIT_LENIENT_WINDOW"`
	LenientBurst     int           `env:"RATELIMIT_LENIENT_BURST"`
	PublicRequests   int           `env:"RATELIMIT_PUBLIC_REQUESTS"`
	PublicWindow     time.Duration `env:"RATELIMIT_PUBLIC_WINDOW"`
	PublicBurst      int           `env:"RATELIMIT_PUBLIC_BURST"`
}

// LoadConfig reads Config from the environment. Unset variables take the
// defaults in the struct tags; a value that does not parse is an error.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envdecode.StrictDecode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// RateLimits applies the RATELIMIT_* overrides to the default profiles.
func (c Config) RateLimits() httpx.RateLimitProfiles {
	p := httpx.DefaultRateLimits()
	p.Strict = p.Strict.Override(c.StrictRequests, c.StrictWindow, c.StrictBurst)
	p.Moderate = p.Moderate.Override(c.ModerateRequests, c.ModerateWindow, c.ModerateBurst)
	p.Lenient = p.Lenient.Override(c.LenientRequests, c.LenientWindow, c.LenientBurst)
	p.Public = p.Public.Override(c.PublicRequests, c.PublicWindow, c.PublicBurst)
	return p
}

func (c Config) Validate() error {
	switch c.Storage {
	case StorageSQLite, StorageRedis, StorageFile, StorageMemory:
	default:
		return fmt.Errorf("unknown CONSOLE_STORAGE %q (want sqlite, redis, file or memory)", c.Storage)
	}

	if c.IdentityURL == "" {
		return errors.New("CONSOLE_IDENTITY_URL is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	return nil
}
