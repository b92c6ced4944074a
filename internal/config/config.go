package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// MinJWTSecretLength is the minimum accepted length of the HMAC signing key.
const MinJWTSecretLength = 32

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; defaults match a local development setup where
// MySQL may be absent and the in-memory store takes over.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"` // application environment (development/production)
	Port     string `env:"APP_PORT" envDefault:"5000"`       // HTTP port to listen on
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`      // debug, info, warn or error

	DBUser           string        `env:"DB_USER" envDefault:"root"`          // database username
	DBPass           string        `env:"DB_PASS"`                            // database password (empty allowed)
	DBHost           string        `env:"DB_HOST" envDefault:"localhost"`     // database host
	DBPort           string        `env:"DB_PORT" envDefault:"3306"`          // database port
	DBName           string        `env:"DB_NAME" envDefault:"spiderhome"`    // database name
	DBConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" envDefault:"5s"` // bound on the single startup connection attempt
	DBMaxOpenConns   int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`  // connection pool size

	JWTSecret  string        `env:"JWT_SECRET,required"`         // secret used to sign bearer tokens
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`  // lifetime of an issued bearer token
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"` // bcrypt cost for password hashing

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin_spiderhome"` // seeded admin account
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"Industrial2024"`   // seeded admin password (only used when the account is absent)

	StaticDir         string        `env:"STATIC_DIR" envDefault:"./client/dist"`                                                       // built SPA
	UploadDir         string        `env:"UPLOAD_DIR" envDefault:"./uploads"`                                                           // uploaded images
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES" envDefault:"5242880"`                                                       // upload body cap
	AllowedImageTypes []string      `env:"ALLOWED_IMAGE_TYPES" envSeparator:"," envDefault:"image/jpeg,image/png,image/webp,image/gif"` // upload MIME allow-list
	APITimeout        time.Duration `env:"API_TIMEOUT" envDefault:"30s"`                                                                // per-request deadline
	CORSOrigins       []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`                                                // allowed CORS origins

	LoginMaxFailures   int           `env:"LOGIN_MAX_FAILURES" envDefault:"5"`     // failed logins tolerated per IP and window
	LoginFailureWindow time.Duration `env:"LOGIN_FAILURE_WINDOW" envDefault:"15m"` // brute-force counting window

	// CIDRs of reverse proxies allowed to set X-Forwarded-For.  Empty means
	// the client address is always the TCP peer.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	RedisURL    string `env:"REDIS_URL"`    // optional; enables response cache and Redis login counter
	RabbitMQURL string `env:"RABBITMQ_URL"` // optional; enables catalog change events

	Cache CacheConfig
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DSNAddr returns host:port of the MySQL server, used in log lines.
func (c Config) DSNAddr() string {
	return c.DBHost + ":" + c.DBPort
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// TrustedProxyNets parses TrustedProxies.  A bare IP is treated as a
// single-host range.
func (c Config) TrustedProxyNets() ([]*net.IPNet, error) {
	var nets []*net.IPNet
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			ip := net.ParseIP(raw)
			if ip == nil {
				return nil, fmt.Errorf("invalid trusted proxy %q", raw)
			}
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		_, n, err := net.ParseCIDR(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// Load parses environment variables into a Config and validates the values
// that cannot be defaulted safely.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(cfg.JWTSecret) < MinJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d bytes long, got %d", MinJWTSecretLength, len(cfg.JWTSecret))
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", cfg.BcryptCost)
	}
	if _, err := cfg.TrustedProxyNets(); err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}
	if cfg.DBMaxOpenConns < 1 {
		cfg.DBMaxOpenConns = 1
	}
	if cfg.LoginMaxFailures < 1 {
		cfg.LoginMaxFailures = 1
	}
	cfg.Cache.normalize()
	return cfg, nil
}
