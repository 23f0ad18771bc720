package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// Storage backends for the auth context store.
const (
	StorageMemory   = "memory"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

const devSigningKey = "dev-secret-key-change-in-production"

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	// PublicURL is the externally visible origin used for OAuth callbacks
	// and reset email links.
	PublicURL string

	SessionSigningKey string
	SessionTTL        time.Duration
	SecureCookies     bool

	ContextTTL     time.Duration
	StateTTL       time.Duration
	SweepInterval  time.Duration
	RequestTimeout time.Duration
	MaxBodyBytes   int64

	StorageBackend string
	Redis          RedisConfig
	Database       DatabaseConfig
	Kafka          KafkaConfig
	GoTrue         GoTrueConfig
	OAuth          map[string]OAuthProvider
}

// RedisConfig configures the Redis client.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// KafkaConfig configures the audit event sink. No brokers means audit
// events stay in memory.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// GoTrueConfig points at the credential store. An empty URL selects the
// in-memory credential store.
type GoTrueConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// OAuthProvider is the client registration with one identity provider.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	Endpoint     oauth2.Endpoint
	Scopes       []string
}

// IsProduction reports whether the service runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// Validate rejects settings that are unsafe outside development.
func (s Server) Validate() error {
	switch s.StorageBackend {
	case StorageMemory, StorageRedis, StoragePostgres:
	default:
		return fmt.Errorf("unknown AUTH_CONTEXT_STORAGE %q", s.StorageBackend)
	}
	if s.StorageBackend == StorageRedis && s.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required for redis storage")
	}
	if s.StorageBackend == StoragePostgres && s.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required for postgres storage")
	}
	if s.IsProduction() {
		if s.SessionSigningKey == devSigningKey || len(s.SessionSigningKey) < 32 {
			return fmt.Errorf("SESSION_SIGNING_KEY must be set to at least 32 bytes in production")
		}
		if s.GoTrue.URL == "" {
			return fmt.Errorf("GOTRUE_URL is required in production")
		}
	}
	return nil
}

// OAuthConfigs builds the OAuth client of every configured provider.
// RedirectURL is left empty; it is set per request.
func (s Server) OAuthConfigs() map[string]*oauth2.Config {
	out := make(map[string]*oauth2.Config, len(s.OAuth))
	for name, p := range s.OAuth {
		out[name] = &oauth2.Config{
			ClientID:     p.ClientID,
			ClientSecret: p.ClientSecret,
			Endpoint:     p.Endpoint,
			Scopes:       p.Scopes,
		}
	}
	return out
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:        envOr("PODIUM_ADDR", ":8080"),
		Environment: envOr("PODIUM_ENV", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),
		PublicURL:   strings.TrimRight(envOr("PUBLIC_URL", "http://localhost:8080"), "/"),

		SessionSigningKey: envOr("SESSION_SIGNING_KEY", devSigningKey),
		SessionTTL:        durationOr("SESSION_TTL", 24*time.Hour),

		ContextTTL:     durationOr("AUTH_CONTEXT_TTL", 30*time.Minute),
		StateTTL:       durationOr("OAUTH_STATE_TTL", 10*time.Minute),
		SweepInterval:  durationOr("AUTH_CONTEXT_SWEEP_INTERVAL", 30*time.Second),
		RequestTimeout: durationOr("REQUEST_TIMEOUT", 30*time.Second),
		MaxBodyBytes:   int64(intOr("MAX_BODY_BYTES", 64<<10)),

		StorageBackend: envOr("AUTH_CONTEXT_STORAGE", StorageMemory),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     intOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: intOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  durationOr("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  durationOr("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: durationOr("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    intOr("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    intOr("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: durationOr("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("AUDIT_TOPIC", "podium.auth.audit"),
		},
		GoTrue: GoTrueConfig{
			URL:     os.Getenv("GOTRUE_URL"),
			APIKey:  os.Getenv("GOTRUE_API_KEY"),
			Timeout: durationOr("GOTRUE_TIMEOUT", 10*time.Second),
		},
		OAuth: oauthFromEnv(),
	}
	// Cookies are Secure unless explicitly disabled for plain-http local runs.
	cfg.SecureCookies = os.Getenv("INSECURE_COOKIES") != "true"
	return cfg
}

// oauthFromEnv reads the Google client and one optional generic OIDC
// provider (OAUTH_OIDC_NAME with explicit endpoints).
func oauthFromEnv() map[string]OAuthProvider {
	providers := map[string]OAuthProvider{}
	if id := os.Getenv("OAUTH_GOOGLE_CLIENT_ID"); id != "" {
		providers["google"] = OAuthProvider{
			ClientID:     id,
			ClientSecret: os.Getenv("OAUTH_GOOGLE_CLIENT_SECRET"),
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		}
	}
	if name := os.Getenv("OAUTH_OIDC_NAME"); name != "" && os.Getenv("OAUTH_OIDC_CLIENT_ID") != "" {
		providers[name] = OAuthProvider{
			ClientID:     os.Getenv("OAUTH_OIDC_CLIENT_ID"),
			ClientSecret: os.Getenv("OAUTH_OIDC_CLIENT_SECRET"),
			Endpoint: oauth2.Endpoint{
				AuthURL:  os.Getenv("OAUTH_OIDC_AUTH_URL"),
				TokenURL: os.Getenv("OAUTH_OIDC_TOKEN_URL"),
			},
			Scopes: []string{"openid", "email"},
		}
	}
	return providers
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func intOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
