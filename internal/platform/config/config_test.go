package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/endpoints"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, 30*time.Minute, cfg.ContextTTL)
	assert.Equal(t, 10*time.Minute, cfg.StateTTL)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.True(t, cfg.SecureCookies)
	assert.Empty(t, cfg.OAuth)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PODIUM_ADDR", ":9090")
	t.Setenv("PUBLIC_URL", "https://podium.example/")
	t.Setenv("AUTH_CONTEXT_TTL", "15m")
	t.Setenv("OAUTH_STATE_TTL", "not-a-duration")
	t.Setenv("AUTH_CONTEXT_STORAGE", StorageRedis)
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("OAUTH_GOOGLE_CLIENT_ID", "podium-web")
	t.Setenv("OAUTH_GOOGLE_CLIENT_SECRET", "shh")
	t.Setenv("INSECURE_COOKIES", "true")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "https://podium.example", cfg.PublicURL)
	assert.Equal(t, 15*time.Minute, cfg.ContextTTL)
	assert.Equal(t, 10*time.Minute, cfg.StateTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.False(t, cfg.SecureCookies)
	require.NoError(t, cfg.Validate())

	oauth := cfg.OAuthConfigs()
	require.Contains(t, oauth, "google")
	assert.Equal(t, "podium-web", oauth["google"].ClientID)
	assert.Equal(t, endpoints.Google.AuthURL, oauth["google"].Endpoint.AuthURL)
	assert.Empty(t, oauth["google"].RedirectURL)
}

func TestValidate(t *testing.T) {
	base := func() Server {
		return Server{StorageBackend: StorageMemory, SessionSigningKey: devSigningKey}
	}

	t.Run("unknown backend", func(t *testing.T) {
		cfg := base()
		cfg.StorageBackend = "etcd"
		assert.Error(t, cfg.Validate())
	})

	t.Run("postgres without url", func(t *testing.T) {
		cfg := base()
		cfg.StorageBackend = StoragePostgres
		assert.Error(t, cfg.Validate())
	})

	t.Run("production refuses the development key", func(t *testing.T) {
		cfg := base()
		cfg.Environment = "production"
		cfg.GoTrue.URL = "https://auth.podium.example"
		assert.Error(t, cfg.Validate())

		cfg.SessionSigningKey = "0123456789abcdef0123456789abcdef"
		assert.NoError(t, cfg.Validate())
	})
}
