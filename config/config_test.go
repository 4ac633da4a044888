package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "authgate", cfg.AppName)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURL)
	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10*time.Minute, cfg.OAuthStateTTL)
	assert.True(t, cfg.MailSendEnabled)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_NAME", "myapp")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("MONGODB_MAX_POOL_SIZE", "50")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("MAIL_SEND_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "myapp", cfg.AppName)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, uint64(50), cfg.MongoMaxPoolSize)
	assert.True(t, cfg.CookieSecure)
	assert.False(t, cfg.MailSendEnabled)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	t.Setenv("REDIS_DB", "not-an-int")
	t.Setenv("COOKIE_SECURE", "not-a-bool")

	cfg := Load()

	assert.Equal(t, 720*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.CookieSecure)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DBHost: "db", DBPort: "5432", DBUser: "app",
		DBPassword: "secret", DBName: "audit", DBSSLMode: "disable",
	}
	assert.Equal(t, "postgres://app:secret@db:5432/audit?sslmode=disable", cfg.PostgresDSN())
}

func TestCORSOrigins(t *testing.T) {
	cfg := &Config{CORSAllowedOrigins: "http://a.test, http://b.test ,"}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())

	empty := &Config{}
	assert.Empty(t, empty.CORSOrigins())
}

func TestESAddrs(t *testing.T) {
	cfg := &Config{ElasticsearchAddrs: "http://es1:9200,http://es2:9200"}
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.ESAddrs())
}
