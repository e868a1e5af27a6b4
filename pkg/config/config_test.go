package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	require.NotNil(t, cfg)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, MailProviderLog, cfg.Mail.Provider)
	assert.Equal(t, 2*time.Minute, cfg.Lookup.CacheTTL)
	assert.Equal(t, 72*time.Hour, cfg.Reports.Retention)
	assert.Equal(t, "@every 1h", cfg.Reports.CleanupSchedule)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("MAIL_PROVIDER", " SendGrid ")
	v.Set("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	v.Set("LOOKUP_CACHE_TTL", "not-a-duration")
	v.Set("JWT_EXPIRATION", "1h")

	cfg := fromViper(v)
	assert.Equal(t, MailProviderSendgrid, cfg.Mail.Provider)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2*time.Minute, cfg.Lookup.CacheTTL)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
}

func TestSplitAndTrimEmpty(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
}
