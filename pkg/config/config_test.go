package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, MediaDriverLocal, cfg.Media.Driver)
	assert.Equal(t, int64(8*1024*1024), cfg.Media.MaxFileSizeBytes)
	assert.Equal(t, 15*time.Minute, cfg.Results.PublicCacheTTL)
	assert.Equal(t, "session", cfg.Cookie.AccessName)
	assert.Nil(t, cfg.Mail.StaffRecipients)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("MEDIA_PUBLIC_BASE_URL", "https://cdn.example.com/")
	v.Set("MAIL_STAFF_RECIPIENTS", "office@example.com, admissions@example.com ,")
	v.Set("RESULTS_MARKSHEET_TTL", "not-a-duration")

	cfg := fromViper(v)

	assert.Equal(t, "https://cdn.example.com", cfg.Media.PublicBaseURL)
	assert.Equal(t, []string{"office@example.com", "admissions@example.com"}, cfg.Mail.StaffRecipients)
	assert.Equal(t, 30*time.Minute, cfg.Results.MarksheetTTL)
}
