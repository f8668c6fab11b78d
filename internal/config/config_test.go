package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFailsWithoutStoreCredentials(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DATABASE_PASSWORD", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingConfig)
	assert.ErrorContains(t, err, "DATABASE_URL")
	assert.ErrorContains(t, err, "DATABASE_PASSWORD")

	// 只缺密码
	t.Setenv("DATABASE_URL", "host=localhost user=newsbot dbname=newsbot")
	_, err = Load()
	require.ErrorIs(t, err, ErrMissingConfig)
	assert.NotContains(t, err.Error(), "DATABASE_URL,")
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "host=localhost user=newsbot dbname=newsbot")
	t.Setenv("DATABASE_PASSWORD", "secret")
	t.Setenv("APP_PORT", "1234")
	t.Setenv("SCRAPE_DELAY", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "1234", cfg.AppPort)
	assert.Equal(t, 250*time.Millisecond, cfg.ScrapeDelay)
	assert.Equal(t, 400, cfg.ScrapeMinChars)
	assert.EqualValues(t, 3, cfg.ScrapeFeedID)
	assert.Equal(t, 10*time.Second, cfg.ScrapeTimeout)
	assert.Equal(t, "Mozilla/5.0", cfg.ScrapeUserAgent)
	assert.Equal(t, []string{DefaultCutMarker}, cfg.CutMarkers)
}

func TestPostgresDSN(t *testing.T) {
	cases := []struct {
		name string
		url  string
		pass string
		want string
	}{
		{"keyword form", "host=db user=newsbot dbname=newsbot", "pw", "host=db user=newsbot dbname=newsbot password=pw"},
		{"keyword form quoted", "host=db", "p w'x", `host=db password='p w\'x'`},
		{"url form", "postgres://newsbot@db:5432/newsbot?sslmode=disable", "pw", "postgres://newsbot:pw@db:5432/newsbot?sslmode=disable"},
		{"url form without user", "postgresql://db/newsbot", "pw", "postgresql://postgres:pw@db/newsbot"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := &Config{DatabaseURL: c.url, DatabasePassword: c.pass}
			got, err := cfg.PostgresDSN()
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseMarkers(t *testing.T) {
	assert.Equal(t, []string{"\nÀ regarder\n-", "\nLire aussi"}, parseMarkers(`\nÀ regarder\n-||\nLire aussi`))
	assert.Equal(t, []string{DefaultCutMarker}, parseMarkers("  "))
}
