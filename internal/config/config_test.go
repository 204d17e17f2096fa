package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Port)
	assert.Equal(t, 15*time.Minute, cfg.Server.WriteTimeout)
	assert.Equal(t, "gemini", cfg.Extractor.Primary.Provider)
	assert.Equal(t, 1, cfg.Extractor.MaxInFlight)
	assert.True(t, cfg.Extractor.LocalChecks)
	assert.Equal(t, 90*time.Second, cfg.Extractor.CallTimeout)
	assert.Equal(t, uint32(5), cfg.Extractor.BreakerMinRequests)
	assert.Nil(t, cfg.Extractor.SecondaryConfig())
	assert.Nil(t, cfg.Extractor.TertiaryConfig())

	assert.Equal(t, "sentinel", cfg.Report.MissingPolicy)
	assert.Equal(t, "preserve", cfg.Report.NameMode)
	assert.Equal(t, 2, cfg.Report.SingleLineMax)
	assert.Equal(t, 6, cfg.Report.PairedMax)
	assert.True(t, cfg.Report.DocumentsSheet)

	assert.Equal(t, "local", cfg.Storage.Provider)
	assert.Equal(t, int64(50), cfg.Storage.MaxFileSizeMB)
	assert.Equal(t, 24*time.Hour, cfg.Download.Expiry)
	assert.Equal(t, "noop", cfg.Notify.Provider)
	assert.Empty(t, cfg.Notify.Recipients)
	assert.Len(t, cfg.CORS.AllowedOrigins, 3)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FINSYNC_EXTRACTOR_MAX_IN_FLIGHT", "4")
	t.Setenv("FINSYNC_EXTRACTOR_SECONDARY_PROVIDER", "claude")
	t.Setenv("FINSYNC_EXTRACTOR_SECONDARY_API_KEY", "sk-test")
	t.Setenv("FINSYNC_REPORT_MISSING_POLICY", "blank")
	t.Setenv("FINSYNC_REPORT_DOCUMENTS_SHEET", "false")
	t.Setenv("FINSYNC_NOTIFY_RECIPIENTS", "a@example.com, ,b@example.com")
	t.Setenv("FINSYNC_CORS_ALLOWED_ORIGINS", "*")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Extractor.MaxInFlight)
	sc := cfg.Extractor.SecondaryConfig()
	require.NotNil(t, sc)
	assert.Equal(t, "claude", sc.Provider)
	assert.Equal(t, "sk-test", sc.APIKey)
	assert.Equal(t, "blank", cfg.Report.MissingPolicy)
	assert.False(t, cfg.Report.DocumentsSheet)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Notify.Recipients)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_PortFallback(t *testing.T) {
	t.Setenv("PORT", "9090")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Port)

	t.Setenv("FINSYNC_SERVER_PORT", ":7000")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Port)
}

func TestLoad_GeminiKeyFallback(t *testing.T) {
	t.Setenv("FINSYNC_EXTRACTOR_PRIMARY_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gm-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gm-key", cfg.Extractor.Primary.APIKey)
}
