package portal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFile_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
qr:
  base_url: "https://qr.example.test/create-qr-code/"
  size_px: 150
export:
  reset_delay: 2s
  rate_per_minute: 5
pdf:
  enabled: true
  timeout: 30s
downloads:
  sign_url_ttl: 1m
`), 0o600))

	t.Setenv("QR_SIZE_PX", "300")

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "https://qr.example.test/create-qr-code/", cfg.QRBaseURL)
	assert.Equal(t, 300, cfg.QRSizePx)
	assert.Equal(t, 2*time.Second, cfg.ExportResetDelay)
	assert.Equal(t, 5, cfg.ExportRatePerMin)
	assert.True(t, cfg.PDFEnabled)
	assert.Equal(t, 30*time.Second, cfg.PDFTimeout)
	assert.Equal(t, time.Minute, cfg.SignURLTTL)
}

func TestLoadConfigFile_Defaults(t *testing.T) {
	cfg, err := LoadConfigFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().QRBaseURL, cfg.QRBaseURL)
	assert.False(t, cfg.PDFEnabled)
}

func TestLoadConfigFile_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("export:\n  reset_delay: soon\n"), 0o600))
	_, err := LoadConfigFile(path)
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("a")
	assert.True(t, ok)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)
	ok, wait := rl.Allow("a")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	ok, _ = rl.Allow("b")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = rl.Allow("a")
	assert.True(t, ok)

	ok, _ = NewRateLimiter(0, time.Minute).Allow("a")
	assert.True(t, ok)
}

func TestRateLimiter_EvictsExpiredClients(t *testing.T) {
	now := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	for _, c := range []string{"a", "b", "c"} {
		ok, _ := rl.Allow(c)
		require.True(t, ok)
	}
	assert.Len(t, rl.perClient, 3)

	now = now.Add(time.Minute)
	ok, _ := rl.Allow("d")
	assert.True(t, ok)
	assert.Len(t, rl.perClient, 1)

	ok, _ = rl.Allow("d")
	assert.False(t, ok)
}
