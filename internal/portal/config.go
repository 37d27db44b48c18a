package portal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/roadauthority/internal/qr"
	"github.com/yourorg/roadauthority/internal/render"
)

// Config holds settings for the portal service. Values resolve in the order
// defaults, then YAML file, then environment.
type Config struct {
	Addr             string
	QRBaseURL        string
	QRSizePx         int
	ExportResetDelay time.Duration
	PDFEnabled       bool
	PDFChromiumPath  string
	PDFTimeout       time.Duration
	SignURLTTL       time.Duration
	SigningSecret    string
	DownloadBaseURL  string
	ExportRatePerMin int
	MaxBodyBytes     int64
	ShutdownTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Addr:             ":8080",
		QRBaseURL:        qr.DefaultBaseURL,
		QRSizePx:         render.DefaultQRSizePx,
		ExportResetDelay: render.DefaultResetDelay,
		PDFEnabled:       false,
		PDFTimeout:       15 * time.Second,
		SignURLTTL:       10 * time.Minute,
		DownloadBaseURL:  "http://localhost:8080/downloads",
		ExportRatePerMin: 30,
		MaxBodyBytes:     1 << 20,
		ShutdownTimeout:  10 * time.Second,
	}
}

// LoadConfig reads the environment over the defaults.
func LoadConfig() Config {
	return applyEnv(DefaultConfig())
}

type configFile struct {
	Server struct {
		Addr            string `yaml:"addr"`
		MaxBodyBytes    int64  `yaml:"max_body_bytes"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	QR struct {
		BaseURL string `yaml:"base_url"`
		SizePx  int    `yaml:"size_px"`
	} `yaml:"qr"`
	Export struct {
		ResetDelay    string `yaml:"reset_delay"`
		RatePerMinute int    `yaml:"rate_per_minute"`
	} `yaml:"export"`
	PDF struct {
		Enabled      *bool  `yaml:"enabled"`
		ChromiumPath string `yaml:"chromium_path"`
		Timeout      string `yaml:"timeout"`
	} `yaml:"pdf"`
	Downloads struct {
		BaseURL       string `yaml:"base_url"`
		SignURLTTL    string `yaml:"sign_url_ttl"`
		SigningSecret string `yaml:"signing_secret"`
	} `yaml:"downloads"`
}

// LoadConfigFile applies a YAML file, when path is set, and then the
// environment.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var file configFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := applyFile(&cfg, file); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return applyEnv(cfg), nil
}

func applyFile(cfg *Config, f configFile) error {
	setString(&cfg.Addr, f.Server.Addr)
	if f.Server.MaxBodyBytes > 0 {
		cfg.MaxBodyBytes = f.Server.MaxBodyBytes
	}
	setString(&cfg.QRBaseURL, f.QR.BaseURL)
	if f.QR.SizePx > 0 {
		cfg.QRSizePx = f.QR.SizePx
	}
	if f.Export.RatePerMinute != 0 {
		cfg.ExportRatePerMin = f.Export.RatePerMinute
	}
	if f.PDF.Enabled != nil {
		cfg.PDFEnabled = *f.PDF.Enabled
	}
	setString(&cfg.PDFChromiumPath, f.PDF.ChromiumPath)
	setString(&cfg.DownloadBaseURL, f.Downloads.BaseURL)
	setString(&cfg.SigningSecret, f.Downloads.SigningSecret)

	for _, d := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"server.shutdown_timeout", f.Server.ShutdownTimeout, &cfg.ShutdownTimeout},
		{"export.reset_delay", f.Export.ResetDelay, &cfg.ExportResetDelay},
		{"pdf.timeout", f.PDF.Timeout, &cfg.PDFTimeout},
		{"downloads.sign_url_ttl", f.Downloads.SignURLTTL, &cfg.SignURLTTL},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = v
	}
	return nil
}

func applyEnv(cfg Config) Config {
	cfg.Addr = getenv("PORTAL_ADDR", cfg.Addr)
	cfg.QRBaseURL = getenv("QR_BASE_URL", cfg.QRBaseURL)
	cfg.QRSizePx = getInt("QR_SIZE_PX", cfg.QRSizePx)
	cfg.ExportResetDelay = getDuration("EXPORT_RESET_DELAY", cfg.ExportResetDelay)
	cfg.PDFEnabled = getBool("PDF_ENABLED", cfg.PDFEnabled)
	cfg.PDFChromiumPath = getenv("PDF_CHROMIUM_PATH", cfg.PDFChromiumPath)
	cfg.PDFTimeout = getDuration("PDF_TIMEOUT", cfg.PDFTimeout)
	cfg.SignURLTTL = getDuration("SIGN_URL_TTL", cfg.SignURLTTL)
	cfg.SigningSecret = getenv("SIGNING_SECRET", cfg.SigningSecret)
	cfg.DownloadBaseURL = getenv("DOWNLOAD_BASE_URL", cfg.DownloadBaseURL)
	cfg.ExportRatePerMin = getInt("EXPORT_RATE_PER_MIN", cfg.ExportRatePerMin)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	return cfg
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
