// ABOUTME: Process configuration loaded from .env files and environment variables
// ABOUTME: Resolves the XDG database path and builds the shared logrus logger
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// MinAutomationInterval is the shortest interval the automation daemon accepts.
const MinAutomationInterval = time.Minute

type Config struct {
	DBPath             string        `env:"NAOVA_DB_PATH"`
	LogLevel           string        `env:"NAOVA_LOG_LEVEL" envDefault:"info"`
	LogFormat          string        `env:"NAOVA_LOG_FORMAT" envDefault:"text"`
	HTTPPort           int           `env:"NAOVA_HTTP_PORT" envDefault:"8080"`
	AutoSendRFQ        bool          `env:"NAOVA_AUTO_SEND_RFQ" envDefault:"true"`
	AutomationInterval time.Duration `env:"NAOVA_AUTOMATION_INTERVAL" envDefault:"15m"`
	DefaultCurrency    string        `env:"NAOVA_DEFAULT_CURRENCY" envDefault:"USD"`

	// Identity used by the stdio MCP session and the CLI.
	Role     string `env:"NAOVA_ROLE" envDefault:"operator"`
	ClientID string `env:"NAOVA_CLIENT_ID"`

	Gmail GmailOptions
}

type GmailOptions struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	Label        string `env:"NAOVA_GMAIL_LABEL" envDefault:"procurement"`
	// Comma separated sender=client pairs, e.g. "buyer@acme.com=acme".
	SenderClients string `env:"NAOVA_GMAIL_SENDER_CLIENTS"`
}

// SenderClientMap parses SenderClients into an address->client id map.
func (g GmailOptions) SenderClientMap() map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(g.SenderClients, ",") {
		addr, client, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || addr == "" || client == "" {
			continue
		}
		out[strings.ToLower(strings.TrimSpace(addr))] = strings.TrimSpace(client)
	}
	return out
}

// DataDir returns the XDG data directory used for the database and tokens.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "naova")
}

// DefaultDBPath returns the XDG-compliant database location.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "naova.db")
}

// LoadEnv loads whichever of the given dotenv files exist.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env/.env.local and then the environment.
func Load() (*Config, error) {
	if _, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
		return nil, errors.Wrap(err, "load env files")
	}
	return Parse()
}

// Parse builds a Config from the current environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.AutomationInterval < MinAutomationInterval {
		return errors.Errorf("automation interval must be at least %s, got %s", MinAutomationInterval, c.AutomationInterval)
	}
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return errors.Errorf("invalid http port %d", c.HTTPPort)
	}
	if len(c.DefaultCurrency) != 3 {
		return errors.Errorf("default currency must be a 3-letter code, got %q", c.DefaultCurrency)
	}
	return nil
}

// NewLogger builds the logrus logger described by the config.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}
