package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"hearth/internal/auth"
	"hearth/internal/luma"
)

// Environment variables that override the config file. The API key is only
// ever read from the environment or the file; it is never written back.
const (
	EnvAPIKey     = "LUMA_API_KEY"
	EnvCalendarID = "LUMA_CALENDAR_ID"
	EnvListen     = "HEARTH_LISTEN"
	EnvLogLevel   = "HEARTH_LOG_LEVEL"
)

const (
	DefaultListen     = "127.0.0.1:8080"
	DefaultCalendarID = "hearthgatherings"
	DefaultEventLimit = 4
	DefaultProbeCron  = "*/15 * * * *"
	DefaultLogLevel   = "info"
)

// LumaConfig describes the calendar provider.
type LumaConfig struct {
	// BaseURL is the provider API root.
	BaseURL string `yaml:"base_url" json:"base_url" validate:"required,url"`
	// CalendarID names the calendar whose events are listed.
	CalendarID string `yaml:"calendar_id" json:"calendar_id" validate:"required"`
	// APIKey is the private credential. Prefer LUMA_API_KEY over the file.
	APIKey string `yaml:"api_key,omitempty" json:"-"`
	// EventLimit is how many upcoming events the landing page asks for.
	EventLimit int `yaml:"event_limit" json:"event_limit" validate:"min=1,max=50"`
}

// BasicAuthConfig protects the diagnostic endpoints. PasswordHash is an
// argon2id hash as produced by `hearth hash-password`.
type BasicAuthConfig struct {
	Username     string `yaml:"username" json:"username" validate:"required"`
	PasswordHash string `yaml:"password_hash" json:"-" validate:"required,argon2id"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// LogLevel is one of debug, info, error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info error"`

	Luma LumaConfig `yaml:"luma" json:"luma"`

	// ProbeCron schedules the provider connection check. Empty disables it.
	ProbeCron string `yaml:"probe_cron" json:"probe_cron" validate:"omitempty,cron"`

	// PreviewPath is where `hearth capture` writes the landing page PNG and
	// where /preview.png reads it from.
	PreviewPath string `yaml:"preview_path" json:"preview_path"`

	// BasicAuth, if non-nil, guards /api/debug, /metrics and /preview.png.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty" validate:"omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   DefaultListen,
		LogLevel: DefaultLogLevel,
		Luma: LumaConfig{
			BaseURL:    luma.DefaultBaseURL,
			CalendarID: DefaultCalendarID,
			EventLimit: DefaultEventLimit,
		},
		ProbeCron:   DefaultProbeCron,
		PreviewPath: "./var/preview.png",
	}
}

// Normalize fills in missing/zero values so partially-filled configs still
// behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.Luma.BaseURL == "" {
		c.Luma.BaseURL = luma.DefaultBaseURL
	}
	c.Luma.BaseURL = strings.TrimRight(c.Luma.BaseURL, "/")
	if c.Luma.CalendarID == "" {
		c.Luma.CalendarID = DefaultCalendarID
	}
	if c.Luma.EventLimit <= 0 {
		c.Luma.EventLimit = DefaultEventLimit
	}
	if c.PreviewPath == "" {
		c.PreviewPath = "./var/preview.png"
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.PasswordHash == "" {
		c.BasicAuth = nil
	}
}

// ApplyEnv overrides file values with environment variables. lookup is
// usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAPIKey); ok && strings.TrimSpace(v) != "" {
		c.Luma.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvCalendarID); ok && strings.TrimSpace(v) != "" {
		c.Luma.CalendarID = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		c.Listen = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// Credentials returns the provider credentials as an immutable value.
func (c *Config) Credentials() luma.Credentials {
	return luma.Credentials{
		APIKey:     c.Luma.APIKey,
		CalendarID: c.Luma.CalendarID,
	}
}

// LumaConfigured reports whether an API key was supplied. Its absence is
// not fatal: the site serves fallback events.
func (c *Config) LumaConfigured() bool {
	return c.Luma.APIKey != ""
}

// PublicCalendarURL is the provider page listing all events.
func (c *Config) PublicCalendarURL() string {
	return "https://lu.ma/" + c.Luma.CalendarID
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("cron", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("argon2id", func(fl validator.FieldLevel) bool {
		return auth.CheckHash(fl.Field().String()) == nil
	})
	return v
}

// Validate checks the configuration after defaults and env overrides.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Resolve loads the file at path, applies the process environment and
// validates the result.
func Resolve(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".hearth-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
