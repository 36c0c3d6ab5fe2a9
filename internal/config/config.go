// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	App() AppConfig
	Credentials() CredentialsConfig
	Browser() BrowserConfig
	Timeouts() TimeoutsConfig
	Report() ReportConfig
	Store() StoreConfig
	Lookup(key, fallback string) string

	// Browser Setters
	SetBrowserName(string)
	SetBrowserHeadless(bool)
	SetBrowserConcurrency(int)

	// App Setters
	SetBaseURL(string)
}

// Config holds the entire application configuration. It is treated as
// read-only once the CLI has applied its flag overrides.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	AppCfg         AppConfig         `mapstructure:"app" yaml:"app"`
	CredentialsCfg CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	BrowserCfg     BrowserConfig     `mapstructure:"browser" yaml:"browser"`
	TimeoutsCfg    TimeoutsConfig    `mapstructure:"timeouts" yaml:"timeouts"`
	ReportCfg      ReportConfig      `mapstructure:"report" yaml:"report"`
	StoreCfg       StoreConfig       `mapstructure:"store" yaml:"store"`

	// settings is a flattened, immutable copy of every key viper knew about
	// at load time. It backs Lookup.
	settings map[string]string `mapstructure:"-" yaml:"-"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) App() AppConfig                 { return c.AppCfg }
func (c *Config) Credentials() CredentialsConfig { return c.CredentialsCfg }
func (c *Config) Browser() BrowserConfig         { return c.BrowserCfg }
func (c *Config) Timeouts() TimeoutsConfig       { return c.TimeoutsCfg }
func (c *Config) Report() ReportConfig           { return c.ReportCfg }
func (c *Config) Store() StoreConfig             { return c.StoreCfg }

// Lookup returns the raw string value for a dotted key such as
// "credentials.standard_user", or fallback when the key was never set.
func (c *Config) Lookup(key, fallback string) string {
	if v, ok := c.settings[strings.ToLower(key)]; ok && v != "" {
		return v
	}
	return fallback
}

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserName(name string)  { c.BrowserCfg.Name = strings.ToLower(name) }
func (c *Config) SetBrowserHeadless(b bool)   { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserConcurrency(n int) { c.BrowserCfg.Concurrency = n }
func (c *Config) SetBaseURL(u string)         { c.AppCfg.BaseURL = u }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AppConfig describes the application under test.
type AppConfig struct {
	BaseURL     string `mapstructure:"base_url" yaml:"base_url"`
	Name        string `mapstructure:"name" yaml:"name"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// CredentialsConfig holds the well-known demo accounts.
type CredentialsConfig struct {
	StandardUser  string `mapstructure:"standard_user" yaml:"standard_user"`
	LockedOutUser string `mapstructure:"locked_out_user" yaml:"locked_out_user"`
	ProblemUser   string `mapstructure:"problem_user" yaml:"problem_user"`
	Password      string `mapstructure:"password" yaml:"-"`
}

// Supported browser names.
const (
	BrowserChrome  = "chrome"
	BrowserFirefox = "firefox"
	BrowserEdge    = "edge"
	BrowserSafari  = "safari"
)

// BrowserConfig holds settings for the browser instances.
type BrowserConfig struct {
	Name         string   `mapstructure:"name" yaml:"name"`
	Headless     bool     `mapstructure:"headless" yaml:"headless"`
	Concurrency  int      `mapstructure:"concurrency" yaml:"concurrency"`
	Args         []string `mapstructure:"args" yaml:"args"`
	WindowWidth  int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int      `mapstructure:"window_height" yaml:"window_height"`
	// ExecPath overrides browser discovery for the chrome engine.
	ExecPath string `mapstructure:"exec_path" yaml:"exec_path"`
}

// TimeoutsConfig tunes waits. Element is the single timeout applied to every
// element wait.
type TimeoutsConfig struct {
	Element      time.Duration `mapstructure:"element" yaml:"element"`
	Navigation   time.Duration `mapstructure:"navigation" yaml:"navigation"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	Settle       time.Duration `mapstructure:"settle" yaml:"settle"`
}

// ReportConfig controls where run artifacts are written.
type ReportConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	JSONL       bool   `mapstructure:"jsonl" yaml:"jsonl"`
	JUnit       bool   `mapstructure:"junit" yaml:"junit"`
	Screenshots bool   `mapstructure:"screenshots" yaml:"screenshots"`
}

// StoreConfig holds the optional results database connection details.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" yaml:"url"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	cfg.settings = snapshot(v)
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "sauce-e2e")
	v.SetDefault("logger.log_file", "test-output/sauce-e2e.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- App --
	v.SetDefault("app.base_url", "https://www.saucedemo.com/")
	v.SetDefault("app.name", "SauceDemo")
	v.SetDefault("app.environment", "QA")

	// -- Credentials --
	v.SetDefault("credentials.standard_user", "standard_user")
	v.SetDefault("credentials.locked_out_user", "locked_out_user")
	v.SetDefault("credentials.problem_user", "problem_user")
	v.SetDefault("credentials.password", "secret_sauce")

	// -- Browser --
	v.SetDefault("browser.name", BrowserChrome)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.concurrency", 2)
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)

	// -- Timeouts --
	v.SetDefault("timeouts.element", "15s")
	v.SetDefault("timeouts.navigation", "30s")
	v.SetDefault("timeouts.poll_interval", "250ms")
	v.SetDefault("timeouts.settle", "300ms")

	// -- Report --
	v.SetDefault("report.dir", "test-output")
	v.SetDefault("report.jsonl", true)
	v.SetDefault("report.junit", true)
	v.SetDefault("report.screenshots", true)

	// -- Store --
	v.SetDefault("store.enabled", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	v.BindEnv("credentials.password", "SAUCE_PASSWORD")
	v.BindEnv("store.url", "SAUCE_STORE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Manually load the password if Unmarshal didn't pick it up
	if cfg.CredentialsCfg.Password == "" {
		cfg.CredentialsCfg.Password = os.Getenv("SAUCE_PASSWORD")
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	cfg.settings = snapshot(v)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.LoggerCfg.LogFile, err = homedir.Expand(c.LoggerCfg.LogFile); err != nil {
		return fmt.Errorf("failed to expand logger.log_file: %w", err)
	}
	if c.ReportCfg.Dir, err = homedir.Expand(c.ReportCfg.Dir); err != nil {
		return fmt.Errorf("failed to expand report.dir: %w", err)
	}
	if c.BrowserCfg.ExecPath, err = homedir.Expand(c.BrowserCfg.ExecPath); err != nil {
		return fmt.Errorf("failed to expand browser.exec_path: %w", err)
	}
	return nil
}

// snapshot flattens every known key into an immutable string map so Lookup
// can be called from concurrent journeys without touching viper.
func snapshot(v *viper.Viper) map[string]string {
	out := make(map[string]string)
	for _, key := range v.AllKeys() {
		out[key] = v.GetString(key)
	}
	return out
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	u, err := url.Parse(c.AppCfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("app.base_url must be an absolute URL, got %q", c.AppCfg.BaseURL)
	}
	switch c.BrowserCfg.Name {
	case BrowserChrome, BrowserFirefox, BrowserEdge, BrowserSafari:
	default:
		return fmt.Errorf("browser.name must be one of chrome, firefox, edge, safari, got %q", c.BrowserCfg.Name)
	}
	if c.BrowserCfg.Concurrency <= 0 {
		return fmt.Errorf("browser.concurrency must be a positive integer")
	}
	if c.TimeoutsCfg.Element <= 0 {
		return fmt.Errorf("timeouts.element must be a positive duration")
	}
	if c.TimeoutsCfg.PollInterval <= 0 || c.TimeoutsCfg.PollInterval > c.TimeoutsCfg.Element {
		return fmt.Errorf("timeouts.poll_interval must be positive and no larger than timeouts.element")
	}
	if c.StoreCfg.Enabled && c.StoreCfg.URL == "" {
		return fmt.Errorf("store.url is required when store.enabled is true")
	}
	return nil
}
