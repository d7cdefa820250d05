package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	DefaultBaseURL        = "https://jsonplaceholder.typicode.com"
	DefaultTimeout        = 30 * time.Second
	DefaultConnectTimeout = 10 * time.Second
	DefaultRetryMax       = 2
	DefaultToolTimeout    = 30 * time.Second
	DefaultMaxOutputBytes = 20 * 1024
)

// HTTPSettings controls the outbound HTTP collaborator.
type HTTPSettings struct {
	Timeout        time.Duration
	ConnectTimeout time.Duration
	RetryMax       int
	RatePerMinute  float64
}

// Config holds runtime configuration values.
type Config struct {
	BaseURL        string
	Catalog        string
	ToolTimeout    time.Duration
	MaxOutputBytes int
	JSON           bool
	Verbose        bool
	HTTP           HTTPSettings
}

type rawHTTP struct {
	Timeout        string  `mapstructure:"timeout"`
	ConnectTimeout string  `mapstructure:"connect_timeout"`
	RetryMax       int     `mapstructure:"retry_max"`
	RatePerMinute  float64 `mapstructure:"rate_per_minute"`
}

type rawConfig struct {
	BaseURL        string  `mapstructure:"base_url"`
	Catalog        string  `mapstructure:"catalog"`
	ToolTimeout    string  `mapstructure:"tool_timeout"`
	MaxOutputBytes int     `mapstructure:"max_output_bytes"`
	JSON           bool    `mapstructure:"json"`
	Verbose        bool    `mapstructure:"verbose"`
	OutputFormat   string  `mapstructure:"output_format"`
	HTTP           rawHTTP `mapstructure:"http"`
}

// Load resolves configuration from defaults, config files, env, and flags.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TALKTOOLS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("catalog", "")
	v.SetDefault("tool_timeout", DefaultToolTimeout.String())
	v.SetDefault("max_output_bytes", DefaultMaxOutputBytes)
	v.SetDefault("json", false)
	v.SetDefault("verbose", false)
	v.SetDefault("output_format", "text")
	v.SetDefault("http.timeout", DefaultTimeout.String())
	v.SetDefault("http.connect_timeout", DefaultConnectTimeout.String())
	v.SetDefault("http.retry_max", DefaultRetryMax)
	v.SetDefault("http.rate_per_minute", 0)

	if cmd != nil {
		bindFlag(v, cmd, "base_url", "base-url")
		bindFlag(v, cmd, "catalog", "catalog")
		bindFlag(v, cmd, "tool_timeout", "tool-timeout")
		bindFlag(v, cmd, "json", "json")
		bindFlag(v, cmd, "verbose", "verbose")
		bindFlag(v, cmd, "http.timeout", "timeout")
		bindFlag(v, cmd, "http.retry_max", "retry-max")
		bindFlag(v, cmd, "http.rate_per_minute", "rate-per-minute")
	}

	if seconds := os.Getenv("TALKTOOLS_TIMEOUT_SECONDS"); seconds != "" {
		v.Set("http.timeout", seconds+"s")
	}

	if err := loadConfigFile(v); err != nil {
		return Config{}, err
	}

	var raw rawConfig
	decoder, _ := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "mapstructure", WeaklyTypedInput: true, Result: &raw})
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return Config{}, err
	}

	timeout, err := parseDuration("http.timeout", raw.HTTP.Timeout, DefaultTimeout)
	if err != nil {
		return Config{}, err
	}
	connectTimeout, err := parseDuration("http.connect_timeout", raw.HTTP.ConnectTimeout, DefaultConnectTimeout)
	if err != nil {
		return Config{}, err
	}
	toolTimeout, err := parseDuration("tool_timeout", raw.ToolTimeout, DefaultToolTimeout)
	if err != nil {
		return Config{}, err
	}

	jsonOutput := raw.JSON
	if cmd != nil && flagChanged(cmd, "json") {
		jsonOutput = v.GetBool("json")
	} else if strings.EqualFold(raw.OutputFormat, "json") {
		jsonOutput = true
	}

	cfg := Config{
		BaseURL:        strings.TrimSpace(raw.BaseURL),
		Catalog:        raw.Catalog,
		ToolTimeout:    toolTimeout,
		MaxOutputBytes: raw.MaxOutputBytes,
		JSON:           jsonOutput,
		Verbose:        raw.Verbose,
		HTTP: HTTPSettings{
			Timeout:        timeout,
			ConnectTimeout: connectTimeout,
			RetryMax:       raw.HTTP.RetryMax,
			RatePerMinute:  raw.HTTP.RatePerMinute,
		},
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if cfg.HTTP.RetryMax < 0 {
		cfg.HTTP.RetryMax = 0
	}
	if cfg.HTTP.RatePerMinute < 0 {
		cfg.HTTP.RatePerMinute = 0
	}

	return cfg, nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

func flagChanged(cmd *cobra.Command, flag string) bool {
	f := cmd.Flags().Lookup(flag)
	return f != nil && f.Changed
}

func parseDuration(key, value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	if parsed <= 0 {
		return fallback, nil
	}
	return parsed, nil
}

func loadConfigFile(v *viper.Viper) error {
	if path := os.Getenv("TALKTOOLS_CONFIG"); path != "" {
		v.SetConfigFile(path)
		return v.ReadInConfig()
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	base := filepath.Join(configDir, "talk-tools")
	candidates := []string{
		filepath.Join(base, "config.yaml"),
		filepath.Join(base, "config.yml"),
		filepath.Join(base, "config.json"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return err
			}
			return nil
		}
	}
	return nil
}
