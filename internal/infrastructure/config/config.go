// Package config loads LLMSim's YAML configuration the way the teacher's
// config package does: viper defaults, an optional file layered on top,
// environment overrides, and (new here) a live-reload watch so error rates
// and the active generator can be changed without a restart.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ServerConfig is the `server` section: bind host/port.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LatencyConfig is the `latency` section: either a named profile, or an
// explicit set of TTFT/TBT mean/stddev overrides applied on top of it.
type LatencyConfig struct {
	Profile      string  `mapstructure:"profile"`
	TTFTMeanMs   float64 `mapstructure:"ttft_mean_ms"`
	TTFTStdDevMs float64 `mapstructure:"ttft_stddev_ms"`
	TBTMeanMs    float64 `mapstructure:"tbt_mean_ms"`
	TBTStdDevMs  float64 `mapstructure:"tbt_stddev_ms"`
}

// ResponseConfig is the `response` section: which generator answers every
// request, and its default token-count target.
type ResponseConfig struct {
	Generator    string `mapstructure:"generator"`
	TargetTokens int    `mapstructure:"target_tokens"`
}

// ErrorsConfig is the `errors` section: the injector's configured rates.
type ErrorsConfig struct {
	RateLimitRate   float64 `mapstructure:"rate_limit_rate"`
	ServerErrorRate float64 `mapstructure:"server_error_rate"`
	TimeoutRate     float64 `mapstructure:"timeout_rate"`
	TimeoutAfterMs  int     `mapstructure:"timeout_after_ms"`
}

// ModelsConfig is the `models` section: which model IDs the server answers
// for, beyond the built-in registry.
type ModelsConfig struct {
	Available []string `mapstructure:"available"`
}

// Config is the full, unmarshalled configuration tree.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Latency  LatencyConfig  `mapstructure:"latency"`
	Response ResponseConfig `mapstructure:"response"`
	Errors   ErrorsConfig   `mapstructure:"errors"`
	Models   ModelsConfig   `mapstructure:"models"`
}

// Loader owns the viper instance so OnChange callbacks can re-read the live
// Config after a file edit, per spec §6's CLI/env/file precedence plus the
// hot-reload supplement described in SPEC_FULL.md Expansion A.
type Loader struct {
	v *viper.Viper
}

// Load builds a Loader: defaults, then an optional file at path (if path is
// "", no file is read and defaults/env/flags still apply), then environment
// variables prefixed LLMSIM_.
func Load(path string) (*Loader, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LLMSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	return &Loader{v: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("latency.profile", "gpt-4")

	v.SetDefault("response.generator", "lorem")
	v.SetDefault("response.target_tokens", 64)

	v.SetDefault("errors.rate_limit_rate", 0.0)
	v.SetDefault("errors.server_error_rate", 0.0)
	v.SetDefault("errors.timeout_rate", 0.0)
	v.SetDefault("errors.timeout_after_ms", 30000)
}

// Snapshot unmarshals the current viper state into a Config, then applies
// the two bare (non-namespaced) environment overrides spec §6 names
// explicitly: LLMSIM_HOST and LLMSIM_PORT.
func (l *Loader) Snapshot() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	envOverride(&cfg)
	return cfg, nil
}

// BindFlags overlays cobra/pflag values, when explicitly set on the command
// line, taking precedence over the config file per spec §6.
func (l *Loader) BindFlags(host string, port int, generator string, targetTokens int, hostSet, portSet, generatorSet, targetTokensSet bool) {
	if hostSet {
		l.v.Set("server.host", host)
	}
	if portSet {
		l.v.Set("server.port", port)
	}
	if generatorSet {
		l.v.Set("response.generator", generator)
	}
	if targetTokensSet {
		l.v.Set("response.target_tokens", targetTokens)
	}
}

// Watch arms viper's file watcher (fsnotify under the hood) so edits to the
// config file invoke onChange with the freshly unmarshalled Config. It is a
// no-op if the loader was built without a config file.
func (l *Loader) Watch(onChange func(Config)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.Snapshot()
		if err != nil {
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

// envOverride reads LLMSIM_HOST / LLMSIM_PORT directly, ahead of viper's
// AutomaticEnv binding, since those two names (spec §6) don't nest under the
// `server.` prefix AutomaticEnv expects.
func envOverride(cfg *Config) {
	if h := os.Getenv("LLMSIM_HOST"); h != "" {
		cfg.Server.Host = h
	}
	if p := os.Getenv("LLMSIM_PORT"); p != "" {
		var port int
		if _, err := fmt.Sscanf(p, "%d", &port); err == nil {
			cfg.Server.Port = port
		}
	}
}
