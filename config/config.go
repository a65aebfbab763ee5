package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. VOCAL_SERVICES_ASR_URL.
const EnvPrefix = "VOCAL"

type Service struct {
	URL string `mapstructure:"url"`
}
type Services struct {
	Extractor      Service `mapstructure:"extractor"`
	ASR            Service `mapstructure:"asr"`
	Text           Service `mapstructure:"text"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
}
type Audio struct {
	SampleRate int    `mapstructure:"sample_rate"`
	Channels   int    `mapstructure:"channels"`
	Format     string `mapstructure:"format"`
}
type Engine struct {
	DefaultGender   string `mapstructure:"default_gender"`
	DefaultLanguage string `mapstructure:"default_language"`
}
type Root struct {
	Pipeline struct {
		Name      string `mapstructure:"name"`
		Version   string `mapstructure:"version"`
		LogLvl    string `mapstructure:"log_level"`
		LogFormat string `mapstructure:"log_format"`
	} `mapstructure:"pipeline"`
	Audio    Audio    `mapstructure:"audio"`
	Services Services `mapstructure:"services"`
	Engine   Engine   `mapstructure:"engine"`
	Paths    struct {
		Data      string `mapstructure:"data"`
		Outputs   string `mapstructure:"outputs"`
		HistoryDB string `mapstructure:"history_db"`
	} `mapstructure:"paths"`
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.name", "vocal-indicators")
	v.SetDefault("pipeline.version", "dev")
	v.SetDefault("pipeline.log_level", "info")
	v.SetDefault("pipeline.log_format", "text")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.format", "wav")
	v.SetDefault("services.extractor.url", "")
	v.SetDefault("services.asr.url", "")
	v.SetDefault("services.text.url", "")
	v.SetDefault("services.timeout_seconds", 60)
	v.SetDefault("engine.default_gender", "female")
	v.SetDefault("engine.default_language", "en")
	v.SetDefault("paths.data", "data")
	v.SetDefault("paths.outputs", "outputs")
	v.SetDefault("paths.history_db", "")
	v.SetDefault("server.port", 8080)
}

// Load reads the configuration. An explicit path must exist; otherwise
// config/<CONFIG_ENV>/config.yaml (env defaulting to dev) and
// src/shared/config.yaml are tried, and defaults apply if neither is there.
// VOCAL_* environment variables override file values.
func Load(path string) (*Root, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		env := os.Getenv("CONFIG_ENV")
		if env == "" {
			env = "dev"
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join("config", env))
		v.AddConfigPath(filepath.Join("src", "shared"))
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *Root) Validate() error {
	if r.Services.TimeoutSeconds <= 0 {
		return fmt.Errorf("services.timeout_seconds must be positive, got %d", r.Services.TimeoutSeconds)
	}
	if r.Server.Port <= 0 || r.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", r.Server.Port)
	}
	switch r.Pipeline.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("pipeline.log_format must be text or json, got %q", r.Pipeline.LogFormat)
	}
	return nil
}

// Timeout is the per-request budget for the external services.
func (r *Root) Timeout() time.Duration { return DurSeconds(r.Services.TimeoutSeconds) }

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }
