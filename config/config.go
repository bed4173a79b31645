// Package config loads settings from an optional YAML file with RECAP_*
// environment variables taking precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Backend  BackendConfig  `mapstructure:"Backend"`
	Storage  StorageConfig  `mapstructure:"Storage"`
	Recorder RecorderConfig `mapstructure:"Recorder"`
	Push     PushConfig     `mapstructure:"Push"`
}

type BackendConfig struct {
	BaseURL string `mapstructure:"BaseURL"`
}

type StorageConfig struct {
	Endpoint        string `mapstructure:"Endpoint"`
	Region          string `mapstructure:"Region"`
	Bucket          string `mapstructure:"Bucket"`
	AccessKeyID     string `mapstructure:"AccessKeyID"`
	SecretAccessKey string `mapstructure:"SecretAccessKey"`
	PublicBaseURL   string `mapstructure:"PublicBaseURL"`
}

type RecorderConfig struct {
	OutputDir string `mapstructure:"OutputDir"`
	Format    string `mapstructure:"Format"` // "flac" or "wav"
}

type PushConfig struct {
	Token string `mapstructure:"Token"`
}

// Load reads the file at path when it exists; environment variables win over
// file values either way. An empty path means environment-only.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("RECAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("Backend.BaseURL", "RECAP_BACKEND_URL")
	v.BindEnv("Storage.Endpoint", "RECAP_STORAGE_ENDPOINT")
	v.BindEnv("Storage.Region", "RECAP_STORAGE_REGION")
	v.BindEnv("Storage.Bucket", "RECAP_STORAGE_BUCKET")
	v.BindEnv("Storage.AccessKeyID", "RECAP_STORAGE_ACCESS_KEY_ID")
	v.BindEnv("Storage.SecretAccessKey", "RECAP_STORAGE_SECRET_ACCESS_KEY")
	v.BindEnv("Storage.PublicBaseURL", "RECAP_STORAGE_PUBLIC_BASE_URL")
	v.BindEnv("Recorder.OutputDir", "RECAP_RECORDER_OUTPUT_DIR")
	v.BindEnv("Recorder.Format", "RECAP_RECORDER_FORMAT")
	v.BindEnv("Push.Token", "RECAP_PUSH_TOKEN")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Recorder.Format == "" {
		cfg.Recorder.Format = "flac"
	}
	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend base URL is required (RECAP_BACKEND_URL)")
	}
	cfg.Backend.BaseURL = strings.TrimSuffix(cfg.Backend.BaseURL, "/")

	return &cfg, nil
}
