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

// ClientConfig configures the ged command-line client.
type ClientConfig struct {
	APIURL      string        `mapstructure:"api_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Home        string        `mapstructure:"home"`
	DownloadDir string        `mapstructure:"download_dir"`
	LogLevel    string        `mapstructure:"log_level"`
}

// StoragePath is the file backing the client's durable local storage.
func (c *ClientConfig) StoragePath() string {
	return filepath.Join(c.Home, "storage.json")
}

// DefaultClientHome returns ~/.config/ged, or ./.ged when no user config dir exists.
func DefaultClientHome() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".ged"
	}
	return filepath.Join(dir, "ged")
}

// LoadClient reads client settings from GED_* environment variables and an
// optional config.yaml in the client home. Environment wins over the file.
func LoadClient(home string) (*ClientConfig, error) {
	v := viper.New()

	if home == "" {
		home = DefaultClientHome()
	}
	v.SetDefault("api_url", "http://localhost:8080/api")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("home", home)
	v.SetDefault("download_dir", ".")
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix("GED")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(home)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read client config: %w", err)
		}
	}

	var cfg ClientConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode client config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &cfg, nil
}
