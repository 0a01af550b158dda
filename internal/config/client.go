package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig configures dashctl.
type ClientConfig struct {
	BaseURL   string
	TokenFile string
	Timeout   time.Duration
	Logging   LoggingConfig
}

func LoadClient() (*ClientConfig, error) {
	v := newViper("dashctl", "DASHCTL")
	setClientDefaults(v)

	var cfg ClientConfig
	if err := read(v, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setClientDefaults(v *viper.Viper) {
	v.SetDefault("baseurl", "http://localhost:8000")
	v.SetDefault("tokenfile", defaultTokenFile())
	v.SetDefault("timeout", "15s")
	v.SetDefault("logging.level", "warn")
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".campaigndash", "session.json")
	}
	return filepath.Join(home, ".campaigndash", "session.json")
}
