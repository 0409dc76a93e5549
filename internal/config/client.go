package config

import (
	"time"

	"github.com/spf13/viper"
)

// ClientConfig configures hubctl. The identity fields stand in for the
// signed-in browser user.
type ClientConfig struct {
	APIURL   string
	Timeout  time.Duration
	UID      string
	Email    string
	Name     string
	Username string
	Token    string
	Logger   LoggerConfig
}

// LoadClient reads HUB_* settings. v may carry bound command flags; a nil
// v reads the environment only.
func LoadClient(v *viper.Viper) *ClientConfig {
	loadDotEnv()
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("HUB_API_URL", "http://localhost:8080")
	v.SetDefault("HUB_TIMEOUT", "30s")
	v.SetDefault("LOGGER_LEVEL", "warn")
	v.SetDefault("LOGGER_FORMAT", "text")

	v.AutomaticEnv()

	timeout, err := time.ParseDuration(v.GetString("HUB_TIMEOUT"))
	if err != nil {
		timeout = 30 * time.Second
	}

	return &ClientConfig{
		APIURL:   v.GetString("HUB_API_URL"),
		Timeout:  timeout,
		UID:      v.GetString("HUB_UID"),
		Email:    v.GetString("HUB_EMAIL"),
		Name:     v.GetString("HUB_NAME"),
		Username: v.GetString("HUB_USERNAME"),
		Token:    v.GetString("HUB_TOKEN"),
		Logger: LoggerConfig{
			Level:  v.GetString("LOGGER_LEVEL"),
			Format: v.GetString("LOGGER_FORMAT"),
		},
	}
}
