package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultHost        = "https://esp.evident.io"
	DefaultHTTPTimeout = 60 * time.Second
	DefaultEnvFile     = ".env"
)

// ErrMissingCredentials is returned when either API key is not configured
var ErrMissingCredentials = errors.New("missing ESP credentials: set ESP_ACCESS_KEY_ID and ESP_SECRET_ACCESS_KEY")

// Config holds the ESP credentials and client settings
type Config struct {
	AccessKeyID     string     `mapstructure:"access_key_id"`
	SecretAccessKey string     `mapstructure:"secret_access_key"`
	Host            string     `mapstructure:"host"`
	HTTP            HTTPConfig `mapstructure:"http"`
	Log             LogConfig  `mapstructure:"log"`
}

// HTTPConfig configures the HTTP client used for API calls
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from the optional .env file, the optional
// config.yaml and ESP_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Add config search paths
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.esp")
	v.AddConfigPath("/etc/esp/")

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	// With SetEnvPrefix("ESP"), access_key_id becomes ESP_ACCESS_KEY_ID, http.timeout ESP_HTTP_TIMEOUT
	v.SetEnvPrefix("ESP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("access_key_id")
	v.BindEnv("secret_access_key")
	v.BindEnv("host")
	v.BindEnv("http.timeout")
	v.BindEnv("log.level")
	v.BindEnv("log.format")

	v.SetDefault("host", DefaultHost)
	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.Host = strings.TrimRight(config.Host, "/")
	if config.HTTP.Timeout <= 0 {
		config.HTTP.Timeout = DefaultHTTPTimeout
	}

	return &config, nil
}

// loadEnvFile exports the variables of an optional dotenv file.
// Variables already present in the environment are left untouched.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load environment file %s: %w", path, err)
	}
	return nil
}

// Validate checks that both API keys are present
func (c *Config) Validate() error {
	if c.AccessKeyID == "" || c.SecretAccessKey == "" {
		return ErrMissingCredentials
	}
	return nil
}
