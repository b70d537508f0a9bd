package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"reservo/internal/reservations/session"
	"reservo/pkg/logger"
)

// ClientConfig configures the terminal front end of the reservation form.
type ClientConfig struct {
	APIBaseURL  string
	APITimeout  time.Duration
	StoragePath string

	Log *logger.Logger
}

func LoadClient(serviceName string) (*ClientConfig, error) {
	storagePath := getEnvStr(EnvStoragePath, "")
	if storagePath == "" {
		path, err := session.DefaultPath()
		if err != nil {
			return nil, err
		}
		storagePath = path
	}

	cfg := &ClientConfig{
		APIBaseURL:  getEnvStr(EnvAPIBaseURL, DefaultAPIBaseURL),
		APITimeout:  getEnvDuration(EnvAPITimeout, DefaultAPITimeout),
		StoragePath: storagePath,
		Log: logger.New(logger.Config{
			Level:   getEnvStr(EnvLogLevel, logger.WARN),
			Format:  getEnvStr(EnvLogFormat, logger.TEXT),
			Output:  os.Stderr,
			Service: serviceName,
		}),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *ClientConfig) Validate() error {
	var errors []string

	if u, err := url.Parse(cfg.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errors = append(errors, fmt.Sprintf("APIBaseURL must be an absolute http(s) URL, got: %s", cfg.APIBaseURL))
	}
	if cfg.APITimeout <= 0 {
		errors = append(errors, fmt.Sprintf("APITimeout must be positive, got: %s", cfg.APITimeout))
	}
	if cfg.StoragePath == "" {
		errors = append(errors, "StoragePath cannot be empty")
	}

	return joinErrors(errors)
}
