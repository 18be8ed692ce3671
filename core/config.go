package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAPIBaseURL     = "http://localhost:5000"
	DefaultRequestTimeout = 10 * time.Second
)

type APIConfig struct {
	BaseURL        string        `koanf:"base_url" mapstructure:"base_url"`
	RequestTimeout time.Duration `koanf:"request_timeout" mapstructure:"request_timeout"`
}

type ResolutionConfig struct {
	// FallthroughOnFailure restores the cascading behaviour where a failed
	// strategy hands over to the next configured one.
	FallthroughOnFailure bool `koanf:"fallthrough_on_failure" mapstructure:"fallthrough_on_failure"`
}

type DevConfig struct {
	Enabled          bool   `koanf:"enabled" mapstructure:"enabled"`
	DefaultProfileID string `koanf:"default_profile_id" mapstructure:"default_profile_id"`
	DefaultSubjectID string `koanf:"default_subject_id" mapstructure:"default_subject_id"`
}

type Config struct {
	ServiceName string           `koanf:"service_name" mapstructure:"service_name"`
	API         APIConfig        `koanf:"api" mapstructure:"api"`
	Resolution  ResolutionConfig `koanf:"resolution" mapstructure:"resolution"`
	Dev         DevConfig        `koanf:"dev" mapstructure:"dev"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "innovate",
		API: APIConfig{
			BaseURL:        DefaultAPIBaseURL,
			RequestTimeout: DefaultRequestTimeout,
		},
		Dev: DevConfig{
			DefaultProfileID: "689a92d2e88fe639589bf7b0",
			DefaultSubjectID: "test-user-123",
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	base := strings.TrimSpace(c.API.BaseURL)
	if base == "" {
		return fmt.Errorf("core: api.base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: api.base_url %q is invalid", base)
	}
	if c.API.RequestTimeout < 0 {
		return fmt.Errorf("core: api.request_timeout must not be negative")
	}
	return nil
}

// UserURL builds <base>/api/users/<id>.
func (c APIConfig) UserURL(id string) string {
	return c.endpoint("api/users/" + url.PathEscape(strings.TrimSpace(id)))
}

// SessionProfileURL builds <base>/api/users/profile.
func (c APIConfig) SessionProfileURL() string {
	return c.endpoint("api/users/profile")
}

func (c APIConfig) endpoint(path string) string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		base = DefaultAPIBaseURL
	}
	return base + "/" + strings.TrimLeft(path, "/")
}
