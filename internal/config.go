package internal

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the client-side widget configuration, loaded from a YAML file
// in the state directory. The remote WidgetConfig (name, welcome message)
// is fetched separately at bootstrap.
type Config struct {
	// BaseURL is the HTTP(S) origin of the support service.
	BaseURL string `yaml:"base_url"`
	// StateDir overrides the default state directory.
	StateDir string `yaml:"state_dir,omitempty"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8000",
	}
}

// LoadConfig loads the config file at path, falling back to defaults when
// the file does not exist.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	return cfg, nil
}

// Save writes the config file to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WebSocketURL derives the duplex channel endpoint for a customer id from
// the configured base URL: ws(s)://{host}/ws/chat/{customer_id}/.
func (c *Config) WebSocketURL(customerID string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.BaseURL, err)
	}

	scheme := "ws"
	if strings.HasPrefix(u.Scheme, "https") {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/ws/chat/%s/", scheme, u.Host, customerID), nil
}
