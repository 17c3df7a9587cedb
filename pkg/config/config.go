package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Upstream struct {
		GraphQLURL   string        `yaml:"graphql_url"`
		UsherURL     string        `yaml:"usher_url"`
		ClientID     string        `yaml:"client_id"`
		UserAgent    string        `yaml:"user_agent"`
		Timeout      time.Duration `yaml:"timeout"`
		MaxRedirects int           `yaml:"max_redirects"`
	} `yaml:"upstream"`

	Proxy struct {
		// Path prefix the rewriter points playlist URLs at.
		PublicPath   string   `yaml:"public_path"`
		AllowedHosts []string `yaml:"allowed_hosts"`
	} `yaml:"proxy"`

	Relay struct {
		UpstreamURL      string        `yaml:"upstream_url"`
		HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
	} `yaml:"relay"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
	} `yaml:"monitoring"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		JaegerURL   string  `yaml:"jaeger_url"`
		Environment string  `yaml:"environment"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
		} `yaml:"http"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Upstream
	if c.Upstream.GraphQLURL == "" {
		return fmt.Errorf("upstream.graphql_url must not be empty")
	}
	if c.Upstream.UsherURL == "" {
		return fmt.Errorf("upstream.usher_url must not be empty")
	}
	if c.Upstream.ClientID == "" {
		return fmt.Errorf("upstream.client_id must not be empty")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be > 0")
	}
	if c.Upstream.MaxRedirects <= 0 {
		return fmt.Errorf("upstream.max_redirects must be > 0")
	}

	// Proxy
	if c.Proxy.PublicPath == "" {
		return fmt.Errorf("proxy.public_path must not be empty")
	}
	if len(c.Proxy.AllowedHosts) == 0 {
		return fmt.Errorf("proxy.allowed_hosts must not be empty")
	}
	for _, host := range c.Proxy.AllowedHosts {
		if strings.TrimSpace(host) == "" {
			return fmt.Errorf("proxy.allowed_hosts must not contain empty entries")
		}
	}

	// Relay
	if c.Relay.UpstreamURL == "" {
		return fmt.Errorf("relay.upstream_url must not be empty")
	}
	if c.Relay.HandshakeTimeout <= 0 {
		return fmt.Errorf("relay.handshake_timeout must be > 0")
	}
	if c.Relay.WriteTimeout <= 0 {
		return fmt.Errorf("relay.write_timeout must be > 0")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Tracing
	if c.Tracing.Enabled {
		if c.Tracing.JaegerURL == "" {
			return fmt.Errorf("tracing.jaeger_url must not be empty when tracing.enabled=true")
		}
		if c.Tracing.SampleRate <= 0 || c.Tracing.SampleRate > 1 {
			return fmt.Errorf("tracing.sample_rate must be in (0, 1] when tracing.enabled=true")
		}
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 60 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Upstream.GraphQLURL = "https://gql.twitch.tv/gql"
	cfg.Upstream.UsherURL = "https://usher.ttvnw.net"
	cfg.Upstream.ClientID = "kimne78kx3ncx6brgo4mv6wki5h1ko"
	cfg.Upstream.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	cfg.Upstream.Timeout = 15 * time.Second
	cfg.Upstream.MaxRedirects = 10

	cfg.Proxy.PublicPath = "/proxy"
	cfg.Proxy.AllowedHosts = []string{
		"ttvnw.net",
		"twitch.tv",
		"twitchcdn.net",
		"jtvnw.net",
		"cloudfront.net",
	}

	cfg.Relay.UpstreamURL = "wss://api.deepgram.com/v1/listen"
	cfg.Relay.HandshakeTimeout = 10 * time.Second
	cfg.Relay.WriteTimeout = 10 * time.Second

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Monitoring.PrometheusEnabled = true

	cfg.Tracing.Enabled = false
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.Environment = "development"
	cfg.Tracing.SampleRate = 1.0

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if addr := os.Getenv("STREAMGATE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("STREAMGATE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if clientID := os.Getenv("STREAMGATE_CLIENT_ID"); clientID != "" {
		c.Upstream.ClientID = clientID
	}
	if relayURL := os.Getenv("STREAMGATE_RELAY_UPSTREAM_URL"); relayURL != "" {
		c.Relay.UpstreamURL = relayURL
	}
}
