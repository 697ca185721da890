// Package config loads the environment configuration of the portal binaries.
//
// Values come from the process environment, optionally seeded from a .env file.
// Variables already set in the environment take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	portal "github.com/pondok-digital/portal"
)

// UIConfig configures portal-ui, the server rendering the public pages and proxying /api to the backend
type UIConfig struct {
	Environment    string        `env:"ENVIRONMENT,default=dev"`
	Host           string        `env:"HOST,default=0.0.0.0"`
	Port           int           `env:"PORT,default=3000"`
	LogLevel       string        `env:"LOG_LEVEL,default=debug"`
	ReadTimeout    time.Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT,default=30s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT,default=60s"`
	BackendAPIURL  string        `env:"BACKEND_API_URL,default=http://localhost:8080/api"` // direct url used by the proxy and server rendered pages
	RateLimitRPS   int           `env:"RATE_LIMIT_RPS,default=50"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST,default=100"`
}

// MockAPIConfig configures portal-mockapi, the in-memory development backend
type MockAPIConfig struct {
	Environment         string   `env:"ENVIRONMENT,default=dev"`
	Host                string   `env:"HOST,default=0.0.0.0"`
	Port                int      `env:"PORT,default=8080"`
	LogLevel            string   `env:"LOG_LEVEL,default=debug"`
	SecretKey           string   `env:"SECRET_KEY,default=dev-only-secret-key-change-me-0000"`
	AdminUsername       string   `env:"ADMIN_USERNAME,default=admin"`
	AdminPassword       string   `env:"ADMIN_PASSWORD,default=admin123"`
	AllowedOrigins      []string `env:"ALLOWED_ORIGINS,separator=|"`
	RateLimitRPS        int      `env:"RATE_LIMIT_RPS,default=100"`
	RateLimitBurst      int      `env:"RATE_LIMIT_BURST,default=20"`
	LoginRateLimitRPS   int      `env:"LOGIN_RATE_LIMIT_RPS,default=1"`
	LoginRateLimitBurst int      `env:"LOGIN_RATE_LIMIT_BURST,default=5"`
	SeedContent         bool     `env:"SEED_CONTENT,default=true"`
	MaxAPIRequestSize   int64    `env:"MAX_API_REQUEST_SIZE,default=1048576"`
}

// CLIConfig configures portalctl
type CLIConfig struct {
	PortalURL   string        `env:"PORTAL_URL,default=http://localhost:3000"` // origin of the ui server, calls go through its /api proxy
	ProxyPath   string        `env:"PORTAL_PROXY_PATH,default=/api"`
	SessionFile string        `env:"PORTAL_SESSION_FILE"` // defaults to the user config dir
	LogLevel    string        `env:"LOG_LEVEL,default=warn"`
	Timeout     time.Duration `env:"PORTAL_TIMEOUT,default=30s"`
}

// LoadDotEnv adds the variables in path to the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("could not read %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("could not load %s: %w", path, err)
	}
	return nil
}

func NewUIConfig() (*UIConfig, error) {
	var cfg UIConfig

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (cfg *UIConfig) validate() error {
	if err := validateServer(cfg.Environment, cfg.Port); err != nil {
		return err
	}

	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive, got %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive, got %v", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive, got %v", cfg.IdleTimeout)
	}

	if err := validateURL("BACKEND_API_URL", cfg.BackendAPIURL); err != nil {
		return err
	}
	cfg.BackendAPIURL = strings.TrimRight(cfg.BackendAPIURL, "/")
	return nil
}

func NewMockAPIConfig() (*MockAPIConfig, error) {
	var cfg MockAPIConfig

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (cfg *MockAPIConfig) validate() error {
	if err := validateServer(cfg.Environment, cfg.Port); err != nil {
		return err
	}

	if cfg.Environment == "prod" || cfg.Environment == "staging" {
		return fmt.Errorf("the mock api must not run in the %s environment", cfg.Environment)
	}
	if len(cfg.SecretKey) < 32 {
		return fmt.Errorf("SECRET_KEY must be at least 32 characters")
	}
	if cfg.AdminUsername == "" || len(cfg.AdminPassword) < 6 {
		return fmt.Errorf("ADMIN_USERNAME must be set and ADMIN_PASSWORD must be at least 6 characters")
	}
	if cfg.MaxAPIRequestSize < 1 {
		return fmt.Errorf("MAX_API_REQUEST_SIZE must be positive")
	}

	// credentialed CORS cannot use the * origin
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			return fmt.Errorf("ALLOWED_ORIGINS must list explicit origins, '*' is not allowed with credentials")
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	cfg.AllowedOrigins = origins
	return nil
}

func NewCLIConfig() (*CLIConfig, error) {
	var cfg CLIConfig

	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal environment variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (cfg *CLIConfig) validate() error {
	if err := validateURL("PORTAL_URL", cfg.PortalURL); err != nil {
		return err
	}
	cfg.PortalURL = strings.TrimRight(cfg.PortalURL, "/")

	if !strings.HasPrefix(cfg.ProxyPath, "/") {
		return fmt.Errorf("PORTAL_PROXY_PATH must start with '/', got %q", cfg.ProxyPath)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("PORTAL_TIMEOUT must be positive, got %v", cfg.Timeout)
	}
	return nil
}

func validateServer(environment string, port int) error {
	if !portal.ValidEnvs[environment] {
		return fmt.Errorf("invalid environment '%s'. Valid environments: dev, test, staging, prod", environment)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateURL(name, raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %s", name, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s does not include a valid scheme (http or https): %s", name, raw)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%s does not include a host: %s", name, raw)
	}
	return nil
}
