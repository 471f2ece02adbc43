// Package config loads the application configuration from file, environment
// variables, and defaults, and resolves the backend endpoints.
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jonesrussell/crawldesk/internal/logger"
)

// Production backend origin used for any non-loopback host.
const (
	ProductionHTTPBase = "https://api.pickpost.kr"
	ProductionWSBase   = "wss://api.pickpost.kr"

	// DevBackendPort is the backend port when targeting a loopback host.
	DevBackendPort = "8000"
)

// Config is the full application configuration.
type Config struct {
	Backend  BackendConfig `mapstructure:"backend"`
	Language string        `mapstructure:"language"`
	Log      logger.Config `mapstructure:"log"`
	Export   ExportConfig  `mapstructure:"export"`
	Serve    ServeConfig   `mapstructure:"serve"`
}

// BackendConfig selects the remote crawl backend.
type BackendConfig struct {
	// Host picks the backend by name; loopback hosts use the local dev
	// backend on port 8000, anything else the production origin.
	Host string `mapstructure:"host"`
	// HTTPBase and WSBase override endpoint resolution entirely when set.
	HTTPBase string `mapstructure:"http_base"`
	WSBase   string `mapstructure:"ws_base"`
}

// ExportConfig configures where exports are written.
type ExportConfig struct {
	Dir string `mapstructure:"dir"`
}

// ServeConfig configures the local console server.
type ServeConfig struct {
	Addr string `mapstructure:"addr"`
}

// Endpoints are the resolved backend base URLs.
type Endpoints struct {
	HTTPBase string
	WSBase   string
}

// Load reads configuration from an optional file, .env, environment
// variables (CRAWLDESK_*), and defaults, in that precedence order.
func Load(cfgFile string) (*Config, error) {
	// .env is optional; existing environment variables win.
	_ = godotenv.Load()

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("crawldesk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/crawldesk")
	}

	v.SetEnvPrefix("CRAWLDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; a named or malformed
		// one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.host", "localhost")
	v.SetDefault("language", "ko")
	v.SetDefault("log.level", "info")
	v.SetDefault("export.dir", ".")
	v.SetDefault("serve.addr", ":8080")
}

// Endpoints resolves the backend base URLs. Explicit overrides win;
// otherwise the host decides between the dev and production origins.
func (c *Config) Endpoints() Endpoints {
	if c.Backend.HTTPBase != "" && c.Backend.WSBase != "" {
		return Endpoints{HTTPBase: c.Backend.HTTPBase, WSBase: c.Backend.WSBase}
	}
	return ResolveEndpoints(c.Backend.Host)
}

// ResolveEndpoints maps a host name to backend base URLs.
func ResolveEndpoints(host string) Endpoints {
	if host == "" {
		host = "localhost"
	}
	if isLoopback(host) {
		return Endpoints{
			HTTPBase: fmt.Sprintf("http://%s", net.JoinHostPort(host, DevBackendPort)),
			WSBase:   fmt.Sprintf("ws://%s", net.JoinHostPort(host, DevBackendPort)),
		}
	}
	return Endpoints{HTTPBase: ProductionHTTPBase, WSBase: ProductionWSBase}
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
