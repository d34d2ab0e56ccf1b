package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Ephemeris EphemerisConfig `mapstructure:"ephemeris"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	DemoDir      string `mapstructure:"demo_dir"`
}

// EphemerisConfig locates the Swiss Ephemeris data files. The path is handed
// to the library once at startup and never changed afterwards.
type EphemerisConfig struct {
	DataPath string `mapstructure:"data_path"`
}

type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type CORSConfig struct {
	AllowOrigins string `mapstructure:"allow_origins"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	OTLPAddr    string `mapstructure:"otlp_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

// Load reads configuration from file and environment variables.
func Load(service string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.demo_dir", "./web/demo")
	v.SetDefault("ephemeris.data_path", "./sweph")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("cors.allow_origins", "http://localhost:3000, http://localhost:5173")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.otlp_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", false)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ASTROCHART_EPHEMERIS_DATA_PATH → ephemeris.data_path
	v.SetEnvPrefix("ASTROCHART")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	if c.Ephemeris.DataPath == "" {
		errs = append(errs, "ephemeris.data_path is required")
	}
	if c.Valkey.Addr == "" {
		errs = append(errs, "valkey.addr is required")
	}
	if c.CORS.AllowOrigins == "" {
		errs = append(errs, "cors.allow_origins is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
