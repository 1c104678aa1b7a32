package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config is the full service configuration, loaded from REQTRACK_*
// environment variables. Double underscores delimit nesting, e.g.
// REQTRACK_TRACKING__FLUSH_THRESHOLD maps to tracking.flush_threshold.
type Config struct {
	Primary       Primary              `koanf:"primary"`
	Server        ServerConfig         `koanf:"server"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Tracking      TrackingConfig       `koanf:"tracking"`
	Kafka         *KafkaConfig         `koanf:"kafka"`
	Elastic       *ElasticConfig       `koanf:"elastic"`
	S3            *S3Config            `koanf:"s3"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env"`
}

type ServerConfig struct {
	Port               string   `koanf:"port"`
	ReadTimeout        int      `koanf:"read_timeout"`
	WriteTimeout       int      `koanf:"write_timeout"`
	IdleTimeout        int      `koanf:"idle_timeout"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode"`
	MaxOpenConns    int    `koanf:"max_open_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time"`
}

// URL renders the config as a postgres connection string.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// TrackingConfig controls the request logger middleware and the sink
// flushed entries go to.
type TrackingConfig struct {
	Sink           string `koanf:"sink" validate:"omitempty,oneof=postgres kafka elasticsearch s3"`
	FlushThreshold int    `koanf:"flush_threshold" validate:"omitempty,min=1"`
	MaxBodyBytes   int64  `koanf:"max_body_bytes"`
}

type KafkaConfig struct {
	Brokers []string `koanf:"brokers" validate:"required,min=1"`
	Topic   string   `koanf:"topic" validate:"required"`
}

type ElasticConfig struct {
	Nodes []string `koanf:"nodes" validate:"required,min=1"`
	Index string   `koanf:"index" validate:"required"`
}

type S3Config struct {
	Endpoint  string `koanf:"endpoint"`
	Region    string `koanf:"region"`
	Bucket    string `koanf:"bucket" validate:"required"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

const envPrefix = "REQTRACK_"

// LoadConfig loads configuration from environment variables using koanf,
// applies defaults and validates the result.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.applyDefaults()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if cfg.Observability != nil {
		if err := cfg.Observability.Validate(); err != nil {
			return nil, fmt.Errorf("validate observability config: %w", err)
		}
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Primary.Env == "" {
		c.Primary.Env = "development"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Tracking.Sink == "" {
		c.Tracking.Sink = "postgres"
	}
	if c.Tracking.FlushThreshold == 0 {
		c.Tracking.FlushThreshold = 1
	}
	if c.Tracking.MaxBodyBytes == 0 {
		c.Tracking.MaxBodyBytes = 1 << 16
	}
	if c.Observability == nil {
		c.Observability = DefaultObservabilityConfig()
	}
	c.Observability.ServiceName = "reqtrack"
	c.Observability.Environment = c.Primary.Env
}
