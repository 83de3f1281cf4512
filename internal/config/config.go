package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/deepak-sorigin/qn-backend-test/pkg/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logger   logger.Config  `yaml:"logger"`
	Qp       QpConfig       `yaml:"qp"`
	Publish  PublishConfig  `yaml:"publish"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

// QpConfig points at the aggregation API and tunes identifier pulling.
type QpConfig struct {
	BaseURL      string `yaml:"base_url"`
	APIToken     string `yaml:"api_token"`
	PollInterval string `yaml:"poll_interval"`
	PullTimeout  string `yaml:"pull_timeout"`
}

// PublishConfig governs the optional best-effort attach steps of a publish.
type PublishConfig struct {
	AttachTargeting bool `yaml:"attach_targeting"`
	CreateProfiles  bool `yaml:"create_profiles"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5334
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Qp.PollInterval == "" {
		cfg.Qp.PollInterval = "10s"
	}
	if cfg.Qp.PullTimeout == "" {
		cfg.Qp.PullTimeout = "180s"
	}

	return cfg, nil
}
