// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config собирается один раз при старте процесса и дальше
// передаётся по ссылке — никаких глобальных настроек.
type Config struct {
	Gateway     ServerConfig   `yaml:"gateway"`
	TaskService ServerConfig   `yaml:"task_service"`
	Auth        AuthConfig     `yaml:"auth"`
	Database    DatabaseConfig `yaml:"database"`
	Redis       RedisConfig    `yaml:"redis"`
	Logging     LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	// URL сервиса для межсервисных запросов (нужен только gateway)
	URL string `yaml:"url"`
}

type AuthConfig struct {
	SecretKey string        `yaml:"secret_key"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type DatabaseConfig struct {
	URL            string        `yaml:"url"`
	MaxConnections int32         `yaml:"max_connections"`
	MinConnections int32         `yaml:"min_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
}

type RedisConfig struct {
	URL         string        `yaml:"url"`
	TTLTask     time.Duration `yaml:"ttl_task"`
	TTLTaskList time.Duration `yaml:"ttl_task_list"`
}

type LoggingConfig struct {
	Development bool `yaml:"development"`
}

func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yml"
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("не могу открыть %s: %w", path, err)
	}
	defer file.Close()

	var cfg Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 30 * time.Minute
	}
	if c.Redis.TTLTask == 0 {
		c.Redis.TTLTask = time.Hour
	}
	if c.Redis.TTLTaskList == 0 {
		c.Redis.TTLTaskList = 5 * time.Minute
	}
	if c.Database.MaxConnections == 0 {
		c.Database.MaxConnections = 10
	}
	if c.Database.MinConnections == 0 {
		c.Database.MinConnections = 2
	}
	if c.Database.IdleTimeout == 0 {
		c.Database.IdleTimeout = 5 * time.Minute
	}
}

func (c *Config) GatewayAddr() string {
	return fmt.Sprintf("%s:%s", c.Gateway.Host, c.Gateway.Port)
}

func (c *Config) TaskServiceAddr() string {
	return fmt.Sprintf("%s:%s", c.TaskService.Host, c.TaskService.Port)
}
