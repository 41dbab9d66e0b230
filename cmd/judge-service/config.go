package main

import (
	"fmt"
	"os"
	"time"

	"github.com/Sushanth-77/oj-project/internal/common/cache"
	"github.com/Sushanth-77/oj-project/internal/common/storage"
	"github.com/Sushanth-77/oj-project/internal/judge/sandbox/runner"
	"github.com/Sushanth-77/oj-project/internal/judge/service"
	"github.com/Sushanth-77/oj-project/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8085"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultWorkRoot    = "/tmp/oj-judge"
	defaultStatusTTL   = 24 * time.Hour
	defaultProbeWindow = 5 * time.Second
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// KafkaConfig holds verdict event publishing settings.
type KafkaConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Brokers    []string `yaml:"brokers"`
	FinalTopic string   `yaml:"finalTopic"`
}

// CorpusConfig selects where test-case blobs come from.
// Mode is "minio" or "dir".
type CorpusConfig struct {
	Mode   string `yaml:"mode"`
	Bucket string `yaml:"bucket"`
	Dir    string `yaml:"dir"`
}

// JudgeConfig holds evaluation settings.
type JudgeConfig struct {
	WorkRoot         string        `yaml:"workRoot"`
	StatusTTL        time.Duration `yaml:"statusTTL"`
	HiddenTimeFactor float64       `yaml:"hiddenTimeFactor"`
	ProbeTimeout     time.Duration `yaml:"probeTimeout"`
}

// AppConfig holds judge-service config.
type AppConfig struct {
	Server     ServerConfig             `yaml:"server"`
	Logger     logger.Config            `yaml:"logger"`
	Redis      cache.RedisConfig        `yaml:"redis"`
	MinIO      storage.MinIOConfig      `yaml:"minio"`
	Kafka      KafkaConfig              `yaml:"kafka"`
	Corpus     CorpusConfig             `yaml:"corpus"`
	Judge      JudgeConfig              `yaml:"judge"`
	Runner     runner.Config            `yaml:"runner"`
	Dispatcher service.DispatcherConfig `yaml:"dispatcher"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	applyRedisDefaults(&cfg.Redis)
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	if cfg.Judge.WorkRoot == "" {
		cfg.Judge.WorkRoot = defaultWorkRoot
	}
	if cfg.Judge.StatusTTL == 0 {
		cfg.Judge.StatusTTL = defaultStatusTTL
	}
	if cfg.Judge.ProbeTimeout == 0 {
		cfg.Judge.ProbeTimeout = defaultProbeWindow
	}
	switch cfg.Corpus.Mode {
	case "", "minio":
		cfg.Corpus.Mode = "minio"
		if cfg.Corpus.Bucket == "" {
			return nil, fmt.Errorf("corpus bucket is required in minio mode")
		}
	case "dir":
		if cfg.Corpus.Dir == "" {
			return nil, fmt.Errorf("corpus dir is required in dir mode")
		}
	default:
		return nil, fmt.Errorf("unknown corpus mode: %q", cfg.Corpus.Mode)
	}
	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, fmt.Errorf("kafka brokers are required when kafka is enabled")
		}
		if cfg.Kafka.FinalTopic == "" {
			cfg.Kafka.FinalTopic = "judge.verdict.final"
		}
	}
	return &cfg, nil
}

func applyRedisDefaults(cfg *cache.RedisConfig) {
	defaults := cache.DefaultRedisConfig()
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaults.DialTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaults.ReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = defaults.WriteTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = defaults.PoolSize
	}
	if cfg.MinIdleConns == 0 {
		cfg.MinIdleConns = defaults.MinIdleConns
	}
	if cfg.PoolTimeout == 0 {
		cfg.PoolTimeout = defaults.PoolTimeout
	}
	if cfg.ConnMaxIdleTime == 0 {
		cfg.ConnMaxIdleTime = defaults.ConnMaxIdleTime
	}
}
