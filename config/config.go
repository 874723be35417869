// Package config 加载 shopreco 的 YAML 配置：默认值 <- 配置文件 <- SHOPRECO_* 环境变量。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是全部配置。
type Config struct {
	Store    StoreConfig    `yaml:"store"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Engine   EngineConfig   `yaml:"engine"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StoreConfig 存储后端配置。
type StoreConfig struct {
	// Backend: memory / redis / bolt
	Backend string `yaml:"backend"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	BoltPath string `yaml:"bolt_path"`

	// CatalogPrefix / InteractionsPrefix 是 key 前缀，
	// 实际 key 为 {CatalogPrefix}:products 与 {InteractionsPrefix}:log
	CatalogPrefix      string `yaml:"catalog_prefix"`
	InteractionsPrefix string `yaml:"interactions_prefix"`
}

// EmbedderConfig 文本向量化配置。
type EmbedderConfig struct {
	// Provider: hashing（本地）/ http（OpenAI 兼容 /embeddings）
	Provider  string        `yaml:"provider"`
	Dimension int           `yaml:"dimension"`
	BaseURL   string        `yaml:"base_url"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	BatchSize int           `yaml:"batch_size"`
	Timeout   time.Duration `yaml:"timeout"`
}

// APIKey 从 APIKeyEnv 指定的环境变量读取。
func (c EmbedderConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// BreakerConfig 熔断器配置，仅对 http embedder 生效。
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
}

// EngineConfig 引擎参数。
type EngineConfig struct {
	SearchK       int     `yaml:"search_k"`
	DisplayTopN   int     `yaml:"display_top_n"`
	CFNeighbours  int     `yaml:"cf_neighbours"`
	CFTopN        int     `yaml:"cf_top_n"`
	ContentTopN   int     `yaml:"content_top_n"`
	MaxCellWeight float64 `yaml:"max_cell_weight"` // 0 表示不限制
	AvailabilityN int     `yaml:"availability_n"`
}

// LoggingConfig 日志配置。
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default 返回默认配置。
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:            "memory",
			RedisAddr:          "localhost:6379",
			BoltPath:           "shopreco.db",
			CatalogPrefix:      "catalog",
			InteractionsPrefix: "interactions",
		},
		Embedder: EmbedderConfig{
			Provider:  "hashing",
			Dimension: 512,
			BaseURL:   "https://api.openai.com/v1",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			BatchSize: 100,
			Timeout:   30 * time.Second,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
		Engine: EngineConfig{
			SearchK:       5,
			DisplayTopN:   3,
			CFNeighbours:  10,
			CFTopN:        5,
			ContentTopN:   4,
			AvailabilityN: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load 从 YAML 文件加载配置。path 为空或文件不存在时使用默认值。
// 环境变量覆盖在文件之后生效。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse yaml: %w", err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 应用 SHOPRECO_* 环境变量。
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("env %s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("SHOPRECO_STORE_BACKEND", &c.Store.Backend)
	str("SHOPRECO_REDIS_ADDR", &c.Store.RedisAddr)
	str("SHOPRECO_REDIS_PASSWORD", &c.Store.RedisPassword)
	str("SHOPRECO_BOLT_PATH", &c.Store.BoltPath)
	str("SHOPRECO_EMBEDDER", &c.Embedder.Provider)
	str("SHOPRECO_EMBEDDER_URL", &c.Embedder.BaseURL)
	str("SHOPRECO_EMBEDDER_MODEL", &c.Embedder.Model)
	str("SHOPRECO_LOG_LEVEL", &c.Logging.Level)
	str("SHOPRECO_LOG_FORMAT", &c.Logging.Format)
	if err := num("SHOPRECO_REDIS_DB", &c.Store.RedisDB); err != nil {
		return err
	}
	if err := num("SHOPRECO_EMBEDDER_DIMENSION", &c.Embedder.Dimension); err != nil {
		return err
	}
	if v, ok := lookup("SHOPRECO_MAX_CELL_WEIGHT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("env SHOPRECO_MAX_CELL_WEIGHT: %w", err)
		}
		c.Engine.MaxCellWeight = f
	}
	return nil
}

// Validate 检查枚举值与数值范围。
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory", "redis", "bolt":
	default:
		return fmt.Errorf("unknown store backend: %q", c.Store.Backend)
	}
	switch c.Embedder.Provider {
	case "hashing", "http":
	default:
		return fmt.Errorf("unknown embedder provider: %q", c.Embedder.Provider)
	}
	if c.Embedder.Dimension <= 0 && c.Embedder.Provider == "hashing" {
		return fmt.Errorf("embedder dimension must be positive, got %d", c.Embedder.Dimension)
	}
	if c.Engine.MaxCellWeight < 0 {
		return fmt.Errorf("max_cell_weight must not be negative")
	}
	return nil
}

// Save 写入 YAML 文件。
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
