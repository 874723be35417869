package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rushteam/shopreco/config"
	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/embed"
	"github.com/rushteam/shopreco/store"
)

// 存储后端类型
const (
	StoreTypeMemory = "memory"
	StoreTypeRedis  = "redis"
	StoreTypeBolt   = "bolt"
)

// 向量化服务类型
const (
	EmbedderTypeHashing = "hashing"
	EmbedderTypeHTTP    = "http"
)

// NewStore 根据配置创建 KeyValueStore（工厂方法）。
func NewStore(ctx context.Context, cfg config.StoreConfig) (core.KeyValueStore, error) {
	switch cfg.Backend {
	case StoreTypeMemory, "":
		return store.NewMemoryStore(), nil
	case StoreTypeRedis:
		s, err := store.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	case StoreTypeBolt:
		s, err := store.NewBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Backend)
	}
}

// NewEmbedder 根据配置创建 Embedder（工厂方法）。
// http 类型在启用熔断时包装一层 Breaker。
func NewEmbedder(cfg config.EmbedderConfig, bcfg config.BreakerConfig, logger zerolog.Logger) (core.Embedder, error) {
	switch cfg.Provider {
	case EmbedderTypeHashing, "":
		return embed.NewHashingEmbedder(cfg.Dimension), nil
	case EmbedderTypeHTTP:
		var e core.Embedder = embed.NewHTTPEmbedder(embed.HTTPConfig{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey(),
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
			BatchSize: cfg.BatchSize,
			Timeout:   cfg.Timeout,
		})
		if bcfg.Enabled {
			e = embed.NewBreaker(e, embed.BreakerConfig{
				Name:             "embedder-" + cfg.Model,
				MaxRequests:      bcfg.MaxRequests,
				Interval:         bcfg.Interval,
				Timeout:          bcfg.Timeout,
				FailureThreshold: bcfg.FailureThreshold,
			}, logger)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", cfg.Provider)
	}
}
