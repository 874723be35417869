package embed

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/shopreco/core"
)

// BreakerConfig 熔断配置。
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // 半开状态允许的请求数
	Interval         time.Duration // 关闭状态下计数周期
	Timeout          time.Duration // 打开状态持续时间
	FailureThreshold uint32        // 连续失败多少次后打开
}

// Breaker 用熔断器包装上游 Embedder。
// 上游失败与熔断打开都返回 UNAVAILABLE，引擎内部不重试。
type Breaker struct {
	next core.Embedder
	cb   *gobreaker.CircuitBreaker[[][]float64]
}

func NewBreaker(next core.Embedder, cfg BreakerConfig, logger zerolog.Logger) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "embedder:" + next.ModelName()
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	threshold := cfg.FailureThreshold
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("embedder circuit breaker state changed")
		},
	}
	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[[][]float64](settings),
	}
}

func (b *Breaker) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	vecs, err := b.cb.Execute(func() ([][]float64, error) {
		return b.next.Encode(ctx, texts)
	})
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleEmbedder, err, "embedder "+b.next.ModelName())
	}
	return vecs, nil
}

// State 当前熔断状态（closed / half-open / open）。
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) Dimension() int { return b.next.Dimension() }

func (b *Breaker) ModelName() string { return b.next.ModelName() }

var _ core.Embedder = (*Breaker)(nil)
