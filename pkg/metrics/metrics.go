// Package metrics 定义 Prometheus 指标。
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/shopreco/core"
)

var (
	// RequestsTotal 按操作与结果计数。
	// outcome 为 ok / no_results / no_match，失败时为小写错误码，例如 user_not_found。
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shopreco_requests_total",
		Help: "Total number of recommendation and search requests",
	}, []string{"operation", "outcome"})

	// RebuildDuration 引擎重建耗时。
	RebuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shopreco_rebuild_duration_seconds",
		Help:    "Engine rebuild duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"engine"})

	// IndexSize 引擎快照大小（语义索引商品数 / CF 用户数 / 内容模型商品数）。
	IndexSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "shopreco_index_size",
		Help: "Number of entries in the engine snapshot",
	}, []string{"engine"})
)

// Outcome 把一次调用结果映射为 outcome 标签。
func Outcome(list *core.RankedList, err error) string {
	if err != nil {
		if de := core.GetDomainError(err); de != nil {
			return strings.ToLower(de.Code)
		}
		return "error"
	}
	if list == nil {
		return string(core.StatusOK)
	}
	return string(list.Status)
}

// ObserveRequest 记录一次请求。
func ObserveRequest(operation string, list *core.RankedList, err error) {
	RequestsTotal.WithLabelValues(operation, Outcome(list, err)).Inc()
}

// ObserveRebuild 记录一次重建耗时与重建后的大小，失败时只记录耗时。
func ObserveRebuild(engine string, start time.Time, size int, err error) {
	RebuildDuration.WithLabelValues(engine).Observe(time.Since(start).Seconds())
	if err == nil {
		IndexSize.WithLabelValues(engine).Set(float64(size))
	}
}
