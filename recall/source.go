// Package recall 实现检索与推荐引擎：语义检索、协同过滤、内容推荐，以及多源并发召回。
package recall

import (
	"context"

	"github.com/rushteam/shopreco/core"
)

// Source 表示一个可复用的召回源（协同过滤 / 内容推荐 / ...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// 请求级参数 key，写入 RecommendContext.Params。
const (
	ParamTopN  = "top_n"
	ParamQuery = "query"
)

// topNParam 读取 rctx 中的 top_n，缺省返回 def。
func topNParam(rctx *core.RecommendContext, def int) int {
	v, ok := rctx.Param(ParamTopN)
	if !ok {
		return def
	}
	if n, ok := v.(int); ok && n > 0 {
		return n
	}
	return def
}
