package recall

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pipeline"
	"github.com/rushteam/shopreco/pkg/utils"
)

// 合并策略
const (
	MergeFirst    = "first"    // 只取按 Sources 顺序第一个有结果的源，后面的源作为兜底
	MergeUnion    = "union"    // 不去重
	MergePriority = "priority" // 按 Sources 顺序拼接去重，靠前的源优先
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流、优先级合并策略。Fanout 本身也是 Source，可以嵌套。
type Fanout struct {
	// SourceName 作为 Source 嵌套使用时的名称，默认 recall.fanout
	SourceName    string
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string        // 合并策略：first / union / priority

	// OnError 在某个召回源失败时回调（可选）；失败的源不中断其他召回源
	OnError func(src Source, err error)
}

func (n *Fanout) Name() string {
	if n.SourceName != "" {
		return n.SourceName
	}
	return "recall.fanout"
}

func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

// Recall 实现 Source 接口。
func (n *Fanout) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	return n.Process(ctx, rctx, nil)
}

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	// 每个源写入自己的槽位，合并时顺序确定
	results := make([][]*core.Item, len(n.Sources))
	errs := make([]error, len(n.Sources))

	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				errs[i] = err
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel("recall_source", utils.Label{Value: src.Name(), Source: "recall"})
				// 嵌套时以最外层的优先级为准
				it.Labels["recall_priority"] = utils.Label{Value: strconv.Itoa(i), Source: "recall"}
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n.OnError != nil {
		for i, err := range errs {
			if err != nil {
				n.OnError(n.Sources[i], err)
			}
		}
	}

	if n.MergeStrategy == MergeFirst {
		for _, items := range results {
			if len(items) > 0 {
				return n.dedup(items), nil
			}
		}
		return nil, nil
	}

	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}
	if n.MergeStrategy == MergeUnion {
		return all, nil
	}
	return n.dedup(all), nil
}

// dedup 按 ID 去重，保留第一个出现的，并把后来者的 labels 合并进去。
func (n *Fanout) dedup(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				if k == "recall_priority" {
					continue
				}
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}
