package filter

import (
	"context"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pipeline"
	"github.com/rushteam/shopreco/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
// 过滤器返回错误时该过滤器视为未命中，不中断流程。
type FilterNode struct {
	Filters []Filter
}

// NewFilterNode 创建 FilterNode，nil 过滤器会被忽略。
func NewFilterNode(filters ...Filter) *FilterNode {
	n := &FilterNode{Filters: make([]Filter, 0, len(filters))}
	for _, f := range filters {
		if f != nil {
			n.Filters = append(n.Filters, f)
		}
	}
	return n
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}

		shouldFilter := false
		filterReason := ""

		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				continue
			}
			if ok {
				shouldFilter = true
				filterReason = f.Name()
				break
			}
		}

		if shouldFilter {
			// 记录过滤原因，用于调试
			item.PutLabel("filtered", utils.Label{
				Value:  "true",
				Source: filterReason,
			})
			continue
		}

		out = append(out, item)
	}

	return out, nil
}
