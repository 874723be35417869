// Package rerank 提供排序与截断 Node。
package rerank

import (
	"context"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
//
// 示例：
//
//	p := pipeline.New(
//	    filter.NewFilterNode(&filter.MaxPriceFilter{Max: 500}),
//	    &rerank.TopNNode{N: 3},
//	)
type TopNNode struct {
	// N 要保留的物品数量
	// 如果 N <= 0，则返回所有物品（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
