package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pipeline"
)

// ScoreSortNode 按 Score 降序排序，分数相同按 ID 升序，保证结果确定。
type ScoreSortNode struct{}

func (n *ScoreSortNode) Name() string {
	return "rerank.score_sort"
}

func (n *ScoreSortNode) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *ScoreSortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	SortByScore(items)
	return items, nil
}

// SortByScore 原地排序：Score 降序，ID 升序。
func SortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

// RatingSortNode 按评分排序：有评分的在前，评分降序，相同评分按 ID 升序。
type RatingSortNode struct{}

func (n *RatingSortNode) Name() string {
	return "rerank.rating_sort"
}

func (n *RatingSortNode) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *RatingSortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	SortByRating(items)
	return items, nil
}

// SortByRating 原地排序，没有商品详情的条目排在最后。
func SortByRating(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Product, items[j].Product
		ra, rb := rated(a), rated(b)
		if ra != rb {
			return ra
		}
		if ra && a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return items[i].ID < items[j].ID
	})
}

func rated(p *core.Product) bool {
	return p != nil && p.HasRating
}
