package recall

import (
	"context"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pipeline"
	"github.com/rushteam/shopreco/rerank"
)

// Popular 是热门召回源：按评分排序的目录商品（有评分的在前，评分降序，ID 升序）。
// Popular 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Popular struct {
	Catalog core.Catalog
	TopK    int // 0 表示不截断
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Popular) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	products, err := r.Catalog.FetchAll(ctx)
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleCatalog, err, "catalog")
	}
	ptrs := make([]*core.Product, len(products))
	for i := range products {
		ptrs[i] = &products[i]
	}
	items := rankPopular(ptrs)
	if r.TopK > 0 && len(items) > r.TopK {
		items = items[:r.TopK]
	}
	return items, nil
}

// rankPopular 按评分排序商品，分数为评分。
func rankPopular(products []*core.Product) []*core.Item {
	items := productItems(products)
	for _, it := range items {
		it.Score = it.Product.Rating
	}
	rerank.SortByRating(items)
	return items
}
