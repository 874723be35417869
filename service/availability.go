package service

import (
	"context"
	"strings"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/filter"
	"github.com/rushteam/shopreco/pipeline"
	"github.com/rushteam/shopreco/query"
	"github.com/rushteam/shopreco/rerank"
)

// CheckAvailability 解析「有没有货」类问题，在目录中查找标题包含商品名的商品。
// 指定了性别与颜色时同时要求性别包含该词、标题包含该颜色。
// 无法识别商品名返回 INVALID_INPUT；没有匹配返回 no_match。
func (r *Recommender) CheckAvailability(ctx context.Context, text string) (*core.RankedList, query.AvailabilityQuery, error) {
	q := query.ParseAvailability(text)
	if q.ProductName == "" {
		err := invalidInput("could not identify a product in the question")
		r.observe("availability", nil, err)
		return nil, q, err
	}

	products, err := r.catalog.FetchAll(ctx)
	if err != nil {
		err = core.NewUnavailable(core.ModuleService, err, "catalog")
		r.observe("availability", nil, err)
		return nil, q, err
	}
	items := make([]*core.Item, 0, len(products))
	for i := range products {
		items = append(items, core.NewProductItem(&products[i], 0))
	}

	limit := r.engine.AvailabilityN
	if limit <= 0 {
		limit = 5
	}
	rctx := &core.RecommendContext{Scene: core.SourceAvailability, Params: map[string]any{"query": text}}
	out, err := pipeline.New(
		filter.NewFilterNode(availabilityFilters(q)...),
		&rerank.TopNNode{N: limit},
	).Run(ctx, rctx, items)
	if err != nil {
		return nil, q, err
	}

	list := core.NewRankedList(core.SourceAvailability, out, core.StatusNoMatch)
	r.observe("availability", list, nil)
	return list, q, nil
}

func availabilityFilters(q query.AvailabilityQuery) []filter.Filter {
	name := strings.ToLower(q.ProductName)
	fs := []filter.Filter{filter.Func{
		FilterName: "filter.title_contains",
		Fn: func(it *core.Item) bool {
			return it.Product == nil || !strings.Contains(strings.ToLower(it.Product.Title), name)
		},
	}}
	if q.Gender != "" {
		gender := strings.ToLower(q.Gender)
		fs = append(fs, filter.Func{
			FilterName: "filter.gender_contains",
			Fn: func(it *core.Item) bool {
				return !strings.Contains(strings.ToLower(it.Product.Gender), gender)
			},
		})
	}
	if q.Color != "" {
		color := strings.ToLower(q.Color)
		fs = append(fs, filter.Func{
			FilterName: "filter.color",
			Fn: func(it *core.Item) bool {
				return !strings.Contains(strings.ToLower(it.Product.Title), color)
			},
		})
	}
	return fs
}
