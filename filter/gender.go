package filter

import (
	"context"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pipeline"
	"github.com/rushteam/shopreco/pkg/utils"
)

// GenderNode 按性别偏好过滤：保留性别等于 Gender 或中性的商品。
// 偏好为空/unknown/unisex 时不过滤；过滤后为空则回退到原列表。
type GenderNode struct {
	Gender string
}

func (n *GenderNode) Name() string {
	return "filter.gender_preference"
}

func (n *GenderNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *GenderNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if !core.HasGenderPreference(n.Gender) || len(items) == 0 {
		return items, nil
	}

	f := &GenderFilter{Gender: n.Gender, AllowUnisex: true}
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if drop, _ := f.ShouldFilter(ctx, rctx, it); !drop {
			out = append(out, it)
		}
	}
	// 回退时原列表不带 filtered label
	if len(out) == 0 {
		if rctx != nil {
			rctx.PutLabel("gender_fallback", utils.Label{Value: n.Gender, Source: n.Name()})
		}
		return items, nil
	}
	return out, nil
}
