package filter

import (
	"context"

	"github.com/rushteam/shopreco/core"
)

// ExcludeFilter 过滤掉指定 ID 的商品，例如用户已交互过的商品或查询商品本身。
type ExcludeFilter struct {
	IDs map[string]struct{}
}

// NewExcludeFilter 创建一个排除过滤器。
func NewExcludeFilter(ids ...string) *ExcludeFilter {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &ExcludeFilter{IDs: set}
}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := f.IDs[item.ID]
	return ok, nil
}
