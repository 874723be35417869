package filter

import (
	"context"
	"strings"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pkg/dsl"
	"github.com/rushteam/shopreco/pkg/textutil"
)

// 以下过滤器都作用在 Item.Product 上；没有商品详情的占位项一律过滤。

// MaxPriceFilter 过滤价格高于 Max 的商品。价格无法解析的商品保留。
type MaxPriceFilter struct {
	Max float64
}

func (f *MaxPriceFilter) Name() string { return "filter.max_price" }

func (f *MaxPriceFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	p := product(item)
	if p == nil {
		return true, nil
	}
	if !p.PriceKnown {
		return false, nil
	}
	return p.Price > f.Max, nil
}

// PriceRangeFilter 只保留价格在 [Min, Max] 内的商品，nil 表示不限。
// 价格未知的商品在设置了任一边界时被过滤。
type PriceRangeFilter struct {
	Min *float64
	Max *float64
}

func (f *PriceRangeFilter) Name() string { return "filter.price_range" }

func (f *PriceRangeFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	p := product(item)
	if p == nil {
		return true, nil
	}
	if f.Min == nil && f.Max == nil {
		return false, nil
	}
	if !p.PriceKnown {
		return true, nil
	}
	if f.Min != nil && p.Price < *f.Min {
		return true, nil
	}
	if f.Max != nil && p.Price > *f.Max {
		return true, nil
	}
	return false, nil
}

// MinRatingFilter 过滤评分低于 Min 的商品，无评分按 0 处理。
type MinRatingFilter struct {
	Min float64
}

func (f *MinRatingFilter) Name() string { return "filter.min_rating" }

func (f *MinRatingFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	p := product(item)
	if p == nil {
		return true, nil
	}
	return p.Rating < f.Min, nil
}

// ReviewKeywordFilter 过滤评论中不包含 Keyword 的商品（大小写不敏感）。
type ReviewKeywordFilter struct {
	Keyword string
}

func (f *ReviewKeywordFilter) Name() string { return "filter.review_keyword" }

func (f *ReviewKeywordFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	p := product(item)
	if p == nil {
		return true, nil
	}
	return !strings.Contains(strings.ToLower(p.Reviews), strings.ToLower(f.Keyword)), nil
}

// CategoryFilter 过滤类目不包含 Category 子串的商品（大小写不敏感）。
// Normalized 为 true 时先对商品类目做标点归一化。
type CategoryFilter struct {
	Category   string
	Normalized bool
}

func (f *CategoryFilter) Name() string { return "filter.category" }

func (f *CategoryFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	p := product(item)
	if p == nil {
		return true, nil
	}
	category := strings.ToLower(p.Category)
	if f.Normalized {
		category = textutil.Normalize(p.Category)
	}
	return !strings.Contains(category, strings.ToLower(f.Category)), nil
}

// TitleKeywordFilter 保留归一化标题中包含任一关键词的商品。
type TitleKeywordFilter struct {
	Keywords []string
}

// NewTitleKeywordFilter 把查询标题切成关键词。查询归一化后没有词时不做过滤。
func NewTitleKeywordFilter(title string) *TitleKeywordFilter {
	return &TitleKeywordFilter{Keywords: textutil.Words(textutil.Normalize(title))}
}

func (f *TitleKeywordFilter) Name() string { return "filter.title_keyword" }

func (f *TitleKeywordFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	p := product(item)
	if p == nil {
		return true, nil
	}
	if len(f.Keywords) == 0 {
		return false, nil
	}
	title := textutil.Normalize(p.Title)
	for _, kw := range f.Keywords {
		if strings.Contains(title, kw) {
			return false, nil
		}
	}
	return true, nil
}

// GenderFilter 保留性别等于 Gender 的商品；AllowUnisex 时中性商品也保留。
type GenderFilter struct {
	Gender      string
	AllowUnisex bool
}

func (f *GenderFilter) Name() string { return "filter.gender" }

func (f *GenderFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	p := product(item)
	if p == nil {
		return true, nil
	}
	if p.Gender == f.Gender {
		return false, nil
	}
	if f.AllowUnisex && p.Gender == core.GenderUnisex {
		return false, nil
	}
	return true, nil
}

// ExprFilter 用 CEL 表达式过滤，表达式为 false 的商品被过滤。
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式，语法错误返回 INVALID_INPUT。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if product(item) == nil {
		return true, nil
	}
	ok, err := f.prg.Eval(item, rctx)
	if err != nil {
		// 求值失败（例如字段缺失）按不满足处理
		return true, nil
	}
	return !ok, nil
}

func product(item *core.Item) *core.Product {
	if item == nil {
		return nil
	}
	return item.Product
}
