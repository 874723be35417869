package core

import (
	"strconv"
	"strings"

	"github.com/rushteam/shopreco/pkg/conv"
)

// 性别取值。目录里出现的其他取值按小写原样保留。
const (
	GenderMen     = "men"
	GenderWomen   = "women"
	GenderUnisex  = "unisex"
	GenderUnknown = "unknown"
)

// Product 是一次索引构建周期内不可变的商品记录。
// 所有缺失/脏字段在 NormalizeProduct 中一次性归一化，使用方不再重复兜底。
type Product struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Price      float64  `json:"price"`
	PriceText  string   `json:"price_text,omitempty"`
	PriceKnown bool     `json:"-"`
	Rating     float64  `json:"rating"`
	HasRating  bool     `json:"-"`
	Gender     string   `json:"gender"`
	Reviews    string   `json:"reviews,omitempty"`
	Images     []string `json:"images,omitempty"`
}

// HasGenderPreference 判断性别是否可以作为过滤条件（非空、非 unknown、非 unisex）。
func HasGenderPreference(gender string) bool {
	switch gender {
	case "", GenderUnknown, GenderUnisex:
		return false
	}
	return true
}

// Validate 检查商品是否可以进入索引。
func (p *Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return NewDomainError(ModuleCatalog, ErrorCodeMalformedRecord, "catalog: product without id")
	}
	return nil
}

// RawProduct 是外部目录中的原始商品记录（JSON）。
// price / rating 可能是数字，也可能是带货币符号的字符串。
type RawProduct struct {
	MongoID  string   `json:"_id,omitempty"`
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Price    any      `json:"price"`
	Rating   any      `json:"rating"`
	Gender   string   `json:"gender"`
	Reviews  string   `json:"reviews,omitempty"`
	Review   string   `json:"review,omitempty"`
	Images   []string `json:"images,omitempty"`
}

// NormalizeProduct 把原始记录转换为 Product，是唯一的解析边界。
// 缺少 ID 时返回 MALFORMED_RECORD；价格/评分解析失败时取 0 并标记未知。
func NormalizeProduct(raw RawProduct) (Product, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = strings.TrimSpace(raw.MongoID)
	}
	if id == "" {
		return Product{}, NewDomainError(ModuleCatalog, ErrorCodeMalformedRecord,
			"catalog: product without id (title="+strconv.Quote(raw.Title)+")")
	}

	p := Product{
		ID:       id,
		Title:    strings.TrimSpace(raw.Title),
		Category: strings.TrimSpace(raw.Category),
		Gender:   NormalizeGender(raw.Gender),
		Reviews:  raw.Reviews,
		Images:   raw.Images,
	}
	if p.Reviews == "" {
		p.Reviews = raw.Review
	}

	p.Price, p.PriceKnown = conv.ParsePrice(raw.Price)
	p.PriceText = priceText(raw.Price, p.Price, p.PriceKnown)
	p.Rating, p.HasRating = conv.ParseNumber(raw.Rating)
	return p, nil
}

// NormalizeGender 小写化，空值视为 unknown。
func NormalizeGender(g string) string {
	g = strings.ToLower(strings.TrimSpace(g))
	if g == "" {
		return GenderUnknown
	}
	return g
}

func priceText(raw any, price float64, known bool) string {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	if known {
		return strconv.FormatFloat(price, 'f', -1, 64)
	}
	return ""
}
