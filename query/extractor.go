// Package query 把自由文本查询解析为结构化约束。所有函数都是纯函数。
package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rushteam/shopreco/pkg/textutil"
)

// Constraints 是从查询文本中提取的约束，nil / 空值表示不约束。
type Constraints struct {
	MaxPrice    *float64 `json:"max_price,omitempty"`
	MinRating   *float64 `json:"min_rating,omitempty"`
	GoodReviews bool     `json:"good_reviews,omitempty"`
	Category    string   `json:"category,omitempty"`
	Gender      string   `json:"gender,omitempty"`
	Color       string   `json:"color,omitempty"`
}

// Empty 是否没有任何约束。
func (c Constraints) Empty() bool {
	return c.MaxPrice == nil && c.MinRating == nil && !c.GoodReviews && c.Category == "" && c.Gender == "" && c.Color == ""
}

const number = `(\d+(?:\.\d+)?)`

var (
	maxPricePatterns = compile(
		`under\s+`+number,
		`less than\s+`+number,
		`below\s+`+number,
		`cheaper than\s+`+number,
		`max\s+`+number,
		`maximum\s+`+number,
	)
	minRatingPatterns = compile(
		`rated over\s+`+number,
		`rating above\s+`+number,
		`rated above\s+`+number,
		`rating over\s+`+number,
	)
	goodReviewPhrases = []string{"good reviews", "positive reviews", "highly rated"}

	// Categories 是可识别的商品类目，按顺序匹配第一个子串。
	Categories = []string{"hoodie", "sneakers", "shirt", "pants", "jeans", "dress", "shoes", "watch", "bag"}

	Colors = []string{"black", "white", "red", "blue", "green", "yellow", "purple", "pink",
		"brown", "gray", "grey", "orange", "navy", "beige"}

	womenTerms = []string{"women", "woman", "female", "girl", "girls", "ladies"}
	menTerms   = []string{"men", "man", "male", "boy", "boys", "guys"}
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Extract 从查询文本中提取约束（大小写不敏感）。
func Extract(text string) Constraints {
	lower := strings.ToLower(text)
	c := Constraints{
		MaxPrice:    firstNumber(lower, maxPricePatterns),
		MinRating:   firstNumber(lower, minRatingPatterns),
		GoodReviews: containsAny(lower, goodReviewPhrases),
		Category:    firstSubstring(lower, Categories),
		Gender:      ExtractGender(lower),
		Color:       firstSubstring(lower, Colors),
	}
	return c
}

// ExtractGender 按整词匹配性别用语，women 类优先，避免 "women" 被识别为 "men"。
func ExtractGender(text string) string {
	for _, t := range womenTerms {
		if textutil.ContainsWord(text, t) {
			return "women"
		}
	}
	for _, t := range menTerms {
		if textutil.ContainsWord(text, t) {
			return "men"
		}
	}
	return ""
}

// firstNumber 按模式顺序取第一个命中的数字。
func firstNumber(text string, patterns []*regexp.Regexp) *float64 {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &f
		}
	}
	return nil
}

func firstSubstring(text string, vocab []string) string {
	for _, v := range vocab {
		if strings.Contains(text, v) {
			return v
		}
	}
	return ""
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
