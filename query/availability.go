package query

import (
	"regexp"
	"strings"
)

// AvailabilityQuery 是「有没有货」类问题的解析结果。
type AvailabilityQuery struct {
	ProductName string `json:"product_name"`
	Size        string `json:"size,omitempty"`
	Color       string `json:"color,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

var (
	productTypes = []string{"shirt", "pants", "jeans", "dress", "top", "hoodie", "shoes", "sneakers",
		"watch", "bag", "jacket", "sweater", "t-shirt", "tshirt", "socks"}

	askPattern   = regexp.MustCompile(`(?:do you have|is there|availability of|stock of|any)\s+(\w+(?:\s+\w+){0,3})`)
	sizePatterns = compile(`size\s+(\w+)`, `(\w+)\s+size`, `in\s+(\w+)`)
	sizes        = []string{"xs", "s", "m", "l", "xl", "xxl", "small", "medium", "large"}
)

// ParseAvailability 解析库存问题。ProductName 为空表示无法识别商品。
func ParseAvailability(text string) AvailabilityQuery {
	lower := strings.ToLower(text)
	return AvailabilityQuery{
		ProductName: extractProductName(lower),
		Size:        extractSize(lower),
		Color:       firstSubstring(lower, Colors),
		Gender:      ExtractGender(lower),
	}
}

// extractProductName 优先取「前一个词 + 商品类型」，例如 "blue shirt"。
func extractProductName(text string) string {
	for _, p := range productTypes {
		if !strings.Contains(text, p) {
			continue
		}
		re := regexp.MustCompile(`(\w+)\s+` + regexp.QuoteMeta(p))
		if m := re.FindAllStringSubmatch(text, -1); len(m) > 0 {
			return m[len(m)-1][1] + " " + p
		}
		return p
	}
	if m := askPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractSize(text string) string {
	for _, re := range sizePatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	padded := " " + text + " "
	for _, s := range sizes {
		if strings.Contains(padded, " "+s+" ") {
			return s
		}
	}
	return ""
}
