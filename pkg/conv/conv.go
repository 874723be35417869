// Package conv 提供类型转换与价格解析工具。
package conv

import (
	"math"
	"strconv"
	"strings"
)

// ToFloat64 将 any 转为 float64。
// 支持 float64、float32、int、int64、int32；bool 视为 1.0/0.0。
func ToFloat64(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case bool:
		if val {
			return 1.0, true
		}
		return 0.0, true
	default:
		return 0, false
	}
}

// ToString 将 any 转为 string。
// 仅支持 string 类型，否则返回 ("", false)。
func ToString(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ParseNumber 解析数字或数字字符串，失败时返回 (0, false)。
// NaN / Inf 视为失败。
func ParseNumber(v any) (float64, bool) {
	if s, ok := ToString(v); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	}
	f, ok := ToFloat64(v)
	if _, isBool := v.(bool); isBool || !ok || !finite(f) {
		return 0, false
	}
	return f, true
}

// ParsePrice 解析价格：字符串会先去掉 "₹" 与千分位 ","，如 "₹1,299" -> 1299。
// 失败时返回 (0, false)。
func ParsePrice(v any) (float64, bool) {
	if s, ok := ToString(v); ok {
		s = strings.ReplaceAll(s, "₹", "")
		s = strings.ReplaceAll(s, ",", "")
		return ParseNumber(s)
	}
	return ParseNumber(v)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
