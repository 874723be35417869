// Package utils 提供推荐链路中的 Label。
package utils

import "strings"

// Label 附着在商品或请求上下文上，用于解释推荐来源与观测。
// 例如 recall_source=recall.u2i、recommendation_source=Because you viewed similar products。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / filter / rerank / content ...
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积，已出现过的值不重复追加。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}
	return Label{
		Value:  appendUnique(existing.Value, incoming.Value, "|"),
		Source: appendUnique(existing.Source, incoming.Source, ","),
	}
}

func appendUnique(list, v, sep string) string {
	switch {
	case list == "":
		return v
	case v == "":
		return list
	}
	for _, part := range strings.Split(list, sep) {
		if part == v {
			return list
		}
	}
	return list + sep + v
}
