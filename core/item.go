package core

import "github.com/rushteam/shopreco/pkg/utils"

// Item 是推荐链路中的统一承载结构：商品、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// Product 为 nil 表示目录中没有对应记录（只有 ID 的占位项）。
type Item struct {
	ID      string                 `json:"id"`
	Score   float64                `json:"score"`
	Product *Product               `json:"product,omitempty"`
	Meta    map[string]any         `json:"meta,omitempty"`
	Labels  map[string]utils.Label `json:"labels,omitempty"`
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// NewProductItem 基于商品创建 Item。
func NewProductItem(p *Product, score float64) *Item {
	it := NewItem(p.ID)
	it.Product = p
	it.Score = score
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// PutMeta 写入元信息。
func (it *Item) PutMeta(key string, v any) {
	if it.Meta == nil {
		it.Meta = make(map[string]any)
	}
	it.Meta[key] = v
}
