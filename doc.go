// Package shopreco 是面向导购对话机器人的商品推荐与语义搜索内核。
//
// 设计要点：
// - Pipeline-first: 召回、过滤、排序都通过 Node 串联（Recall → Filter → ReRank）
// - Labels-first: recall_source / recommendation_source 等 label 全链路透传，用于解释与观测
// - 快照式模型: 语义索引、协同过滤与内容模型都是不可变快照，数据变化后惰性重建
//
// 常用入口：
//
//	r, err := service.Open(ctx, config.Default(), logging.Component("service"))
//	list, constraints, err := r.SearchProducts(ctx, "shirts under 500", 5)
//	list, err = r.Hybrid(ctx, "u1", 5)
package shopreco

import (
	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pipeline"
)

// 轻量 facade：便于直接 import "shopreco" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind
type Item = core.Item
type RankedList = core.RankedList

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
