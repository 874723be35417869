package core

import "context"

// VectorService 是向量检索服务的领域接口。
//
// 实现：
//   - vector.FlatIndex：内存暴力检索（不可变快照）
//   - 其他向量数据库也可以实现此接口
type VectorService interface {
	// Search 向量搜索
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close 关闭连接
	Close() error
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最近的结果
	TopK int

	// Metric 距离度量方式：euclidean / cosine / inner_product
	Metric MetricType
}

// VectorSearchItem 单个向量搜索结果项
type VectorSearchItem struct {
	// ID 商品 ID
	ID string

	// Score 相似度分数（越大越相似）
	Score float64

	// Distance 距离（euclidean 时为 L2 距离）
	Distance float64
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	// Items 搜索结果项列表（按相似度排序）
	Items []VectorSearchItem
}

// MetricType 距离度量类型
type MetricType string

const (
	MetricCosine       MetricType = "cosine"
	MetricEuclidean    MetricType = "euclidean"
	MetricInnerProduct MetricType = "inner_product"
)

// ValidateVectorMetric 验证距离度量类型
func ValidateVectorMetric(metric MetricType) bool {
	switch metric {
	case MetricCosine, MetricEuclidean, MetricInnerProduct:
		return true
	default:
		return false
	}
}
