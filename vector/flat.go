// Package vector 提供内存暴力检索的向量索引。
package vector

import (
	"context"
	"math"
	"sort"

	"github.com/rushteam/shopreco/core"
)

// FlatIndex 是不可变的暴力检索索引：有序的并行数组（ids / vectors）。
//
// 特点：
//   - 构建后只读，可被多个 goroutine 并发检索
//   - 重建时整体替换，不支持增量插入
//   - 支持欧氏距离、余弦相似度、内积
//   - 分数相同时按插入顺序排序，结果稳定
type FlatIndex struct {
	ids       []string
	vectors   [][]float64
	dimension int
	metric    core.MetricType
}

// NewFlatIndex 构建索引。ids 与 vectors 必须等长且维度一致。
func NewFlatIndex(ids []string, vectors [][]float64, metric core.MetricType) (*FlatIndex, error) {
	if len(ids) != len(vectors) {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vectors and ids length mismatch")
	}
	if !core.ValidateVectorMetric(metric) {
		metric = core.MetricEuclidean
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector dimension mismatch")
		}
	}
	return &FlatIndex{
		ids:       append([]string(nil), ids...),
		vectors:   vectors,
		dimension: dim,
		metric:    metric,
	}, nil
}

func (f *FlatIndex) Name() string { return "flat" }

// Len 索引中的向量数。
func (f *FlatIndex) Len() int { return len(f.ids) }

// Dimension 向量维度，空索引为 0。
func (f *FlatIndex) Dimension() int { return f.dimension }

// IDs 按插入顺序返回 ID。
func (f *FlatIndex) IDs() []string { return append([]string(nil), f.ids...) }

// Search 实现 core.VectorService 接口。
func (f *FlatIndex) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector search request is nil")
	}
	if len(f.ids) == 0 {
		return &core.VectorSearchResult{Items: []core.VectorSearchItem{}}, nil
	}
	if len(req.Vector) != f.dimension {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector dimension mismatch")
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}
	metric := req.Metric
	if metric == "" {
		metric = f.metric
	}

	type scored struct {
		pos      int
		score    float64
		distance float64
	}
	all := make([]scored, len(f.ids))
	for i, v := range f.vectors {
		s := scored{pos: i}
		switch metric {
		case core.MetricCosine:
			s.score = cosineSimilarity(req.Vector, v)
			s.distance = 1 - s.score
		case core.MetricInnerProduct:
			s.score = innerProduct(req.Vector, v)
			s.distance = -s.score
		default:
			s.distance = euclideanDistance(req.Vector, v)
			s.score = -s.distance
		}
		all[i] = s
	}

	// 分数降序，相同分数按插入顺序
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})
	if len(all) > topK {
		all = all[:topK]
	}

	items := make([]core.VectorSearchItem, len(all))
	for i, s := range all {
		items[i] = core.VectorSearchItem{
			ID:       f.ids[s.pos],
			Score:    s.score,
			Distance: s.distance,
		}
	}
	return &core.VectorSearchResult{Items: items}, nil
}

// Close 实现 core.VectorService 接口；索引不持有外部资源。
func (f *FlatIndex) Close() error { return nil }

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}

func innerProduct(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

var _ core.VectorService = (*FlatIndex)(nil)
