// Package embed 提供 core.Embedder 的实现。
package embed

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/rushteam/shopreco/pkg/textutil"
)

// HashingEmbedder 是本地确定性的文本向量化：
// 对去停用词后的词做特征哈希（signed hashing trick），再做 L2 归一化。
// 不依赖外部模型，适合离线开发与测试；同一输入总是得到同一向量。
type HashingEmbedder struct {
	dimension int
}

// NewHashingEmbedder 创建哈希向量化器，dimension <= 0 时使用 512。
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = 512
	}
	return &HashingEmbedder{dimension: dimension}
}

func (e *HashingEmbedder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.encodeOne(text)
	}
	return out, nil
}

func (e *HashingEmbedder) encodeOne(text string) []float64 {
	vec := make([]float64, e.dimension)
	for _, tok := range textutil.Tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dimension))
		sign := 1.0
		if sum>>63 == 1 {
			sign = -1.0
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

func (e *HashingEmbedder) Dimension() int { return e.dimension }

func (e *HashingEmbedder) ModelName() string { return "hashing" }
