package core

import "context"

// Catalog 是商品目录的领域接口（外部只读存储）。
//
// 实现：
//   - catalog.StoreCatalog 基于 core.KeyValueStore（memory / redis / bolt）
type Catalog interface {
	// FetchAll 读取全部商品，无法解析的记录由实现方跳过
	FetchAll(ctx context.Context) ([]Product, error)

	// FetchByIDs 批量读取，不存在的 ID 直接忽略
	FetchByIDs(ctx context.Context, ids []string) ([]Product, error)

	// Count 商品总数
	Count(ctx context.Context) (int, error)
}

// InteractionLog 是只追加的用户交互事件流。
type InteractionLog interface {
	FetchAll(ctx context.Context) ([]InteractionEvent, error)
	Append(ctx context.Context, ev InteractionEvent) error
}

// Embedder 把文本映射为定长稠密向量。
// 对固定输入与模型版本，输出必须是确定的。
type Embedder interface {
	// Encode 批量编码，返回与 texts 等长、同序的向量
	Encode(ctx context.Context, texts []string) ([][]float64, error)

	// Dimension 向量维度
	Dimension() int

	// ModelName 模型标识（用于日志/监控）
	ModelName() string
}
