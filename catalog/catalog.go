// Package catalog 把商品目录与交互日志适配到 core.KeyValueStore 上。
//
// 存储布局（KeyPrefix 默认 "catalog" / "interactions"）：
//
//	{prefix}:products  Hash  field = 商品 ID，value = RawProduct JSON
//	{prefix}:log       List  InteractionEvent JSON，只追加
package catalog

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rs/zerolog"

	"github.com/rushteam/shopreco/core"
)

// StoreCatalog 是基于 core.KeyValueStore 的商品目录。
// 解析失败的记录在这里跳过并记录日志，调用方拿到的都是归一化后的 Product。
type StoreCatalog struct {
	store     core.KeyValueStore
	keyPrefix string
	logger    zerolog.Logger
}

// NewStoreCatalog 创建目录适配器。
func NewStoreCatalog(s core.KeyValueStore, keyPrefix string, logger zerolog.Logger) *StoreCatalog {
	if keyPrefix == "" {
		keyPrefix = "catalog"
	}
	return &StoreCatalog{
		store:     s,
		keyPrefix: keyPrefix,
		logger:    logger.With().Str("component", "catalog").Logger(),
	}
}

func (c *StoreCatalog) productsKey() string {
	return c.keyPrefix + ":products"
}

// FetchAll 读取全部商品，按 ID 升序返回。
func (c *StoreCatalog) FetchAll(ctx context.Context) ([]core.Product, error) {
	raw, err := c.store.HGetAll(ctx, c.productsKey())
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleCatalog, err, "catalog store "+c.store.Name())
	}
	return c.decode(raw), nil
}

// FetchByIDs 批量读取，结果按 ids 的顺序返回，不存在或无法解析的 ID 被忽略。
func (c *StoreCatalog) FetchByIDs(ctx context.Context, ids []string) ([]core.Product, error) {
	if len(ids) == 0 {
		return []core.Product{}, nil
	}
	raw, err := c.store.HMGet(ctx, c.productsKey(), ids...)
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleCatalog, err, "catalog store "+c.store.Name())
	}
	byID := make(map[string]core.Product, len(raw))
	for _, p := range c.decode(raw) {
		byID[p.ID] = p
	}
	out := make([]core.Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Count 商品总数（包含无法解析的记录）。
func (c *StoreCatalog) Count(ctx context.Context) (int, error) {
	n, err := c.store.HLen(ctx, c.productsKey())
	if err != nil {
		return 0, core.NewUnavailable(core.ModuleCatalog, err, "catalog store "+c.store.Name())
	}
	return int(n), nil
}

// Put 写入一条原始记录（导入/测试用）。
func (c *StoreCatalog) Put(ctx context.Context, raw core.RawProduct) error {
	p, err := core.NormalizeProduct(raw)
	if err != nil {
		return err
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return c.store.HSet(ctx, c.productsKey(), p.ID, data)
}

func (c *StoreCatalog) decode(raw map[string][]byte) []core.Product {
	out := make([]core.Product, 0, len(raw))
	skipped := 0
	for field, data := range raw {
		var rp core.RawProduct
		if err := json.Unmarshal(data, &rp); err != nil {
			skipped++
			c.logger.Warn().Str("product_id", field).Err(err).Msg("skip malformed product record")
			continue
		}
		if rp.ID == "" && rp.MongoID == "" {
			rp.ID = field
		}
		p, err := core.NormalizeProduct(rp)
		if err != nil {
			skipped++
			c.logger.Warn().Str("product_id", field).Err(err).Msg("skip malformed product record")
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if skipped > 0 {
		c.logger.Warn().Int("skipped", skipped).Int("loaded", len(out)).Msg("catalog loaded with malformed records")
	}
	return out
}

var _ core.Catalog = (*StoreCatalog)(nil)
