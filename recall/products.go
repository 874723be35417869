package recall

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/shopreco/core"
)

// loadProducts 读取全部商品，跳过无效记录，重复 ID 保留第一条。
// 目录读取失败返回 UNAVAILABLE。
func loadProducts(ctx context.Context, catalog core.Catalog, module string, logger zerolog.Logger) ([]*core.Product, error) {
	all, err := catalog.FetchAll(ctx)
	if err != nil {
		return nil, core.NewUnavailable(module, err, "catalog")
	}

	out := make([]*core.Product, 0, len(all))
	seen := make(map[string]struct{}, len(all))
	skipped, duplicated := 0, 0
	for i := range all {
		p := &all[i]
		if err := p.Validate(); err != nil {
			skipped++
			continue
		}
		if _, ok := seen[p.ID]; ok {
			duplicated++
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	if skipped > 0 || duplicated > 0 {
		logger.Warn().
			Int("skipped", skipped).
			Int("duplicated", duplicated).
			Msg("ignored invalid catalog records")
	}
	return out, nil
}

// loadEvents 读取交互日志，跳过无效事件。
func loadEvents(ctx context.Context, log core.InteractionLog, module string, logger zerolog.Logger) ([]core.InteractionEvent, error) {
	all, err := log.FetchAll(ctx)
	if err != nil {
		return nil, core.NewUnavailable(module, err, "interaction log")
	}
	out := make([]core.InteractionEvent, 0, len(all))
	for _, ev := range all {
		if err := ev.Validate(); err != nil {
			continue
		}
		out = append(out, ev)
	}
	if skipped := len(all) - len(out); skipped > 0 {
		logger.Warn().Int("skipped", skipped).Msg("ignored malformed interactions")
	}
	return out, nil
}

// productItems 把商品列表转成分数为 0 的 Item。
func productItems(products []*core.Product) []*core.Item {
	items := make([]*core.Item, 0, len(products))
	for _, p := range products {
		items = append(items, core.NewProductItem(p, 0))
	}
	return items
}
