package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rushteam/shopreco/core"
)

// Dataset 是导入文件的格式：
//
//	{"products": [...RawProduct], "interactions": [...InteractionEvent]}
type Dataset struct {
	Products     []core.RawProduct       `json:"products"`
	Interactions []core.InteractionEvent `json:"interactions"`
}

// ReadDataset 从 JSON 读取数据集。
func ReadDataset(r io.Reader) (*Dataset, error) {
	var ds Dataset
	if err := json.NewDecoder(r).Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &ds, nil
}

// Seed 把数据集写入目录与交互日志，返回写入的商品数与事件数。
// 无效记录跳过，不中断导入。
func Seed(ctx context.Context, cat *StoreCatalog, log *StoreInteractionLog, ds *Dataset) (int, int, error) {
	products, events := 0, 0
	for _, raw := range ds.Products {
		if err := cat.Put(ctx, raw); err != nil {
			if core.IsMalformedRecord(err) {
				continue
			}
			return products, events, err
		}
		products++
	}
	for _, ev := range ds.Interactions {
		if err := log.Append(ctx, ev); err != nil {
			if core.IsMalformedRecord(err) {
				continue
			}
			return products, events, err
		}
		events++
	}
	return products, events, nil
}
