package service

import (
	"context"
	"sync"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/recall"
	"github.com/rushteam/shopreco/rerank"
)

// Hybrid 并发执行协同过滤与内容推荐，按优先级合并（协同过滤在前），按 ID 去重。
// 单个召回源失败会被忽略；两个源都没有结果时用热门商品兜底。
// 只有两个源都找不到用户时返回 USER_NOT_FOUND。
func (r *Recommender) Hybrid(ctx context.Context, userID string, n int) (*core.RankedList, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = r.engine.CFTopN
	}

	var (
		mu       sync.Mutex
		notFound int
	)
	onError := func(src recall.Source, err error) {
		mu.Lock()
		defer mu.Unlock()
		if core.IsUserNotFound(err) {
			notFound++
			return
		}
		r.logger.Warn().Err(err).Str("source", src.Name()).Msg("hybrid source failed")
	}
	personal := &recall.Fanout{
		SourceName:    "recall.personal",
		Sources:       []recall.Source{r.cf, r.content},
		Dedup:         true,
		MergeStrategy: recall.MergePriority,
		OnError:       onError,
	}
	fanout := &recall.Fanout{
		Sources:       []recall.Source{personal, &recall.Popular{Catalog: r.catalog, TopK: n}},
		Dedup:         true,
		MergeStrategy: recall.MergeFirst,
		OnError:       onError,
	}

	rctx := &core.RecommendContext{
		UserID: userID,
		Scene:  core.SourceHybrid,
		Params: map[string]any{recall.ParamTopN: n},
	}
	items, err := fanout.Process(ctx, rctx, nil)
	if err != nil {
		r.observe("hybrid", nil, err)
		return nil, err
	}
	if notFound == len(personal.Sources) {
		err := core.NewUserNotFound(core.ModuleService, userID)
		r.observe("hybrid", nil, err)
		return nil, err
	}

	items, _ = (&rerank.TopNNode{N: n}).Process(ctx, rctx, items)
	list := core.NewRankedList(core.SourceHybrid, items, core.StatusNoResults)
	r.observe("hybrid", list, nil)
	return list, nil
}
