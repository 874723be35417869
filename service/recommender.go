// Package service 是推荐与语义检索的门面：组合各引擎，负责失效、指标与日志。
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/shopreco/catalog"
	"github.com/rushteam/shopreco/config"
	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pkg/metrics"
	"github.com/rushteam/shopreco/query"
	"github.com/rushteam/shopreco/recall"
)

// Recommender 对外暴露全部检索与推荐操作，可并发使用。
type Recommender struct {
	kv           core.KeyValueStore
	catalog      *catalog.StoreCatalog
	interactions *catalog.StoreInteractionLog
	embedder     core.Embedder

	semantic *recall.SemanticEngine
	cf       *recall.CollaborativeEngine
	content  *recall.ContentEngine

	engine config.EngineConfig
	logger zerolog.Logger
}

// NewRecommender 基于已有的存储与向量化服务创建门面。
func NewRecommender(kv core.KeyValueStore, embedder core.Embedder, cfg *config.Config, logger zerolog.Logger) *Recommender {
	if cfg == nil {
		cfg = config.Default()
	}
	cat := catalog.NewStoreCatalog(kv, cfg.Store.CatalogPrefix, logger)
	log := catalog.NewStoreInteractionLog(kv, cfg.Store.InteractionsPrefix, logger)
	eng := cfg.Engine

	return &Recommender{
		kv:           kv,
		catalog:      cat,
		interactions: log,
		embedder:     embedder,
		semantic: recall.NewSemanticEngine(cat, embedder, recall.SemanticConfig{
			SearchK:     eng.SearchK,
			DisplayTopN: eng.DisplayTopN,
		}, logger),
		cf: recall.NewCollaborativeEngine(cat, log, recall.CollaborativeConfig{
			Neighbours:    eng.CFNeighbours,
			DefaultTopN:   eng.CFTopN,
			MaxCellWeight: eng.MaxCellWeight,
		}, logger),
		content: recall.NewContentEngine(cat, log, recall.ContentConfig{
			DefaultTopN: eng.ContentTopN,
		}, logger),
		engine: eng,
		logger: logger.With().Str("component", "service").Logger(),
	}
}

// Open 按配置打开存储与向量化服务并创建门面，Close 时关闭存储。
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Recommender, error) {
	kv, err := NewStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	emb, err := NewEmbedder(cfg.Embedder, cfg.Breaker, logger)
	if err != nil {
		_ = kv.Close()
		return nil, err
	}
	return NewRecommender(kv, emb, cfg, logger), nil
}

// Close 关闭底层存储。
func (r *Recommender) Close() error {
	return r.kv.Close()
}

// Seed 导入数据集，导入后模型标记为过期。
func (r *Recommender) Seed(ctx context.Context, ds *catalog.Dataset) (int, int, error) {
	products, events, err := catalog.Seed(ctx, r.catalog, r.interactions, ds)
	r.invalidate()
	if err != nil {
		return products, events, err
	}
	r.logger.Info().Int("products", products).Int("interactions", events).Msg("dataset seeded")
	return products, events, nil
}

// RebuildSemanticIndex 重建语义索引，返回索引中的商品数。
func (r *Recommender) RebuildSemanticIndex(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := r.semantic.Rebuild(ctx)
	metrics.ObserveRebuild("semantic", start, n, err)
	if err != nil {
		r.logger.Error().Err(err).Msg("rebuild semantic index failed")
	}
	return n, err
}

// SearchProducts 语义检索并按查询约束过滤。
func (r *Recommender) SearchProducts(ctx context.Context, text string, k int) (*core.RankedList, query.Constraints, error) {
	if strings.TrimSpace(text) == "" {
		err := invalidInput("query is required")
		metrics.ObserveRequest("search", nil, err)
		return nil, query.Constraints{}, err
	}
	list, c, err := r.semantic.SearchProducts(ctx, text, k)
	r.observe("search", list, err)
	return list, c, err
}

// RecommendCollaborative 协同过滤推荐。
func (r *Recommender) RecommendCollaborative(ctx context.Context, userID string, n int) (*core.RankedList, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	list, err := r.cf.Recommend(ctx, userID, n)
	r.observe("collaborative", list, err)
	return list, err
}

// RecommendContentBased 基于内容的推荐。
func (r *Recommender) RecommendContentBased(ctx context.Context, userID string, n int) (*core.RankedList, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	list, err := r.content.Recommend(ctx, userID, n)
	r.observe("content", list, err)
	return list, err
}

// SimilarProducts 相似商品。
func (r *Recommender) SimilarProducts(ctx context.Context, productID string, n int) (*core.RankedList, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, invalidInput("product id is required")
	}
	list, err := r.content.Similar(ctx, productID, n)
	r.observe("similar", list, err)
	return list, err
}

// FilterByAttributes 按属性筛选。
func (r *Recommender) FilterByAttributes(ctx context.Context, criteria recall.Criteria, n int) (*core.RankedList, error) {
	list, err := r.content.ByAttributes(ctx, criteria, n)
	r.observe("attributes", list, err)
	return list, err
}

// RecordInteraction 追加一条交互，并使协同过滤与内容模型过期。
func (r *Recommender) RecordInteraction(ctx context.Context, ev core.InteractionEvent) error {
	if err := r.interactions.Append(ctx, ev); err != nil {
		return err
	}
	r.invalidate()
	r.logger.Debug().
		Str("user_id", ev.UserID).
		Str("product_id", ev.ProductID).
		Str("action", string(ev.Action)).
		Msg("interaction recorded")
	return nil
}

func (r *Recommender) invalidate() {
	r.cf.Invalidate()
	r.content.Invalidate()
}

// RebuildAll 并发重建全部引擎。交互不足导致的协同过滤失败被忽略，其余错误合并返回。
func (r *Recommender) RebuildAll(ctx context.Context) error {
	var semanticErr, cfErr, contentErr error

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		_, semanticErr = r.RebuildSemanticIndex(egCtx)
		return nil
	})
	eg.Go(func() error {
		start := time.Now()
		cfErr = r.cf.Rebuild(egCtx)
		metrics.ObserveRebuild("collaborative", start, r.cf.Size(), cfErr)
		if core.IsInsufficientData(cfErr) {
			r.logger.Info().Msg("no interactions yet, collaborative model skipped")
			cfErr = nil
		}
		return nil
	})
	eg.Go(func() error {
		start := time.Now()
		contentErr = r.content.Rebuild(egCtx)
		metrics.ObserveRebuild("content", start, r.content.Size(), contentErr)
		return nil
	})
	_ = eg.Wait()

	return errors.Join(semanticErr, cfErr, contentErr)
}

// DebugSemantic 语义索引调试视图。
func (r *Recommender) DebugSemantic() recall.SemanticStats {
	return r.semantic.Stats()
}

// DebugCollaborative 协同过滤调试视图。
func (r *Recommender) DebugCollaborative(ctx context.Context, userID string) (*recall.CFStats, error) {
	return r.cf.Stats(ctx, userID)
}

// DebugContent 内容推荐调试视图。
func (r *Recommender) DebugContent(ctx context.Context, userID string) (*recall.UserProfile, error) {
	return r.content.UserProfile(ctx, userID)
}

func (r *Recommender) observe(operation string, list *core.RankedList, err error) {
	metrics.ObserveRequest(operation, list, err)
	ev := r.logger.Debug()
	if err != nil && !isClientError(err) {
		ev = r.logger.Warn().Err(err)
	}
	if list != nil {
		ev = ev.Str("status", string(list.Status)).Int("items", len(list.Items))
	}
	ev.Str("operation", operation).Msg("request served")
}

func isClientError(err error) bool {
	return core.IsUserNotFound(err) || core.IsProductNotFound(err) || core.IsInvalidInput(err) || core.IsInsufficientData(err)
}

func invalidInput(msg string) error {
	return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: "+msg)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return invalidInput("user id is required")
	}
	return nil
}
