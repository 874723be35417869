package recall

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/filter"
	"github.com/rushteam/shopreco/pipeline"
	"github.com/rushteam/shopreco/pkg/utils"
	"github.com/rushteam/shopreco/query"
	"github.com/rushteam/shopreco/rerank"
	"github.com/rushteam/shopreco/vector"
)

// SemanticConfig 语义检索配置。
type SemanticConfig struct {
	// SearchK 候选召回数量，默认 5
	SearchK int
	// DisplayTopN 约束过滤后展示数量，默认 3
	DisplayTopN int
}

func (c SemanticConfig) withDefaults() SemanticConfig {
	if c.SearchK <= 0 {
		c.SearchK = 5
	}
	if c.DisplayTopN <= 0 {
		c.DisplayTopN = 3
	}
	return c
}

// semanticSnapshot 是一次构建的不可变结果，发布后只读。
type semanticSnapshot struct {
	index    *vector.FlatIndex
	products map[string]*core.Product
	model    string
	builtAt  time.Time
}

// SemanticEngine 语义检索引擎：商品文本向量化后做欧氏距离 k-NN，
// 再按查询中提取的约束（价格、评分、好评、类目）过滤。
//
// 重建时先完整构建新索引，再原子替换；进行中的查询继续使用旧快照。
type SemanticEngine struct {
	catalog  core.Catalog
	embedder core.Embedder
	cfg      SemanticConfig
	logger   zerolog.Logger

	buildMu sync.Mutex
	snap    atomic.Pointer[semanticSnapshot]
}

// NewSemanticEngine 创建语义检索引擎，初始为空索引。
func NewSemanticEngine(catalog core.Catalog, embedder core.Embedder, cfg SemanticConfig, logger zerolog.Logger) *SemanticEngine {
	e := &SemanticEngine{
		catalog:  catalog,
		embedder: embedder,
		cfg:      cfg.withDefaults(),
		logger:   logger.With().Str("component", "semantic").Logger(),
	}
	empty, _ := vector.NewFlatIndex(nil, nil, core.MetricEuclidean)
	e.snap.Store(&semanticSnapshot{index: empty, products: map[string]*core.Product{}, model: embedder.ModelName()})
	return e
}

func (e *SemanticEngine) Name() string { return "recall.semantic" }

// Size 当前索引中的商品数。
func (e *SemanticEngine) Size() int {
	return e.snap.Load().index.Len()
}

// SemanticStats 是当前语义索引快照的调试视图。
type SemanticStats struct {
	Model      string    `json:"model"`
	Size       int       `json:"size"`
	Dimension  int       `json:"dimension"`
	SampleIDs  []string  `json:"sample_ids"`
	BuiltAt    time.Time `json:"built_at"`
	IndexBuilt bool      `json:"index_built"`
}

// Stats 返回当前快照的统计信息，未构建过索引时 IndexBuilt 为 false。
func (e *SemanticEngine) Stats() SemanticStats {
	snap := e.snap.Load()
	return SemanticStats{
		Model:      snap.model,
		Size:       snap.index.Len(),
		Dimension:  snap.index.Dimension(),
		SampleIDs:  head(snap.index.IDs(), 5),
		BuiltAt:    snap.builtAt,
		IndexBuilt: !snap.builtAt.IsZero(),
	}
}

// featureText 构造商品的检索文本。
func featureText(p *core.Product) string {
	return p.Title + " " + p.Category + " " + p.Reviews + " price: " + p.PriceText
}

// Rebuild 全量重建索引，返回索引中的商品数。
// 目录或向量化失败返回 UNAVAILABLE，旧索引保持不变。
func (e *SemanticEngine) Rebuild(ctx context.Context) (int, error) {
	e.buildMu.Lock()
	defer e.buildMu.Unlock()

	start := time.Now()
	products, err := loadProducts(ctx, e.catalog, core.ModuleSemantic, e.logger)
	if err != nil {
		return 0, err
	}

	ids := make([]string, len(products))
	texts := make([]string, len(products))
	byID := make(map[string]*core.Product, len(products))
	for i, p := range products {
		ids[i] = p.ID
		texts[i] = featureText(p)
		byID[p.ID] = p
	}

	var vectors [][]float64
	if len(texts) > 0 {
		vectors, err = e.embedder.Encode(ctx, texts)
		if err != nil {
			return 0, core.NewUnavailable(core.ModuleSemantic, err, "embedder")
		}
		if len(vectors) != len(texts) {
			return 0, core.NewUnavailable(core.ModuleSemantic,
				fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(texts)), "embedder")
		}
	}

	index, err := vector.NewFlatIndex(ids, vectors, core.MetricEuclidean)
	if err != nil {
		return 0, core.NewUnavailable(core.ModuleSemantic, err, "embedder")
	}

	e.snap.Store(&semanticSnapshot{
		index:    index,
		products: byID,
		model:    e.embedder.ModelName(),
		builtAt:  time.Now(),
	})

	if index.Len() == 0 {
		e.logger.Warn().Msg("catalog is empty, published empty index")
	} else {
		e.logger.Info().
			Int("products", index.Len()).
			Int("dimension", index.Dimension()).
			Str("model", e.embedder.ModelName()).
			Dur("took", time.Since(start)).
			Msg("semantic index rebuilt")
	}
	return index.Len(), nil
}

// Search 返回与查询文本最近的 k 个商品（k <= 0 时使用 SearchK）。
// 索引为空时返回 no_results。
func (e *SemanticEngine) Search(ctx context.Context, text string, k int) (*core.RankedList, error) {
	snap := e.snap.Load()
	if snap.index.Len() == 0 {
		return core.NewRankedList(core.SourceSemantic, nil, core.StatusNoResults), nil
	}
	if k <= 0 {
		k = e.cfg.SearchK
	}

	vecs, err := e.embedder.Encode(ctx, []string{text})
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleSemantic, err, "embedder")
	}
	if len(vecs) != 1 || len(vecs[0]) != snap.index.Dimension() {
		return nil, core.NewUnavailable(core.ModuleSemantic, fmt.Errorf("query embedding has unexpected shape"), "embedder")
	}

	res, err := snap.index.Search(ctx, &core.VectorSearchRequest{
		Vector: vecs[0],
		TopK:   k,
		Metric: core.MetricEuclidean,
	})
	if err != nil {
		return nil, err
	}

	items := make([]*core.Item, 0, len(res.Items))
	for _, hit := range res.Items {
		p, ok := snap.products[hit.ID]
		if !ok {
			continue
		}
		it := core.NewProductItem(p, hit.Score)
		it.PutMeta("distance", hit.Distance)
		it.PutLabel("recall_source", utils.Label{Value: e.Name(), Source: "recall"})
		items = append(items, it)
	}
	return core.NewRankedList(core.SourceSemantic, items, core.StatusNoResults), nil
}

// SearchProducts 语义检索后按查询约束过滤，返回前 DisplayTopN 个。
// 索引为空返回 no_results；候选全部被过滤返回 no_match。
func (e *SemanticEngine) SearchProducts(ctx context.Context, text string, k int) (*core.RankedList, query.Constraints, error) {
	constraints := query.Extract(text)

	list, err := e.Search(ctx, text, k)
	if err != nil || !list.OK() {
		return list, constraints, err
	}

	p := pipeline.New(
		filter.NewFilterNode(constraintFilters(constraints)...),
		&rerank.TopNNode{N: e.cfg.DisplayTopN},
	)
	rctx := &core.RecommendContext{
		Scene:  core.SourceSemantic,
		Params: map[string]any{ParamQuery: text},
	}
	items, err := p.Run(ctx, rctx, list.Items)
	if err != nil {
		return nil, constraints, err
	}
	return core.NewRankedList(core.SourceSemantic, items, core.StatusNoMatch), constraints, nil
}

// constraintFilters 只使用价格、评分、好评、类目四类约束。
func constraintFilters(c query.Constraints) []filter.Filter {
	var fs []filter.Filter
	if c.MaxPrice != nil {
		fs = append(fs, &filter.MaxPriceFilter{Max: *c.MaxPrice})
	}
	if c.MinRating != nil {
		fs = append(fs, &filter.MinRatingFilter{Min: *c.MinRating})
	}
	if c.GoodReviews {
		fs = append(fs, &filter.ReviewKeywordFilter{Keyword: "good"})
	}
	if c.Category != "" {
		fs = append(fs, &filter.CategoryFilter{Category: strings.ToLower(c.Category)})
	}
	return fs
}
