package recall

import (
	"context"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/pkg/utils"
)

// CollaborativeConfig 协同过滤配置。
type CollaborativeConfig struct {
	// Neighbours 参与预测的相似用户数，默认 10
	Neighbours int
	// DefaultTopN 默认推荐数量，默认 5
	DefaultTopN int
	// MaxCellWeight 单个 (user, product) 评分上限，0 表示不限制
	MaxCellWeight float64
}

func (c CollaborativeConfig) withDefaults() CollaborativeConfig {
	if c.Neighbours <= 0 {
		c.Neighbours = 10
	}
	if c.DefaultTopN <= 0 {
		c.DefaultTopN = 5
	}
	if c.MaxCellWeight < 0 {
		c.MaxCellWeight = 0
	}
	return c
}

// cfModel 是评分矩阵与用户相似度矩阵的快照，发布后只读。
type cfModel struct {
	users        []string // 升序
	userIndex    map[string]int
	products     []string // 升序
	productIndex map[string]int
	ratings      [][]float64 // users × products
	sim          [][]float64 // users × users
	events       int
	builtAt      time.Time
}

// CollaborativeEngine 是基于用户的协同过滤引擎（User-based Collaborative Filtering）。
//
// 核心思想："兴趣相似的用户，喜欢相似的物品"
//
// 算法流程：
//  1. 交互日志按行为权重累加为 用户 × 商品 评分矩阵
//  2. 计算用户间余弦相似度
//  3. 取 Top 10 相似用户
//  4. 对目标用户未交互的商品做相似度加权平均：Σ r·w / Σ w（只计 r > 0 的邻居）
//
// 模型按需构建并缓存，RecordInteraction 之后通过 Invalidate 标记过期，
// 下次请求时重建；并发重建由 singleflight 合并。
type CollaborativeEngine struct {
	catalog core.Catalog
	log     core.InteractionLog
	cfg     CollaborativeConfig
	logger  zerolog.Logger

	model atomic.Pointer[cfModel]
	dirty atomic.Bool
	group singleflight.Group
}

// NewCollaborativeEngine 创建协同过滤引擎。
func NewCollaborativeEngine(catalog core.Catalog, log core.InteractionLog, cfg CollaborativeConfig, logger zerolog.Logger) *CollaborativeEngine {
	return &CollaborativeEngine{
		catalog: catalog,
		log:     log,
		cfg:     cfg.withDefaults(),
		logger:  logger.With().Str("component", "cf").Logger(),
	}
}

func (e *CollaborativeEngine) Name() string {
	return "recall.u2i" // u2i (User-to-Item)
}

// Invalidate 标记模型过期，下次请求时重建。
func (e *CollaborativeEngine) Invalidate() {
	e.dirty.Store(true)
}

// Size 模型中的用户数，未构建时为 0。
func (e *CollaborativeEngine) Size() int {
	if m := e.model.Load(); m != nil {
		return len(m.users)
	}
	return 0
}

// Rebuild 从交互日志重建模型。日志为空返回 INSUFFICIENT_DATA。
func (e *CollaborativeEngine) Rebuild(ctx context.Context) error {
	_, err := e.rebuild(ctx)
	return err
}

func (e *CollaborativeEngine) rebuild(ctx context.Context) (*cfModel, error) {
	v, err, _ := e.group.Do("cf", func() (any, error) {
		// 先清除标记，构建期间到来的 Invalidate 会再次置位
		e.dirty.Store(false)
		m, err := e.build(ctx)
		if err != nil {
			e.dirty.Store(true)
			return nil, err
		}
		e.model.Store(m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cfModel), nil
}

// ensureModel 返回新鲜的模型，必要时重建。
func (e *CollaborativeEngine) ensureModel(ctx context.Context) (*cfModel, error) {
	if m := e.model.Load(); m != nil && !e.dirty.Load() {
		return m, nil
	}
	return e.rebuild(ctx)
}

func (e *CollaborativeEngine) build(ctx context.Context) (*cfModel, error) {
	start := time.Now()
	events, err := loadEvents(ctx, e.log, core.ModuleCF, e.logger)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, core.NewDomainError(core.ModuleCF, core.ErrorCodeInsufficientData, "cf: no interactions to build rating matrix")
	}

	// 聚合 (user, product) 评分
	cells := make(map[string]map[string]float64)
	productSet := make(map[string]struct{})
	for _, ev := range events {
		row, ok := cells[ev.UserID]
		if !ok {
			row = make(map[string]float64)
			cells[ev.UserID] = row
		}
		row[ev.ProductID] += ev.Weight()
		productSet[ev.ProductID] = struct{}{}
	}

	m := &cfModel{
		users:        sortedKeys(cells),
		products:     sortedKeys(productSet),
		userIndex:    make(map[string]int, len(cells)),
		productIndex: make(map[string]int, len(productSet)),
		events:       len(events),
	}
	for i, u := range m.users {
		m.userIndex[u] = i
	}
	for j, p := range m.products {
		m.productIndex[p] = j
	}

	m.ratings = make([][]float64, len(m.users))
	for i, u := range m.users {
		row := make([]float64, len(m.products))
		for pid, r := range cells[u] {
			if e.cfg.MaxCellWeight > 0 && r > e.cfg.MaxCellWeight {
				r = e.cfg.MaxCellWeight
			}
			row[m.productIndex[pid]] = r
		}
		m.ratings[i] = row
	}
	m.sim = cosineRows(m.ratings)
	m.builtAt = time.Now()

	e.logger.Info().
		Int("users", len(m.users)).
		Int("products", len(m.products)).
		Int("interactions", m.events).
		Dur("took", time.Since(start)).
		Msg("collaborative model rebuilt")
	return m, nil
}

// cosineRows 计算行向量两两余弦相似度。零向量与其他行相似度为 0，对角线为 1。
func cosineRows(rows [][]float64) [][]float64 {
	n := len(rows)
	norms := make([]float64, n)
	for i, r := range rows {
		var s float64
		for _, v := range r {
			s += v * v
		}
		norms[i] = math.Sqrt(s)
	}
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
		sim[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if norms[i] == 0 || norms[j] == 0 {
				continue
			}
			var dot float64
			for k := range rows[i] {
				dot += rows[i][k] * rows[j][k]
			}
			s := dot / (norms[i] * norms[j])
			sim[i][j] = s
			sim[j][i] = s
		}
	}
	return sim
}

// Neighbour 是一个相似用户。
type Neighbour struct {
	UserID     string  `json:"user_id"`
	Similarity float64 `json:"similarity"`
}

// Prediction 是一个预测评分。
type Prediction struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

// neighbours 返回除自己外最相似的 k 个用户：相似度降序，ID 升序。
func (m *cfModel) neighbours(ui, k int) []Neighbour {
	out := make([]Neighbour, 0, len(m.users))
	for j, u := range m.users {
		if j == ui {
			continue
		}
		out = append(out, Neighbour{UserID: u, Similarity: m.sim[ui][j]})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Similarity != out[b].Similarity {
			return out[a].Similarity > out[b].Similarity
		}
		return out[a].UserID < out[b].UserID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// predict 对目标用户未交互的商品做加权平均预测，按分数降序、ID 升序。
func (m *cfModel) predict(ui int, nbs []Neighbour) []Prediction {
	seen := m.ratings[ui]
	var out []Prediction
	for j, pid := range m.products {
		if seen[j] > 0 {
			continue
		}
		var num, den float64
		rated := false
		for _, nb := range nbs {
			r := m.ratings[m.userIndex[nb.UserID]][j]
			if r <= 0 {
				continue
			}
			num += r * nb.Similarity
			den += nb.Similarity
			rated = true
		}
		if !rated || den == 0 {
			continue
		}
		out = append(out, Prediction{ProductID: pid, Score: num / den})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].ProductID < out[b].ProductID
	})
	return out
}

// Recommend 为用户推荐 n 个商品（n <= 0 时使用 DefaultTopN）。
// 日志为空返回 INSUFFICIENT_DATA，未知用户返回 USER_NOT_FOUND，没有候选返回 no_results。
func (e *CollaborativeEngine) Recommend(ctx context.Context, userID string, n int) (*core.RankedList, error) {
	m, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	ui, ok := m.userIndex[userID]
	if !ok {
		return nil, core.NewUserNotFound(core.ModuleCF, userID)
	}
	if n <= 0 {
		n = e.cfg.DefaultTopN
	}

	preds := m.predict(ui, m.neighbours(ui, e.cfg.Neighbours))
	if len(preds) > n {
		preds = preds[:n]
	}
	if len(preds) == 0 {
		return core.NewRankedList(core.SourceCollaborative, nil, core.StatusNoResults), nil
	}

	ids := make([]string, len(preds))
	for i, p := range preds {
		ids[i] = p.ProductID
	}
	products, err := e.catalog.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleCF, err, "catalog")
	}
	byID := make(map[string]*core.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	items := make([]*core.Item, 0, len(preds))
	for _, p := range preds {
		it := core.NewItem(p.ProductID)
		it.Score = p.Score
		it.Product = byID[p.ProductID]
		it.PutMeta("predicted_rating", p.Score)
		it.PutLabel("recommendation_source", utils.Label{Value: core.SourceCollaborative, Source: "recall"})
		items = append(items, it)
	}
	return core.NewRankedList(core.SourceCollaborative, items, core.StatusNoResults), nil
}

// Recall 实现 Source 接口，用于多源召回。
func (e *CollaborativeEngine) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	list, err := e.Recommend(ctx, rctx.UserID, topNParam(rctx, e.cfg.DefaultTopN))
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// CFStats 是协同过滤模型的调试视图。
type CFStats struct {
	UserExists     bool         `json:"user_exists"`
	TotalUsers     int          `json:"total_users"`
	TotalProducts  int          `json:"total_products"`
	Interactions   int          `json:"interactions"`
	SampleUsers    []string     `json:"sample_users"`
	SampleProducts []string     `json:"sample_products"`
	SeenCount      int          `json:"seen_count"`
	SimilarUsers   []Neighbour  `json:"similar_users,omitempty"`
	TopPredictions []Prediction `json:"top_predictions,omitempty"`
	BuiltAt        time.Time    `json:"built_at"`
}

// Stats 返回模型统计与指定用户的邻居、预测，用户不存在时不报错。
func (e *CollaborativeEngine) Stats(ctx context.Context, userID string) (*CFStats, error) {
	m, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	st := &CFStats{
		TotalUsers:     len(m.users),
		TotalProducts:  len(m.products),
		Interactions:   m.events,
		SampleUsers:    head(m.users, 5),
		SampleProducts: head(m.products, 5),
		BuiltAt:        m.builtAt,
	}
	ui, ok := m.userIndex[userID]
	if !ok {
		return st, nil
	}
	st.UserExists = true
	for _, r := range m.ratings[ui] {
		if r > 0 {
			st.SeenCount++
		}
	}
	st.SimilarUsers = m.neighbours(ui, e.cfg.Neighbours)
	st.TopPredictions = m.predict(ui, st.SimilarUsers)
	if len(st.TopPredictions) > 5 {
		st.TopPredictions = st.TopPredictions[:5]
	}
	return st, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func head(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string(nil), s...)
}
