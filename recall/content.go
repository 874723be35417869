package recall

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/filter"
	"github.com/rushteam/shopreco/pipeline"
	"github.com/rushteam/shopreco/pkg/textutil"
	"github.com/rushteam/shopreco/pkg/utils"
	"github.com/rushteam/shopreco/rerank"
)

// recommendation_source 文案
const (
	ReasonHistory    = "Based on your browsing history"
	ReasonPopular    = "Popular products you might like"
	ReasonSimilar    = "Similar products"
	ReasonAttributes = "Products matching your criteria"
)

// ContentConfig 内容推荐配置。
type ContentConfig struct {
	// DefaultTopN 默认推荐数量，默认 4
	DefaultTopN int
}

func (c ContentConfig) withDefaults() ContentConfig {
	if c.DefaultTopN <= 0 {
		c.DefaultTopN = 4
	}
	return c
}

// contentModel 是商品相似度矩阵与用户历史的快照，发布后只读。
type contentModel struct {
	products  []*core.Product // 目录顺序（ID 升序）
	index     map[string]int
	sim       [][]float64
	histories map[string][]string // 用户交互过的商品，去重，首次出现顺序
	events    map[string][]core.InteractionEvent
	popular   []*core.Product
	total     int
	builtAt   time.Time
}

// ContentEngine 基于内容的推荐（Content-Based Recommendation）。
//
// 核心思想："用户喜欢具有某些特征的物品，推荐具有相似特征的其他物品"
//
// 商品的标题、类目、性别、评论拼接后做 TF-IDF，商品间相似度为向量余弦。
// 用户推荐对其交互过的商品的相似度累加；没有候选时回退到热门商品。
type ContentEngine struct {
	catalog core.Catalog
	log     core.InteractionLog
	cfg     ContentConfig
	logger  zerolog.Logger

	model atomic.Pointer[contentModel]
	dirty atomic.Bool
	group singleflight.Group
}

// NewContentEngine 创建内容推荐引擎。
func NewContentEngine(catalog core.Catalog, log core.InteractionLog, cfg ContentConfig, logger zerolog.Logger) *ContentEngine {
	return &ContentEngine{
		catalog: catalog,
		log:     log,
		cfg:     cfg.withDefaults(),
		logger:  logger.With().Str("component", "content").Logger(),
	}
}

func (e *ContentEngine) Name() string {
	return "recall.content"
}

// Invalidate 标记模型过期，下次请求时重建。
func (e *ContentEngine) Invalidate() {
	e.dirty.Store(true)
}

// Size 模型中的商品数，未构建时为 0。
func (e *ContentEngine) Size() int {
	if m := e.model.Load(); m != nil {
		return len(m.products)
	}
	return 0
}

// Rebuild 重建 TF-IDF 相似度矩阵和用户历史。
func (e *ContentEngine) Rebuild(ctx context.Context) error {
	_, err := e.rebuild(ctx)
	return err
}

func (e *ContentEngine) rebuild(ctx context.Context) (*contentModel, error) {
	v, err, _ := e.group.Do("content", func() (any, error) {
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
	return v.(*contentModel), nil
}

func (e *ContentEngine) ensureModel(ctx context.Context) (*contentModel, error) {
	if m := e.model.Load(); m != nil && !e.dirty.Load() {
		return m, nil
	}
	return e.rebuild(ctx)
}

// contentText 拼接商品内容文本：标题、类目、性别、评论。
// 缺失的性别已在归一化时记为 unknown，同样作为一个词参与。
func contentText(p *core.Product) string {
	return strings.Join([]string{
		textutil.Normalize(p.Title),
		textutil.Normalize(p.Category),
		textutil.Normalize(p.Gender),
		textutil.Normalize(p.Reviews),
	}, " ")
}

func (e *ContentEngine) build(ctx context.Context) (*contentModel, error) {
	start := time.Now()
	products, err := loadProducts(ctx, e.catalog, core.ModuleContent, e.logger)
	if err != nil {
		return nil, err
	}
	events, err := loadEvents(ctx, e.log, core.ModuleContent, e.logger)
	if err != nil {
		return nil, err
	}

	m := &contentModel{
		products:  products,
		index:     make(map[string]int, len(products)),
		histories: make(map[string][]string),
		events:    make(map[string][]core.InteractionEvent),
		total:     len(events),
	}
	docs := make([]string, len(products))
	for i, p := range products {
		m.index[p.ID] = i
		docs[i] = contentText(p)
	}
	m.sim = fitTFIDF(docs).similarityMatrix()

	seen := make(map[string]map[string]struct{})
	for _, ev := range events {
		m.events[ev.UserID] = append(m.events[ev.UserID], ev)
		s, ok := seen[ev.UserID]
		if !ok {
			s = make(map[string]struct{})
			seen[ev.UserID] = s
		}
		if _, dup := s[ev.ProductID]; dup {
			continue
		}
		s[ev.ProductID] = struct{}{}
		m.histories[ev.UserID] = append(m.histories[ev.UserID], ev.ProductID)
	}

	for _, it := range rankPopular(products) {
		m.popular = append(m.popular, it.Product)
	}
	m.builtAt = time.Now()

	e.logger.Info().
		Int("products", len(products)).
		Int("users", len(m.histories)).
		Int("interactions", m.total).
		Dur("took", time.Since(start)).
		Msg("content model rebuilt")
	return m, nil
}

// preferredGender 对用户交互过且在目录中的商品按性别计票，平票取先出现者。
func (m *contentModel) preferredGender(userID string) string {
	counts := make(map[string]int)
	var order []string
	for _, pid := range m.histories[userID] {
		idx, ok := m.index[pid]
		if !ok {
			continue
		}
		g := m.products[idx].Gender
		if _, ok := counts[g]; !ok {
			order = append(order, g)
		}
		counts[g]++
	}
	best, bestCount := "", 0
	for _, g := range order {
		if counts[g] > bestCount {
			best, bestCount = g, counts[g]
		}
	}
	return best
}

// PreferredGender 返回用户偏好的性别，没有历史时返回 ""。
func (e *ContentEngine) PreferredGender(ctx context.Context, userID string) (string, error) {
	m, err := e.ensureModel(ctx)
	if err != nil {
		return "", err
	}
	return m.preferredGender(userID), nil
}

// Recommend 基于用户历史推荐 n 个商品（n <= 0 时使用 DefaultTopN）。
// 没有交互历史返回 USER_NOT_FOUND；没有候选时回退到热门商品。
func (e *ContentEngine) Recommend(ctx context.Context, userID string, n int) (*core.RankedList, error) {
	m, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	history := m.histories[userID]
	if len(history) == 0 {
		return nil, core.NewUserNotFound(core.ModuleContent, userID)
	}
	if n <= 0 {
		n = e.cfg.DefaultTopN
	}
	if len(m.products) == 0 {
		return core.NewRankedList(core.SourceHistory, nil, core.StatusNoResults), nil
	}

	var anchors []int
	for _, pid := range history {
		if idx, ok := m.index[pid]; ok {
			anchors = append(anchors, idx)
		}
	}

	rctx := &core.RecommendContext{UserID: userID, Scene: core.SourceHistory}
	var candidates []*core.Item
	if len(anchors) > 0 {
		scored := make([]*core.Item, 0, len(m.products))
		for c, p := range m.products {
			var score float64
			for _, i := range anchors {
				score += m.sim[i][c]
			}
			scored = append(scored, core.NewProductItem(p, score))
		}
		candidates, err = filter.NewFilterNode(filter.NewExcludeFilter(history...)).Process(ctx, rctx, scored)
		if err != nil {
			return nil, err
		}
	}

	gender := m.preferredGender(userID)

	source, reason := core.SourceHistory, ReasonHistory
	nodes := []pipeline.Node{&filter.GenderNode{Gender: gender}, &rerank.ScoreSortNode{}, &rerank.TopNNode{N: n}}
	if len(candidates) == 0 {
		source, reason = core.SourcePopular, ReasonPopular
		candidates = rankPopular(m.popular)
		nodes = []pipeline.Node{&filter.GenderNode{Gender: gender}, &rerank.TopNNode{N: n}}
	}

	items, err := pipeline.New(nodes...).Run(ctx, rctx, candidates)
	if err != nil {
		return nil, err
	}
	putReason(items, reason)
	return core.NewRankedList(source, items, core.StatusNoResults), nil
}

// Recall 实现 Source 接口，用于多源召回。
func (e *ContentEngine) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	list, err := e.Recommend(ctx, rctx.UserID, topNParam(rctx, e.cfg.DefaultTopN))
	if err != nil {
		return nil, err
	}
	return list.Items, nil
}

// Similar 返回与指定商品最相似的 n 个商品，按商品性别过滤（过滤为空时不过滤）。
func (e *ContentEngine) Similar(ctx context.Context, productID string, n int) (*core.RankedList, error) {
	m, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	idx, ok := m.index[productID]
	if !ok {
		return nil, core.NewProductNotFound(core.ModuleContent, productID)
	}
	if n <= 0 {
		n = e.cfg.DefaultTopN
	}

	candidates := make([]*core.Item, 0, len(m.products))
	for c, p := range m.products {
		candidates = append(candidates, core.NewProductItem(p, m.sim[idx][c]))
	}

	target := m.products[idx]
	rctx := &core.RecommendContext{Scene: core.SourceSimilar, Params: map[string]any{"product_id": productID}}
	items, err := pipeline.New(
		filter.NewFilterNode(filter.NewExcludeFilter(productID)),
		&filter.GenderNode{Gender: target.Gender},
		&rerank.ScoreSortNode{},
		&rerank.TopNNode{N: n},
	).Run(ctx, rctx, candidates)
	if err != nil {
		return nil, err
	}
	putReason(items, ReasonSimilar)
	return core.NewRankedList(core.SourceSimilar, items, core.StatusNoResults), nil
}

// Criteria 是按属性筛选商品的条件，零值字段不参与筛选。
type Criteria struct {
	Title    string   `json:"title,omitempty" yaml:"title"`
	Category string   `json:"category,omitempty" yaml:"category"`
	Gender   string   `json:"gender,omitempty" yaml:"gender"`
	MinPrice *float64 `json:"min_price,omitempty" yaml:"min_price"`
	MaxPrice *float64 `json:"max_price,omitempty" yaml:"max_price"`
	// Expr 是 CEL 布尔表达式，例如 `product.rating >= 4.0`
	Expr string `json:"expr,omitempty" yaml:"expr"`
}

// filters 把条件转换成过滤器，表达式编译失败返回 INVALID_INPUT。
func (c Criteria) filters() ([]filter.Filter, error) {
	var fs []filter.Filter
	if strings.TrimSpace(c.Title) != "" {
		fs = append(fs, filter.NewTitleKeywordFilter(c.Title))
	}
	if c.Category != "" {
		fs = append(fs, &filter.CategoryFilter{Category: strings.ToLower(c.Category), Normalized: true})
	}
	if c.Gender != "" {
		fs = append(fs, &filter.GenderFilter{Gender: strings.ToLower(c.Gender)})
	}
	if c.MinPrice != nil || c.MaxPrice != nil {
		fs = append(fs, &filter.PriceRangeFilter{Min: c.MinPrice, Max: c.MaxPrice})
	}
	if c.Expr != "" {
		f, err := filter.NewExprFilter(c.Expr)
		if err != nil {
			return nil, err
		}
		fs = append(fs, f)
	}
	return fs, nil
}

// ByAttributes 按属性筛选商品，按评分排序后取前 n 个。没有匹配返回 no_match。
func (e *ContentEngine) ByAttributes(ctx context.Context, criteria Criteria, n int) (*core.RankedList, error) {
	fs, err := criteria.filters()
	if err != nil {
		return nil, err
	}
	m, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = e.cfg.DefaultTopN
	}

	rctx := &core.RecommendContext{Scene: core.SourceAttribute}
	items, err := pipeline.New(
		filter.NewFilterNode(fs...),
		&rerank.RatingSortNode{},
		&rerank.TopNNode{N: n},
	).Run(ctx, rctx, productItems(m.products))
	if err != nil {
		return nil, err
	}

	reason := ReasonAttributes
	if criteria.Category != "" {
		reason = "Top " + criteria.Category + " products"
	}
	putReason(items, reason)
	return core.NewRankedList(core.SourceAttribute, items, core.StatusNoMatch), nil
}

// ProfileInteraction 是用户画像中的一条交互。
type ProfileInteraction struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Gender    string `json:"gender"`
	Action    string `json:"action"`
}

// UserProfile 是内容推荐的调试视图。
type UserProfile struct {
	UserID           string               `json:"user_id"`
	Exists           bool                 `json:"exists"`
	PreferredGender  string               `json:"preferred_gender"`
	InteractionCount int                  `json:"interaction_count"`
	Interactions     []ProfileInteraction `json:"interactions"`
	TotalProducts    int                  `json:"total_products"`
	TotalEvents      int                  `json:"total_interactions"`
	TotalUsers       int                  `json:"total_users"`
}

// UserProfile 返回用户画像与数据统计，用户不存在时 Exists 为 false。
func (e *ContentEngine) UserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	m, err := e.ensureModel(ctx)
	if err != nil {
		return nil, err
	}
	events := m.events[userID]
	prof := &UserProfile{
		UserID:           userID,
		Exists:           len(events) > 0,
		PreferredGender:  m.preferredGender(userID),
		InteractionCount: len(events),
		TotalProducts:    len(m.products),
		TotalEvents:      m.total,
		TotalUsers:       len(m.histories),
	}
	for _, ev := range events {
		if len(prof.Interactions) == 5 {
			break
		}
		pi := ProfileInteraction{ProductID: ev.ProductID, Action: string(ev.Action)}
		if idx, ok := m.index[ev.ProductID]; ok {
			pi.Title = m.products[idx].Title
			pi.Gender = m.products[idx].Gender
		}
		prof.Interactions = append(prof.Interactions, pi)
	}
	return prof, nil
}

func putReason(items []*core.Item, reason string) {
	for _, it := range items {
		it.PutLabel("recommendation_source", utils.Label{Value: reason, Source: "content"})
	}
}
