package recall

import (
	"context"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopreco/core"
)

func fashionCatalog() *memCatalog {
	return newCatalog(
		core.RawProduct{ID: "p1", Title: "Blue Denim Jeans", Category: "Jeans", Gender: "men", Price: 1200, Rating: 4.2, Reviews: "comfortable denim"},
		core.RawProduct{ID: "p2", Title: "Black Denim Jeans", Category: "Jeans", Gender: "Men", Price: "₹1,500", Rating: 4.6},
		core.RawProduct{ID: "p3", Title: "Floral Summer Dress", Category: "Dresses", Gender: "women", Price: 2000, Rating: 4.8},
		core.RawProduct{ID: "p4", Title: "Canvas Tote Bag", Category: "Bags", Gender: "unisex"},
		core.RawProduct{ID: "p5", Title: "Silk Evening Dress", Category: "Dresses", Gender: "women", Price: 999, Rating: "4.0"},
	)
}

func newContent(cat core.Catalog, log core.InteractionLog) *ContentEngine {
	return NewContentEngine(cat, log, ContentConfig{}, zerolog.Nop())
}

func TestTFIDF(t *testing.T) {
	tf := fitTFIDF([]string{"red shirt", "blue shirt", "the and of", "red red shirt"})
	sim := tf.similarityMatrix()

	for i := range sim {
		assert.Equal(t, 1.0, sim[i][i])
		for j := range sim {
			assert.Equal(t, sim[i][j], sim[j][i])
			assert.GreaterOrEqual(t, sim[i][j], 0.0)
			assert.LessOrEqual(t, sim[i][j], 1.0+1e-12)
		}
	}

	// 只有停用词的文档是零向量
	assert.Zero(t, sim[0][2])

	// shirt 出现在 3 篇文档中：idf = ln(5/4) + 1；red、blue 各自的 idf 由 df 决定
	idfShirt := math.Log(5.0/4.0) + 1
	idfRed := math.Log(5.0/3.0) + 1
	idfBlue := math.Log(5.0/2.0) + 1
	want := idfShirt * idfShirt / (math.Hypot(idfRed, idfShirt) * math.Hypot(idfBlue, idfShirt))
	assert.InDelta(t, want, sim[0][1], 1e-12)
}

func TestContentRecommend(t *testing.T) {
	ctx := context.Background()
	e := newContent(fashionCatalog(), newLog([3]string{"u1", "p1", "view"}))

	list, err := e.Recommend(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, core.SourceHistory, list.Source)
	assert.Equal(t, []string{"p2", "p4"}, list.IDs())
	assert.Greater(t, list.Items[0].Score, 0.0)
	assert.Equal(t, ReasonHistory, list.Items[0].Labels["recommendation_source"].Value)

	_, err = e.Recommend(ctx, "nobody", 4)
	assert.True(t, core.IsUserNotFound(err))
}

func TestContentGenderFallback(t *testing.T) {
	cat := newCatalog(
		core.RawProduct{ID: "m1", Title: "Leather Belt", Gender: "men"},
		core.RawProduct{ID: "m2", Title: "Wool Cap", Gender: "men"},
		core.RawProduct{ID: "w1", Title: "Lace Blouse", Gender: "women"},
	)
	e := newContent(cat, newLog([3]string{"u1", "w1", "click"}))

	list, err := e.Recommend(context.Background(), "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, core.StatusOK, list.Status)
	assert.Equal(t, []string{"m1", "m2"}, list.IDs())
}

func TestContentPopularFallback(t *testing.T) {
	ctx := context.Background()
	e := newContent(fashionCatalog(), newLog(
		[3]string{"u3", "p1", "view"},
		[3]string{"u3", "p2", "view"},
		[3]string{"u3", "p3", "view"},
		[3]string{"u3", "p4", "view"},
		[3]string{"u3", "p5", "view"},
		[3]string{"u4", "ghost", "view"},
	))

	// 全部交互过：按评分排序的热门商品，按偏好性别 men 过滤
	list, err := e.Recommend(ctx, "u3", 4)
	require.NoError(t, err)
	assert.Equal(t, core.SourcePopular, list.Source)
	assert.Equal(t, []string{"p2", "p1", "p4"}, list.IDs())
	assert.Equal(t, ReasonPopular, list.Items[0].Labels["recommendation_source"].Value)

	// 历史商品不在目录中：没有偏好，不过滤
	list, err = e.Recommend(ctx, "u4", 4)
	require.NoError(t, err)
	assert.Equal(t, core.SourcePopular, list.Source)
	assert.Equal(t, []string{"p3", "p2", "p1", "p5"}, list.IDs())
}

func TestContentEmptyCatalog(t *testing.T) {
	e := newContent(newCatalog(), newLog([3]string{"u1", "p1", "view"}))
	list, err := e.Recommend(context.Background(), "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, core.StatusNoResults, list.Status)
}

func TestContentSimilar(t *testing.T) {
	ctx := context.Background()
	e := newContent(fashionCatalog(), newLog())

	list, err := e.Similar(ctx, "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, core.SourceSimilar, list.Source)
	assert.Equal(t, []string{"p2", "p4"}, list.IDs())

	list, err = e.Similar(ctx, "p4", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2", "p3", "p5"}, list.IDs())
	assert.NotContains(t, list.IDs(), "p4")

	_, err = e.Similar(ctx, "missing", 4)
	assert.True(t, core.IsProductNotFound(err))

	single := newContent(newCatalog(core.RawProduct{ID: "only"}), newLog())
	list, err = single.Similar(ctx, "only", 4)
	require.NoError(t, err)
	assert.Equal(t, core.StatusNoResults, list.Status)
}

func TestContentByAttributes(t *testing.T) {
	ctx := context.Background()
	e := newContent(fashionCatalog(), newLog())
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{name: "category", criteria: Criteria{Category: "Jeans"}, want: []string{"p2", "p1"}},
		{name: "title keyword", criteria: Criteria{Title: "dress"}, want: []string{"p3", "p5"}},
		{name: "gender exact", criteria: Criteria{Gender: "WOMEN"}, want: []string{"p3", "p5"}},
		{name: "max price", criteria: Criteria{MaxPrice: f(1000)}, want: []string{"p5"}},
		{name: "min price", criteria: Criteria{MinPrice: f(1500)}, want: []string{"p3", "p2"}},
		{name: "expr", criteria: Criteria{Expr: `product.rating >= 4.5`}, want: []string{"p3", "p2"}},
		{name: "unrated last", criteria: Criteria{}, want: []string{"p3", "p2", "p1", "p5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := e.ByAttributes(ctx, tt.criteria, 4)
			require.NoError(t, err)
			assert.Equal(t, tt.want, list.IDs())
		})
	}

	list, err := e.ByAttributes(ctx, Criteria{Category: "jeans"}, 4)
	require.NoError(t, err)
	assert.Equal(t, "Top jeans products", list.Items[0].Labels["recommendation_source"].Value)

	list, err = e.ByAttributes(ctx, Criteria{Category: "watch"}, 4)
	require.NoError(t, err)
	assert.Equal(t, core.StatusNoMatch, list.Status)

	_, err = e.ByAttributes(ctx, Criteria{Expr: "product.rating >="}, 4)
	assert.True(t, core.IsInvalidInput(err))
}

func TestContentPreferredGenderAndProfile(t *testing.T) {
	ctx := context.Background()
	e := newContent(fashionCatalog(), newLog(
		[3]string{"u1", "p3", "view"},
		[3]string{"u1", "p1", "purchase"},
		[3]string{"u1", "p3", "add_to_cart"},
		[3]string{"u2", "p4", "view"},
	))

	g, err := e.PreferredGender(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "women", g)

	g, err = e.PreferredGender(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, g)

	prof, err := e.UserProfile(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, prof.Exists)
	assert.Equal(t, 3, prof.InteractionCount)
	require.Len(t, prof.Interactions, 3)
	assert.Equal(t, "Floral Summer Dress", prof.Interactions[0].Title)
	assert.Equal(t, "purchase", prof.Interactions[1].Action)
	assert.Equal(t, 5, prof.TotalProducts)
	assert.Equal(t, 4, prof.TotalEvents)
	assert.Equal(t, 2, prof.TotalUsers)

	prof, err = e.UserProfile(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, prof.Exists)
}

func TestContentInvalidate(t *testing.T) {
	ctx := context.Background()
	log := newLog([3]string{"u1", "p1", "view"})
	e := newContent(fashionCatalog(), log)

	list, err := e.Recommend(ctx, "u1", 4)
	require.NoError(t, err)
	assert.Contains(t, list.IDs(), "p2")

	require.NoError(t, log.Append(ctx, core.InteractionEvent{UserID: "u1", ProductID: "p2", Action: core.ActionClick}))
	e.Invalidate()

	list, err = e.Recommend(ctx, "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"p4"}, list.IDs())
}

func TestContentText(t *testing.T) {
	hat, err := core.NormalizeProduct(core.RawProduct{ID: "c1", Title: "Cap", Gender: "Unknown"})
	require.NoError(t, err)
	assert.Equal(t, "cap  unknown ", contentText(&hat))

	missing, err := core.NormalizeProduct(core.RawProduct{ID: "c2", Title: "Cap!", Category: "Hats", Reviews: "Nice-fit"})
	require.NoError(t, err)
	assert.Equal(t, "cap  hats unknown nice fit", contentText(&missing))
}

func TestContentExcludesSeenAndSelf(t *testing.T) {
	ctx := context.Background()
	e := newContent(fashionCatalog(), newLog(
		[3]string{"u1", "p1", "view"},
		[3]string{"u1", "p4", "view"},
	))

	list, err := e.Recommend(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, core.SourceHistory, list.Source)
	assert.NotContains(t, list.IDs(), "p1")
	assert.NotContains(t, list.IDs(), "p4")
	assert.Equal(t, "p2", list.IDs()[0])

	for _, id := range []string{"p1", "p3", "p5"} {
		list, err = e.Similar(ctx, id, 5)
		require.NoError(t, err)
		assert.NotContains(t, list.IDs(), id)
	}
}
