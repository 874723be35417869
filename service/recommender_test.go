package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopreco/catalog"
	"github.com/rushteam/shopreco/config"
	"github.com/rushteam/shopreco/core"
	"github.com/rushteam/shopreco/embed"
	"github.com/rushteam/shopreco/recall"
	"github.com/rushteam/shopreco/store"
)

func testDataset() *catalog.Dataset {
	return &catalog.Dataset{
		Products: []core.RawProduct{
			{ID: "p1", Title: "Blue Oxford Shirt", Category: "Shirts", Gender: "men", Price: 300, Rating: 4.1, Reviews: "good fit"},
			{ID: "p2", Title: "White Linen Shirt", Category: "Shirts", Gender: "men", Price: "₹450", Rating: 3.9, Reviews: "breathable"},
			{ID: "p3", Title: "Black Silk Shirt", Category: "Shirts", Gender: "men", Price: 900, Rating: 4.8, Reviews: "good shine"},
			{ID: "p4", Title: "Floral Summer Dress", Category: "Dresses", Gender: "women", Price: 1500, Rating: 4.6},
			{ID: "p5", Title: "Canvas Tote Bag", Category: "Bags", Gender: "unisex", Price: 700},
			{Title: "no id"},
		},
		Interactions: []core.InteractionEvent{
			{UserID: "u1", ProductID: "p1", Action: core.ActionView},
			{UserID: "u1", ProductID: "p2", Action: core.ActionPurchase},
			{UserID: "u2", ProductID: "p1", Action: core.ActionView},
			{UserID: "u2", ProductID: "p2", Action: core.ActionPurchase},
			{UserID: "u2", ProductID: "p3", Action: core.ActionPurchase},
			{UserID: "u3", ProductID: "p4", Action: core.ActionView},
			{UserID: "u4", ProductID: "p4", Action: "teleport"},
		},
	}
}

func newTestRecommender(t *testing.T, ds *catalog.Dataset) *Recommender {
	t.Helper()
	r := NewRecommender(store.NewMemoryStore(), embed.NewHashingEmbedder(256), config.Default(), zerolog.Nop())
	t.Cleanup(func() { _ = r.Close() })
	if ds != nil {
		products, events, err := r.Seed(context.Background(), ds)
		require.NoError(t, err)
		require.Equal(t, 5, products)
		require.Equal(t, 6, events)
	}
	return r
}

func TestRecommenderOperations(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(t, testDataset())
	require.NoError(t, r.RebuildAll(ctx))

	list, c, err := r.SearchProducts(ctx, "shirts under 500", 5)
	require.NoError(t, err)
	require.NotNil(t, c.MaxPrice)
	assert.ElementsMatch(t, []string{"p1", "p2"}, list.IDs())

	list, err = r.RecommendCollaborative(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, list.IDs())

	list, err = r.RecommendContentBased(ctx, "u1", 4)
	require.NoError(t, err)
	assert.Equal(t, core.SourceHistory, list.Source)
	assert.Equal(t, []string{"p3", "p5"}, list.IDs())

	list, err = r.SimilarProducts(ctx, "p1", 4)
	require.NoError(t, err)
	require.Len(t, list.Items, 3)
	assert.Equal(t, "p5", list.Items[2].ID)

	list, err = r.FilterByAttributes(ctx, recall.Criteria{Category: "shirts"}, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3", "p1", "p2"}, list.IDs())

	st, err := r.DebugCollaborative(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, st.UserExists)
	assert.Equal(t, 3, st.TotalUsers)

	prof, err := r.DebugContent(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "men", prof.PreferredGender)
}

func TestRecommenderInputErrors(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(t, testDataset())

	_, err := r.RecommendCollaborative(ctx, " ", 5)
	assert.True(t, core.IsInvalidInput(err))
	_, err = r.RecommendContentBased(ctx, "", 5)
	assert.True(t, core.IsInvalidInput(err))
	_, err = r.SimilarProducts(ctx, "", 5)
	assert.True(t, core.IsInvalidInput(err))
	_, _, err = r.SearchProducts(ctx, "  ", 5)
	assert.True(t, core.IsInvalidInput(err))

	_, err = r.RecommendCollaborative(ctx, "ghost", 5)
	assert.True(t, core.IsUserNotFound(err))
	_, err = r.SimilarProducts(ctx, "missing", 5)
	assert.True(t, core.IsProductNotFound(err))
	_, err = r.FilterByAttributes(ctx, recall.Criteria{Expr: "product.price <"}, 4)
	assert.True(t, core.IsInvalidInput(err))
}

func TestRecordInteractionInvalidatesModels(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(t, testDataset())

	list, err := r.RecommendCollaborative(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, list.IDs())

	require.NoError(t, r.RecordInteraction(ctx, core.InteractionEvent{UserID: "u1", ProductID: "p3", Action: "Purchase"}))

	list, err = r.RecommendCollaborative(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, core.StatusNoResults, list.Status)

	list, err = r.RecommendContentBased(ctx, "u1", 4)
	require.NoError(t, err)
	assert.NotContains(t, list.IDs(), "p3")

	err = r.RecordInteraction(ctx, core.InteractionEvent{UserID: "u1", ProductID: "p3", Action: "wishlist"})
	assert.True(t, core.IsMalformedRecord(err))
}

func TestRebuildAllToleratesEmptyLog(t *testing.T) {
	ctx := context.Background()
	ds := testDataset()
	ds.Interactions = nil
	r := newTestRecommender(t, nil)
	_, _, err := r.Seed(ctx, ds)
	require.NoError(t, err)

	require.NoError(t, r.RebuildAll(ctx))

	_, err = r.RecommendCollaborative(ctx, "u1", 5)
	assert.True(t, core.IsInsufficientData(err))
}

func TestRebuildOnEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(t, nil)

	n, err := r.RebuildSemanticIndex(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, _, err := r.SearchProducts(ctx, "red dress", 5)
	require.NoError(t, err)
	assert.Equal(t, core.StatusNoResults, list.Status)
}

func TestHybrid(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(t, testDataset())

	list, err := r.Hybrid(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, core.SourceHybrid, list.Source)
	assert.Equal(t, []string{"p3", "p5"}, list.IDs())
	assert.Equal(t, "recall.u2i|recall.content|recall.personal", list.Items[0].Labels["recall_source"].Value)

	list, err = r.Hybrid(ctx, "u3", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"p5"}, list.IDs())

	list, err = r.Hybrid(ctx, "u1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"p3"}, list.IDs())

	_, err = r.Hybrid(ctx, "ghost", 5)
	assert.True(t, core.IsUserNotFound(err))
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(t, testDataset())

	tests := []struct {
		name   string
		text   string
		want   []string
		status core.Status
	}{
		{name: "type with modifier", text: "Do you have a silk shirt?", want: []string{"p3"}, status: core.StatusOK},
		{name: "gender", text: "is there a linen shirt for men", want: []string{"p2"}, status: core.StatusOK},
		{name: "gender mismatch", text: "linen shirt for girls", want: []string{}, status: core.StatusNoMatch},
		{name: "bare type", text: "dress", want: []string{"p4"}, status: core.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, _, err := r.CheckAvailability(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.status, list.Status)
			assert.Equal(t, tt.want, list.IDs())
		})
	}

	_, q, err := r.CheckAvailability(ctx, "hello")
	assert.True(t, core.IsInvalidInput(err))
	assert.Empty(t, q.ProductName)
}

// logDownStore 模拟交互日志不可用，商品目录正常。
type logDownStore struct {
	core.KeyValueStore
}

func (s *logDownStore) LRange(context.Context, string, int64, int64) ([][]byte, error) {
	return nil, errors.New("log offline")
}

func TestHybridFallsBackToPopular(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	seeded := NewRecommender(kv, embed.NewHashingEmbedder(64), config.Default(), zerolog.Nop())
	_, _, err := seeded.Seed(ctx, testDataset())
	require.NoError(t, err)

	r := NewRecommender(&logDownStore{KeyValueStore: kv}, embed.NewHashingEmbedder(64), config.Default(), zerolog.Nop())

	_, err = r.RecommendCollaborative(ctx, "u1", 3)
	assert.True(t, core.IsUnavailable(err))

	list, err := r.Hybrid(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, core.SourceHybrid, list.Source)
	assert.Equal(t, []string{"p3", "p4", "p1"}, list.IDs())
	assert.Equal(t, "recall.popular", list.Items[0].Labels["recall_source"].Value)
	assert.Equal(t, "1", list.Items[0].Labels["recall_priority"].Value)
}

func TestDebugSemantic(t *testing.T) {
	ctx := context.Background()
	r := newTestRecommender(t, testDataset())
	assert.False(t, r.DebugSemantic().IndexBuilt)

	_, err := r.RebuildSemanticIndex(ctx)
	require.NoError(t, err)
	st := r.DebugSemantic()
	assert.True(t, st.IndexBuilt)
	assert.Equal(t, 5, st.Size)
	assert.Equal(t, "hashing", st.Model)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, st.SampleIDs)
}
