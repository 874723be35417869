package embed

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopreco/core"
)

func TestHashingEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashingEmbedder(64)
	assert.Equal(t, 64, e.Dimension())
	assert.Equal(t, "hashing", e.ModelName())

	vecs, err := e.Encode(ctx, []string{"Blue Denim Jacket", "Blue Denim Jacket", "the of and"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, vecs[0], vecs[1])

	var norm float64
	for _, v := range vecs[0] {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)

	// 全是停用词时得到零向量
	for _, v := range vecs[2] {
		assert.Zero(t, v)
	}

	assert.Equal(t, 512, NewHashingEmbedder(0).Dimension())
}

func TestHTTPEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := embeddingResponse{}
		// 倒序返回，验证按 index 归位
		for i := len(req.Input) - 1; i >= 0; i-- {
			resp.Data = append(resp.Data, embeddingData{Index: i, Embedding: []float64{float64(len(req.Input[i])), 1}})
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(HTTPConfig{BaseURL: srv.URL, APIKey: "secret", Model: "test-model", Dimension: 2, BatchSize: 2})
	vecs, err := e.Encode(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 1}, {2, 1}, {3, 1}}, vecs)
	assert.Equal(t, "test-model", e.ModelName())
}

func TestHTTPEmbedderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewHTTPEmbedder(HTTPConfig{BaseURL: srv.URL, Model: "m"})
	_, err := e.Encode(context.Background(), []string{"x"})
	assert.Error(t, err)
}

type failingEmbedder struct {
	calls int
}

func (f *failingEmbedder) Encode(context.Context, []string) ([][]float64, error) {
	f.calls++
	return nil, errors.New("connection refused")
}
func (f *failingEmbedder) Dimension() int    { return 4 }
func (f *failingEmbedder) ModelName() string { return "failing" }

func TestBreaker(t *testing.T) {
	inner := &failingEmbedder{}
	b := NewBreaker(inner, BreakerConfig{FailureThreshold: 2, Timeout: time.Minute}, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := b.Encode(context.Background(), []string{"x"})
		assert.True(t, core.IsUnavailable(err))
	}
	assert.Equal(t, "open", b.State())

	// 熔断打开后不再调用上游
	_, err := b.Encode(context.Background(), []string{"x"})
	assert.True(t, core.IsUnavailable(err))
	assert.Equal(t, 2, inner.calls)

	ok := NewBreaker(NewHashingEmbedder(8), BreakerConfig{}, zerolog.Nop())
	vecs, err := ok.Encode(context.Background(), []string{"red dress"})
	require.NoError(t, err)
	assert.Len(t, vecs[0], 8)
	assert.Equal(t, 8, ok.Dimension())
}
