package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopreco/core"
)

func TestFlatIndexEuclidean(t *testing.T) {
	idx, err := NewFlatIndex(
		[]string{"a", "b", "c", "d"},
		[][]float64{{0, 0}, {1, 0}, {0, 3}, {1, 0}},
		core.MetricEuclidean,
	)
	require.NoError(t, err)
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, 2, idx.Dimension())

	res, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{1, 0}, TopK: 3})
	require.NoError(t, err)
	require.Len(t, res.Items, 3)

	// b 与 d 距离相同，按插入顺序
	assert.Equal(t, "b", res.Items[0].ID)
	assert.Equal(t, "d", res.Items[1].ID)
	assert.Equal(t, "a", res.Items[2].ID)
	assert.InDelta(t, 0, res.Items[0].Distance, 1e-12)
	assert.InDelta(t, 1, res.Items[2].Distance, 1e-12)
}

func TestFlatIndexCosine(t *testing.T) {
	idx, err := NewFlatIndex([]string{"x", "y"}, [][]float64{{1, 0}, {0, 1}}, core.MetricCosine)
	require.NoError(t, err)

	res, err := idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{0, 2}, TopK: 1})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "y", res.Items[0].ID)
	assert.InDelta(t, 1, res.Items[0].Score, 1e-12)
}

func TestFlatIndexErrors(t *testing.T) {
	_, err := NewFlatIndex([]string{"a"}, nil, core.MetricEuclidean)
	assert.True(t, core.IsInvalidInput(err))

	_, err = NewFlatIndex([]string{"a", "b"}, [][]float64{{1}, {1, 2}}, core.MetricEuclidean)
	assert.True(t, core.IsInvalidInput(err))

	idx, err := NewFlatIndex([]string{"a"}, [][]float64{{1, 2}}, core.MetricEuclidean)
	require.NoError(t, err)
	_, err = idx.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{1}})
	assert.True(t, core.IsInvalidInput(err))

	_, err = idx.Search(context.Background(), nil)
	assert.True(t, core.IsInvalidInput(err))

	empty, err := NewFlatIndex(nil, nil, core.MetricEuclidean)
	require.NoError(t, err)
	res, err := empty.Search(context.Background(), &core.VectorSearchRequest{Vector: []float64{1}})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}
