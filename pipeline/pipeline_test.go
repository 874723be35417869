package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shopreco/core"
)

func TestPipelineRun(t *testing.T) {
	var order []string
	appendNode := func(name string) Node {
		return NodeFunc{NodeName: name, NodeKind: KindFilter, Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
			order = append(order, name)
			return items[1:], nil
		}}
	}

	p := New(appendNode("a"), nil, appendNode("b"))
	require.Len(t, p.Nodes, 2)

	items := []*core.Item{core.NewItem("p1"), core.NewItem("p2"), core.NewItem("p3")}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)
	require.Len(t, out, 1)
	assert.Equal(t, "p3", out[0].ID)
}

func TestPipelineStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	p := New(
		NodeFunc{NodeName: "fail", NodeKind: KindRank, Fn: func(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
			return nil, boom
		}},
		NodeFunc{NodeName: "after", NodeKind: KindReRank, Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
			called = true
			return items, nil
		}},
	)
	_, err := p.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestPipelineCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(NodeFunc{NodeName: "noop", NodeKind: KindFilter, Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
		return items, nil
	}})
	_, err := p.Run(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
