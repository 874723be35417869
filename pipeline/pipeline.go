package pipeline

import (
	"context"

	"github.com/rushteam/shopreco/core"
)

// Pipeline 把一次检索/推荐拆成可组合的 Node 链：召回 -> 过滤 -> 排序 -> 截断。
// Pipeline 本身无状态，可在多个请求间复用。
type Pipeline struct {
	Nodes []Node
}

// New 创建 Pipeline，nil Node 会被忽略。
func New(nodes ...Node) *Pipeline {
	p := &Pipeline{Nodes: make([]Node, 0, len(nodes))}
	for _, n := range nodes {
		if n != nil {
			p.Nodes = append(p.Nodes, n)
		}
	}
	return p
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
