package recall

import (
	"context"
	"errors"
	"sync"

	"github.com/rushteam/shopreco/core"
)

var errBoom = errors.New("boom")

// memCatalog 是测试用的内存目录，ID 升序返回。
type memCatalog struct {
	mu       sync.Mutex
	products []core.Product
	fail     bool
}

func newCatalog(raws ...core.RawProduct) *memCatalog {
	c := &memCatalog{}
	for _, r := range raws {
		p, err := core.NormalizeProduct(r)
		if err != nil {
			panic(err)
		}
		c.products = append(c.products, p)
	}
	return c
}

func (c *memCatalog) setFail(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = v
}

func (c *memCatalog) FetchAll(context.Context) ([]core.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, errBoom
	}
	return append([]core.Product(nil), c.products...), nil
}

func (c *memCatalog) FetchByIDs(_ context.Context, ids []string) ([]core.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return nil, errBoom
	}
	var out []core.Product
	for _, id := range ids {
		for _, p := range c.products {
			if p.ID == id {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (c *memCatalog) Count(context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.products), nil
}

// memLog 是测试用的内存交互日志。
type memLog struct {
	mu     sync.Mutex
	events []core.InteractionEvent
	fail   bool
}

func newLog(triples ...[3]string) *memLog {
	l := &memLog{}
	for _, t := range triples {
		l.events = append(l.events, core.InteractionEvent{UserID: t[0], ProductID: t[1], Action: core.Action(t[2])})
	}
	return l
}

func (l *memLog) FetchAll(context.Context) ([]core.InteractionEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail {
		return nil, errBoom
	}
	return append([]core.InteractionEvent(nil), l.events...), nil
}

func (l *memLog) Append(_ context.Context, ev core.InteractionEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

// flakyEmbedder 包装一个 Embedder，可以注入失败或返回错误数量的向量。
type flakyEmbedder struct {
	core.Embedder
	mu    sync.Mutex
	fail  bool
	short bool
}

func (e *flakyEmbedder) set(fail, short bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail, e.short = fail, short
}

func (e *flakyEmbedder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	e.mu.Lock()
	fail, short := e.fail, e.short
	e.mu.Unlock()
	if fail {
		return nil, errBoom
	}
	vecs, err := e.Embedder.Encode(ctx, texts)
	if err != nil {
		return nil, err
	}
	if short && len(vecs) > 0 {
		vecs = vecs[:len(vecs)-1]
	}
	return vecs, nil
}
