// Package dsl 基于 CEL (Common Expression Language) 的商品规则表达式。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shopreco/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once

	// programs 缓存已编译的表达式
	programs sync.Map // expr -> *Program
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("product", cel.DynType),
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译后的布尔表达式，可并发使用。
//
// 可用变量：
//   - product.id / title / category / price / price_known / rating / has_rating / gender / reviews
//   - item.id / item.score
//   - label.<key>：Label 的 value
//   - rctx.user_id / rctx.scene / rctx.params
//
// 示例：
//   - `product.price <= 500.0 && product.gender == "men"`
//   - `product.title.contains("hoodie") || product.rating >= 4.5`
//   - `label.recommendation_source == "popular"`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，结果会被缓存。编译失败返回 INVALID_INPUT。
func Compile(expr string) (*Program, error) {
	if p, ok := programs.Load(expr); ok {
		return p.(*Program), nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, core.WrapDomainError(core.ModuleService, core.ErrorCodeInvalidInput, issues.Err(), "dsl: compile %q", expr)
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput,
			fmt.Sprintf("dsl: expression %q must return bool, got %v", expr, ast.OutputType()))
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleService, core.ErrorCodeInvalidInput, err, "dsl: program %q", expr)
	}
	p := &Program{expr: expr, prg: prg}
	programs.Store(expr, p)
	return p, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对单个 Item 求值。访问不存在的 key 会返回错误，
// 用户应该使用 `has(label.key)` 或 `label.key != null` 检查存在性。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q must return bool, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Evaluate 编译并求值，便于一次性调用。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	product := map[string]any{}
	labels := map[string]any{}
	itemMap := map[string]any{}
	if item != nil {
		if p := item.Product; p != nil {
			product = map[string]any{
				"id":          p.ID,
				"title":       p.Title,
				"category":    p.Category,
				"price":       p.Price,
				"price_known": p.PriceKnown,
				"rating":      p.Rating,
				"has_rating":  p.HasRating,
				"gender":      p.Gender,
				"reviews":     p.Reviews,
			}
		}
		for k, v := range item.Labels {
			labels[k] = v.Value
		}
		itemMap = map[string]any{
			"id":    item.ID,
			"score": item.Score,
		}
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		params := rctx.Params
		if params == nil {
			params = map[string]any{}
		}
		rctxMap = map[string]any{
			"user_id": rctx.UserID,
			"scene":   rctx.Scene,
			"params":  params,
		}
	}

	return map[string]any{
		"product": product,
		"item":    itemMap,
		"label":   labels,
		"rctx":    rctxMap,
	}
}
