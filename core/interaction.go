package core

import (
	"fmt"
	"strings"
)

// Action 是用户行为类型。
type Action string

const (
	ActionView      Action = "view"
	ActionClick     Action = "click"
	ActionAddToCart Action = "add_to_cart"
	ActionPurchase  Action = "purchase"
	ActionSearch    Action = "search"
)

// actionWeights 隐式反馈权重：同一 (user, product) 的多次行为累加为一个评分。
var actionWeights = map[Action]float64{
	ActionView:      1,
	ActionClick:     1,
	ActionAddToCart: 3,
	ActionPurchase:  5,
	ActionSearch:    1,
}

// Weight 返回行为权重，未知行为返回 0。
func (a Action) Weight() float64 {
	return actionWeights[a]
}

// ParseAction 解析行为名（大小写不敏感）。
func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := actionWeights[a]; !ok {
		return "", NewDomainError(ModuleCatalog, ErrorCodeMalformedRecord, fmt.Sprintf("catalog: unknown action %q", s))
	}
	return a, nil
}

// InteractionEvent 是交互日志中的一条 (user, product, action) 记录。
type InteractionEvent struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Action    Action `json:"action"`
}

// Validate 校验事件是否可以参与建模。
func (e InteractionEvent) Validate() error {
	if strings.TrimSpace(e.UserID) == "" || strings.TrimSpace(e.ProductID) == "" {
		return NewDomainError(ModuleCatalog, ErrorCodeMalformedRecord, "catalog: interaction without user or product")
	}
	if _, err := ParseAction(string(e.Action)); err != nil {
		return err
	}
	return nil
}

// Weight 返回事件对应的评分增量。
func (e InteractionEvent) Weight() float64 {
	a, err := ParseAction(string(e.Action))
	if err != nil {
		return 0
	}
	return a.Weight()
}
