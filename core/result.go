package core

// Status 表示一次查询的正常结局。失败通过 DomainError 返回。
type Status string

const (
	StatusOK        Status = "ok"
	StatusNoResults Status = "no_results" // 索引/数据为空，或没有可推荐的候选
	StatusNoMatch   Status = "no_match"   // 有候选，但全部被约束过滤
)

// 推荐来源标记，写入 RankedList.Source 和 Item 的 recommendation_source label。
const (
	SourceSemantic      = "semantic"
	SourceCollaborative = "collaborative"
	SourceHistory       = "history-based"
	SourcePopular       = "popular"
	SourceSimilar       = "similar"
	SourceAttribute     = "attribute"
	SourceHybrid        = "hybrid"
	SourceAvailability  = "availability"
)

// RankedList 是所有推荐/检索操作的返回值。
type RankedList struct {
	Items  []*Item `json:"items"`
	Source string  `json:"source"`
	Status Status  `json:"status"`
}

// NewRankedList 根据 items 是否为空决定状态；empty 为空结果时使用的状态。
func NewRankedList(source string, items []*Item, empty Status) *RankedList {
	status := StatusOK
	if len(items) == 0 {
		status = empty
	}
	return &RankedList{Items: items, Source: source, Status: status}
}

// OK 是否有结果
func (l *RankedList) OK() bool {
	return l != nil && l.Status == StatusOK
}

// IDs 按顺序返回商品 ID。
func (l *RankedList) IDs() []string {
	if l == nil {
		return nil
	}
	ids := make([]string, 0, len(l.Items))
	for _, it := range l.Items {
		ids = append(ids, it.ID)
	}
	return ids
}
