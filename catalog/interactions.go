package catalog

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/rushteam/shopreco/core"
)

// StoreInteractionLog 是基于 core.KeyValueStore List 的只追加交互日志。
type StoreInteractionLog struct {
	store     core.KeyValueStore
	keyPrefix string
	logger    zerolog.Logger
}

// NewStoreInteractionLog 创建交互日志适配器。
func NewStoreInteractionLog(s core.KeyValueStore, keyPrefix string, logger zerolog.Logger) *StoreInteractionLog {
	if keyPrefix == "" {
		keyPrefix = "interactions"
	}
	return &StoreInteractionLog{
		store:     s,
		keyPrefix: keyPrefix,
		logger:    logger.With().Str("component", "interactions").Logger(),
	}
}

func (l *StoreInteractionLog) logKey() string {
	return l.keyPrefix + ":log"
}

// FetchAll 按写入顺序返回全部事件，无法解析的事件被跳过。
func (l *StoreInteractionLog) FetchAll(ctx context.Context) ([]core.InteractionEvent, error) {
	raw, err := l.store.LRange(ctx, l.logKey(), 0, -1)
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleCatalog, err, "interaction log "+l.store.Name())
	}
	out := make([]core.InteractionEvent, 0, len(raw))
	skipped := 0
	for _, data := range raw {
		var ev core.InteractionEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			skipped++
			continue
		}
		out = append(out, ev)
	}
	if skipped > 0 {
		l.logger.Warn().Int("skipped", skipped).Msg("skip undecodable interaction events")
	}
	return out, nil
}

// Append 校验后追加一条事件。
func (l *StoreInteractionLog) Append(ctx context.Context, ev core.InteractionEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	ev.Action, _ = core.ParseAction(string(ev.Action))
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := l.store.RPush(ctx, l.logKey(), data); err != nil {
		return core.NewUnavailable(core.ModuleCatalog, err, "interaction log "+l.store.Name())
	}
	return nil
}

var _ core.InteractionLog = (*StoreInteractionLog)(nil)
