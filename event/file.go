package event

import (
	"bufio"
	"context"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/logging"
)

// FileSource 从 JSON Lines 文件读取事件，每行一个对象：
//
//	{"user_id":"u1","item_id":"b1","event_type":"read","timestamp":"2024-05-01T10:00:00Z"}
//
// 用于本地训练与回放。无法解析的行跳过。
type FileSource struct {
	Path string
}

type fileEvent struct {
	UserID    json.RawMessage `json:"user_id"`
	ItemID    json.RawMessage `json:"item_id"`
	EventType string          `json:"event_type"`
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Load(ctx context.Context) ([]core.InteractionEvent, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, core.WrapDomainError(core.ModuleEvent, core.ErrorCodeNotFound, "event file not found", err)
		}
		return nil, core.WrapDomainError(core.ModuleEvent, core.ErrorCodeUnavailable, "open event file", err)
	}
	defer f.Close()

	var (
		out     []core.InteractionEvent
		skipped int
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var fe fileEvent
		if err := json.Unmarshal(line, &fe); err != nil {
			skipped++
			continue
		}
		ev, ok := fe.toEvent()
		if !ok {
			skipped++
			continue
		}
		out = append(out, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, core.WrapDomainError(core.ModuleEvent, core.ErrorCodeInvalidInput, "read event file", err)
	}
	if skipped > 0 {
		logging.Warn().Str("source", s.Name()).Int("skipped", skipped).Msg("malformed event lines skipped")
	}
	return out, nil
}

func (fe fileEvent) toEvent() (core.InteractionEvent, bool) {
	userID, ok := rawID(fe.UserID)
	if !ok {
		return core.InteractionEvent{}, false
	}
	itemID, ok := rawID(fe.ItemID)
	if !ok {
		return core.InteractionEvent{}, false
	}
	eventType := fe.EventType
	if eventType == "" {
		eventType = fe.Event
	}
	if eventType == "" {
		return core.InteractionEvent{}, false
	}
	return core.InteractionEvent{
		UserID:    userID,
		ItemID:    itemID,
		EventType: core.EventType(eventType),
		Timestamp: fe.Timestamp,
	}, true
}

func rawID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return stringID(v)
}
