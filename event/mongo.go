package event

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/osako110/Recommend/core"
	"github.com/osako110/Recommend/pkg/logging"
)

// MongoSource 从点击流集合（默认 click_stream.events）读取事件。
// 只读取 item_id 非空的文档；字段缺失或类型不符的文档跳过并计数。
type MongoSource struct {
	coll  *mongo.Collection
	since time.Time
	batch int32
}

type MongoOption func(*MongoSource)

// WithSince 只读取 received_at 不早于 t 的事件
func WithSince(t time.Time) MongoOption {
	return func(s *MongoSource) { s.since = t }
}

// WithBatchSize 设置游标批大小
func WithBatchSize(n int32) MongoOption {
	return func(s *MongoSource) {
		if n > 0 {
			s.batch = n
		}
	}
}

func NewMongoSource(coll *mongo.Collection, opts ...MongoOption) *MongoSource {
	s := &MongoSource{coll: coll, batch: 1000}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConnectMongo 建立连接并 ping 一次，返回的 client 由调用方 Disconnect。
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleEvent, core.ErrorCodeUnavailable, "connect mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, core.WrapDomainError(core.ModuleEvent, core.ErrorCodeUnavailable, "ping mongo", err)
	}
	return client, nil
}

func (s *MongoSource) Name() string {
	return "mongo:" + s.coll.Database().Name() + "." + s.coll.Name()
}

func (s *MongoSource) filter() bson.M {
	f := bson.M{"item_id": bson.M{"$ne": nil}}
	if !s.since.IsZero() {
		f["received_at"] = bson.M{"$gte": s.since}
	}
	return f
}

func (s *MongoSource) Load(ctx context.Context) ([]core.InteractionEvent, error) {
	cur, err := s.coll.Find(ctx, s.filter(), options.Find().SetBatchSize(s.batch))
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleEvent, core.ErrorCodeUnavailable, "query events", err)
	}
	defer cur.Close(ctx)

	var (
		out     []core.InteractionEvent
		skipped int
	)
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			skipped++
			continue
		}
		ev, ok := decodeEvent(doc)
		if !ok {
			skipped++
			continue
		}
		out = append(out, ev)
	}
	if err := cur.Err(); err != nil {
		return nil, core.WrapDomainError(core.ModuleEvent, core.ErrorCodeUnavailable, "iterate events", err)
	}

	if skipped > 0 {
		logging.Warn().Str("source", s.Name()).Int("skipped", skipped).Msg("malformed event documents skipped")
	}
	return out, nil
}

// decodeEvent 把一条原始文档转换为 InteractionEvent。
// 事件类型兼容 event_type 与 event 两种字段名；时间优先取 timestamp，其次 received_at。
func decodeEvent(doc bson.M) (core.InteractionEvent, bool) {
	userID, ok := docID(doc["user_id"])
	if !ok {
		return core.InteractionEvent{}, false
	}
	itemID, ok := docID(doc["item_id"])
	if !ok {
		return core.InteractionEvent{}, false
	}
	eventType, _ := doc["event_type"].(string)
	if eventType == "" {
		eventType, _ = doc["event"].(string)
	}
	if eventType == "" {
		return core.InteractionEvent{}, false
	}

	ts := timeValue(doc["timestamp"])
	if ts.IsZero() {
		ts = timeValue(doc["received_at"])
	}
	return core.InteractionEvent{
		UserID:    userID,
		ItemID:    itemID,
		EventType: core.EventType(eventType),
		Timestamp: ts,
	}, true
}

func docID(v any) (string, bool) {
	if oid, ok := v.(primitive.ObjectID); ok {
		return oid.Hex(), !oid.IsZero()
	}
	return stringID(v)
}

func timeValue(v any) time.Time {
	switch x := v.(type) {
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case int64:
		return time.Unix(x, 0).UTC()
	case int32:
		return time.Unix(int64(x), 0).UTC()
	case float64:
		return time.Unix(int64(x), 0).UTC()
	case string:
		if t, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// String 用于日志
func (s *MongoSource) String() string { return fmt.Sprintf("MongoSource(%s)", s.Name()) }
