// README: Fire-and-forget order event notifications over Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"homely/internal/types"
)

// Event describes a single order status change for downstream consumers
// (push, chat, live tracking). Delivery is best-effort: a failed publish is
// logged and swallowed, never rolled into the originating transition.
type Event struct {
	OrderID    types.ID  `json:"order_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorType  string    `json:"actor_type"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Notifier interface {
	OrderEvent(ctx context.Context, ev Event)
}

const eventsChannel = "orders:events"

type RedisNotifier struct {
	redis *redis.Client
	log   *zap.Logger
}

func NewRedisNotifier(client *redis.Client, log *zap.Logger) *RedisNotifier {
	return &RedisNotifier{redis: client, log: log}
}

func (n *RedisNotifier) OrderEvent(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		n.log.Error("marshal order event", zap.Error(err), zap.String("order_id", string(ev.OrderID)))
		return
	}
	if err := n.redis.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		n.log.Error("publish order event", zap.Error(err), zap.String("order_id", string(ev.OrderID)))
	}
}

// NopNotifier discards events; used in tests.
type NopNotifier struct{}

func (NopNotifier) OrderEvent(context.Context, Event) {}
