package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
)

// relayEnvelope is what crosses nodes. Source lets a node ignore its own echo.
type relayEnvelope struct {
	Source       string                   `json:"source"`
	Notification dto.NotificationResponse `json:"notification"`
	SentAt       time.Time                `json:"sent_at"`
}

// notificationRelay forwards notifications between API nodes over one transport: NATS when
// connected, Redis pub/sub otherwise. With neither the relay is a no-op.
type notificationRelay struct {
	redis   *redis.Client
	channel string
	nats    *nats.Conn
	subject string
	nodeID  string
	seen    *recentIDs
	logger  zerolog.Logger
}

func newNotificationRelay(redisClient *redis.Client, natsConn *nats.Conn, base string, logger zerolog.Logger) *notificationRelay {
	r := &notificationRelay{nodeID: uuid.NewString(), seen: newRecentIDs(relayDedupeWindow), logger: logger}
	if base == "" {
		return r
	}
	switch {
	case natsConn != nil:
		r.nats = natsConn
		r.subject = strings.ReplaceAll(base, ":", ".") + ".notifications"
	case redisClient != nil:
		r.redis = redisClient
		r.channel = base + ":notifications"
	}
	return r
}

func (r *notificationRelay) send(ctx context.Context, n dto.NotificationResponse, at time.Time) error {
	if r.redis == nil && r.nats == nil {
		return nil
	}
	payload, err := json.Marshal(relayEnvelope{Source: r.nodeID, Notification: n, SentAt: at})
	if err != nil {
		return err
	}

	if r.nats != nil {
		return r.nats.Publish(r.subject, payload)
	}
	return r.redis.Publish(ctx, r.channel, payload).Err()
}

// listen feeds notifications published by other nodes into deliver until ctx ends.
func (r *notificationRelay) listen(ctx context.Context, deliver func(dto.NotificationResponse)) {
	receive := func(payload []byte) {
		var env relayEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			r.logger.Warn().Err(err).Msg("discarding malformed relay payload")
			return
		}
		if env.Source == r.nodeID || env.Notification.UserID == 0 {
			return
		}
		if env.Notification.ID != 0 && !r.seen.add(env.Notification.ID) {
			return
		}
		deliver(env.Notification)
	}

	switch {
	case r.nats != nil:
		r.listenNATS(ctx, receive)
	case r.redis != nil:
		go r.listenRedis(ctx, receive)
	}
}

// listenRedis reads through the pubsub channel, which reconnects and resubscribes on its own
// after connection errors.
func (r *notificationRelay) listenRedis(ctx context.Context, receive func([]byte)) {
	sub := r.redis.Subscribe(ctx, r.channel)
	defer func() { _ = sub.Close() }()

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				r.logger.Error().Str("channel", r.channel).Msg("redis relay subscription ended")
				return
			}
			receive([]byte(msg.Payload))
		}
	}
}

// listenNATS uses a plain subscription, not a queue group: every node must see every message.
func (r *notificationRelay) listenNATS(ctx context.Context, receive func([]byte)) {
	sub, err := r.nats.Subscribe(r.subject, func(msg *nats.Msg) { receive(msg.Data) })
	if err != nil {
		r.logger.Error().Err(err).Str("subject", r.subject).Msg("nats relay subscription failed")
		return
	}
	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			r.logger.Warn().Err(err).Msg("nats relay drain failed")
		}
	}()
}

const relayDedupeWindow = 1024

// recentIDs remembers the last n notification ids so redelivered relay messages are dropped.
type recentIDs struct {
	mu    sync.Mutex
	ids   map[uint]struct{}
	order []uint
	next  int
}

func newRecentIDs(n int) *recentIDs {
	return &recentIDs{ids: make(map[uint]struct{}, n), order: make([]uint, n)}
}

// add reports whether id was not seen within the window.
func (r *recentIDs) add(id uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ids[id]; ok {
		return false
	}
	if old := r.order[r.next]; old != 0 {
		delete(r.ids, old)
	}
	r.order[r.next] = id
	r.ids[id] = struct{}{}
	r.next = (r.next + 1) % len(r.order)
	return true
}
