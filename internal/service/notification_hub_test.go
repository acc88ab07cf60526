package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
)

func TestStreamHubDropsForFullStreams(t *testing.T) {
	hub := newStreamHub()
	fast := hub.open(1)
	slow := hub.open(1)
	other := hub.open(2)

	for i := 0; i < streamBufferSize; i++ {
		require.Zero(t, hub.deliver(dto.NotificationResponse{ID: uint(i), UserID: 1}))
		<-fast
	}
	require.Equal(t, 1, hub.deliver(dto.NotificationResponse{ID: 99, UserID: 1}))
	require.Equal(t, uint(99), (<-fast).ID)
	require.Empty(t, other)

	require.Len(t, slow, streamBufferSize)
	hub.close(1, slow)
	hub.close(1, slow)
	drained := 0
	for range slow {
		drained++
	}
	require.Equal(t, streamBufferSize, drained)
	require.Zero(t, hub.deliver(dto.NotificationResponse{ID: 100, UserID: 1}))
}

func TestNotificationRelayWithoutTransportsIsNoop(t *testing.T) {
	relay := newNotificationRelay(nil, nil, "learnhub", testLogger())
	require.Nil(t, relay.redis)
	require.Nil(t, relay.nats)
	require.NoError(t, relay.send(context.Background(), dto.NotificationResponse{UserID: 1}, time.Now()))
}

func TestNotificationRelayPrefersSingleTransport(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	both := newNotificationRelay(client, &nats.Conn{}, "learnhub", testLogger())
	require.Nil(t, both.redis)
	require.NotNil(t, both.nats)
	require.Equal(t, "learnhub.notifications", both.subject)

	redisOnly := newNotificationRelay(client, nil, "learnhub", testLogger())
	require.NotNil(t, redisOnly.redis)
	require.Nil(t, redisOnly.nats)
	require.Equal(t, "learnhub:notifications", redisOnly.channel)
}

// relayCollector records what a listening relay hands to local streams.
type relayCollector struct {
	mu  sync.Mutex
	ids []uint
}

func (c *relayCollector) deliver(n dto.NotificationResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids = append(c.ids, n.ID)
}

func (c *relayCollector) received() []uint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint(nil), c.ids...)
}

func relayPayload(t *testing.T, id uint) []byte {
	t.Helper()
	payload, err := json.Marshal(relayEnvelope{
		Source:       "another-node",
		Notification: dto.NotificationResponse{ID: id, UserID: 3, Title: "Relayed"},
		SentAt:       time.Now().UTC(),
	})
	require.NoError(t, err)
	return payload
}

func TestNotificationRelayDeliversEachNotificationOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	relay := newNotificationRelay(client, nil, "learnhub", testLogger())
	collector := &relayCollector{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	relay.listen(ctx, collector.deliver)

	payload := relayPayload(t, 11)
	require.Eventually(t, func() bool {
		_ = client.Publish(ctx, "learnhub:notifications", payload).Err()
		return len(collector.received()) > 0
	}, 2*time.Second, 20*time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, client.Publish(ctx, "learnhub:notifications", payload).Err())
	}
	require.NoError(t, client.Publish(ctx, "learnhub:notifications", relayPayload(t, 12)).Err())
	require.Eventually(t, func() bool {
		return len(collector.received()) == 2
	}, 2*time.Second, 20*time.Millisecond)
	require.Equal(t, []uint{11, 12}, collector.received())
}

func TestNotificationRelayRedisListenerSurvivesReconnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	relay := newNotificationRelay(client, nil, "learnhub", testLogger())
	collector := &relayCollector{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	relay.listen(ctx, collector.deliver)

	first, second := relayPayload(t, 21), relayPayload(t, 22)
	require.Eventually(t, func() bool {
		_ = client.Publish(ctx, "learnhub:notifications", first).Err()
		return len(collector.received()) == 1
	}, 2*time.Second, 20*time.Millisecond)

	mr.Close()
	require.NoError(t, mr.Restart())

	require.Eventually(t, func() bool {
		_ = client.Publish(ctx, "learnhub:notifications", second).Err()
		return len(collector.received()) == 2
	}, 5*time.Second, 50*time.Millisecond)
	require.Equal(t, []uint{21, 22}, collector.received())
}

func TestRecentIDsForgetsOutsideWindow(t *testing.T) {
	seen := newRecentIDs(2)
	require.True(t, seen.add(1))
	require.False(t, seen.add(1))
	require.True(t, seen.add(2))
	require.True(t, seen.add(3))
	require.True(t, seen.add(1))
	require.False(t, seen.add(3))
}
