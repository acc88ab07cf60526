package service

import (
	"sync"

	"github.com/noah-isme/learnhub-api/internal/dto"
)

const streamBufferSize = 16

// streamHub fans notifications out to the SSE and websocket streams open on this node.
type streamHub struct {
	mu      sync.RWMutex
	streams map[uint]map[chan dto.NotificationResponse]struct{}
}

func newStreamHub() *streamHub {
	return &streamHub{streams: make(map[uint]map[chan dto.NotificationResponse]struct{})}
}

func (h *streamHub) open(userID uint) chan dto.NotificationResponse {
	ch := make(chan dto.NotificationResponse, streamBufferSize)

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.streams[userID]
	if !ok {
		set = make(map[chan dto.NotificationResponse]struct{})
		h.streams[userID] = set
	}
	set[ch] = struct{}{}
	return ch
}

// close is idempotent; the channel is closed exactly once.
func (h *streamHub) close(userID uint, ch chan dto.NotificationResponse) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.streams[userID]
	if _, ok := set[ch]; !ok {
		return
	}
	delete(set, ch)
	close(ch)
	if len(set) == 0 {
		delete(h.streams, userID)
	}
}

// deliver hands n to every stream of its user and returns how many streams were full.
// A full stream misses the notification; the client catches up through the list endpoint.
func (h *streamHub) deliver(n dto.NotificationResponse) (dropped int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.streams[n.UserID] {
		select {
		case ch <- n:
		default:
			dropped++
		}
	}
	return dropped
}
