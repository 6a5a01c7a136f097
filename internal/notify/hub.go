package notify

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Hub fans sync outcomes out to websocket subscribers. Slow subscribers drop
// messages instead of blocking the publisher.
type Hub struct {
	mu      sync.Mutex
	subs    map[chan []byte]struct{}
	logger  *zap.Logger
	dropped uint64
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   map[chan []byte]struct{}{},
		logger: logger,
	}
}

// Subscribe registers a buffered inbox. The returned cancel func must be
// called when the consumer goes away.
func (h *Hub) Subscribe(buf int) (<-chan []byte, func()) {
	if buf <= 0 {
		buf = 8
	}
	ch := make(chan []byte, buf)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) Publish(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("notify marshal failed", zap.Error(err))
		}
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- payload:
		default:
			atomic.AddUint64(&h.dropped, 1)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) Dropped() uint64 {
	return atomic.LoadUint64(&h.dropped)
}
