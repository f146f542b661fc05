package preview

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/Adc-alt/espcam/pkg/ports"
)

// subscriber receives JPEG frames. send is closed by the hub when the
// subscriber is removed.
type subscriber struct {
	id   string
	kind string
	send chan []byte
}

// hub fans frames out to subscribers. A subscriber whose buffer is full is
// dropped instead of slowing down the session.
type hub struct {
	subs       map[*subscriber]bool
	broadcast  chan []byte
	register   chan *subscriber
	unregister chan *subscriber
	done       chan struct{}
	logger     ports.Logger

	clients atomic.Int64
	dropped atomic.Int64
}

func newHub(logger ports.Logger) *hub {
	return &hub{
		subs:       make(map[*subscriber]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// run owns the subscriber set until ctx is done.
func (h *hub) run(ctx context.Context) {
	defer func() {
		for s := range h.subs {
			close(s.send)
			delete(h.subs, s)
		}
		h.clients.Store(0)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case s := <-h.register:
			h.subs[s] = true
			h.clients.Store(int64(len(h.subs)))
			h.logger.Debug("Client %s connected (%s, %d total)", s.id, s.kind, len(h.subs))

		case s := <-h.unregister:
			if h.subs[s] {
				delete(h.subs, s)
				close(s.send)
			}
			h.clients.Store(int64(len(h.subs)))
			h.logger.Debug("Client %s disconnected (%d remaining)", s.id, len(h.subs))

		case data := <-h.broadcast:
			for s := range h.subs {
				select {
				case s.send <- data:
				default:
					delete(h.subs, s)
					close(s.send)
					h.dropped.Add(1)
					h.logger.Warn("Dropped slow %s client %s", s.kind, s.id)
				}
			}
			h.clients.Store(int64(len(h.subs)))
		}
	}
}

// subscribe registers a subscriber. It returns false once the hub stopped.
func (h *hub) subscribe(kind string, buffer int) (*subscriber, bool) {
	s := &subscriber{
		id:   uuid.NewString()[:8],
		kind: kind,
		send: make(chan []byte, buffer),
	}
	select {
	case h.register <- s:
		return s, true
	case <-h.done:
		return nil, false
	}
}

func (h *hub) unsubscribe(s *subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// publish queues a frame without blocking. Frames are dropped while the
// hub is behind.
func (h *hub) publish(data []byte) {
	select {
	case h.broadcast <- data:
	default:
	}
}
