// Package events carries in-process "state changed" notices from a state
// service to whoever is currently watching it.
package events

import (
	"sync"
	"time"
)

type Topic string

const (
	TopicCart      Topic = "cart"
	TopicFavorites Topic = "favorites"
	TopicOrders    Topic = "orders"
	TopicSession   Topic = "session"
	TopicPrefs     Topic = "prefs"
)

// Change tells a subscriber to re-read the topic's owner. It carries no state.
type Change struct {
	Topic Topic     `json:"topic"`
	Kind  string    `json:"kind"`
	At    time.Time `json:"at"`
}

const defaultBuffer = 16

// Hub fans a change out to every live subscriber. Publish never blocks: a
// subscriber whose buffer is full misses the notice. Late subscribers get no
// replay.
type Hub struct {
	topic  Topic
	buffer int

	mu     sync.Mutex
	nextID int
	subs   map[int]chan Change
}

func NewHub(topic Topic) *Hub {
	return &Hub{
		topic:  topic,
		buffer: defaultBuffer,
		subs:   map[int]chan Change{},
	}
}

func (h *Hub) Topic() Topic { return h.topic }

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel; calling it more than once is safe.
func (h *Hub) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, h.buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish announces a change of the given kind.
func (h *Hub) Publish(kind string) {
	c := Change{Topic: h.topic, Kind: kind, At: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers reports how many listeners are registered.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Source is anything that exposes a change feed.
type Source interface {
	Subscribe() (<-chan Change, func())
}

// Merge subscribes to every source and forwards their changes onto one
// channel until cancel is called.
func Merge(sources ...Source) (<-chan Change, func()) {
	out := make(chan Change, defaultBuffer)
	done := make(chan struct{})

	var wg sync.WaitGroup
	cancels := make([]func(), 0, len(sources))

	for _, src := range sources {
		ch, cancel := src.Subscribe()
		cancels = append(cancels, cancel)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				case c, ok := <-ch:
					if !ok {
						return
					}
					select {
					case out <- c:
					case <-done:
						return
					}
				}
			}
		}()
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			for _, c := range cancels {
				c()
			}
			wg.Wait()
			close(out)
		})
	}
	return out, stop
}
