package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c, ok := <-ch:
		require.True(t, ok, "channel closed")
		return c
	case <-time.After(time.Second):
		t.Fatal("no change received")
		return Change{}
	}
}

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub(TopicCart)

	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Publish("add")

	for _, ch := range []<-chan Change{a, b} {
		c := recv(t, ch)
		assert.Equal(t, TopicCart, c.Topic)
		assert.Equal(t, "add", c.Kind)
		assert.False(t, c.At.IsZero())
	}

	cancelA()
	cancelA()
	_, ok := <-a
	assert.False(t, ok, "cancel closes the channel")
	assert.Equal(t, 1, h.Subscribers())

	h.Publish("clear")
	assert.Equal(t, "clear", recv(t, b).Kind)
}

func TestHub_NoReplay(t *testing.T) {
	h := NewHub(TopicOrders)
	h.Publish("create")

	ch, cancel := h.Subscribe()
	defer cancel()

	select {
	case c := <-ch:
		t.Fatalf("unexpected replay: %+v", c)
	default:
	}
}

func TestHub_FullBufferDoesNotBlock(t *testing.T) {
	h := NewHub(TopicFavorites)
	ch, cancel := h.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < defaultBuffer*4; i++ {
			h.Publish("toggle")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Len(t, ch, defaultBuffer)
}

func TestMerge(t *testing.T) {
	cart := NewHub(TopicCart)
	favs := NewHub(TopicFavorites)

	ch, stop := Merge(cart, favs)

	cart.Publish("add")
	favs.Publish("toggle")

	got := map[Topic]string{}
	for i := 0; i < 2; i++ {
		c := recv(t, ch)
		got[c.Topic] = c.Kind
	}
	assert.Equal(t, map[Topic]string{TopicCart: "add", TopicFavorites: "toggle"}, got)

	stop()
	stop()
	assert.Equal(t, 0, cart.Subscribers())
	assert.Equal(t, 0, favs.Subscribers())
}
