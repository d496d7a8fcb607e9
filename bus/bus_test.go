package bus

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrain_FIFO(t *testing.T) {
	b := New()

	b.Publish(Event{Type: Show})
	b.Publish(InfoEvent("first"))
	b.Publish(Event{Type: Captured, Text: "alpha"})

	events := b.Drain()
	require.Len(t, events, 3)
	assert.Equal(t, Show, events[0].Type)
	assert.Equal(t, "first", events[1].Text)
	assert.Equal(t, Captured, events[2].Type)

	assert.Nil(t, b.Drain(), "second drain should be empty")
}

func TestPublish_AfterClose(t *testing.T) {
	b := New()
	require.True(t, b.Publish(Event{Type: HotkeyFired}))

	b.Close()
	assert.False(t, b.Publish(Event{Type: HotkeyFired}))

	// Already queued events survive the close
	events := b.Drain()
	require.Len(t, events, 1)
	assert.Equal(t, HotkeyFired, events[0].Type)
}

func TestPublish_ConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 500

	b := New()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				b.Publish(Event{Type: Captured, Index: p*perProducer + i})
			}
		}(p)
	}

	// Drain concurrently with the producers
	var got []Event
	done := make(chan struct{})
	go func() {
		defer close(done)
		for len(got) < producers*perProducer {
			got = append(got, b.Drain()...)
		}
	}()

	wg.Wait()
	<-done

	require.Len(t, got, producers*perProducer)

	// Per-producer order is preserved
	last := make(map[int]int)
	for _, e := range got {
		p := e.Index / perProducer
		if prev, ok := last[p]; ok {
			assert.Less(t, prev, e.Index)
		}
		last[p] = e.Index
	}
}

func TestErrorEvent(t *testing.T) {
	cause := errors.New("boom")
	e := ErrorEvent("it failed", cause)

	assert.Equal(t, Error, e.Type)
	assert.Equal(t, "it failed", e.Text)
	assert.ErrorIs(t, e.Err, cause)
	assert.Equal(t, "error", e.Type.String())
	assert.Equal(t, "unknown", Type(999).String())
}
