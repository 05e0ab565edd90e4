package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishWithoutSubscribersIsNoOp(t *testing.T) {
	h := NewHub()
	assert.NotPanics(t, func() {
		h.Publish(Log{Message: "nobody listening"})
	})
}

func TestSubscribeReceivesInOrder(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Publish(Started{Total: 3})
	h.Publish(Progress{Downloaded: 1, Total: 3, CandidateName: "Maria_Souza"})
	h.Publish(Done{Downloaded: 3, Total: 3})

	require.Equal(t, Started{Total: 3}, <-ch)
	p := (<-ch).(Progress)
	assert.Equal(t, "Maria_Souza", p.CandidateName)
	require.Equal(t, Done{Downloaded: 3, Total: 3}, <-ch)
}

func TestCancelClosesChannel(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Publishing after cancel must not panic or deliver.
	h.Publish(Stopped{})
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+10; i++ {
		h.Publish(Log{Message: "x"})
	}
	// The buffer holds exactly subscriberBuffer events; the rest were dropped.
	assert.Len(t, ch, subscriberBuffer)
}
