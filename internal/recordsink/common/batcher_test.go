package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatcher_EnqueueAppliesFilters(t *testing.T) {
	b := NewBatcher(4, 0, []string{"keep"}, []string{"drop"})

	b.Enqueue(Record{Line: []byte("please keep this")})
	b.Enqueue(Record{Line: []byte("no match here")})
	b.Enqueue(Record{Line: []byte("keep but drop too")})

	assert.Equal(t, 1, len(b.Ch))
}

func TestBatcher_EnqueueDropsWhenChannelFull(t *testing.T) {
	b := NewBatcher(1, 0, nil, nil)

	b.Enqueue(Record{Line: []byte("a")})
	b.Enqueue(Record{Line: []byte("b")})
	b.Enqueue(Record{Line: []byte("c")})

	assert.Equal(t, cap(b.Ch), len(b.Ch))
}

// TestBatcher_DrainRecoversRecordsRacingStop exercises the shutdown race a
// StopCh/Ch select is exposed to: records enqueued just before Stop closes
// StopCh must still be recoverable by a final Drain rather than silently
// lost because select happened to pick the StopCh branch first.
func TestBatcher_DrainRecoversRecordsRacingStop(t *testing.T) {
	b := NewBatcher(8, 0, nil, nil)

	for i := 0; i < 3; i++ {
		b.Enqueue(Record{Line: []byte("x")})
	}
	close(b.StopCh)

	drained := b.Drain()
	assert.Len(t, drained, 3)
	assert.Empty(t, b.Drain(), "a second Drain on an empty channel returns nothing")
}
