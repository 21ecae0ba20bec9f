package server

import (
	"sync/atomic"
	"testing"
	"time"

	"xiaozhi-core/websocket"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueBackpressure(t *testing.T) {
	t.Parallel()

	const capacity = 100
	q := NewQueues(capacity)
	assert.Equal(t, capacity, cap(q.NetCommands))

	for i := 0; i < capacity; i++ {
		q.NetCommands <- websocket.SendText("fill")
	}

	// 队列满后发送方挂起，既不丢弃也不报错
	var sent atomic.Int32
	for i := 0; i < 2; i++ {
		go func() {
			q.NetCommands <- websocket.SendText("pending")
			sent.Add(1)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 0, sent.Load())
	assert.Equal(t, capacity, len(q.NetCommands))

	// 取出一条只放行一个等待中的发送方
	<-q.NetCommands
	require.Eventually(t, func() bool { return sent.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 1, sent.Load())
	assert.Equal(t, capacity, len(q.NetCommands))

	<-q.NetCommands
	require.Eventually(t, func() bool { return sent.Load() == 2 }, time.Second, 5*time.Millisecond)
}

func TestNewQueuesMinimumCapacity(t *testing.T) {
	t.Parallel()

	q := NewQueues(0)
	assert.Equal(t, 1, cap(q.AudioEvents))

	src := q.Sources()
	assert.NotNil(t, src.Net)
	assert.NotNil(t, src.IoT)
}
