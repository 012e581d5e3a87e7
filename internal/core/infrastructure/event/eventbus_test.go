package event

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/standpoint/pkg/types"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := New()

	var got *types.ConnectionEvent
	require.NoError(t, bus.Subscribe(event.EventTypeConnectionOpened, func(e *types.ConnectionEvent) {
		got = e
	}))
	var asyncCalls atomic.Int32
	require.NoError(t, bus.SubscribeAsync(event.EventTypeConnectionOpened, func(*types.ConnectionEvent) {
		asyncCalls.Add(1)
	}, false))

	bus.Publish(event.EventTypeConnectionOpened, &types.ConnectionEvent{ID: "c1"})
	bus.WaitAsync()

	require.NotNil(t, got)
	assert.Equal(t, "c1", got.ID)
	assert.EqualValues(t, 1, asyncCalls.Load())
	assert.EqualValues(t, 1, bus.Published(event.EventTypeConnectionOpened))
	assert.EqualValues(t, 0, bus.Published(event.EventTypeConnectionClosed))
	assert.True(t, bus.HasCallback(event.EventTypeConnectionOpened))
}

func TestEventBus_SubscribeOnce(t *testing.T) {
	bus := New()
	calls := 0
	require.NoError(t, bus.SubscribeOnce(event.EventTypeApplicationStarted, func() { calls++ }))

	bus.Publish(event.EventTypeApplicationStarted)
	bus.Publish(event.EventTypeApplicationStarted)

	assert.Equal(t, 1, calls)
}

func TestEventBus_Close(t *testing.T) {
	bus := New()
	calls := 0
	handler := func() { calls++ }
	require.NoError(t, bus.Subscribe(event.EventTypeApplicationStopped, handler))

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "重复关闭安全")

	bus.Publish(event.EventTypeApplicationStopped)
	assert.Equal(t, 0, calls, "关闭后的发布被忽略")
	assert.ErrorIs(t, bus.Subscribe(event.EventTypeApplicationStopped, handler), ErrBusClosed)
}
