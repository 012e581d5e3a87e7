package host

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventbus "github.com/weisyn/standpoint/internal/core/infrastructure/event"
	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	"github.com/weisyn/standpoint/pkg/types"
)

func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestLifetime_SignalsFireOnceInOrder(t *testing.T) {
	bus := eventbus.New()
	var mu sync.Mutex
	var order []string
	record := func(s string) func() {
		return func() {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, s)
		}
	}
	for _, et := range []event.EventType{
		event.EventTypeApplicationStarted,
		event.EventTypeApplicationStopping,
		event.EventTypeApplicationStopped,
	} {
		require.NoError(t, bus.Subscribe(et, func(state types.ApplicationState) {
			record("event:" + string(state))()
		}))
	}

	l := NewLifetime(bus, nil)
	l.OnStarted(record("started"))
	l.OnStopping(record("stopping"))
	l.OnStopped(record("stopped"))
	assert.Equal(t, types.ApplicationCreated, l.State())

	l.NotifyStarted()
	l.NotifyStarted()
	assert.True(t, closed(l.Started()))
	assert.False(t, closed(l.Stopping()))
	assert.NoError(t, l.StoppingContext().Err())

	l.NotifyStopped()
	l.StopApplication()
	l.NotifyStopped()

	assert.True(t, closed(l.Stopping()))
	assert.True(t, closed(l.Stopped()))
	assert.Error(t, l.StoppingContext().Err())
	assert.Equal(t, types.ApplicationStopped, l.State())
	assert.Equal(t, []string{
		"started", "event:started",
		"stopping", "event:stopping",
		"stopped", "event:stopped",
	}, order)

	// 信号已触发后注册的回调立即执行
	l.OnStopped(record("late"))
	assert.Equal(t, "late", order[len(order)-1])
}

func TestLifetime_StartedIgnoredAfterStopping(t *testing.T) {
	l := NewLifetime(nil, nil)
	l.StopApplication()
	l.NotifyStarted()

	assert.False(t, closed(l.Started()))
	assert.Equal(t, types.ApplicationStopping, l.State())
}

func TestLifetime_CallbackPanicIsContained(t *testing.T) {
	l := NewLifetime(nil, nil)
	ran := false
	l.OnStopping(func() { panic("bad callback") })
	l.OnStopping(func() { ran = true })

	assert.NotPanics(t, l.StopApplication)
	assert.True(t, ran)
}
