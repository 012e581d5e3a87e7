package host

import (
	"context"
	"sync"

	"github.com/weisyn/standpoint/pkg/interfaces/host"
	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/standpoint/pkg/types"
)

// signal 只触发一次的信号
type signal struct {
	ch        chan struct{}
	fired     bool
	callbacks []func()
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

// Lifetime 实现 host.Lifetime
//
// 信号严格按 Started → Stopping → Stopped 推进：StopApplication 可以跳过 Started，
// NotifyStopped 会先补发 Stopping；已触发的信号不会再次触发。
type Lifetime struct {
	mu       sync.Mutex
	state    types.ApplicationState
	started  *signal
	stopping *signal
	stopped  *signal

	stoppingCtx context.Context
	cancel      context.CancelFunc

	bus    event.EventBus
	logger logInterface.Logger
}

var _ host.Lifetime = (*Lifetime)(nil)

// NewLifetime 创建生命周期信号，bus 可为 nil
func NewLifetime(bus event.EventBus, logger logInterface.Logger) *Lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return &Lifetime{
		state:       types.ApplicationCreated,
		started:     newSignal(),
		stopping:    newSignal(),
		stopped:     newSignal(),
		stoppingCtx: ctx,
		cancel:      cancel,
		bus:         bus,
		logger:      logger,
	}
}

// Started 实现 host.Lifetime
func (l *Lifetime) Started() <-chan struct{} { return l.started.ch }

// Stopping 实现 host.Lifetime
func (l *Lifetime) Stopping() <-chan struct{} { return l.stopping.ch }

// Stopped 实现 host.Lifetime
func (l *Lifetime) Stopped() <-chan struct{} { return l.stopped.ch }

// StoppingContext 实现 host.Lifetime
func (l *Lifetime) StoppingContext() context.Context { return l.stoppingCtx }

// State 实现 host.Lifetime
func (l *Lifetime) State() types.ApplicationState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// OnStarted 实现 host.Lifetime
func (l *Lifetime) OnStarted(fn func()) { l.on(l.started, fn) }

// OnStopping 实现 host.Lifetime
func (l *Lifetime) OnStopping(fn func()) { l.on(l.stopping, fn) }

// OnStopped 实现 host.Lifetime
func (l *Lifetime) OnStopped(fn func()) { l.on(l.stopped, fn) }

func (l *Lifetime) on(s *signal, fn func()) {
	l.mu.Lock()
	if !s.fired {
		s.callbacks = append(s.callbacks, fn)
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	l.invoke(fn)
}

// NotifyStarted 触发 Started；已进入停止流程时忽略
func (l *Lifetime) NotifyStarted() {
	l.mu.Lock()
	if l.state != types.ApplicationCreated {
		l.mu.Unlock()
		return
	}
	l.state = types.ApplicationStarted
	callbacks := l.fireLocked(l.started)
	l.mu.Unlock()

	l.dispatch(event.EventTypeApplicationStarted, types.ApplicationStarted, callbacks)
}

// StopApplication 实现 host.Lifetime，触发 Stopping
func (l *Lifetime) StopApplication() {
	l.mu.Lock()
	if l.stopping.fired {
		l.mu.Unlock()
		return
	}
	l.state = types.ApplicationStopping
	callbacks := l.fireLocked(l.stopping)
	l.mu.Unlock()

	l.cancel()
	l.dispatch(event.EventTypeApplicationStopping, types.ApplicationStopping, callbacks)
}

// NotifyStopped 触发 Stopped（必要时先触发 Stopping）
func (l *Lifetime) NotifyStopped() {
	l.StopApplication()

	l.mu.Lock()
	if l.stopped.fired {
		l.mu.Unlock()
		return
	}
	l.state = types.ApplicationStopped
	callbacks := l.fireLocked(l.stopped)
	l.mu.Unlock()

	l.dispatch(event.EventTypeApplicationStopped, types.ApplicationStopped, callbacks)
}

func (l *Lifetime) fireLocked(s *signal) []func() {
	s.fired = true
	close(s.ch)
	callbacks := s.callbacks
	s.callbacks = nil
	return callbacks
}

func (l *Lifetime) dispatch(t event.EventType, state types.ApplicationState, callbacks []func()) {
	for _, fn := range callbacks {
		l.invoke(fn)
	}
	if l.bus != nil {
		l.bus.Publish(t, state)
	}
}

// invoke 执行回调，回调 panic 只记录
func (l *Lifetime) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil && l.logger != nil {
			l.logger.Errorf("生命周期回调异常: %v", r)
		}
	}()
	fn()
}
