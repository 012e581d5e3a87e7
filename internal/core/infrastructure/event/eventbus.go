// Package event 提供基于 asaskevich/EventBus 的进程内事件总线
package event

import (
	"errors"
	"sync"
	"sync/atomic"

	evbus "github.com/asaskevich/EventBus"

	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
)

// EventBus 事件总线实现
//
// 在 asaskevich/EventBus 之上增加按事件类型的发布计数和关闭开关；
// 关闭后的发布被静默忽略，订阅返回错误。
type EventBus struct {
	bus    evbus.Bus
	closed atomic.Bool

	countsMu sync.RWMutex
	counts   map[event.EventType]*atomic.Uint64
}

var _ event.EventBus = (*EventBus)(nil)

// New 创建事件总线
func New() *EventBus {
	return &EventBus{
		bus:    evbus.New(),
		counts: make(map[event.EventType]*atomic.Uint64),
	}
}

// ErrBusClosed 事件总线已关闭
var ErrBusClosed = errors.New("事件总线已关闭")

// Subscribe 实现订阅
func (eb *EventBus) Subscribe(eventType event.EventType, handler interface{}) error {
	if eb.closed.Load() {
		return ErrBusClosed
	}
	return eb.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync 实现异步订阅
func (eb *EventBus) SubscribeAsync(eventType event.EventType, handler interface{}, transactional bool) error {
	if eb.closed.Load() {
		return ErrBusClosed
	}
	return eb.bus.SubscribeAsync(string(eventType), handler, transactional)
}

// SubscribeOnce 实现一次性订阅
func (eb *EventBus) SubscribeOnce(eventType event.EventType, handler interface{}) error {
	if eb.closed.Load() {
		return ErrBusClosed
	}
	return eb.bus.SubscribeOnce(string(eventType), handler)
}

// Unsubscribe 取消订阅
func (eb *EventBus) Unsubscribe(eventType event.EventType, handler interface{}) error {
	return eb.bus.Unsubscribe(string(eventType), handler)
}

// Publish 实现发布
func (eb *EventBus) Publish(eventType event.EventType, args ...interface{}) {
	if eb.closed.Load() {
		return
	}
	eb.counter(eventType).Add(1)
	eb.bus.Publish(string(eventType), args...)
}

// HasCallback 检查是否有回调
func (eb *EventBus) HasCallback(eventType event.EventType) bool {
	return eb.bus.HasCallback(string(eventType))
}

// WaitAsync 等待异步处理完成
func (eb *EventBus) WaitAsync() {
	eb.bus.WaitAsync()
}

// Close 停止接收新事件并等待异步处理完成
func (eb *EventBus) Close() error {
	if eb.closed.Swap(true) {
		return nil
	}
	eb.bus.WaitAsync()
	return nil
}

// Published 返回某类事件已发布的次数
func (eb *EventBus) Published(eventType event.EventType) uint64 {
	eb.countsMu.RLock()
	c, ok := eb.counts[eventType]
	eb.countsMu.RUnlock()
	if !ok {
		return 0
	}
	return c.Load()
}

func (eb *EventBus) counter(eventType event.EventType) *atomic.Uint64 {
	eb.countsMu.RLock()
	c, ok := eb.counts[eventType]
	eb.countsMu.RUnlock()
	if ok {
		return c
	}

	eb.countsMu.Lock()
	defer eb.countsMu.Unlock()
	if c, ok = eb.counts[eventType]; !ok {
		c = &atomic.Uint64{}
		eb.counts[eventType] = c
	}
	return c
}
