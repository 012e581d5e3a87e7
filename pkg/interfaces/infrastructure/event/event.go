// Package event 定义进程内事件总线接口
//
// 📣 **事件总线 (Event Bus)**
//
// 宿主的生命周期信号、连接的建立与关闭、报文超限丢弃等都会以事件形式发布，
// 订阅方无需直接依赖发布方。实现见 internal/core/infrastructure/event。
package event

// EventType 事件类型（即订阅主题）
type EventType string

// 宿主内置事件
const (
	// EventTypeApplicationStarted 应用已启动（所有 Feature 启动成功）
	EventTypeApplicationStarted EventType = "application.started"
	// EventTypeApplicationStopping 应用开始停止
	EventTypeApplicationStopping EventType = "application.stopping"
	// EventTypeApplicationStopped 应用已停止
	EventTypeApplicationStopped EventType = "application.stopped"

	// EventTypeConnectionOpened 连接已接入，参数为 *types.ConnectionEvent
	EventTypeConnectionOpened EventType = "network.connection.opened"
	// EventTypeConnectionClosed 连接已关闭，参数为 *types.ConnectionEvent
	EventTypeConnectionClosed EventType = "network.connection.closed"
	// EventTypeFrameDropped 报文超过最大长度被丢弃，参数为 *types.FrameDropEvent
	EventTypeFrameDropped EventType = "network.frame.dropped"
)

// EventBus 事件总线接口
type EventBus interface {
	// Subscribe 同步订阅，handler 必须是函数
	Subscribe(eventType EventType, handler interface{}) error

	// SubscribeAsync 异步订阅，transactional 为 true 时同一订阅者串行处理
	SubscribeAsync(eventType EventType, handler interface{}, transactional bool) error

	// SubscribeOnce 只接收一次事件
	SubscribeOnce(eventType EventType, handler interface{}) error

	// Unsubscribe 取消订阅
	Unsubscribe(eventType EventType, handler interface{}) error

	// Publish 发布事件
	Publish(eventType EventType, args ...interface{})

	// HasCallback 是否存在订阅者
	HasCallback(eventType EventType) bool

	// WaitAsync 等待所有异步处理完成
	WaitAsync()
}
