package network

import "context"

// HandlerFunc 同步处理器：返回的响应非空时被写回
type HandlerFunc func(ctx context.Context, conn Connection, message []byte) ([]byte, error)

// Response 异步处理器的结果
type Response struct {
	Payload []byte
	Err     error
}

// AsyncHandlerFunc 异步处理器：结果通过通道交付，通道关闭且无结果视为无响应
type AsyncHandlerFunc func(ctx context.Context, conn Connection, message []byte) <-chan Response

// ErrorAction 异常策略的处理结果
type ErrorAction int

const (
	// ActionContinue 记录后继续读取下一条消息
	ActionContinue ErrorAction = iota
	// ActionClose 关闭连接
	ActionClose
)

// String 实现 fmt.Stringer
func (a ErrorAction) String() string {
	switch a {
	case ActionClose:
		return "close"
	default:
		return "continue"
	}
}

// ErrorPolicy 控制器声明的异常策略
type ErrorPolicy func(ctx context.Context, conn Connection, err error) ErrorAction

// RequestFilter 请求过滤器，在处理器前后执行
//
// Before 可改写消息；返回错误时本条消息不再交给处理器，错误交由异常策略。
// After 在处理器之后执行，可改写响应。
type RequestFilter interface {
	Before(ctx context.Context, conn Connection, message []byte) ([]byte, error)
	After(ctx context.Context, conn Connection, message, response []byte) ([]byte, error)
}

// ControllerRegistration 控制器的显式注册信息
//
// Handle 与 HandleAsync 必须且只能设置一个。
type ControllerRegistration struct {
	Handle      HandlerFunc
	HandleAsync AsyncHandlerFunc
	Markers     *Markers
	OnError     ErrorPolicy
	Filters     []RequestFilter
}

// Controller 请求控制器，每个连接创建一个新实例
type Controller interface {
	// Registration 在构造后求值一次
	Registration() ControllerRegistration
}

// ControllerFunc 将普通函数适配为 Controller（使用默认标记与默认异常策略）
type ControllerFunc HandlerFunc

// Registration 实现 Controller
func (f ControllerFunc) Registration() ControllerRegistration {
	return ControllerRegistration{Handle: HandlerFunc(f)}
}

// ControllerFactory 控制器工厂（瞬时生命周期）
type ControllerFactory func() (Controller, error)
