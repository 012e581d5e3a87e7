package network

import (
	"context"
	"errors"
	"net"
)

// ErrInvalidOperation 当前状态不允许该操作（重复启动、已释放后启动等）
var ErrInvalidOperation = errors.New("invalid operation")

// ListenerState 监听服务状态
type ListenerState int32

const (
	StateStopped ListenerState = iota
	StateStarting
	StateListening
	StateStopping
)

// String 实现 fmt.Stringer
func (s ListenerState) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	case StateStopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Dispatcher 连接分派器
type Dispatcher interface {
	// Serve 接管一个已接入的原始连接，直到连接结束；返回前总会关闭 conn
	Serve(ctx context.Context, conn net.Conn)

	// ServeConnection 接管已构造好的连接上下文（数据报等非流式传输）
	ServeConnection(ctx context.Context, conn Connection)

	// Markers 控制器声明的分帧标记
	Markers() Markers

	// Active 当前活跃连接数
	Active() int
}

// Listener 监听服务
type Listener interface {
	// Start 在指定端口开始监听，0 表示临时端口
	Start(port int) error

	// Stop 停止监听，可重复调用
	Stop() error

	// Close 停止并释放，之后不可再 Start
	Close() error

	// State 当前状态
	State() ListenerState

	// Addr 实际监听地址，未监听时为 nil
	Addr() net.Addr
}
