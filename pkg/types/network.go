package types

import "time"

// 网络层与事件总线共享的数据结构

// TransportKind 传输类型
type TransportKind string

const (
	// TransportTCP TCP 流式连接
	TransportTCP TransportKind = "tcp"
	// TransportUDP UDP 数据报（整包作为一个内存缓冲连接）
	TransportUDP TransportKind = "udp"
	// TransportMemory 纯内存缓冲（测试与回放）
	TransportMemory TransportKind = "memory"
)

// ConnectionEvent 连接建立/关闭事件
type ConnectionEvent struct {
	ID         string        `json:"id"`          // 连接ID（uuid）
	RemoteAddr string        `json:"remote_addr"` // 对端地址
	Transport  TransportKind `json:"transport"`   // 传输类型
	Messages   uint64        `json:"messages"`    // 已处理消息数（关闭时有效）
	OpenedAt   time.Time     `json:"opened_at"`   // 建立时间
	ClosedAt   time.Time     `json:"closed_at"`   // 关闭时间（打开事件为零值）
	Err        string        `json:"err,omitempty"`
}

// Duration 连接存活时长
func (e *ConnectionEvent) Duration() time.Duration {
	if e.ClosedAt.IsZero() {
		return 0
	}
	return e.ClosedAt.Sub(e.OpenedAt)
}

// FrameDropEvent 报文超过最大长度被丢弃
type FrameDropEvent struct {
	ConnectionID string    `json:"connection_id"`
	DroppedBytes int       `json:"dropped_bytes"`
	MaxSize      int       `json:"max_size"`
	At           time.Time `json:"at"`
}
