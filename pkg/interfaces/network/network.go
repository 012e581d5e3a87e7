// Package network 定义自定义 TCP/UDP 协议栈的公共契约
//
// 🌐 **网络契约 (Network Contracts)**
//
// 字节流经由分帧器（Framer）按起止标记切分成消息，消息被分派给每个连接独立创建的
// 控制器（Controller），控制器返回的响应再按同一套标记封装写回。本包只定义接口与
// 值类型，实现位于 internal/core/network/...：
//   - framer：逐字节分帧
//   - transport：流式/内存缓冲读取器与写入器
//   - connection：连接上下文
//   - dispatcher：读-分派-写循环
//   - tcp / udp：监听服务
package network

import (
	"bytes"
	"context"
)

// DefaultEndMarker 默认结束标记（CR LF）
var DefaultEndMarker = []byte{'\r', '\n'}

// Markers 起止标记对
//
// Start 为空表示不需要（也不添加）前缀；End 为空时使用 DefaultEndMarker。
type Markers struct {
	Start []byte
	End   []byte
}

// DefaultMarkers 返回默认标记：无起始标记，结束标记为 CR LF
func DefaultMarkers() Markers {
	return Markers{End: append([]byte(nil), DefaultEndMarker...)}
}

// Normalize 返回填充默认值后的副本，调用方可安全持有
func (m Markers) Normalize() Markers {
	out := Markers{
		Start: append([]byte(nil), m.Start...),
		End:   append([]byte(nil), m.End...),
	}
	if len(out.End) == 0 {
		out.End = append([]byte(nil), DefaultEndMarker...)
	}
	return out
}

// Equal 判断两组标记是否一致（按填充默认值后比较）
func (m Markers) Equal(other Markers) bool {
	a, b := m.Normalize(), other.Normalize()
	return bytes.Equal(a.Start, b.Start) && bytes.Equal(a.End, b.End)
}

// MarkerConfig 由希望自定义分帧标记的组件实现
type MarkerConfig interface {
	MarkerConfig() Markers
}

// MessageReader 读取下一条完整消息
type MessageReader interface {
	// ReadMessage 阻塞直到一条消息完成分帧
	//
	// 数据源结束时返回 io.EOF，ctx 或连接被取消时返回对应的 context 错误。
	ReadMessage(ctx context.Context) ([]byte, error)
}

// MessageWriter 写出一条消息，自动加上起止标记
type MessageWriter interface {
	WriteMessage(payload []byte) error
}

// Cache 连接级键值缓存，并发安全
type Cache interface {
	Get(key string) (interface{}, bool)
	Set(key string, value interface{})
	Delete(key string)
	// GetOrSet 不存在时写入 value，返回最终值以及是否已存在
	GetOrSet(key string, value interface{}) (actual interface{}, loaded bool)
	Len() int
	Range(fn func(key string, value interface{}) bool)
}

// Connection 连接上下文
//
// 一个连接恰好拥有一个读取器和一个写入器，二者绑定同一个传输。
// Close 可重复调用、可在任意 goroutine 调用。
type Connection interface {
	// ID 连接唯一标识
	ID() string

	// RemoteAddr 对端地址
	RemoteAddr() string

	// Reader 消息读取器
	Reader() MessageReader

	// Writer 消息写入器
	Writer() MessageWriter

	// Cache 连接级缓存
	Cache() Cache

	// Context 连接关闭时被取消
	Context() context.Context

	// Close 取消共享上下文并释放底层传输
	Close() error

	// Closed 是否已关闭
	Closed() bool
}
