// Package connection 连接上下文
//
// 一个连接上下文恰好持有一个读取器和一个写入器，二者绑定同一个传输；
// Close 取消共享的 context，使读取与写入立即解除阻塞，然后只关闭一次底层传输。
package connection

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/weisyn/standpoint/internal/core/network/transport"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
	"github.com/weisyn/standpoint/pkg/types"
)

// Context 连接上下文，实现 network.Connection
type Context struct {
	id        string
	remote    string
	kind      types.TransportKind
	openedAt  time.Time
	reader    *transport.Reader
	writer    *transport.Writer
	cache     *Cache
	transport io.Closer

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

var _ network.Connection = (*Context)(nil)

// NewTCP 基于流式连接创建上下文
func NewTCP(parent context.Context, conn net.Conn, markers network.Markers, opts ...transport.Option) *Context {
	ctx, cancel := context.WithCancel(parent)
	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Context{
		id:        uuid.NewString(),
		remote:    remote,
		kind:      types.TransportTCP,
		openedAt:  time.Now(),
		reader:    transport.NewStreamReader(ctx, conn, markers, opts...).Reader,
		writer:    transport.NewWriter(conn, markers),
		cache:     NewCache(),
		transport: conn,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// NewBuffer 基于一段已收到的数据创建上下文（数据报）
//
// 响应写入 w；w 为 nil 时写出被丢弃。
func NewBuffer(parent context.Context, data []byte, w io.WriteCloser, remote string, markers network.Markers, opts ...transport.Option) *Context {
	ctx, cancel := context.WithCancel(parent)
	var out io.Writer = io.Discard
	var closer io.Closer = nopCloser{}
	if w != nil {
		out, closer = w, w
	}
	return &Context{
		id:        uuid.NewString(),
		remote:    remote,
		kind:      types.TransportUDP,
		openedAt:  time.Now(),
		reader:    transport.NewBufferReader(ctx, data, markers, opts...).Reader,
		writer:    transport.NewWriter(out, markers),
		cache:     NewCache(),
		transport: closer,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ID 实现 network.Connection
func (c *Context) ID() string { return c.id }

// RemoteAddr 实现 network.Connection
func (c *Context) RemoteAddr() string { return c.remote }

// Reader 实现 network.Connection
func (c *Context) Reader() network.MessageReader { return c.reader }

// Writer 实现 network.Connection
func (c *Context) Writer() network.MessageWriter { return c.writer }

// Cache 实现 network.Connection
func (c *Context) Cache() network.Cache { return c.cache }

// Context 实现 network.Connection
func (c *Context) Context() context.Context { return c.ctx }

// Transport 传输类型
func (c *Context) Transport() types.TransportKind { return c.kind }

// OpenedAt 创建时间
func (c *Context) OpenedAt() time.Time { return c.openedAt }

// Markers 读取器使用的标记
func (c *Context) Markers() network.Markers { return c.reader.Markers() }

// Closed 实现 network.Connection
func (c *Context) Closed() bool { return c.closed.Load() }

// Close 实现 network.Connection，可重复调用
func (c *Context) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		_ = c.writer.Close()
		c.closeErr = c.transport.Close()
	})
	return c.closeErr
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
