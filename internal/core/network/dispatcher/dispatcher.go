// Package dispatcher 连接分派器
//
// 每个连接独占一个 goroutine：读取一条消息 → 前置过滤器 → 处理器 → 后置过滤器 →
// 写回非空响应 → 继续读取。同一连接内严格先进先出，响应写出后才读取下一条。
// 处理器错误交给控制器声明的异常策略（默认记录后继续）；无论以何种方式退出，
// 连接总会被关闭。
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weisyn/standpoint/internal/core/network/connection"
	"github.com/weisyn/standpoint/internal/core/network/framer"
	"github.com/weisyn/standpoint/internal/core/network/transport"
	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
	"github.com/weisyn/standpoint/pkg/types"
)

// Dispatcher 实现 network.Dispatcher
type Dispatcher struct {
	factory        network.ControllerFactory
	markers        network.Markers
	defaultMarkers network.Markers
	maxMessageSize int
	readerOpts     []transport.Option

	logger  logInterface.Logger
	metrics metricsiface.NetworkRecorder
	bus     event.EventBus

	active   atomic.Int64
	accepted atomic.Uint64
	handled  atomic.Uint64
	dropped  atomic.Uint64
	wg       sync.WaitGroup
}

var _ network.Dispatcher = (*Dispatcher)(nil)

// New 创建分派器
//
// 构造时从工厂取一个控制器实例校验注册形状，并确定分帧标记：
// 控制器声明的标记优先，其次是网络配置，最后是默认标记。
func New(factory network.ControllerFactory, opts ...Option) (*Dispatcher, error) {
	if factory == nil {
		return nil, ErrNilFactory
	}
	d := &Dispatcher{
		factory:        factory,
		defaultMarkers: network.DefaultMarkers(),
		maxMessageSize: framer.DefaultMaxMessageSize,
		metrics:        metricsiface.Nop{},
	}
	for _, opt := range opts {
		opt(d)
	}

	sample, err := factory()
	if err != nil {
		return nil, fmt.Errorf("创建控制器失败: %w", err)
	}
	reg := sample.Registration()
	if err := Validate(reg); err != nil {
		return nil, err
	}
	if reg.Markers != nil {
		d.markers = reg.Markers.Normalize()
	} else {
		d.markers = d.defaultMarkers.Normalize()
	}
	return d, nil
}

// Validate 校验控制器注册：必须且只能声明一个处理器
func Validate(reg network.ControllerRegistration) error {
	switch {
	case reg.Handle == nil && reg.HandleAsync == nil:
		return fmt.Errorf("%w: 未声明处理器", ErrInvalidController)
	case reg.Handle != nil && reg.HandleAsync != nil:
		return fmt.Errorf("%w: 同时声明了同步与异步处理器", ErrInvalidController)
	}
	return nil
}

// Markers 实现 network.Dispatcher
func (d *Dispatcher) Markers() network.Markers {
	return d.markers.Normalize()
}

// Active 实现 network.Dispatcher
func (d *Dispatcher) Active() int {
	return int(d.active.Load())
}

// Accepted 累计接入连接数
func (d *Dispatcher) Accepted() uint64 { return d.accepted.Load() }

// Handled 累计处理消息数
func (d *Dispatcher) Handled() uint64 { return d.handled.Load() }

// Dropped 累计超限丢弃的报文数
func (d *Dispatcher) Dropped() uint64 { return d.dropped.Load() }

// Wait 等待所有在途连接结束，ctx 先结束时返回 ctx.Err()
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve 实现 network.Dispatcher
func (d *Dispatcher) Serve(ctx context.Context, conn net.Conn) {
	var id atomic.Value
	opts := append(append([]transport.Option{}, d.readerOpts...),
		transport.WithLogger(d.logger),
		transport.WithDropHandler(func(n int) {
			connID, _ := id.Load().(string)
			d.onFrameDropped(connID, n)
		}),
	)
	c := connection.NewTCP(ctx, conn, d.markers, opts...)
	id.Store(c.ID())
	d.ServeConnection(ctx, c)
}

// ReaderOptions 返回构造连接上下文时应使用的读取器选项（数据报服务使用）
func (d *Dispatcher) ReaderOptions(connID func() string) []transport.Option {
	return append(append([]transport.Option{}, d.readerOpts...),
		transport.WithLogger(d.logger),
		transport.WithDropHandler(func(n int) { d.onFrameDropped(connID(), n) }),
	)
}

// ServeConnection 实现 network.Dispatcher
func (d *Dispatcher) ServeConnection(ctx context.Context, conn network.Connection) {
	d.wg.Add(1)
	defer d.wg.Done()

	kind := transportOf(conn)
	ev := &types.ConnectionEvent{
		ID:         conn.ID(),
		RemoteAddr: conn.RemoteAddr(),
		Transport:  kind,
		OpenedAt:   time.Now(),
	}
	d.active.Add(1)
	d.accepted.Add(1)
	d.metrics.ConnectionOpened(string(kind))
	d.publish(event.EventTypeConnectionOpened, ev)
	d.debugf("连接接入: id=%s remote=%s transport=%s", ev.ID, ev.RemoteAddr, kind)

	var exitErr error
	defer func() {
		if r := recover(); r != nil {
			exitErr = fmt.Errorf("连接处理异常: %v", r)
			d.errorf("连接 %s 处理异常: %v", ev.ID, r)
		}
		_ = conn.Close()
		d.active.Add(-1)

		closed := *ev
		closed.ClosedAt = time.Now()
		if exitErr != nil {
			closed.Err = exitErr.Error()
		}
		d.metrics.ConnectionClosed(string(kind), closed.Duration())
		d.publish(event.EventTypeConnectionClosed, &closed)
		d.debugf("连接关闭: id=%s messages=%d", closed.ID, closed.Messages)
	}()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	exitErr = d.serve(conn, kind, ev)
}

// serve 读-分派-写循环，返回导致退出的错误（正常结束返回 nil）
func (d *Dispatcher) serve(conn network.Connection, kind types.TransportKind, ev *types.ConnectionEvent) error {
	controller, err := d.factory()
	if err != nil {
		d.errorf("连接 %s 创建控制器失败: %v", conn.ID(), err)
		return err
	}
	reg := controller.Registration()
	if err := Validate(reg); err != nil {
		d.errorf("连接 %s 控制器注册无效: %v", conn.ID(), err)
		return err
	}

	ctx := conn.Context()
	for {
		msg, err := conn.Reader().ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			d.debugf("连接 %s 读取结束: %v", conn.ID(), err)
			return err
		}

		began := time.Now()
		resp, err := d.handle(ctx, conn, reg, msg)
		ev.Messages++
		d.handled.Add(1)
		if err != nil {
			d.metrics.HandlerError(string(kind))
			if d.onHandlerError(ctx, conn, reg, err) == network.ActionClose {
				return err
			}
			continue
		}

		if len(resp) > 0 {
			if err := conn.Writer().WriteMessage(resp); err != nil {
				d.debugf("连接 %s 写出失败: %v", conn.ID(), err)
				return err
			}
		}
		d.metrics.MessageHandled(string(kind), time.Since(began))
	}
}

// handle 执行过滤器与处理器，处理器 panic 视为处理器错误
func (d *Dispatcher) handle(ctx context.Context, conn network.Connection, reg network.ControllerRegistration, msg []byte) (resp []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("处理器异常: %v", r)
		}
	}()

	for _, f := range reg.Filters {
		if msg, err = f.Before(ctx, conn, msg); err != nil {
			return nil, err
		}
	}

	if reg.Handle != nil {
		resp, err = reg.Handle(ctx, conn, msg)
	} else {
		resp, err = awaitResponse(ctx, reg.HandleAsync(ctx, conn, msg))
	}
	if err != nil {
		return nil, err
	}

	for _, f := range reg.Filters {
		if resp, err = f.After(ctx, conn, msg, resp); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

func awaitResponse(ctx context.Context, ch <-chan network.Response) ([]byte, error) {
	if ch == nil {
		return nil, nil
	}
	select {
	case r, ok := <-ch:
		if !ok {
			return nil, nil
		}
		return r.Payload, r.Err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrNoResponse, ctx.Err())
	}
}

func (d *Dispatcher) onHandlerError(ctx context.Context, conn network.Connection, reg network.ControllerRegistration, err error) network.ErrorAction {
	if reg.OnError == nil {
		d.warnf("连接 %s 处理消息失败: %v", conn.ID(), err)
		return network.ActionContinue
	}
	return reg.OnError(ctx, conn, err)
}

func (d *Dispatcher) onFrameDropped(connID string, n int) {
	d.dropped.Add(1)
	d.metrics.FrameDropped(n)
	d.publish(event.EventTypeFrameDropped, &types.FrameDropEvent{
		ConnectionID: connID,
		DroppedBytes: n,
		MaxSize:      d.maxMessageSize,
		At:           time.Now(),
	})
}

func (d *Dispatcher) publish(t event.EventType, arg interface{}) {
	if d.bus != nil {
		d.bus.Publish(t, arg)
	}
}

func transportOf(conn network.Connection) types.TransportKind {
	if k, ok := conn.(interface{ Transport() types.TransportKind }); ok {
		return k.Transport()
	}
	return types.TransportMemory
}

func (d *Dispatcher) debugf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Debugf(format, args...)
	}
}

func (d *Dispatcher) warnf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Warnf(format, args...)
	}
}

func (d *Dispatcher) errorf(format string, args ...interface{}) {
	if d.logger != nil {
		d.logger.Errorf(format, args...)
	}
}
