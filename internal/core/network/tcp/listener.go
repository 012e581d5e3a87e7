// Package tcp TCP 监听服务
//
// 状态：Stopped → Starting → Listening → Stopping → Stopped。
// 每个接入的连接在独立 goroutine 中交给分派器；Stop 关闭监听套接字并等待接入循环退出，
// Close 之后不可再 Start。
package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

var (
	// ErrAlreadyRunning 监听服务不处于停止状态
	ErrAlreadyRunning = fmt.Errorf("%w: 监听服务已在运行", network.ErrInvalidOperation)

	// ErrDisposed 监听服务已释放
	ErrDisposed = fmt.Errorf("%w: 监听服务已释放", network.ErrInvalidOperation)
)

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Listener 实现 network.Listener
type Listener struct {
	dispatcher network.Dispatcher
	logger     logInterface.Logger
	host       string
	drain      time.Duration
	listen     func(network, address string) (net.Listener, error)

	state    atomic.Int32
	disposed atomic.Bool

	mu       sync.Mutex
	listener net.Listener
	cancel   context.CancelFunc
	loopDone chan struct{}
	conns    sync.WaitGroup
}

var _ network.Listener = (*Listener)(nil)

// Option 监听服务选项
type Option func(*Listener)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(l *Listener) { l.logger = logger }
}

// WithHost 设置监听主机，默认所有地址
func WithHost(host string) Option {
	return func(l *Listener) { l.host = host }
}

// WithDrainTimeout 设置 Stop 时等待在途连接的最长时间，0 表示不等待
func WithDrainTimeout(d time.Duration) Option {
	return func(l *Listener) { l.drain = d }
}

// NewListener 创建监听服务
func NewListener(dispatcher network.Dispatcher, opts ...Option) *Listener {
	l := &Listener{dispatcher: dispatcher, listen: net.Listen}
	for _, opt := range opts {
		opt(l)
	}
	l.state.Store(int32(network.StateStopped))
	return l
}

// State 实现 network.Listener
func (l *Listener) State() network.ListenerState {
	return network.ListenerState(l.state.Load())
}

// Addr 实现 network.Listener
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Start 实现 network.Listener
func (l *Listener) Start(port int) error {
	if l.disposed.Load() {
		return ErrDisposed
	}
	if !l.state.CompareAndSwap(int32(network.StateStopped), int32(network.StateStarting)) {
		return ErrAlreadyRunning
	}

	ln, err := l.listen("tcp", net.JoinHostPort(l.host, strconv.Itoa(port)))
	if err != nil {
		l.state.Store(int32(network.StateStopped))
		return fmt.Errorf("监听端口 %d 失败: %w", port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.mu.Lock()
	l.listener = ln
	l.cancel = cancel
	l.loopDone = done
	l.mu.Unlock()

	go l.acceptLoop(ctx, ln, done)
	l.state.Store(int32(network.StateListening))

	// Close 可能发生在 Starting 期间，此时它的 Stop 不会生效
	if l.disposed.Load() {
		_ = l.Stop()
		return ErrDisposed
	}
	l.infof("TCP 监听已启动: %s", ln.Addr())
	return nil
}

func (l *Listener) acceptLoop(ctx context.Context, ln net.Listener, done chan struct{}) {
	defer close(done)
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			// 文件描述符耗尽等错误可以恢复，退避后重试
			if delay == 0 {
				delay = minAcceptDelay
			} else {
				delay = min(delay*2, maxAcceptDelay)
			}
			l.warnf("接受连接失败，%v 后重试: %v", delay, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			continue
		}
		delay = 0

		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
			_ = tc.SetKeepAlive(true)
		}

		l.conns.Add(1)
		go func() {
			defer l.conns.Done()
			l.dispatcher.Serve(ctx, conn)
		}()
	}
}

// Stop 实现 network.Listener，未运行时直接返回
func (l *Listener) Stop() error {
	if !l.state.CompareAndSwap(int32(network.StateListening), int32(network.StateStopping)) {
		return nil
	}

	l.mu.Lock()
	ln, cancel, done := l.listener, l.cancel, l.loopDone
	l.mu.Unlock()

	cancel()
	err := ln.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	<-done

	if l.drain > 0 {
		ctx, stop := context.WithTimeout(context.Background(), l.drain)
		if werr := l.WaitConnections(ctx); werr != nil {
			l.warnf("等待在途连接超时: %v", werr)
		}
		stop()
	}

	l.mu.Lock()
	l.listener = nil
	l.mu.Unlock()
	l.state.Store(int32(network.StateStopped))
	l.infof("TCP 监听已停止")
	return err
}

// Close 实现 network.Listener
func (l *Listener) Close() error {
	l.disposed.Store(true)
	return l.Stop()
}

// WaitConnections 等待所有连接 goroutine 结束
func (l *Listener) WaitConnections(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Listener) infof(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Infof(format, args...)
	}
}

func (l *Listener) warnf(format string, args ...interface{}) {
	if l.logger != nil {
		l.logger.Warnf(format, args...)
	}
}
