// Package udp 数据报服务
//
// 每个数据报构造为一个内存缓冲连接上下文，交给与 TCP 相同的分派器处理；
// 响应写回数据报的来源地址。数据报处理完毕后连接随即关闭。
package udp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/weisyn/standpoint/internal/core/network/connection"
	"github.com/weisyn/standpoint/internal/core/network/transport"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// maxDatagramSize 单个 UDP 数据报的最大长度
const maxDatagramSize = 64 * 1024

var (
	// ErrAlreadyRunning 服务不处于停止状态
	ErrAlreadyRunning = fmt.Errorf("%w: 数据报服务已在运行", network.ErrInvalidOperation)

	// ErrDisposed 服务已释放
	ErrDisposed = fmt.Errorf("%w: 数据报服务已释放", network.ErrInvalidOperation)
)

// Dispatcher 数据报服务依赖的分派器，在 network.Dispatcher 之上提供读取器选项
type Dispatcher interface {
	network.Dispatcher

	// ReaderOptions 构造连接上下文时使用的读取器选项，connID 在连接创建后才可用
	ReaderOptions(connID func() string) []transport.Option
}

// Server UDP 数据报服务
type Server struct {
	dispatcher Dispatcher
	logger     logInterface.Logger
	host       string
	listen     func(network, address string) (net.PacketConn, error)

	state    atomic.Int32
	disposed atomic.Bool

	mu       sync.Mutex
	conn     net.PacketConn
	cancel   context.CancelFunc
	loopDone chan struct{}
	inflight sync.WaitGroup
}

// Option 服务选项
type Option func(*Server)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithHost 设置监听主机
func WithHost(host string) Option {
	return func(s *Server) { s.host = host }
}

// NewServer 创建数据报服务
func NewServer(d Dispatcher, opts ...Option) *Server {
	s := &Server{dispatcher: d, listen: net.ListenPacket}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(network.StateStopped))
	return s
}

// State 当前状态
func (s *Server) State() network.ListenerState {
	return network.ListenerState(s.state.Load())
}

// Addr 实际监听地址
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Start 在指定端口开始接收数据报
func (s *Server) Start(port int) error {
	if s.disposed.Load() {
		return ErrDisposed
	}
	if !s.state.CompareAndSwap(int32(network.StateStopped), int32(network.StateStarting)) {
		return ErrAlreadyRunning
	}

	pc, err := s.listen("udp", net.JoinHostPort(s.host, strconv.Itoa(port)))
	if err != nil {
		s.state.Store(int32(network.StateStopped))
		return fmt.Errorf("监听 UDP 端口 %d 失败: %w", port, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.mu.Lock()
	s.conn, s.cancel, s.loopDone = pc, cancel, done
	s.mu.Unlock()

	go s.receiveLoop(ctx, pc, done)
	s.state.Store(int32(network.StateListening))

	if s.disposed.Load() {
		_ = s.Stop()
		return ErrDisposed
	}
	if s.logger != nil {
		s.logger.Infof("UDP 服务已启动: %s", pc.LocalAddr())
	}
	return nil
}

func (s *Server) receiveLoop(ctx context.Context, pc net.PacketConn, done chan struct{}) {
	defer close(done)
	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := pc.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			if s.logger != nil {
				s.logger.Warnf("接收数据报失败: %v", err)
			}
			continue
		}

		data := append([]byte(nil), buf[:n]...)
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.serveDatagram(ctx, pc, addr, data)
		}()
	}
}

func (s *Server) serveDatagram(ctx context.Context, pc net.PacketConn, addr net.Addr, data []byte) {
	var id atomic.Value
	c := connection.NewBuffer(ctx, data, &replyWriter{pc: pc, addr: addr}, addr.String(),
		s.dispatcher.Markers(),
		s.dispatcher.ReaderOptions(func() string {
			v, _ := id.Load().(string)
			return v
		})...,
	)
	id.Store(c.ID())
	s.dispatcher.ServeConnection(ctx, c)
}

// Stop 停止服务，未运行时直接返回
func (s *Server) Stop() error {
	if !s.state.CompareAndSwap(int32(network.StateListening), int32(network.StateStopping)) {
		return nil
	}
	s.mu.Lock()
	pc, cancel, done := s.conn, s.cancel, s.loopDone
	s.mu.Unlock()

	cancel()
	err := pc.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	<-done
	s.inflight.Wait()

	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	s.state.Store(int32(network.StateStopped))
	return err
}

// Close 停止并释放
func (s *Server) Close() error {
	s.disposed.Store(true)
	return s.Stop()
}

// replyWriter 将响应写回数据报来源；关闭不影响共享的套接字
type replyWriter struct {
	pc   net.PacketConn
	addr net.Addr
}

func (w *replyWriter) Write(p []byte) (int, error) {
	return w.pc.WriteTo(p, w.addr)
}

func (w *replyWriter) Close() error { return nil }
