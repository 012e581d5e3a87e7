package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// StreamReader 基于字节流（TCP 连接）的读取器
type StreamReader struct {
	*Reader
	src          io.Reader
	bufferSize   int
	pollInterval time.Duration
}

// NewStreamReader 创建流读取器并启动后台读取循环
//
// 循环在 ctx 取消、数据源返回 EOF 或错误时结束。阻塞中的 Read 由关闭底层连接打断。
func NewStreamReader(ctx context.Context, src io.Reader, markers network.Markers, opts ...Option) *StreamReader {
	o := buildOptions(opts)
	s := &StreamReader{
		Reader:       newReader(ctx, markers, o),
		src:          src,
		bufferSize:   o.BufferSize,
		pollInterval: o.PollInterval,
	}
	go s.loop()
	return s
}

func (s *StreamReader) loop() {
	buf := make([]byte, s.bufferSize)
	for {
		if err := s.gate.Wait(s.ctx); err != nil {
			s.finish(err)
			return
		}

		n, err := s.src.Read(buf)
		if n > 0 {
			s.framer.Push(buf[:n])
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				if !s.sleep() {
					return
				}
				continue
			}
			if s.ctx.Err() != nil {
				err = s.ctx.Err()
			}
			s.finish(err)
			return
		}
		if n == 0 && !s.sleep() {
			return
		}
	}
}

// sleep 等待一个轮询间隔，ctx 取消时结束读取并返回 false
func (s *StreamReader) sleep() bool {
	t := time.NewTimer(s.pollInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.ctx.Done():
		s.finish(s.ctx.Err())
		return false
	}
}
