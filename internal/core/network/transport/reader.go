// Package transport 提供消息读取器与写入器
//
// 读取器由一个后台喂数据循环和一个 Framer 组成，门（Gate）实现背压：
// 只有存在等待者时门才打开，喂数据循环才继续从数据源读取；一条消息交付后若
// 已无等待者，门随即关闭。未被取走的消息按先进先出排队。
package transport

import (
	"context"
	"io"
	"sync"

	"github.com/weisyn/standpoint/internal/core/network/framer"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// Reader 读取器公共部分
type Reader struct {
	ctx    context.Context
	gate   *Gate
	framer *framer.Framer
	logger logInterface.Logger

	mu      sync.Mutex
	queue   [][]byte
	waiting int
	changed chan struct{}
	ended   bool
	endErr  error
	done    chan struct{}
}

var _ network.MessageReader = (*Reader)(nil)

func newReader(ctx context.Context, markers network.Markers, o Options) *Reader {
	r := &Reader{
		ctx:     ctx,
		gate:    NewGate(false),
		logger:  o.Logger,
		changed: make(chan struct{}),
		done:    make(chan struct{}),
	}
	r.framer = framer.New(markers,
		framer.WithMaxMessageSize(o.MaxMessageSize),
		framer.WithMessageHandler(r.deliver),
		framer.WithDropHandler(o.OnDrop),
		framer.WithErrorHandler(r.onFramerError),
		framer.WithLogger(o.Logger),
	)
	return r
}

// Markers 读取器使用的标记
func (r *Reader) Markers() network.Markers {
	return r.framer.Markers()
}

// Done 数据源结束时关闭
func (r *Reader) Done() <-chan struct{} {
	return r.done
}

// ReadMessage 实现 network.MessageReader
func (r *Reader) ReadMessage(ctx context.Context) ([]byte, error) {
	for {
		r.mu.Lock()
		if len(r.queue) > 0 {
			msg := r.queue[0]
			r.queue[0] = nil
			r.queue = r.queue[1:]
			r.mu.Unlock()
			return msg, nil
		}
		if r.ended {
			err := r.endErr
			r.mu.Unlock()
			return nil, err
		}
		changed := r.changed
		r.waiting++
		r.gate.Set()
		r.mu.Unlock()

		var err error
		select {
		case <-changed:
		case <-ctx.Done():
			err = ctx.Err()
		case <-r.ctx.Done():
			err = r.ctx.Err()
		}

		r.mu.Lock()
		r.waiting--
		if r.waiting == 0 && len(r.queue) == 0 {
			r.gate.Reset()
		}
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
}

// deliver 由喂数据循环通过 Framer 回调
func (r *Reader) deliver(msg []byte) {
	r.mu.Lock()
	r.queue = append(r.queue, msg)
	if len(r.queue) >= r.waiting {
		r.gate.Reset()
	}
	r.broadcastLocked()
	r.mu.Unlock()
}

// finish 标记数据源结束，err 为 nil 时记为 io.EOF
func (r *Reader) finish(err error) {
	if err == nil {
		err = io.EOF
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ended {
		return
	}
	r.ended = true
	r.endErr = err
	r.broadcastLocked()
	close(r.done)
}

func (r *Reader) broadcastLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Reader) onFramerError(err error) {
	if r.logger != nil {
		r.logger.Warnf("读取器分帧异常: %v", err)
	}
}
