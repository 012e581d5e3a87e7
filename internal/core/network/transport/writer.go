package transport

import (
	"errors"
	"io"
	"sync"

	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// ErrWriterClosed 写入器已关闭
var ErrWriterClosed = errors.New("写入器已关闭")

type flusher interface {
	Flush() error
}

// Writer 为每条消息加上起止标记后一次性写出
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	start  []byte
	end    []byte
	closed bool
}

var _ network.MessageWriter = (*Writer)(nil)

// NewWriter 创建写入器，结束标记为空时使用 CR LF
func NewWriter(w io.Writer, markers network.Markers) *Writer {
	m := markers.Normalize()
	return &Writer{w: w, start: m.Start, end: m.End}
}

// WriteMessage 实现 network.MessageWriter
func (w *Writer) WriteMessage(payload []byte) error {
	frame := make([]byte, 0, len(w.start)+len(payload)+len(w.end))
	frame = append(frame, w.start...)
	frame = append(frame, payload...)
	frame = append(frame, w.end...)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if _, err := w.w.Write(frame); err != nil {
		return err
	}
	if f, ok := w.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// Close 关闭写入器，不关闭底层 io.Writer
func (w *Writer) Close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return nil
}
