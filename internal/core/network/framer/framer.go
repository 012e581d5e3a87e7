// Package framer 将原始字节流按起止标记切分为消息
//
// 📦 **逐字节分帧 (Byte-Stream Framer)**
//
// 分帧规则（每推入一个字节执行一次）：
//  1. 起始标记窗口：缓冲区长度小于起始标记长度时，字节必须与起始标记对应位置一致；
//     不一致时回退到"既是起始标记前缀、又是缓冲区加该字节后缀"的最长部分（KMP 失配表），
//     这样 "aab" 这类自重叠标记在 "aaab" 中也能被识别
//  2. 起始标记复位：窗口之后，若字节等于起始标记末字节且缓冲区尾部加上它构成完整起始标记，
//     缓冲区重置为恰好一个起始标记（丢弃之前未完成的数据）
//  3. 追加字节
//  4. 结束标记：缓冲区长度不小于起始+结束标记长度且以结束标记结尾时，交付起止标记之间的载荷并清空
//  5. 超限丢弃：缓冲区超过最大消息长度时清空、计数并回调
//
// Framer 不是并发安全的，只能由一个喂数据的循环持有。
package framer

import (
	"bytes"
	"fmt"

	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// DefaultMaxMessageSize 默认单条消息上限
const DefaultMaxMessageSize = 1 << 20

// Framer 逐字节分帧器
type Framer struct {
	start   []byte
	end     []byte
	maxSize int
	// fail[i] 为 start[:i+1] 的最长真前缀兼后缀长度
	fail []int

	buf     []byte
	dropped uint64

	onMessage func([]byte)
	onError   func(error)
	onDrop    func(int)
	logger    logInterface.Logger
}

// Option 分帧器选项
type Option func(*Framer)

// WithMaxMessageSize 设置单条消息上限（含标记），n <= 0 时忽略
func WithMaxMessageSize(n int) Option {
	return func(f *Framer) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithMessageHandler 设置消息回调，回调拿到的切片归调用方所有
func WithMessageHandler(fn func([]byte)) Option {
	return func(f *Framer) { f.onMessage = fn }
}

// WithErrorHandler 设置推入过程中异常的回调
func WithErrorHandler(fn func(error)) Option {
	return func(f *Framer) { f.onError = fn }
}

// WithDropHandler 设置超限丢弃回调，参数为被丢弃的字节数
func WithDropHandler(fn func(dropped int)) Option {
	return func(f *Framer) { f.onDrop = fn }
}

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(f *Framer) { f.logger = logger }
}

// New 创建分帧器，结束标记为空时使用 CR LF
func New(markers network.Markers, opts ...Option) *Framer {
	m := markers.Normalize()
	f := &Framer{
		start:   m.Start,
		end:     m.End,
		maxSize: DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.fail = failureTable(f.start)
	f.buf = make([]byte, 0, min(f.maxSize, 256))
	return f
}

// failureTable 计算起始标记的 KMP 失配表
func failureTable(p []byte) []int {
	fail := make([]int, len(p))
	k := 0
	for i := 1; i < len(p); i++ {
		for k > 0 && p[i] != p[k] {
			k = fail[k-1]
		}
		if p[i] == p[k] {
			k++
		}
		fail[i] = k
	}
	return fail
}

// Markers 返回分帧器使用的标记
func (f *Framer) Markers() network.Markers {
	return network.Markers{Start: f.start, End: f.end}.Normalize()
}

// Push 依次推入 data 中的每个字节
//
// 回调或分帧过程中的 panic 被恢复并交给错误回调，缓冲区随之清空，之后的推入照常工作。
func (f *Framer) Push(data []byte) {
	for i := 0; i < len(data); {
		i = f.pushFrom(data, i)
	}
}

// PushByte 推入单个字节
func (f *Framer) PushByte(b byte) {
	f.pushFrom([]byte{b}, 0)
}

// pushFrom 从 i 开始推入，返回下一个待处理的位置；发生 panic 时跳过出错的字节
func (f *Framer) pushFrom(data []byte, i int) (next int) {
	defer func() {
		if r := recover(); r != nil {
			f.buf = f.buf[:0]
			next = i + 1
			err := fmt.Errorf("分帧处理异常: %v", r)
			if f.logger != nil {
				f.logger.Errorf("%v", err)
			}
			if f.onError != nil {
				f.onError(err)
			}
		}
	}()
	for ; i < len(data); i++ {
		f.apply(data[i])
	}
	return i
}

func (f *Framer) apply(b byte) {
	ls := len(f.start)

	if len(f.buf) < ls {
		if k := len(f.buf); f.start[k] != b {
			for k > 0 && f.start[k] != b {
				k = f.fail[k-1]
			}
			if f.start[k] != b {
				f.buf = f.buf[:0]
				return
			}
			f.buf = append(f.buf[:0], f.start[:k]...)
		}
	} else if ls > 0 && b == f.start[ls-1] && f.tailIsStartPrefix() {
		f.buf = append(f.buf[:0], f.start...)
		return
	}

	f.buf = append(f.buf, b)

	if len(f.buf) >= ls+len(f.end) && bytes.HasSuffix(f.buf, f.end) {
		payload := make([]byte, len(f.buf)-ls-len(f.end))
		copy(payload, f.buf[ls:])
		f.buf = f.buf[:0]
		if f.onMessage != nil {
			f.onMessage(payload)
		}
		return
	}

	if len(f.buf) > f.maxSize {
		n := len(f.buf)
		f.buf = f.buf[:0]
		f.dropped++
		if f.logger != nil {
			f.logger.Warnf("消息超过上限被丢弃: size=%d max=%d", n, f.maxSize)
		}
		if f.onDrop != nil {
			f.onDrop(n)
		}
	}
}

// tailIsStartPrefix 缓冲区尾部是否等于起始标记去掉末字节
func (f *Framer) tailIsStartPrefix() bool {
	return bytes.HasSuffix(f.buf, f.start[:len(f.start)-1])
}

// Buffered 返回当前未完成消息的副本
func (f *Framer) Buffered() []byte {
	return append([]byte(nil), f.buf...)
}

// Reset 丢弃未完成的消息
func (f *Framer) Reset() {
	f.buf = f.buf[:0]
}

// Dropped 超限丢弃的次数
func (f *Framer) Dropped() uint64 {
	return f.dropped
}
