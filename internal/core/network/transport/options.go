package transport

import (
	"time"

	"github.com/weisyn/standpoint/internal/core/network/framer"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
)

const (
	// DefaultBufferSize 流读取缓冲区大小
	DefaultBufferSize = 4096

	// DefaultPollInterval 无数据时的轮询间隔
	DefaultPollInterval = 10 * time.Millisecond
)

// Options 读取器选项
type Options struct {
	BufferSize     int
	PollInterval   time.Duration
	MaxMessageSize int
	Logger         logInterface.Logger
	OnDrop         func(dropped int)
}

// Option 读取器选项函数
type Option func(*Options)

// WithBufferSize 设置流读取缓冲区大小
func WithBufferSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.BufferSize = n
		}
	}
}

// WithPollInterval 设置轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.PollInterval = d
		}
	}
}

// WithMaxMessageSize 设置单条消息上限
func WithMaxMessageSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxMessageSize = n
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithDropHandler 设置超限丢弃回调
func WithDropHandler(fn func(dropped int)) Option {
	return func(o *Options) { o.OnDrop = fn }
}

func buildOptions(opts []Option) Options {
	o := Options{
		BufferSize:     DefaultBufferSize,
		PollInterval:   DefaultPollInterval,
		MaxMessageSize: framer.DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
