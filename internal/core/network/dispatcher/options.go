package dispatcher

import (
	netconfig "github.com/weisyn/standpoint/internal/config/network"
	"github.com/weisyn/standpoint/internal/core/network/transport"
	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// Option 分派器选项
type Option func(*Dispatcher)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithMetrics 设置指标上报
func WithMetrics(m metricsiface.NetworkRecorder) Option {
	return func(d *Dispatcher) {
		if m != nil {
			d.metrics = m
		}
	}
}

// WithEventBus 设置事件总线
func WithEventBus(bus event.EventBus) Option {
	return func(d *Dispatcher) { d.bus = bus }
}

// WithNetworkOptions 使用网络配置：控制器未声明标记时采用配置中的标记，并设置读取参数
func WithNetworkOptions(o *netconfig.NetworkOptions) Option {
	return func(d *Dispatcher) {
		if o == nil {
			return
		}
		d.defaultMarkers = network.Markers{Start: o.StartMarker, End: o.EndMarker}
		d.maxMessageSize = o.MaxMessageSize
		d.readerOpts = append(d.readerOpts,
			transport.WithBufferSize(o.ReadBufferSize),
			transport.WithPollInterval(o.PollInterval),
			transport.WithMaxMessageSize(o.MaxMessageSize),
		)
	}
}

// WithReaderOptions 追加读取器选项
func WithReaderOptions(opts ...transport.Option) Option {
	return func(d *Dispatcher) { d.readerOpts = append(d.readerOpts, opts...) }
}
