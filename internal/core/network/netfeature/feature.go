// Package netfeature 网络 Feature
//
// 将分派器、TCP 监听服务、可选的 UDP 数据报服务与控制器工厂登记到服务表，
// 并随宿主启动/停止监听。
package netfeature

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	netconfig "github.com/weisyn/standpoint/internal/config/network"
	"github.com/weisyn/standpoint/internal/core/feature"
	"github.com/weisyn/standpoint/internal/core/infrastructure/log"
	"github.com/weisyn/standpoint/internal/core/network/dispatcher"
	"github.com/weisyn/standpoint/internal/core/network/journal"
	"github.com/weisyn/standpoint/internal/core/network/tcp"
	"github.com/weisyn/standpoint/internal/core/network/udp"
	configiface "github.com/weisyn/standpoint/pkg/interfaces/config"
	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// Name Feature 注册名
const Name = "NetworkFeature"

// NetworkFeature 网络 Feature
type NetworkFeature struct {
	options    *netconfig.NetworkOptions
	dispatcher *dispatcher.Dispatcher
	listener   *tcp.Listener
	udp        *udp.Server
	journal    *journal.Journal // 无事件总线时为 nil
	logger     logInterface.Logger
}

// Use 注册网络 Feature
//
// 配置回调登记：网络配置（实例）、控制器（瞬时）、分派器、TCP 监听服务、UDP 服务（单例），
// 存在事件总线时再登记连接日志（单例）。
func Use(c *feature.Collection, provider configiface.Provider, factory network.ControllerFactory) (*feature.Registration, error) {
	if factory == nil {
		return nil, dispatcher.ErrNilFactory
	}
	reg, err := feature.Register(c, Name, newNetworkFeature)
	if err != nil {
		return nil, err
	}
	reg.ConfigureServices(func(s *feature.Services) error {
		return feature.AddInstance[*netconfig.NetworkOptions](s, provider.GetNetwork())
	}).ConfigureServices(func(s *feature.Services) error {
		return feature.AddTransient[network.Controller](s, func(*feature.Services) (network.Controller, error) {
			return factory()
		})
	}).ConfigureServices(func(s *feature.Services) error {
		return feature.AddSingleton[*dispatcher.Dispatcher](s, newDispatcher)
	}).ConfigureServices(func(s *feature.Services) error {
		return feature.AddSingleton[*tcp.Listener](s, newListener)
	}).ConfigureServices(func(s *feature.Services) error {
		return feature.AddSingleton[*udp.Server](s, newUDPServer)
	}).ConfigureServices(func(s *feature.Services) error {
		if !feature.Has[event.EventBus](s) {
			return nil
		}
		return feature.AddSingleton[*journal.Journal](s, newJournal)
	})
	return reg, nil
}

func baseLogger(s *feature.Services) logInterface.Logger {
	logger, err := feature.Resolve[logInterface.Logger](s)
	if err != nil {
		return log.GetLogger()
	}
	return logger
}

func newDispatcher(s *feature.Services) (*dispatcher.Dispatcher, error) {
	options, err := feature.Resolve[*netconfig.NetworkOptions](s)
	if err != nil {
		return nil, err
	}
	opts := []dispatcher.Option{
		dispatcher.WithLogger(log.NewModuleLogger(baseLogger(s), "dispatcher")),
		dispatcher.WithNetworkOptions(options),
	}
	if m, err := feature.Resolve[metricsiface.Recorder](s); err == nil {
		opts = append(opts, dispatcher.WithMetrics(m))
	}
	if feature.Has[event.EventBus](s) {
		opts = append(opts, dispatcher.WithEventBus(feature.MustResolve[event.EventBus](s)))
	}
	return dispatcher.New(func() (network.Controller, error) {
		return feature.Resolve[network.Controller](s)
	}, opts...)
}

func newListener(s *feature.Services) (*tcp.Listener, error) {
	d, err := feature.Resolve[*dispatcher.Dispatcher](s)
	if err != nil {
		return nil, err
	}
	options, err := feature.Resolve[*netconfig.NetworkOptions](s)
	if err != nil {
		return nil, err
	}
	return tcp.NewListener(d,
		tcp.WithLogger(log.NewModuleLogger(baseLogger(s), "tcp")),
		tcp.WithDrainTimeout(options.DrainTimeout),
	), nil
}

func newUDPServer(s *feature.Services) (*udp.Server, error) {
	d, err := feature.Resolve[*dispatcher.Dispatcher](s)
	if err != nil {
		return nil, err
	}
	return udp.NewServer(d, udp.WithLogger(log.NewModuleLogger(baseLogger(s), "udp"))), nil
}

func newJournal(s *feature.Services) (*journal.Journal, error) {
	bus, err := feature.Resolve[event.EventBus](s)
	if err != nil {
		return nil, err
	}
	return journal.New(bus, journal.WithLogger(log.NewModuleLogger(baseLogger(s), "journal"))), nil
}

func newNetworkFeature(s *feature.Services) (*NetworkFeature, error) {
	options, err := feature.Resolve[*netconfig.NetworkOptions](s)
	if err != nil {
		return nil, err
	}
	d, err := feature.Resolve[*dispatcher.Dispatcher](s)
	if err != nil {
		return nil, err
	}
	l, err := feature.Resolve[*tcp.Listener](s)
	if err != nil {
		return nil, err
	}
	u, err := feature.Resolve[*udp.Server](s)
	if err != nil {
		return nil, err
	}
	f := &NetworkFeature{
		options:    options,
		dispatcher: d,
		listener:   l,
		udp:        u,
		logger:     log.NewModuleLogger(baseLogger(s), "network"),
	}
	if feature.Has[*journal.Journal](s) {
		if f.journal, err = feature.Resolve[*journal.Journal](s); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Name 实现 feature.Named
func (f *NetworkFeature) Name() string { return Name }

// Listener TCP 监听服务
func (f *NetworkFeature) Listener() *tcp.Listener { return f.listener }

// UDP 数据报服务
func (f *NetworkFeature) UDP() *udp.Server { return f.udp }

// Dispatcher 分派器
func (f *NetworkFeature) Dispatcher() *dispatcher.Dispatcher { return f.dispatcher }

// Journal 连接日志，无事件总线时为 nil
func (f *NetworkFeature) Journal() *journal.Journal { return f.journal }

// Start 实现 feature.Feature
func (f *NetworkFeature) Start(context.Context) error {
	if f.journal != nil {
		if err := f.journal.Attach(); err != nil {
			return err
		}
	}
	if err := f.listener.Start(f.options.ListeningPort); err != nil {
		return err
	}
	f.logger.Infof("网络服务监听 %s (markers start=%q end=%q)",
		f.listener.Addr(), f.dispatcher.Markers().Start, f.dispatcher.Markers().End)

	if f.options.UDPPort > 0 {
		if err := f.udp.Start(f.options.UDPPort); err != nil {
			_ = f.listener.Stop()
			return fmt.Errorf("启动 UDP 服务失败: %w", err)
		}
		f.logger.Infof("数据报服务监听 %s", f.udp.Addr())
	}
	return nil
}

// Stop 实现 feature.Feature，未启动时同样安全
func (f *NetworkFeature) Stop(context.Context) error {
	err := multierr.Combine(f.udp.Close(), f.listener.Close())
	if f.journal != nil {
		f.journal.Detach()
	}
	return err
}

// AppendFeatureStats 实现 feature.Stats
func (f *NetworkFeature) AppendFeatureStats(b *strings.Builder) {
	b.WriteString("====== Network ======\n")
	addr := "-"
	if a := f.listener.Addr(); a != nil {
		addr = a.String()
	}
	fmt.Fprintf(b, "TCP: %s (%s)", addr, f.listener.State())
	if a := f.udp.Addr(); a != nil {
		fmt.Fprintf(b, "  UDP: %s", a)
	}
	b.WriteByte('\n')
	fmt.Fprintf(b, "Active: %d  Accepted: %d  Messages: %d  Dropped: %d\n",
		f.dispatcher.Active(), f.dispatcher.Accepted(), f.dispatcher.Handled(), f.dispatcher.Dropped())
	if f.journal != nil {
		f.journal.AppendStats(b)
	}
}
