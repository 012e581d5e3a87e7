package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/weisyn/standpoint/internal/config"
	"github.com/weisyn/standpoint/internal/core/feature"
	"github.com/weisyn/standpoint/internal/core/host"
	"github.com/weisyn/standpoint/internal/core/infrastructure/clock"
	"github.com/weisyn/standpoint/internal/core/infrastructure/event"
	"github.com/weisyn/standpoint/internal/core/infrastructure/log"
	"github.com/weisyn/standpoint/internal/core/infrastructure/metrics"
	"github.com/weisyn/standpoint/internal/core/network/echo"
	"github.com/weisyn/standpoint/internal/core/network/netfeature"
	"github.com/weisyn/standpoint/internal/core/status"
	configiface "github.com/weisyn/standpoint/pkg/interfaces/config"
	infraClock "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/clock"
	eventiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
)

// Bootstrap 应用引导程序
//
// fx 负责装配基础设施（配置、日志、事件、时钟、指标），
// 宿主及其 Feature 由 host.Builder 在基础设施之上构建。
type Bootstrap struct {
	opts  *options
	fxApp *fx.App
	app   *host.Application
}

// NewBootstrap 创建引导程序
func NewBootstrap(opts *options) *Bootstrap {
	return &Bootstrap{opts: opts}
}

// SetupInfrastructureLayer 基础设施层模块
func (b *Bootstrap) SetupInfrastructureLayer() []fx.Option {
	return []fx.Option{
		fx.Supply(&config.Options{Sources: b.opts.sources()}),
		config.Module(), // 1. 配置(不依赖其他)
		log.Module(),    // 2. 日志(依赖配置)
		event.Module(),  // 3. 事件总线
		fx.Provide(clock.NewSystemClock),
		metrics.Module(), // 4. 指标(依赖时钟)
	}
}

// SetupApplicationLayer 应用层模块
func (b *Bootstrap) SetupApplicationLayer() []fx.Option {
	return []fx.Option{
		fx.Provide(func(params ApplicationParams) (*host.Application, error) {
			return ProvideApplication(params, b.opts)
		}),
		fx.Invoke(func(app *host.Application) {
			b.app = app
		}),
	}
}

// ApplicationParams 构建宿主所需的基础设施
type ApplicationParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Provider  configiface.Provider
	Logger    logInterface.Logger
	EventBus  eventiface.EventBus
	Metrics   *metrics.Metrics
	Sampler   *metrics.RuntimeSampler
	Clock     infraClock.Clock
}

// ProvideApplication 构建宿主并注册网络与状态服务 Feature
func ProvideApplication(params ApplicationParams, opts *options) (*host.Application, error) {
	controller := opts.controller
	if controller == nil {
		controller = echo.Factory(log.NewModuleLogger(params.Logger, "echo"))
	}

	app, err := host.NewBuilder().
		UseConfig(params.Provider).
		UseLogger(params.Logger).
		UseEventBus(params.EventBus).
		UseMetrics(params.Metrics).
		UseClock(params.Clock).
		ConfigureServices(func(s *feature.Services) error {
			return feature.AddInstance[*metrics.RuntimeSampler](s, params.Sampler)
		}).
		ConfigureFeatures(func(c *feature.Collection, p configiface.Provider) error {
			if _, err := netfeature.Use(c, p, controller); err != nil {
				return err
			}
			_, err := status.Use(c, p)
			return err
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("构建应用失败: %w", err)
	}

	if keys := opts.settingKeys(); len(keys) > 0 {
		params.Logger.Infof("命令行覆盖配置: %v", keys)
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return app.Close()
		},
	})
	return app, nil
}

// CreateFxApp 创建 fx 应用
func (b *Bootstrap) CreateFxApp(extra ...fx.Option) error {
	var modules []fx.Option
	modules = append(modules, b.SetupInfrastructureLayer()...)
	modules = append(modules, b.SetupApplicationLayer()...)
	modules = append(modules, extra...)
	modules = append(modules, fx.NopLogger)

	b.fxApp = fx.New(modules...)
	return b.fxApp.Err()
}

// StartApp 启动基础设施
func (b *Bootstrap) StartApp(ctx context.Context) error {
	if err := b.fxApp.Start(ctx); err != nil {
		return fmt.Errorf("启动应用失败: %w", err)
	}
	return nil
}

// StopApp 停止基础设施（宿主随之释放）
func (b *Bootstrap) StopApp(ctx context.Context) error {
	if err := b.fxApp.Stop(ctx); err != nil {
		return fmt.Errorf("停止应用失败: %w", err)
	}
	return nil
}

// Application 已构建的宿主
func (b *Bootstrap) Application() *host.Application {
	return b.app
}
