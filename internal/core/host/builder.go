package host

import (
	"errors"
	"fmt"

	"github.com/weisyn/standpoint/internal/config"
	"github.com/weisyn/standpoint/internal/core/asyncloop"
	"github.com/weisyn/standpoint/internal/core/feature"
	"github.com/weisyn/standpoint/internal/core/infrastructure/clock"
	"github.com/weisyn/standpoint/internal/core/infrastructure/log"
	configiface "github.com/weisyn/standpoint/pkg/interfaces/config"
	hostiface "github.com/weisyn/standpoint/pkg/interfaces/host"
	infraClock "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/clock"
	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
)

// ErrAlreadyBuilt Build 只能调用一次
var ErrAlreadyBuilt = errors.New("应用已构建")

// Options 应用选项，注册到服务表供 Feature 读取
type Options struct {
	ApplicationName string
}

// Builder 应用构建器
type Builder struct {
	provider configiface.Provider
	logger   logInterface.Logger
	bus      event.EventBus
	metrics  metricsiface.Recorder
	clock    infraClock.Clock

	settings map[string]string
	services []func(*feature.Services) error
	features []func(*feature.Collection, configiface.Provider) error
	built    bool
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{settings: make(map[string]string)}
}

// UseConfig 设置配置提供者
func (b *Builder) UseConfig(p configiface.Provider) *Builder {
	b.provider = p
	return b
}

// UseLogger 设置日志记录器
func (b *Builder) UseLogger(logger logInterface.Logger) *Builder {
	b.logger = logger
	return b
}

// UseEventBus 设置事件总线
func (b *Builder) UseEventBus(bus event.EventBus) *Builder {
	b.bus = bus
	return b
}

// UseMetrics 设置指标上报
func (b *Builder) UseMetrics(m metricsiface.Recorder) *Builder {
	b.metrics = m
	return b
}

// UseClock 设置时钟
func (b *Builder) UseClock(c infraClock.Clock) *Builder {
	b.clock = c
	return b
}

// UseSetting 覆盖一个配置项，Build 时写入配置提供者
func (b *Builder) UseSetting(key, value string) *Builder {
	b.settings[key] = value
	return b
}

// GetSetting 读取配置项：先查 UseSetting 的覆盖，再查配置提供者
func (b *Builder) GetSetting(key string) (string, bool) {
	if v, ok := b.settings[key]; ok {
		return v, true
	}
	if b.provider != nil {
		return b.provider.Get(key)
	}
	return "", false
}

// ConfigureServices 追加服务配置回调，在 Feature 构造之前执行
func (b *Builder) ConfigureServices(fn func(*feature.Services) error) *Builder {
	b.services = append(b.services, fn)
	return b
}

// ConfigureFeatures 追加 Feature 注册回调
func (b *Builder) ConfigureFeatures(fn func(*feature.Collection, configiface.Provider) error) *Builder {
	b.features = append(b.features, fn)
	return b
}

// Build 构建应用
//
// 先把日志、配置、时钟、生命周期、周期任务工厂与应用选项登记到服务表，
// 再执行服务配置回调、注册并构造 Feature，最后创建执行器。
func (b *Builder) Build() (*Application, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	provider := b.provider
	if provider == nil {
		provider = config.NewProviderFromMap(nil)
	}
	for k, v := range b.settings {
		provider.Set(k, v)
	}
	hostOptions := provider.GetHost()

	baseLogger := log.OrGlobal(b.logger)
	hostLogger := log.NewModuleLogger(baseLogger, "host")
	clk := b.clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	recorder := b.metrics
	if recorder == nil {
		recorder = metricsiface.Nop{}
	}

	lifetime := NewLifetime(b.bus, hostLogger)
	loops := asyncloop.NewFactory(log.NewModuleLogger(baseLogger, "asyncloop"), asyncloop.WithMetrics(recorder))
	options := Options{ApplicationName: hostOptions.ApplicationName}

	// 应用实例先行登记，字段在构造完成后填充，Feature 只在运行期使用它
	app := &Application{}
	services := feature.NewServices()
	if err := registerCore(services, baseLogger, provider, clk, lifetime, loops, options, b.bus, recorder); err != nil {
		return nil, err
	}
	if err := errors.Join(
		feature.AddInstance[hostiface.Application](services, app),
		feature.AddInstance[hostiface.StatsSource](services, app),
	); err != nil {
		return nil, err
	}
	for i, fn := range b.services {
		if err := fn(services); err != nil {
			return nil, fmt.Errorf("第 %d 个服务配置失败: %w", i+1, err)
		}
	}

	collection := feature.NewCollection()
	for _, fn := range b.features {
		if err := fn(collection, provider); err != nil {
			return nil, fmt.Errorf("注册 feature 失败: %w", err)
		}
	}
	features, err := collection.Build(services)
	if err != nil {
		return nil, err
	}

	executor := feature.NewExecutor(features, log.NewModuleLogger(baseLogger, "feature"),
		feature.WithNames(collection.Names()),
		feature.WithStartPolicy(hostOptions.StartPolicy),
		feature.WithMetrics(recorder),
	)
	if err := feature.AddInstance[*feature.Executor](services, executor); err != nil {
		return nil, err
	}

	app.options = *hostOptions
	app.services = services
	app.executor = executor
	app.lifetime = lifetime
	app.loops = loops
	app.clock = clk
	app.logger = hostLogger
	return app, nil
}

func registerCore(
	s *feature.Services,
	logger logInterface.Logger,
	provider configiface.Provider,
	clk infraClock.Clock,
	lifetime *Lifetime,
	loops *asyncloop.Factory,
	options Options,
	bus event.EventBus,
	recorder metricsiface.Recorder,
) error {
	errs := []error{
		feature.AddInstance[logInterface.Logger](s, logger),
		feature.AddInstance[configiface.Provider](s, provider),
		feature.AddInstance[infraClock.Clock](s, clk),
		feature.AddInstance[*Lifetime](s, lifetime),
		feature.AddInstance[hostiface.Lifetime](s, lifetime),
		feature.AddInstance[*asyncloop.Factory](s, loops),
		feature.AddInstance[Options](s, options),
		feature.AddInstance[metricsiface.Recorder](s, recorder),
	}
	if bus != nil {
		errs = append(errs, feature.AddInstance[event.EventBus](s, bus))
	}
	return errors.Join(errs...)
}
