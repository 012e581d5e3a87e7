// Package host 应用宿主
//
// 🏠 **应用宿主 (Application Host)**
//
// Builder 收集配置、服务与 Feature 注册，Build 得到 Application：
//   - Start：按注册顺序启动 Feature，成功后触发 Started 并开启周期统计日志
//   - Stop：触发 Stopping，停止周期任务，按注册顺序停止 Feature，触发 Stopped
//   - Run：启动后等待 SIGINT/SIGTERM 或 StopApplication，然后停止
package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	ossignal "os/signal"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	hostconfig "github.com/weisyn/standpoint/internal/config/host"
	"github.com/weisyn/standpoint/internal/core/asyncloop"
	"github.com/weisyn/standpoint/internal/core/feature"
	featureiface "github.com/weisyn/standpoint/pkg/interfaces/feature"
	hostiface "github.com/weisyn/standpoint/pkg/interfaces/host"
	infraClock "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/clock"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
)

// PeriodicLogLoop 周期统计日志任务名
const PeriodicLogLoop = "PeriodicLog"

var (
	// ErrDisposed 应用已释放
	ErrDisposed = errors.New("应用已释放")

	// ErrAlreadyStarted 应用已启动
	ErrAlreadyStarted = errors.New("应用已启动")
)

// Application 实现 host.Application
type Application struct {
	options  hostconfig.HostOptions
	services *feature.Services
	executor *feature.Executor
	lifetime *Lifetime
	loops    *asyncloop.Factory
	clock    infraClock.Clock
	logger   logInterface.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	stopErr error
	closed  atomic.Bool
}

var _ hostiface.Application = (*Application)(nil)

// Name 应用名称
func (a *Application) Name() string { return a.options.ApplicationName }

// Lifetime 实现 host.Application
func (a *Application) Lifetime() hostiface.Lifetime { return a.lifetime }

// Services 服务表
func (a *Application) Services() *feature.Services { return a.services }

// Executor Feature 执行器
func (a *Application) Executor() *feature.Executor { return a.executor }

// Loops 周期任务工厂
func (a *Application) Loops() *asyncloop.Factory { return a.loops }

// Start 实现 host.Application
func (a *Application) Start(ctx context.Context) error {
	if a.closed.Load() {
		return ErrDisposed
	}
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrAlreadyStarted
	}
	a.started = true
	a.mu.Unlock()

	a.logger.Infof("应用 %s 启动中 (feature=%d, policy=%s)",
		a.Name(), len(a.executor.Features()), a.executor.Policy())
	began := a.clock.Now()
	if err := a.executor.Start(ctx); err != nil {
		a.logger.Errorf("应用 %s 启动失败: %v", a.Name(), err)
		return err
	}

	a.lifetime.NotifyStarted()
	a.logger.Infof("应用 %s 已启动，耗时 %s", a.Name(), a.clock.Since(began).Truncate(time.Millisecond))

	if a.options.StatsInterval > 0 {
		a.loops.Run(a.lifetime.StoppingContext(), PeriodicLogLoop, func(context.Context) error {
			a.logger.Info(a.StatsSnapshot())
			return nil
		}, asyncloop.WithRepeat(a.options.StatsInterval), asyncloop.WithStartAfter(a.options.StatsDelay))
	}
	return nil
}

// Stop 实现 host.Application，可重复调用，后续调用返回首次的结果
func (a *Application) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped {
		err := a.stopErr
		a.mu.Unlock()
		return err
	}
	a.stopped = true
	a.mu.Unlock()

	a.logger.Infof("应用 %s 停止中", a.Name())
	a.lifetime.StopApplication()
	a.loops.StopAll()
	err := a.executor.Stop(ctx)
	a.lifetime.NotifyStopped()
	if err != nil {
		a.logger.Errorf("应用 %s 停止时出现错误: %v", a.Name(), err)
	} else {
		a.logger.Infof("应用 %s 已停止", a.Name())
	}

	a.mu.Lock()
	a.stopErr = err
	a.mu.Unlock()
	return err
}

// Close 实现 host.Application：停止并释放，停止错误只记录
func (a *Application) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.options.ShutdownTimeout)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		a.logger.Errorf("释放应用时停止失败: %v", err)
	}
	return nil
}

// Run 实现 host.Application
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), a.options.ShutdownTimeout)
		defer cancel()
		return errors.Join(err, a.Stop(stopCtx))
	}

	sigCtx, stop := ossignal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("应用运行中，按 Ctrl+C 停止")
	select {
	case <-sigCtx.Done():
		a.logger.Info("收到停止信号")
	case <-a.lifetime.Stopping():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), a.options.ShutdownTimeout)
	defer cancel()
	return a.Stop(stopCtx)
}

// StatsSnapshot 生成周期统计日志的文本
//
// 先输出服务表中实现 ApplicationStats 的组件，再输出实现 Stats 的 Feature，最后是周期任务。
func (a *Application) StatsSnapshot() string {
	var b strings.Builder
	fmt.Fprintf(&b, "====== %s [%s] %s ======\n",
		a.Name(), a.lifetime.State(), a.clock.Now().Format("2006-01-02 15:04:05"))

	seen := make(map[interface{}]bool)
	a.services.Each(func(_ reflect.Type, v interface{}) {
		s, ok := v.(featureiface.ApplicationStats)
		if !ok {
			return
		}
		if reflect.TypeOf(v).Comparable() {
			if seen[v] {
				return
			}
			seen[v] = true
		}
		s.AppendApplicationStats(&b)
	})

	for _, f := range a.executor.Features() {
		if s, ok := f.(featureiface.Stats); ok {
			s.AppendFeatureStats(&b)
		}
	}
	a.loops.AppendStats(&b)
	return b.String()
}

// Feature 按类型查找已构造的 Feature
func Feature[T featureiface.Feature](a *Application) (T, bool) {
	for _, f := range a.executor.Features() {
		if t, ok := f.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// Service 从服务表解析服务
func Service[T any](a *Application) (T, error) {
	return feature.Resolve[T](a.services)
}
