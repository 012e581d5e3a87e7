// Package feature Feature 注册、构造与执行
//
// 🧩 **Feature 执行器**
//
// - Services：以类型为键的显式服务注册表（单例/瞬时/实例）
// - Collection：有序的 Feature 注册集合，构造时依次登记单例、执行服务配置与启动钩子
// - Executor：按注册顺序启动与停止 Feature，错误以 *FeatureError 汇总（multierr）
package feature

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	hostconfig "github.com/weisyn/standpoint/internal/config/host"
	featureiface "github.com/weisyn/standpoint/pkg/interfaces/feature"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
)

// Executor Feature 执行器
//
// Start 默认快速失败：第一个失败的 Feature 之后不再启动其余 Feature；
// StartCollectAll 策略下会尝试全部启动。Stop 总是按注册顺序对每个 Feature
// 恰好调用一次，并汇总所有失败。
type Executor struct {
	features []featureiface.Feature
	names    []string
	logger   logInterface.Logger
	policy   hostconfig.StartPolicy
	metrics  metricsiface.FeatureRecorder

	mu      sync.Mutex
	started bool
	stopped bool
}

// ExecutorOption 执行器选项
type ExecutorOption func(*Executor)

// WithStartPolicy 设置启动策略
func WithStartPolicy(p hostconfig.StartPolicy) ExecutorOption {
	return func(e *Executor) {
		if p != "" {
			e.policy = p
		}
	}
}

// WithNames 设置与 features 一一对应的名称（通常来自 Collection.Names）
func WithNames(names []string) ExecutorOption {
	return func(e *Executor) { e.names = names }
}

// WithMetrics 设置指标上报
func WithMetrics(m metricsiface.FeatureRecorder) ExecutorOption {
	return func(e *Executor) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewExecutor 创建执行器
func NewExecutor(features []featureiface.Feature, logger logInterface.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		features: features,
		logger:   logger,
		policy:   hostconfig.StartFailFast,
		metrics:  metricsiface.Nop{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Features 按注册顺序返回
func (e *Executor) Features() []featureiface.Feature {
	return append([]featureiface.Feature(nil), e.features...)
}

// Started 是否已执行过 Start
func (e *Executor) Started() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

// Policy 启动策略
func (e *Executor) Policy() hostconfig.StartPolicy {
	return e.policy
}

// Start 按注册顺序启动所有 Feature
func (e *Executor) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("feature 执行器已启动")
	}
	e.started = true
	e.mu.Unlock()

	var errs error
	for i, f := range e.features {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if err := e.run(ctx, i, f, OpStart); err != nil {
			errs = multierr.Append(errs, err)
			if e.policy == hostconfig.StartFailFast {
				break
			}
		}
	}
	return errs
}

// Stop 按注册顺序停止所有 Feature，每个恰好调用一次
func (e *Executor) Stop(ctx context.Context) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return nil
	}
	e.stopped = true
	e.mu.Unlock()

	var errs error
	for i, f := range e.features {
		errs = multierr.Append(errs, e.run(ctx, i, f, OpStop))
	}
	return errs
}

// run 执行一次生命周期调用，panic 视为失败
func (e *Executor) run(ctx context.Context, i int, f featureiface.Feature, op string) (err error) {
	name := e.nameAt(i, f)
	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		e.metrics.FeatureOp(name, op, time.Since(began), err)
		if err != nil {
			e.logf(true, "Feature %s %s 失败: %v", name, op, err)
			err = &FeatureError{Feature: name, Op: op, Err: err}
			return
		}
		e.logf(false, "Feature %s %s 完成 (%s)", name, op, time.Since(began).Truncate(time.Microsecond))
	}()

	if op == OpStart {
		return f.Start(ctx)
	}
	return f.Stop(ctx)
}

func (e *Executor) nameAt(i int, f featureiface.Feature) string {
	if i < len(e.names) && e.names[i] != "" {
		return e.names[i]
	}
	return NameOf(f)
}

func (e *Executor) logf(isErr bool, format string, args ...interface{}) {
	if e.logger == nil {
		return
	}
	if isErr {
		e.logger.Errorf(format, args...)
		return
	}
	e.logger.Infof(format, args...)
}
