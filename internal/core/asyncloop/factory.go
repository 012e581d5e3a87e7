package asyncloop

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
)

// Factory 周期任务工厂，记录经由它创建的所有任务
type Factory struct {
	logger  logInterface.Logger
	metrics metricsiface.LoopRecorder

	mu    sync.Mutex
	loops []*Loop
}

// FactoryOption 工厂选项
type FactoryOption func(*Factory)

// WithMetrics 设置指标上报
func WithMetrics(m metricsiface.LoopRecorder) FactoryOption {
	return func(f *Factory) { f.metrics = m }
}

// NewFactory 创建工厂
func NewFactory(logger logInterface.Logger, opts ...FactoryOption) *Factory {
	f := &Factory{logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create 创建但不启动
func (f *Factory) Create(name string, fn Func) *Loop {
	l := newLoop(name, fn, f.logger, f.metrics)
	f.mu.Lock()
	f.loops = append(f.loops, l)
	f.mu.Unlock()
	return l
}

type runOptions struct {
	repeat     time.Duration
	startAfter time.Duration
}

// RunOption 启动选项
type RunOption func(*runOptions)

// WithRepeat 设置重复间隔，可为 RunOnce
func WithRepeat(d time.Duration) RunOption {
	return func(o *runOptions) { o.repeat = d }
}

// WithStartAfter 设置启动延迟
func WithStartAfter(d time.Duration) RunOption {
	return func(o *runOptions) { o.startAfter = d }
}

// Run 创建并启动，默认每秒执行一次、无启动延迟
func (f *Factory) Run(ctx context.Context, name string, fn Func, opts ...RunOption) *Loop {
	o := runOptions{repeat: DefaultRepeat}
	for _, opt := range opts {
		opt(&o)
	}
	return f.Create(name, fn).Run(ctx, o.repeat, o.startAfter)
}

// RunUntil 按间隔检查 condition，满足时执行一次 action 后结束
//
// condition 或 action 出错（含 panic）时调用 onErr 并结束。
func (f *Factory) RunUntil(ctx context.Context, name string, condition func() bool, action func() error, onErr func(error), repeat time.Duration) *Loop {
	return f.Run(ctx, name, func(context.Context) error {
		done, err := until(condition, action)
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return ErrStop
		}
		if done {
			return ErrStop
		}
		return nil
	}, WithRepeat(repeat))
}

func until(condition func() bool, action func() error) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	if !condition() {
		return false, nil
	}
	return true, action()
}

// Loops 返回经由工厂创建的任务
func (f *Factory) Loops() []*Loop {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Loop(nil), f.loops...)
}

// StopAll 停止所有任务
func (f *Factory) StopAll() {
	for _, l := range f.Loops() {
		l.Stop()
	}
}

// AppendStats 输出任务概况
func (f *Factory) AppendStats(b *strings.Builder) {
	loops := f.Loops()
	if len(loops) == 0 {
		return
	}
	b.WriteString("====== Async Loops ======\n")
	for _, l := range loops {
		state := "stopped"
		if l.Running() {
			state = "running"
		}
		fmt.Fprintf(b, "%-24s %-8s runs=%d", l.Name(), state, l.Runs())
		if err := l.Err(); err != nil {
			fmt.Fprintf(b, " err=%v", err)
		}
		b.WriteByte('\n')
	}
}
