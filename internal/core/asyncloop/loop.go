// Package asyncloop 周期任务
//
// 每个 Loop 在独立 goroutine 中运行：先等待启动延迟，再执行工作单元，
// 然后按间隔重复，直到 context 取消。RunOnce 只执行一次。工作单元返回错误或 panic
// 时记录日志并结束该 Loop，不影响其他 Loop。
package asyncloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
)

const (
	// RunOnce 只执行一次
	RunOnce time.Duration = -1

	// DefaultRepeat 默认重复间隔
	DefaultRepeat = time.Second
)

// ErrStop 工作单元返回它表示正常结束，不记为失败
var ErrStop = errors.New("asyncloop: stop")

// Func 工作单元，应在 ctx 取消时尽快返回
type Func func(ctx context.Context) error

// Loop 周期任务
type Loop struct {
	name    string
	fn      Func
	logger  logInterface.Logger
	metrics metricsiface.LoopRecorder

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	err     error

	done    chan struct{}
	runs    atomic.Uint64
	running atomic.Bool
}

func newLoop(name string, fn Func, logger logInterface.Logger, metrics metricsiface.LoopRecorder) *Loop {
	if metrics == nil {
		metrics = metricsiface.Nop{}
	}
	return &Loop{
		name:    name,
		fn:      fn,
		logger:  logger,
		metrics: metrics,
		done:    make(chan struct{}),
	}
}

// Name 任务名
func (l *Loop) Name() string { return l.name }

// Done 任务结束时关闭
func (l *Loop) Done() <-chan struct{} { return l.done }

// Runs 已执行次数
func (l *Loop) Runs() uint64 { return l.runs.Load() }

// Running 是否仍在运行
func (l *Loop) Running() bool { return l.running.Load() }

// Err 导致任务结束的错误
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Run 启动任务，重复调用无效
//
// repeat 为 RunOnce 时只执行一次；repeat <= 0 的其他值使用 DefaultRepeat。
func (l *Loop) Run(ctx context.Context, repeat, startAfter time.Duration) *Loop {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return l
	}
	l.started = true
	if repeat != RunOnce && repeat <= 0 {
		repeat = DefaultRepeat
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.running.Store(true)
	go l.loop(ctx, repeat, startAfter)
	return l
}

// Stop 取消任务并等待其结束；未启动时直接返回
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, started := l.cancel, l.started
	l.mu.Unlock()
	if !started {
		return
	}
	cancel()
	<-l.done
}

func (l *Loop) loop(ctx context.Context, repeat, startAfter time.Duration) {
	defer func() {
		l.running.Store(false)
		l.cancel()
		close(l.done)
	}()

	if startAfter > 0 && !wait(ctx, startAfter) {
		return
	}

	for {
		if ctx.Err() != nil {
			return
		}
		if err := l.execute(ctx); err != nil {
			if errors.Is(err, ErrStop) {
				return
			}
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return
			}
			l.mu.Lock()
			l.err = err
			l.mu.Unlock()
			if l.logger != nil {
				l.logger.Errorf("周期任务 %s 异常退出: %v", l.name, err)
			}
			return
		}
		if repeat == RunOnce || !wait(ctx, repeat) {
			return
		}
	}
}

func (l *Loop) execute(ctx context.Context) (err error) {
	began := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
		l.runs.Add(1)
		if errors.Is(err, ErrStop) {
			l.metrics.LoopRun(l.name, time.Since(began), nil)
			return
		}
		l.metrics.LoopRun(l.name, time.Since(began), err)
	}()
	return l.fn(ctx)
}

// wait 等待 d，ctx 先取消时返回 false
func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
