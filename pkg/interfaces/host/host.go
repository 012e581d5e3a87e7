// Package host 定义应用宿主与生命周期信号契约
package host

import (
	"context"

	"github.com/weisyn/standpoint/pkg/types"
)

// Lifetime 应用生命周期信号
//
// Started、Stopping、Stopped 三个信号各自最多触发一次，且按此顺序单调推进。
type Lifetime interface {
	// Started 所有 Feature 启动后关闭
	Started() <-chan struct{}

	// Stopping 开始停止时关闭
	Stopping() <-chan struct{}

	// Stopped 停止完成后关闭
	Stopped() <-chan struct{}

	// StoppingContext 在 Stopping 触发时被取消
	StoppingContext() context.Context

	// OnStarted 注册 Started 回调，信号已触发时立即执行
	OnStarted(fn func())

	// OnStopping 注册 Stopping 回调
	OnStopping(fn func())

	// OnStopped 注册 Stopped 回调
	OnStopped(fn func())

	// StopApplication 请求停止（触发 Stopping）
	StopApplication()

	// State 当前状态
	State() types.ApplicationState
}

// Application 应用宿主
type Application interface {
	// Start 启动所有 Feature
	Start(ctx context.Context) error

	// Stop 停止所有 Feature，可重复调用
	Stop(ctx context.Context) error

	// Close 释放宿主，可重复调用
	Close() error

	// Run 启动后阻塞直到收到终止信号或 Stopping 触发，然后停止
	Run(ctx context.Context) error

	// Lifetime 生命周期信号
	Lifetime() Lifetime
}

// StatsSource 周期统计文本的来源
type StatsSource interface {
	StatsSnapshot() string
}
