// Package metrics 定义各模块上报运行指标的接口
//
// 组件只依赖这些窄接口，实现（Prometheus）位于 internal/core/infrastructure/metrics；
// 未注入时组件使用 Nop 实现。
package metrics

import "time"

// NetworkRecorder 网络层指标
type NetworkRecorder interface {
	// ConnectionOpened 连接接入
	ConnectionOpened(transport string)
	// ConnectionClosed 连接关闭
	ConnectionClosed(transport string, lifetime time.Duration)
	// MessageHandled 一条消息处理完成
	MessageHandled(transport string, latency time.Duration)
	// HandlerError 处理器返回错误或 panic
	HandlerError(transport string)
	// FrameDropped 报文超长被丢弃
	FrameDropped(bytes int)
}

// LoopRecorder 周期任务指标
type LoopRecorder interface {
	// LoopRun 一次执行完成，err 非空表示失败
	LoopRun(name string, duration time.Duration, err error)
}

// FeatureRecorder Feature 生命周期指标
type FeatureRecorder interface {
	// FeatureOp op 为 start/stop
	FeatureOp(feature, op string, duration time.Duration, err error)
}

// Recorder 汇总接口
type Recorder interface {
	NetworkRecorder
	LoopRecorder
	FeatureRecorder
}

// Nop 不做任何记录
type Nop struct{}

func (Nop) ConnectionOpened(string)                        {}
func (Nop) ConnectionClosed(string, time.Duration)         {}
func (Nop) MessageHandled(string, time.Duration)           {}
func (Nop) HandlerError(string)                            {}
func (Nop) FrameDropped(int)                               {}
func (Nop) LoopRun(string, time.Duration, error)           {}
func (Nop) FeatureOp(string, string, time.Duration, error) {}

var _ Recorder = Nop{}
