package metrics

import (
	"go.uber.org/fx"

	infraClock "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/clock"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
)

// ModuleOutput 指标模块输出
type ModuleOutput struct {
	fx.Out

	Metrics  *Metrics
	Recorder metricsiface.Recorder
	Sampler  *RuntimeSampler
}

// Module 返回 metrics 模块
//
// 提供 Metrics（Prometheus 指标）与 RuntimeSampler（运行时采样），
// 采样器同时注册为 Metrics 的采集器。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建指标集合与运行时采样器
func ProvideServices(clock infraClock.Clock) ModuleOutput {
	m := New()
	sampler := NewRuntimeSampler(clock)
	m.MustRegister(sampler)
	return ModuleOutput{Metrics: m, Recorder: m, Sampler: sampler}
}
