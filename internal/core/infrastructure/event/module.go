package event

import (
	"context"

	"go.uber.org/fx"

	eventInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
)

// ModuleInput 事件模块输入依赖
type ModuleInput struct {
	fx.In

	Lifecycle fx.Lifecycle
}

// ModuleOutput 事件模块输出服务
type ModuleOutput struct {
	fx.Out

	EventBus eventInterface.EventBus
	Bus      *EventBus
}

// Module 返回事件模块
func Module() fx.Option {
	return fx.Module("event",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 创建事件总线，并在 fx 停止时关闭
func ProvideServices(input ModuleInput) ModuleOutput {
	bus := New()
	input.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return bus.Close()
		},
	})
	return ModuleOutput{EventBus: bus, Bus: bus}
}
