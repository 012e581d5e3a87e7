// Package config 提供应用配置管理功能
package config

import (
	"go.uber.org/fx"

	"github.com/weisyn/standpoint/internal/config/network"
	"github.com/weisyn/standpoint/pkg/interfaces/config"
)

// DefaultEnvPrefix 默认环境变量前缀
const DefaultEnvPrefix = "STANDPOINT_"

// Options 配置模块的输入：来源按顺序合并
type Options struct {
	Sources []Source
}

// ConfigParams 定义配置模块的依赖参数
type ConfigParams struct {
	fx.In

	Options *Options `optional:"true"`
}

// ConfigOutput 定义配置模块的输出结构
type ConfigOutput struct {
	fx.Out

	Provider config.Provider
}

// Module 返回配置模块
func Module() fx.Option {
	return fx.Module("config",
		fx.Provide(
			ProvideConfigServices,
			func(provider config.Provider) *network.NetworkOptions {
				return provider.GetNetwork()
			},
		),
	)
}

// ProvideConfigServices 提供配置服务
func ProvideConfigServices(params ConfigParams) (ConfigOutput, error) {
	var sources []Source
	if params.Options != nil {
		sources = params.Options.Sources
	} else {
		sources = []Source{EnvSource{Prefix: DefaultEnvPrefix}}
	}

	provider, err := NewProvider(sources...)
	if err != nil {
		return ConfigOutput{}, err
	}
	return ConfigOutput{Provider: provider}, nil
}
