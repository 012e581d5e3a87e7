package app

import (
	"sort"

	"github.com/weisyn/standpoint/configs"
	"github.com/weisyn/standpoint/internal/config"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// Option 应用程序选项函数类型
type Option func(*options)

// options 应用程序选项
type options struct {
	// 配置文件路径，空表示不加载文件
	configFilePath string

	// 环境变量前缀
	envPrefix string

	// 命令行覆盖项，优先级最高
	settings map[string]string

	// 控制器工厂，默认回显控制器
	controller network.ControllerFactory
}

// WithConfigFile 设置配置文件路径，格式由扩展名决定
func WithConfigFile(path string) Option {
	return func(o *options) {
		o.configFilePath = path
	}
}

// WithEnvPrefix 设置环境变量前缀
func WithEnvPrefix(prefix string) Option {
	return func(o *options) {
		o.envPrefix = prefix
	}
}

// WithSetting 覆盖单个设置
func WithSetting(key, value string) Option {
	return func(o *options) {
		o.settings[key] = value
	}
}

// WithController 设置网络控制器工厂
func WithController(factory network.ControllerFactory) Option {
	return func(o *options) {
		o.controller = factory
	}
}

func newOptions(opts ...Option) *options {
	o := &options{
		envPrefix: config.DefaultEnvPrefix,
		settings:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// sources 按优先级从低到高：嵌入默认值、文件、环境变量、命令行覆盖
func (o *options) sources() []config.Source {
	sources := []config.Source{
		config.JSONSource{Label: "embedded", Data: configs.GetDefaultConfig()},
	}
	if o.configFilePath != "" {
		sources = append(sources, config.FileSource{Path: o.configFilePath})
	}
	if o.envPrefix != "" {
		sources = append(sources, config.EnvSource{Prefix: o.envPrefix})
	}
	if len(o.settings) > 0 {
		sources = append(sources, config.MapSource(o.settings))
	}
	return sources
}

// settingKeys 覆盖项键名，排序后用于日志
func (o *options) settingKeys() []string {
	keys := make([]string, 0, len(o.settings))
	for k := range o.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
