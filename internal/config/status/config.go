// Package status 提供状态服务（HTTP）配置
package status

import (
	"github.com/weisyn/standpoint/internal/config/value"
	"github.com/weisyn/standpoint/pkg/types"
)

// 配置键
const (
	KeyEnabled       = "StatusFeature:Enabled"
	KeyListenAddress = "StatusFeature:ListenAddress"
	KeyEnableMetrics = "StatusFeature:EnableMetrics"
)

// StatusOptions 状态服务配置选项
type StatusOptions struct {
	Enabled       bool   `json:"enabled"`        // 是否注册状态服务
	ListenAddress string `json:"listen_address"` // HTTP 监听地址
	EnableMetrics bool   `json:"enable_metrics"` // 是否暴露 /metrics
}

// Config 状态服务配置实现
type Config struct {
	options *StatusOptions
}

// New 创建状态服务配置
func New(lookup types.ConfigLookup) *Config {
	options := &StatusOptions{
		Enabled:       defaultEnabled,
		ListenAddress: defaultListenAddress,
		EnableMetrics: defaultEnableMetrics,
	}
	if lookup != nil {
		options.Enabled = value.Bool(lookup, KeyEnabled, options.Enabled)
		options.ListenAddress = value.String(lookup, KeyListenAddress, options.ListenAddress)
		options.EnableMetrics = value.Bool(lookup, KeyEnableMetrics, options.EnableMetrics)
	}
	return &Config{options: options}
}

// GetOptions 获取完整配置
func (c *Config) GetOptions() *StatusOptions {
	return c.options
}

// IsEnabled 是否启用
func (c *Config) IsEnabled() bool {
	return c.options.Enabled
}
