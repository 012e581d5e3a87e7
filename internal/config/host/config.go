// Package host 提供应用宿主配置
package host

import (
	"strings"
	"time"

	"github.com/weisyn/standpoint/internal/config/value"
	"github.com/weisyn/standpoint/pkg/types"
)

// 配置键
const (
	KeyApplicationName = "ApplicationName"
	KeyStatsInterval   = "Application:StatsInterval"
	KeyStatsDelay      = "Application:StatsDelay"
	KeyStartPolicy     = "Application:StartPolicy"
	KeyShutdownTimeout = "Application:ShutdownTimeout"
)

// StartPolicy Feature 启动失败时的处理策略
type StartPolicy string

const (
	// StartFailFast 第一个失败即中止，后续 Feature 不再启动
	StartFailFast StartPolicy = "fail-fast"
	// StartCollectAll 尝试启动所有 Feature，最后汇总错误
	StartCollectAll StartPolicy = "collect-all"
)

// ParseStartPolicy 解析启动策略，未知值返回 false
func ParseStartPolicy(s string) (StartPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StartFailFast), "failfast":
		return StartFailFast, true
	case string(StartCollectAll), "collectall":
		return StartCollectAll, true
	default:
		return "", false
	}
}

// HostOptions 宿主配置选项
type HostOptions struct {
	ApplicationName string        `json:"application_name"` // 应用名称，用于日志
	StatsInterval   time.Duration `json:"stats_interval"`   // 周期统计日志间隔，<=0 关闭
	StatsDelay      time.Duration `json:"stats_delay"`      // 首次统计前的延迟
	StartPolicy     StartPolicy   `json:"start_policy"`     // Feature 启动失败策略
	ShutdownTimeout time.Duration `json:"shutdown_timeout"` // 停止流程的超时
}

// Config 宿主配置实现
type Config struct {
	options *HostOptions
}

// New 创建宿主配置
func New(lookup types.ConfigLookup) *Config {
	options := createDefaultHostOptions()
	if lookup != nil {
		options.ApplicationName = value.String(lookup, KeyApplicationName, options.ApplicationName)
		options.StatsInterval = value.Duration(lookup, KeyStatsInterval, options.StatsInterval)
		options.StatsDelay = value.Duration(lookup, KeyStatsDelay, options.StatsDelay)
		if p, ok := ParseStartPolicy(value.String(lookup, KeyStartPolicy, "")); ok {
			options.StartPolicy = p
		}
		options.ShutdownTimeout = value.Duration(lookup, KeyShutdownTimeout, options.ShutdownTimeout)
	}
	if options.StatsDelay < 0 {
		options.StatsDelay = 0
	}
	if options.ShutdownTimeout <= 0 {
		options.ShutdownTimeout = defaultShutdownTimeout
	}
	return &Config{options: options}
}

func createDefaultHostOptions() *HostOptions {
	return &HostOptions{
		ApplicationName: defaultApplicationName,
		StatsInterval:   defaultStatsInterval,
		StatsDelay:      defaultStatsDelay,
		StartPolicy:     StartFailFast,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// GetOptions 获取完整的宿主配置选项
func (c *Config) GetOptions() *HostOptions {
	return c.options
}

// GetStartPolicy 获取启动策略
func (c *Config) GetStartPolicy() StartPolicy {
	return c.options.StartPolicy
}

// IsStatsEnabled 是否启用周期统计日志
func (c *Config) IsStatsEnabled() bool {
	return c.options.StatsInterval > 0
}
