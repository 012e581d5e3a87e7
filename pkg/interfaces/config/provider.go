// Package config 定义配置提供者接口
//
// 核心组件只把配置当作不透明的字符串键值查询；各领域的强类型选项
// （日志、网络、宿主、状态服务）由 Provider 在查询之上解析并填充默认值。
package config

import (
	"time"

	hostconfig "github.com/weisyn/standpoint/internal/config/host"
	logconfig "github.com/weisyn/standpoint/internal/config/log"
	networkconfig "github.com/weisyn/standpoint/internal/config/network"
	statusconfig "github.com/weisyn/standpoint/internal/config/status"
	"github.com/weisyn/standpoint/pkg/types"
)

// Provider 配置提供者接口
type Provider interface {
	types.ConfigLookup

	// === 通用查询 ===

	// GetString 获取字符串，不存在时返回 def
	GetString(key, def string) string

	// GetInt 获取整数，不存在或无法解析时返回 def
	GetInt(key string, def int) int

	// GetBool 获取布尔值（true/false/1/0）
	GetBool(key string, def bool) bool

	// GetDuration 获取时长（"5s" 或毫秒整数）
	GetDuration(key string, def time.Duration) time.Duration

	// Set 写入或覆盖一个设置
	Set(key, value string)

	// Keys 返回所有已知键（小写，已排序）
	Keys() []string

	// === 领域配置 ===

	// GetLog 获取日志配置
	GetLog() *logconfig.LogOptions

	// GetNetwork 获取网络配置
	GetNetwork() *networkconfig.NetworkOptions

	// GetHost 获取宿主配置
	GetHost() *hostconfig.HostOptions

	// GetStatus 获取状态服务配置
	GetStatus() *statusconfig.StatusOptions
}
