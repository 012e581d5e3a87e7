package host

import "time"

// 宿主配置默认值
const (
	defaultApplicationName = "standpoint"

	// defaultStatsInterval 周期统计日志每 5 秒一次
	defaultStatsInterval = 5 * time.Second

	// defaultStatsDelay 启动 5 秒后开始输出统计
	defaultStatsDelay = 5 * time.Second

	// defaultShutdownTimeout 停止流程最长 30 秒
	defaultShutdownTimeout = 30 * time.Second
)
