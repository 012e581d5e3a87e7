// Package clock 定义宿主使用的时间源接口
package clock

import "time"

// Clock 统一时间源
//
// 宿主用它计算启动时长和统计时间戳，测试中可替换为可控时钟。
type Clock interface {
	// Now 获取当前时间
	Now() time.Time

	// Since 计算从指定时间到现在的持续时间
	Since(t time.Time) time.Duration

	// UTC 获取当前 UTC 时间
	UTC() time.Time
}
