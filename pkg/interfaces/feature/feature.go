// Package feature 定义宿主插件（Feature）契约
//
// 🧩 **Feature 契约**
//
// Feature 是可独立启动/停止的子系统模块，以单例形式存活于整个宿主生命周期。
// 宿主按注册顺序启动、按注册顺序停止所有 Feature。
package feature

import (
	"context"
	"strings"
)

// Feature 子系统模块
type Feature interface {
	// Start 启动模块
	Start(ctx context.Context) error

	// Stop 停止模块
	//
	// 即使 Start 未调用或只完成了一部分，Stop 也必须可以安全调用。
	Stop(ctx context.Context) error
}

// Named 可选接口：提供用于日志和错误信息的名称
type Named interface {
	Name() string
}

// ApplicationStats 向周期统计日志贡献应用级统计（最先输出）
type ApplicationStats interface {
	AppendApplicationStats(b *strings.Builder)
}

// Stats 向周期统计日志贡献模块统计
type Stats interface {
	AppendFeatureStats(b *strings.Builder)
}
