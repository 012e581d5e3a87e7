package feature

import "fmt"

// 生命周期操作
const (
	OpStart = "start"
	OpStop  = "stop"
)

// FeatureError 单个 Feature 启动或停止失败
type FeatureError struct {
	Feature string
	Op      string
	Err     error
}

// Error 实现 error
func (e *FeatureError) Error() string {
	return fmt.Sprintf("feature %s %s 失败: %v", e.Feature, e.Op, e.Err)
}

// Unwrap 支持 errors.Is / errors.As
func (e *FeatureError) Unwrap() error {
	return e.Err
}
