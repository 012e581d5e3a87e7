package dispatcher

import "errors"

var (
	// ErrInvalidController 控制器注册形状无效（未声明处理器或同时声明同步与异步处理器）
	ErrInvalidController = errors.New("控制器注册无效")

	// ErrNilFactory 未提供控制器工厂
	ErrNilFactory = errors.New("控制器工厂为空")

	// ErrNoResponse 异步处理器未交付结果就被取消
	ErrNoResponse = errors.New("异步处理器未返回结果")
)
