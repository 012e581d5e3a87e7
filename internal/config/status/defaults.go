package status

const (
	// defaultEnabled 默认不启用，避免占用额外端口
	defaultEnabled = false

	defaultListenAddress = "127.0.0.1:9998"

	defaultEnableMetrics = true
)
