package network

import "time"

// 网络配置默认值
const (
	// defaultListeningPort 默认 TCP 监听端口
	defaultListeningPort = 9999

	// defaultUDPPort 默认不启用 UDP
	defaultUDPPort = 0

	// defaultEndMarker 默认结束标记 CR LF
	defaultEndMarker = "\r\n"

	// defaultMaxMessageSize 单条消息上限 1MB，超出后整条丢弃
	defaultMaxMessageSize = 1 << 20

	// defaultReadBufferSize 流读取缓冲区 4KB
	defaultReadBufferSize = 4096

	// defaultPollInterval 无数据时的轮询间隔
	defaultPollInterval = 10 * time.Millisecond

	// defaultDrainTimeout 停止时等待在途连接
	defaultDrainTimeout = 5 * time.Second
)
