package network

import (
	"time"

	"github.com/weisyn/standpoint/internal/config/value"
	"github.com/weisyn/standpoint/pkg/types"
)

// 配置键
const (
	KeyListeningPort  = "NetworkFeature:ListeningPort"
	KeyUDPPort        = "NetworkFeature:UdpPort"
	KeyStartMarker    = "NetworkFeature:StartMarker"
	KeyEndMarker      = "NetworkFeature:EndMarker"
	KeyMaxMessageSize = "NetworkFeature:MaxMessageSize"
	KeyReadBufferSize = "NetworkFeature:ReadBufferSize"
	KeyPollInterval   = "NetworkFeature:PollInterval"
	KeyDrainTimeout   = "NetworkFeature:DrainTimeout"
)

// NetworkOptions 网络配置选项
type NetworkOptions struct {
	// === 监听配置 ===
	ListeningPort int `json:"listening_port"` // TCP 监听端口
	UDPPort       int `json:"udp_port"`       // UDP 端口，0 表示不启用

	// === 分帧配置 ===
	StartMarker    []byte `json:"start_marker"`     // 起始标记，可为空
	EndMarker      []byte `json:"end_marker"`       // 结束标记
	MaxMessageSize int    `json:"max_message_size"` // 单条消息最大字节数

	// === 读取配置 ===
	ReadBufferSize int           `json:"read_buffer_size"` // 流读取缓冲区大小
	PollInterval   time.Duration `json:"poll_interval"`    // 无数据时的轮询间隔

	// === 停止配置 ===
	DrainTimeout time.Duration `json:"drain_timeout"` // 停止时等待在途连接的最长时间
}

// Config 网络配置实现
type Config struct {
	options *NetworkOptions
}

// New 创建网络配置，lookup 为空时全部使用默认值
func New(lookup types.ConfigLookup) *Config {
	options := createDefaultNetworkOptions()
	if lookup != nil {
		applyUserNetworkConfig(options, lookup)
	}
	return &Config{options: options}
}

// createDefaultNetworkOptions 创建默认网络配置
func createDefaultNetworkOptions() *NetworkOptions {
	return &NetworkOptions{
		ListeningPort:  defaultListeningPort,
		UDPPort:        defaultUDPPort,
		StartMarker:    []byte{},
		EndMarker:      []byte(defaultEndMarker),
		MaxMessageSize: defaultMaxMessageSize,
		ReadBufferSize: defaultReadBufferSize,
		PollInterval:   defaultPollInterval,
		DrainTimeout:   defaultDrainTimeout,
	}
}

// applyUserNetworkConfig 用用户配置覆盖默认值
func applyUserNetworkConfig(o *NetworkOptions, l types.ConfigLookup) {
	o.ListeningPort = value.Int(l, KeyListeningPort, o.ListeningPort)
	o.UDPPort = value.Int(l, KeyUDPPort, o.UDPPort)
	o.StartMarker = value.Bytes(l, KeyStartMarker, o.StartMarker)
	o.EndMarker = value.Bytes(l, KeyEndMarker, o.EndMarker)
	o.MaxMessageSize = value.Int(l, KeyMaxMessageSize, o.MaxMessageSize)
	o.ReadBufferSize = value.Int(l, KeyReadBufferSize, o.ReadBufferSize)
	o.PollInterval = value.Duration(l, KeyPollInterval, o.PollInterval)
	o.DrainTimeout = value.Duration(l, KeyDrainTimeout, o.DrainTimeout)

	// 非法值回落默认
	if o.ListeningPort < 0 || o.ListeningPort > 65535 {
		o.ListeningPort = defaultListeningPort
	}
	if o.UDPPort < 0 || o.UDPPort > 65535 {
		o.UDPPort = defaultUDPPort
	}
	if len(o.EndMarker) == 0 {
		o.EndMarker = []byte(defaultEndMarker)
	}
	if o.MaxMessageSize <= len(o.StartMarker)+len(o.EndMarker) {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	if o.ReadBufferSize <= 0 {
		o.ReadBufferSize = defaultReadBufferSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
}

// GetOptions 获取完整的网络配置选项
func (c *Config) GetOptions() *NetworkOptions {
	return c.options
}

// GetListeningPort 获取 TCP 监听端口
func (c *Config) GetListeningPort() int {
	return c.options.ListeningPort
}

// GetUDPPort 获取 UDP 端口
func (c *Config) GetUDPPort() int {
	return c.options.UDPPort
}

// GetMaxMessageSize 获取最大消息大小
func (c *Config) GetMaxMessageSize() int {
	return c.options.MaxMessageSize
}

// GetReadBufferSize 获取读取缓冲区大小
func (c *Config) GetReadBufferSize() int {
	return c.options.ReadBufferSize
}

// GetPollInterval 获取轮询间隔
func (c *Config) GetPollInterval() time.Duration {
	return c.options.PollInterval
}
