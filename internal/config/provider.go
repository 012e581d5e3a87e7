package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/weisyn/standpoint/internal/config/host"
	"github.com/weisyn/standpoint/internal/config/log"
	"github.com/weisyn/standpoint/internal/config/network"
	"github.com/weisyn/standpoint/internal/config/status"
	"github.com/weisyn/standpoint/internal/config/value"
	"github.com/weisyn/standpoint/pkg/interfaces/config"
)

// KeyDelimiter 配置键的层级分隔符
const KeyDelimiter = ":"

// Provider 实现配置提供者接口
//
// 底层为一个以冒号分层的 viper 实例，查询大小写不敏感。
type Provider struct {
	mu sync.RWMutex
	v  *viper.Viper
}

var _ config.Provider = (*Provider)(nil)

// NewProvider 依次应用各来源
func NewProvider(sources ...Source) (*Provider, error) {
	p := &Provider{v: viper.NewWithOptions(viper.KeyDelimiter(KeyDelimiter))}
	for _, src := range sources {
		if src == nil {
			continue
		}
		if err := src.Apply(p.v); err != nil {
			return nil, fmt.Errorf("加载配置来源 %s 失败: %w", src.Name(), err)
		}
	}
	return p, nil
}

// NewProviderFromMap 从内存键值创建，主要用于测试
func NewProviderFromMap(settings map[string]string) *Provider {
	p, _ := NewProvider(MapSource(settings))
	return p
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

// Get 实现 types.ConfigLookup
func (p *Provider) Get(key string) (string, bool) {
	key = normalizeKey(key)
	if key == "" {
		return "", false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.v.IsSet(key) {
		return "", false
	}
	return p.v.GetString(key), true
}

// Set 写入或覆盖一个设置
func (p *Provider) Set(key, v string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.v.Set(normalizeKey(key), v)
}

// Keys 返回所有已知键；只存在于环境变量中的键不会列出
func (p *Provider) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := p.v.AllKeys()
	sort.Strings(keys)
	return keys
}

// GetString 获取字符串
func (p *Provider) GetString(key, def string) string {
	return value.String(p, key, def)
}

// GetInt 获取整数
func (p *Provider) GetInt(key string, def int) int {
	return value.Int(p, key, def)
}

// GetBool 获取布尔值
func (p *Provider) GetBool(key string, def bool) bool {
	return value.Bool(p, key, def)
}

// GetDuration 获取时长
func (p *Provider) GetDuration(key string, def time.Duration) time.Duration {
	return value.Duration(p, key, def)
}

// GetLog 获取日志配置
func (p *Provider) GetLog() *log.LogOptions {
	return log.New(p).GetOptions()
}

// GetNetwork 获取网络配置
func (p *Provider) GetNetwork() *network.NetworkOptions {
	return network.New(p).GetOptions()
}

// GetHost 获取宿主配置
func (p *Provider) GetHost() *host.HostOptions {
	return host.New(p).GetOptions()
}

// GetStatus 获取状态服务配置
func (p *Provider) GetStatus() *status.StatusOptions {
	return status.New(p).GetOptions()
}
