package types

// ConfigLookup 不透明的字符串键值查询
//
// 键使用冒号分层，例如 "NetworkFeature:ListeningPort"，大小写不敏感。
type ConfigLookup interface {
	Get(key string) (string, bool)
}

// MapLookup 基于 map 的查询，主要用于测试和内置默认值
type MapLookup map[string]string

// Get 实现 ConfigLookup
func (m MapLookup) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
