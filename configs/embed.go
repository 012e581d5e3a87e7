// Package configs 嵌入节点默认配置
package configs

import _ "embed"

//go:embed node.json
var defaultConfig []byte

// GetDefaultConfig 获取嵌入的默认配置（JSON），作为优先级最低的配置来源
func GetDefaultConfig() []byte {
	return defaultConfig
}
