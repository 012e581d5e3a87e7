package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Source 配置来源，按添加顺序写入同一个 viper 实例
//
// viper 自身的优先级为 覆盖值 > 环境变量 > 配置文件，
// 因此 MapSource 总是最高、EnvSource 高于任何文件来源；文件来源之间后者覆盖前者。
type Source interface {
	// Name 来源名称，用于错误信息
	Name() string

	// Apply 把来源写入 v
	Apply(v *viper.Viper) error
}

// MapSource 覆盖值来源，对应命令行 --set
type MapSource map[string]string

// Name 实现 Source
func (m MapSource) Name() string { return "memory" }

// Apply 实现 Source
func (m MapSource) Apply(v *viper.Viper) error {
	for k, val := range m {
		k = normalizeKey(k)
		if k == "" {
			continue
		}
		v.Set(k, val)
	}
	return nil
}

// EnvSource 环境变量来源
//
// 只读取带前缀的变量，去掉前缀后 "__" 对应键分隔符 ":"，
// 例如 STANDPOINT_NETWORKFEATURE__LISTENINGPORT=7000。
type EnvSource struct {
	Prefix string
}

// Name 实现 Source
func (e EnvSource) Name() string { return "env:" + e.Prefix }

// Apply 实现 Source
func (e EnvSource) Apply(v *viper.Viper) error {
	v.SetEnvPrefix(strings.TrimSuffix(e.Prefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(KeyDelimiter, "__"))
	v.AutomaticEnv()
	return nil
}

// JSONSource 内存中的 JSON 文档来源，用于嵌入的默认配置
type JSONSource struct {
	Label string
	Data  []byte
}

// Name 实现 Source
func (s JSONSource) Name() string { return "json:" + s.Label }

// Apply 实现 Source
func (s JSONSource) Apply(v *viper.Viper) error {
	if len(s.Data) == 0 {
		return nil
	}
	v.SetConfigType("json")
	if err := v.MergeConfig(bytes.NewReader(s.Data)); err != nil {
		return fmt.Errorf("解析配置 %s 失败: %w", s.Name(), err)
	}
	return nil
}

// FileSource 配置文件来源，格式由扩展名决定（json、yaml、toml 等 viper 支持的格式）
type FileSource struct {
	Path     string
	Optional bool
}

// Name 实现 Source
func (s FileSource) Name() string { return "file:" + s.Path }

// Apply 实现 Source
func (s FileSource) Apply(v *viper.Viper) error {
	if _, err := os.Stat(s.Path); err != nil {
		if s.Optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("读取配置文件 %s 失败: %w", s.Path, err)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(s.Path), "."))
	if ext == "" {
		return fmt.Errorf("配置文件 %s 缺少扩展名，无法判断格式", s.Path)
	}
	v.SetConfigType(ext)
	v.SetConfigFile(s.Path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("加载配置文件 %s 失败: %w", s.Path, err)
	}
	return nil
}
