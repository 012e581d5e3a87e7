// Package value 提供配置键值的解析工具
//
// 领域配置（network/host/status/log）在不透明的键值查询之上
// 用这些函数解析出强类型值，解析失败时回落到默认值。
package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/weisyn/standpoint/pkg/types"
)

// Lookup 查询原始字符串，空白值视为不存在
func Lookup(l types.ConfigLookup, key string) (string, bool) {
	if l == nil {
		return "", false
	}
	v, ok := l.Get(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// String 获取字符串
func String(l types.ConfigLookup, key, def string) string {
	if v, ok := Lookup(l, key); ok {
		return v
	}
	return def
}

// Int 获取整数
func Int(l types.ConfigLookup, key string, def int) int {
	v, ok := Lookup(l, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool 获取布尔值，接受 true/false/1/0/yes/no
func Bool(l types.ConfigLookup, key string, def bool) bool {
	v, ok := Lookup(l, key)
	if !ok {
		return def
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return def
	}
}

// Duration 获取时长，接受 Go 时长字符串或毫秒整数
func Duration(l types.ConfigLookup, key string, def time.Duration) time.Duration {
	v, ok := Lookup(l, key)
	if !ok {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}

// Bytes 获取字节序列，支持转义：\r \n \t \0 \\ \xHH
//
// 标记允许为空，因此与其他函数不同，显式配置的空字符串返回空切片而非默认值。
func Bytes(l types.ConfigLookup, key string, def []byte) []byte {
	if l == nil {
		return def
	}
	raw, ok := l.Get(key)
	if !ok {
		return def
	}
	b, err := Unescape(raw)
	if err != nil {
		return def
	}
	return b
}

// Unescape 解析带转义的标记字符串
func Unescape(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		if i+1 >= len(s) {
			return nil, fmt.Errorf("转义序列不完整: %q", s)
		}
		i++
		switch s[i] {
		case 'r':
			out = append(out, '\r')
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case '0':
			out = append(out, 0)
		case '\\':
			out = append(out, '\\')
		case 'x':
			if i+2 >= len(s) {
				return nil, fmt.Errorf("十六进制转义不完整: %q", s)
			}
			n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("十六进制转义无效: %w", err)
			}
			out = append(out, byte(n))
			i += 2
		default:
			return nil, fmt.Errorf("未知转义字符 \\%c", s[i])
		}
	}
	return out, nil
}

// Escape 将字节序列格式化为可写回配置的转义字符串
func Escape(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		switch {
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c == 0:
			sb.WriteString(`\0`)
		case c == '\\':
			sb.WriteString(`\\`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
