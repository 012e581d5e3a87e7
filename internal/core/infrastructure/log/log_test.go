package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logconfig "github.com/weisyn/standpoint/internal/config/log"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/standpoint/pkg/types"
)

// decodeLines 解析 JSON 行日志
func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		entries = append(entries, entry)
	}
	return entries
}

// TestNewWithWriter_StructuredFields 测试结构化字段与模块标识
func TestNewWithWriter_StructuredFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, logInterface.InfoLevel)

	NewModuleLogger(logger, "network").With("conn", "abc", "bytes", 12).Info("连接已建立")
	logger.Debug("不应输出")
	require.NoError(t, logger.Sync())

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "连接已建立", entries[0]["message"])
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "network", entries[0]["module"])
	assert.Equal(t, "abc", entries[0]["conn"])
	assert.EqualValues(t, 12, entries[0]["bytes"])
}

// TestWith_OddArgsIgnored 落单参数被忽略
func TestWith_OddArgsIgnored(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, logInterface.DebugLevel)

	logger.With("k", "v", "dangling").Debugf("格式化 %d", 7)

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 1)
	assert.Equal(t, "格式化 7", entries[0]["message"])
	assert.NotContains(t, entries[0], "dangling")
}

// TestNew_FileOutput 配置文件路径后写入 lumberjack 轮转文件
func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "node.log")
	cfg := logconfig.New(types.MapLookup{
		logconfig.KeyFilePath:     path,
		logconfig.KeyLevel:        "warn",
		logconfig.KeyEnableCaller: "false",
	})
	require.False(t, cfg.IsConsoleEnabled(), "指定文件路径时默认关闭控制台")

	logger, err := New(cfg)
	require.NoError(t, err)

	logger.Info("被级别过滤")
	logger.Warn("写入文件")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "写入文件")
	assert.NotContains(t, string(data), "被级别过滤")
}

// TestGlobalLogger 全局日志记录器的替换与回退
func TestGlobalLogger(t *testing.T) {
	old := GetLogger()
	t.Cleanup(func() { SetLogger(old) })

	var buf bytes.Buffer
	SetLogger(NewWithWriter(&buf, logInterface.InfoLevel))
	SetLogger(nil) // 忽略空值

	Warn("全局警告")
	With("k", 1).Info("全局信息")

	entries := decodeLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.NotNil(t, OrGlobal(nil))
	assert.NotNil(t, NewModuleLogger(nil, "host"))
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	logger.Error("不会输出")
	assert.NotNil(t, logger.GetZapLogger())
	assert.NotNil(t, FromZap(nil))
}
