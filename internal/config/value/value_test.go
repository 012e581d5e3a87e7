package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/standpoint/pkg/types"
)

func TestTypedLookups(t *testing.T) {
	l := types.MapLookup{
		"port":     "9000",
		"bad":      "x9",
		"on":       "yes",
		"interval": "250ms",
		"ms":       "1500",
		"blank":    "   ",
	}

	assert.Equal(t, 9000, Int(l, "port", 1))
	assert.Equal(t, 1, Int(l, "bad", 1), "无法解析时回落默认值")
	assert.True(t, Bool(l, "on", false))
	assert.Equal(t, 250*time.Millisecond, Duration(l, "interval", time.Second))
	assert.Equal(t, 1500*time.Millisecond, Duration(l, "ms", time.Second))
	assert.Equal(t, "def", String(l, "blank", "def"), "空白值视为不存在")
	assert.Equal(t, "def", String(nil, "port", "def"))
}

func TestUnescape(t *testing.T) {
	b, err := Unescape(`\r\n`)
	require.NoError(t, err)
	assert.Equal(t, []byte("\r\n"), b)

	b, err = Unescape(`<\0>\x7f\\`)
	require.NoError(t, err)
	assert.Equal(t, []byte{'<', 0, '>', 0x7f, '\\'}, b)

	_, err = Unescape(`\q`)
	assert.Error(t, err)
	_, err = Unescape(`abc\`)
	assert.Error(t, err)
}

func TestBytes_EmptyIsExplicit(t *testing.T) {
	l := types.MapLookup{"start": ""}

	assert.Equal(t, []byte{}, Bytes(l, "start", []byte("x")), "显式空标记合法")
	assert.Equal(t, []byte("x"), Bytes(l, "missing", []byte("x")))
}

func TestEscapeRoundTrip(t *testing.T) {
	in := []byte{0, '\r', '\n', 'a', 0x01}
	out, err := Unescape(Escape(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
