package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/weisyn/standpoint/pkg/types"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New(nil)

	assert.Equal(t, 9999, cfg.GetListeningPort())
	assert.Equal(t, 0, cfg.GetUDPPort())
	assert.Equal(t, []byte("\r\n"), cfg.GetOptions().EndMarker)
	assert.Empty(t, cfg.GetOptions().StartMarker)
	assert.Equal(t, 1<<20, cfg.GetMaxMessageSize())
	assert.Equal(t, 4096, cfg.GetReadBufferSize())
	assert.Equal(t, 10*time.Millisecond, cfg.GetPollInterval())
}

func TestNew_UserOverrides(t *testing.T) {
	cfg := New(types.MapLookup{
		KeyListeningPort: "7000",
		KeyStartMarker:   `\x02`,
		KeyEndMarker:     `\0`,
		KeyPollInterval:  "50ms",
	})

	assert.Equal(t, 7000, cfg.GetListeningPort())
	assert.Equal(t, []byte{0x02}, cfg.GetOptions().StartMarker)
	assert.Equal(t, []byte{0}, cfg.GetOptions().EndMarker)
	assert.Equal(t, 50*time.Millisecond, cfg.GetPollInterval())
}

func TestNew_InvalidValuesFallBack(t *testing.T) {
	cfg := New(types.MapLookup{
		KeyListeningPort:  "70000",
		KeyEndMarker:      "",
		KeyMaxMessageSize: "1",
		KeyReadBufferSize: "-1",
	})

	assert.Equal(t, 9999, cfg.GetListeningPort())
	assert.Equal(t, []byte("\r\n"), cfg.GetOptions().EndMarker, "空结束标记回落为 CR LF")
	assert.Equal(t, 1<<20, cfg.GetMaxMessageSize())
	assert.Equal(t, 4096, cfg.GetReadBufferSize())
}
