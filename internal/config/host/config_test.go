package host

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/weisyn/standpoint/pkg/types"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New(nil)

	assert.Equal(t, "standpoint", cfg.GetOptions().ApplicationName)
	assert.Equal(t, 5*time.Second, cfg.GetOptions().StatsInterval)
	assert.Equal(t, 5*time.Second, cfg.GetOptions().StatsDelay)
	assert.Equal(t, StartFailFast, cfg.GetStartPolicy())
	assert.True(t, cfg.IsStatsEnabled())
}

func TestNew_Overrides(t *testing.T) {
	cfg := New(types.MapLookup{
		KeyApplicationName: "echo",
		KeyStatsInterval:   "0",
		KeyStartPolicy:     "Collect-All",
	})

	assert.Equal(t, "echo", cfg.GetOptions().ApplicationName)
	assert.False(t, cfg.IsStatsEnabled())
	assert.Equal(t, StartCollectAll, cfg.GetStartPolicy())
}

func TestParseStartPolicy_Unknown(t *testing.T) {
	_, ok := ParseStartPolicy("sometimes")
	assert.False(t, ok)
}
