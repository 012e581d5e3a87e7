package status

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/weisyn/standpoint/pkg/types"
)

func TestNew_Defaults(t *testing.T) {
	c := New(nil)
	assert.False(t, c.IsEnabled())
	assert.Equal(t, defaultListenAddress, c.GetOptions().ListenAddress)
	assert.True(t, c.GetOptions().EnableMetrics)
}

func TestNew_Overrides(t *testing.T) {
	c := New(types.MapLookup{
		KeyEnabled:       "true",
		KeyListenAddress: "0.0.0.0:8080",
		KeyEnableMetrics: "false",
	})
	assert.True(t, c.IsEnabled())
	assert.Equal(t, "0.0.0.0:8080", c.GetOptions().ListenAddress)
	assert.False(t, c.GetOptions().EnableMetrics)
}
