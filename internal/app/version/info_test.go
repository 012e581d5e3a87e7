package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFullVersion(t *testing.T) {
	old := BuildTime
	defer func() { BuildTime = old }()

	BuildTime = "unknown"
	assert.NotContains(t, GetFullVersion(), "构建时间")

	BuildTime = "2026-01-02T03:04:05Z"
	s := GetFullVersion()
	assert.Contains(t, s, "StandPoint "+Version)
	assert.Contains(t, s, "2026-01-02 03:04:05")
}
