package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "StandPoint")
}

func TestToOptions_OnlyChangedFlags(t *testing.T) {
	root := newRootCmd()
	require.NoError(t, root.ParseFlags([]string{"--port", "0"}))

	var flags nodeFlags
	flags.envPrefix = ""
	opts, err := flags.toOptions(root)
	require.NoError(t, err)
	// env 前缀 + port
	assert.Len(t, opts, 2)
}

func TestToOptions_Settings(t *testing.T) {
	root := newRootCmd()
	flags := nodeFlags{settings: []string{"A=1", " B = 2 "}, status: "127.0.0.1:0"}
	opts, err := flags.toOptions(root)
	require.NoError(t, err)
	assert.Len(t, opts, 1+2+2)

	flags.settings = []string{"novalue"}
	_, err = flags.toOptions(root)
	assert.Error(t, err)

	flags.settings = []string{"=x"}
	_, err = flags.toOptions(root)
	assert.Error(t, err)
}
