package app

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/weisyn/standpoint/internal/config"
	hostconfig "github.com/weisyn/standpoint/internal/config/host"
	logconfig "github.com/weisyn/standpoint/internal/config/log"
	netconfig "github.com/weisyn/standpoint/internal/config/network"
	"github.com/weisyn/standpoint/internal/core/host"
	"github.com/weisyn/standpoint/internal/core/network/netfeature"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

func testOptions(extra ...Option) *options {
	base := []Option{
		WithEnvPrefix(""),
		WithSetting(netconfig.KeyListeningPort, "0"),
		WithSetting(hostconfig.KeyStatsInterval, "0"),
		WithSetting(logconfig.KeyLevel, "error"),
	}
	return newOptions(append(base, extra...)...)
}

func TestOptions_SourcesOrder(t *testing.T) {
	o := newOptions(WithConfigFile("node.json"), WithSetting("a", "1"))
	sources := o.sources()
	require.Len(t, sources, 4)
	assert.Equal(t, "json:embedded", sources[0].Name())
	assert.Equal(t, "file:node.json", sources[1].Name())
	assert.Equal(t, "env:STANDPOINT_", sources[2].Name())
	assert.Equal(t, "memory", sources[3].Name())
}

func TestOptions_EmbeddedDefaults(t *testing.T) {
	p, err := config.NewProvider(newOptions().sources()[0])
	require.NoError(t, err)
	assert.Equal(t, "9999", p.GetString("NetworkFeature:ListeningPort", ""))
	assert.Equal(t, "StandPoint", p.GetString("ApplicationName", ""))
	assert.Equal(t, []byte("\r\n"), p.GetNetwork().EndMarker)
}

func TestBootstrap_FxGraph(t *testing.T) {
	b := NewBootstrap(testOptions())

	var app *host.Application
	var options []fx.Option
	options = append(options, b.SetupInfrastructureLayer()...)
	options = append(options, b.SetupApplicationLayer()...)
	options = append(options, fx.Populate(&app), fx.NopLogger)

	fxApp := fxtest.New(t, options...)
	fxApp.RequireStart()
	require.NotNil(t, app)
	assert.Same(t, app, b.Application())

	_, ok := host.Feature[*netfeature.NetworkFeature](app)
	assert.True(t, ok)
	assert.Contains(t, app.StatsSnapshot(), "Goroutines")
	fxApp.RequireStop()
}

func TestStart_EchoEndToEnd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.conf")
	require.NoError(t, os.WriteFile(path, []byte("ApplicationName=e2e\n"), 0o600))

	a, err := Start(WithConfigFile(path), WithEnvPrefix(""),
		WithSetting(netconfig.KeyListeningPort, "0"),
		WithSetting(hostconfig.KeyStatsInterval, "0"),
		WithSetting(logconfig.KeyLevel, "error"))
	require.NoError(t, err)
	assert.Equal(t, "e2e", a.Host().Name())

	require.NoError(t, a.Host().Start(context.Background()))
	nf, ok := host.Feature[*netfeature.NetworkFeature](a.Host())
	require.True(t, ok)
	require.Equal(t, network.StateListening, nf.Listener().State())

	conn, err := net.Dial("tcp", nf.Listener().Addr().String())
	require.NoError(t, err)
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Write([]byte("hello\x00"))
	require.NoError(t, err)
	reply, err := bufio.NewReader(conn).ReadBytes(0)
	require.NoError(t, err)
	assert.Equal(t, "hello\x00", string(reply))
	conn.Close()

	require.NoError(t, a.Stop())
	require.NoError(t, a.Stop())
	assert.Equal(t, network.StateStopped, nf.Listener().State())
}

func TestStart_MissingConfigFile(t *testing.T) {
	_, err := Start(WithConfigFile(filepath.Join(t.TempDir(), "missing.json")), WithEnvPrefix(""))
	assert.Error(t, err)
}
