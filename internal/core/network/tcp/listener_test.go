package tcp

import (
	"bufio"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/standpoint/internal/core/network/dispatcher"
	"github.com/weisyn/standpoint/internal/core/network/echo"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

func newEchoListener(t *testing.T) *Listener {
	t.Helper()
	d, err := dispatcher.New(echo.Factory(nil))
	require.NoError(t, err)
	return NewListener(d, WithHost("127.0.0.1"), WithDrainTimeout(time.Second))
}

func TestListener_SecondStartFails(t *testing.T) {
	l := newEchoListener(t)
	defer l.Close()

	require.NoError(t, l.Start(0))
	assert.Equal(t, network.StateListening, l.State())
	require.NotNil(t, l.Addr())

	err := l.Start(0)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.ErrorIs(t, err, network.ErrInvalidOperation)

	require.NoError(t, l.Stop())
	assert.Equal(t, network.StateStopped, l.State())
	assert.Nil(t, l.Addr())

	// 停止后可以再次启动
	require.NoError(t, l.Start(0))
	require.NoError(t, l.Stop())
	require.NoError(t, l.Stop())
}

func TestListener_StartAfterCloseFails(t *testing.T) {
	l := newEchoListener(t)
	require.NoError(t, l.Start(0))
	require.NoError(t, l.Close())

	err := l.Start(0)
	assert.ErrorIs(t, err, ErrDisposed)
	assert.True(t, errors.Is(err, network.ErrInvalidOperation))
}

func TestListener_StartOnBusyPortFails(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	l := newEchoListener(t)
	err = l.Start(busy.Addr().(*net.TCPAddr).Port)
	assert.Error(t, err)
	assert.Equal(t, network.StateStopped, l.State())
}

func TestListener_EchoEndToEnd(t *testing.T) {
	l := newEchoListener(t)
	require.NoError(t, l.Start(0))
	defer l.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	_, err = conn.Write([]byte("PING\x00"))
	require.NoError(t, err)

	reply, err := bufio.NewReader(conn).ReadBytes(0)
	require.NoError(t, err)
	assert.Equal(t, "PING\x00", string(reply))
}

func TestListener_ConcurrentClients(t *testing.T) {
	l := newEchoListener(t)
	require.NoError(t, l.Start(0))
	defer l.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn, err := net.Dial("tcp", l.Addr().String())
			if !assert.NoError(t, err) {
				return
			}
			defer conn.Close()
			_ = conn.SetDeadline(time.Now().Add(2 * time.Second))

			r := bufio.NewReader(conn)
			for j := 0; j < 5; j++ {
				msg := []byte{byte('a' + i), byte('0' + j), 0}
				_, err := conn.Write(msg)
				if !assert.NoError(t, err) {
					return
				}
				reply, err := r.ReadBytes(0)
				if !assert.NoError(t, err) {
					return
				}
				assert.Equal(t, msg, reply)
			}
		}(i)
	}
	wg.Wait()
}

func TestListener_StopClosesActiveConnections(t *testing.T) {
	l := newEchoListener(t)
	require.NoError(t, l.Start(0))

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte("x\x00"))
	require.NoError(t, err)
	_, err = bufio.NewReader(conn).ReadBytes(0)
	require.NoError(t, err)

	require.NoError(t, l.Stop())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = conn.Read(make([]byte, 1))
	assert.Error(t, err)
}

// flakyListener 前若干次 Accept 返回可恢复的错误
type flakyListener struct {
	net.Listener
	failures atomic.Int32
}

func (f *flakyListener) Accept() (net.Conn, error) {
	if f.failures.Add(-1) >= 0 {
		return nil, &net.OpError{Op: "accept", Net: "tcp", Err: syscall.EMFILE}
	}
	return f.Listener.Accept()
}

func TestListener_AcceptErrorsAreRetried(t *testing.T) {
	l := newEchoListener(t)
	flaky := &flakyListener{}
	flaky.failures.Store(4)
	l.listen = func(network, address string) (net.Listener, error) {
		ln, err := net.Listen(network, address)
		if err != nil {
			return nil, err
		}
		flaky.Listener = ln
		return flaky, nil
	}
	require.NoError(t, l.Start(0))
	defer l.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetDeadline(time.Now().Add(3*time.Second)))

	_, err = conn.Write([]byte("after-emfile\x00"))
	require.NoError(t, err)
	reply, err := bufio.NewReader(conn).ReadBytes(0)
	require.NoError(t, err)
	assert.Equal(t, "after-emfile\x00", string(reply))
	assert.Equal(t, network.StateListening, l.State())
	assert.Less(t, flaky.failures.Load(), int32(0))
}

func TestListener_StopInterruptsAcceptBackoff(t *testing.T) {
	l := newEchoListener(t)
	flaky := &flakyListener{}
	flaky.failures.Store(1 << 20)
	l.listen = func(network, address string) (net.Listener, error) {
		ln, err := net.Listen(network, address)
		if err != nil {
			return nil, err
		}
		flaky.Listener = ln
		return flaky, nil
	}
	require.NoError(t, l.Start(0))
	time.Sleep(50 * time.Millisecond)

	stopped := make(chan error, 1)
	go func() { stopped <- l.Stop() }()
	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop 未能打断接入退避")
	}
	assert.Equal(t, network.StateStopped, l.State())
}

func TestListener_CloseDuringStartDisposes(t *testing.T) {
	l := newEchoListener(t)
	var addr string
	l.listen = func(network, address string) (net.Listener, error) {
		ln, err := net.Listen(network, address)
		if err != nil {
			return nil, err
		}
		addr = ln.Addr().String()
		// 模拟 Close 与仍处于 Starting 的 Start 竞争
		require.NoError(t, l.Close())
		return ln, nil
	}

	err := l.Start(0)
	assert.ErrorIs(t, err, ErrDisposed)
	assert.Equal(t, network.StateStopped, l.State())
	assert.Nil(t, l.Addr())

	_, err = net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, err)
}
