package transport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

func TestGate_SetResetWait(t *testing.T) {
	g := NewGate(false)
	assert.False(t, g.IsSet())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, g.Wait(ctx), context.DeadlineExceeded)

	released := make(chan error, 1)
	go func() { released <- g.Wait(context.Background()) }()
	g.Set()
	select {
	case err := <-released:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Set 后 Wait 未返回")
	}

	g.Reset()
	assert.False(t, g.IsSet())
	g.Reset()
	g.Set()
	g.Set()
	assert.True(t, g.IsSet())
}

func TestBufferReader_GateHoldsFeedUntilRead(t *testing.T) {
	ctx := context.Background()
	r := NewBufferReader(ctx, []byte("a\r\nb\r\n"), network.Markers{})

	// 没有等待者时不推进
	assert.Never(t, func() bool {
		select {
		case <-r.Done():
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)
	assert.Empty(t, r.framer.Buffered())

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", string(msg))

	msg, err = r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", string(msg))

	_, err = r.ReadMessage(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestBufferReader_StartMarkerAndDrop(t *testing.T) {
	var dropped []int
	r := NewBufferReader(context.Background(),
		[]byte("<<toolongpayload>><<ok>>"),
		network.Markers{Start: []byte("<<"), End: []byte(">>")},
		WithMaxMessageSize(8),
		WithDropHandler(func(n int) { dropped = append(dropped, n) }),
	)

	msg, err := r.ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", string(msg))

	_, err = r.ReadMessage(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []int{9}, dropped)
}

func TestStreamReader_Pipe(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := NewStreamReader(ctx, server, network.Markers{End: []byte{0}}, WithBufferSize(3))

	go func() {
		_, _ = client.Write([]byte("hello\x00wor"))
		_, _ = client.Write([]byte("ld\x00"))
	}()

	msg, err := r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(msg))

	msg, err = r.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "world", string(msg))

	require.NoError(t, server.Close())
	_, err = r.ReadMessage(ctx)
	assert.Error(t, err)
}

func TestStreamReader_EOF(t *testing.T) {
	r := NewStreamReader(context.Background(), bytes.NewReader([]byte("x\r\n")), network.Markers{})

	msg, err := r.ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "x", string(msg))

	_, err = r.ReadMessage(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamReader_CancelUnblocksWaiter(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	readerCtx, cancelReader := context.WithCancel(context.Background())
	r := NewStreamReader(readerCtx, server, network.Markers{})

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := r.ReadMessage(ctx)
		result <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-result:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("取消后 ReadMessage 未返回")
	}

	cancelReader()
	_, err := r.ReadMessage(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWriter_WritesMarkedFrame(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, network.Markers{Start: []byte{0x02}, End: []byte{0x03}})

	require.NoError(t, w.WriteMessage([]byte("pong")))
	assert.Equal(t, []byte("\x02pong\x03"), buf.Bytes())

	require.NoError(t, w.Close())
	err := w.WriteMessage([]byte("late"))
	assert.True(t, errors.Is(err, ErrWriterClosed))
}

func TestWriter_FlushesBufferedWriter(t *testing.T) {
	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	w := NewWriter(bw, network.Markers{})

	require.NoError(t, w.WriteMessage([]byte("ok")))
	assert.Equal(t, "ok\r\n", buf.String())
}
