package connection

import (
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/standpoint/pkg/interfaces/network"
	"github.com/weisyn/standpoint/pkg/types"
)

type bufferCloser struct {
	bytes.Buffer
	closes int
}

func (b *bufferCloser) Close() error {
	b.closes++
	return nil
}

func TestContext_TCPReadWriteClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	c := NewTCP(context.Background(), server, network.Markers{End: []byte{0}})
	assert.NotEmpty(t, c.ID())
	assert.Equal(t, types.TransportTCP, c.Transport())

	go func() { _, _ = client.Write([]byte("PING\x00")) }()
	msg, err := c.Reader().ReadMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "PING", string(msg))

	reply := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 16)
		n, _ := client.Read(buf)
		reply <- buf[:n]
	}()
	require.NoError(t, c.Writer().WriteMessage([]byte("PONG")))
	assert.Equal(t, []byte("PONG\x00"), <-reply)

	// 阻塞中的读取在关闭后立即返回
	result := make(chan error, 1)
	go func() {
		_, err := c.Reader().ReadMessage(context.Background())
		result <- err
	}()
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, c.Close())
	select {
	case err := <-result:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("关闭后读取未返回")
	}

	assert.True(t, c.Closed())
	assert.Error(t, c.Context().Err())
	assert.Error(t, c.Writer().WriteMessage([]byte("late")))
}

func TestContext_CloseIsIdempotentAcrossGoroutines(t *testing.T) {
	out := &bufferCloser{}
	c := NewBuffer(context.Background(), []byte("a\r\n"), out, "10.0.0.1:5000", network.Markers{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, out.closes)
	assert.Equal(t, "10.0.0.1:5000", c.RemoteAddr())
}

func TestContext_BufferEndsWithEOF(t *testing.T) {
	out := &bufferCloser{}
	c := NewBuffer(context.Background(), []byte("one\r\ntwo\r\n"), out, "peer", network.Markers{})
	defer c.Close()

	for _, want := range []string{"one", "two"} {
		msg, err := c.Reader().ReadMessage(context.Background())
		require.NoError(t, err)
		assert.Equal(t, want, string(msg))
		require.NoError(t, c.Writer().WriteMessage(msg))
	}
	_, err := c.Reader().ReadMessage(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "one\r\ntwo\r\n", out.String())
}

func TestCache(t *testing.T) {
	c := NewCache()

	v, loaded := c.GetOrSet("user", "alice")
	assert.False(t, loaded)
	assert.Equal(t, "alice", v)

	v, loaded = c.GetOrSet("user", "bob")
	assert.True(t, loaded)
	assert.Equal(t, "alice", v)

	c.Set("n", 1)
	assert.Equal(t, 2, c.Len())

	seen := map[string]interface{}{}
	c.Range(func(k string, v interface{}) bool {
		seen[k] = v
		return true
	})
	assert.Equal(t, map[string]interface{}{"user": "alice", "n": 1}, seen)

	c.Delete("user")
	_, ok := c.Get("user")
	assert.False(t, ok)
}
