package framer

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

type collector struct {
	messages [][]byte
}

func (c *collector) handle(msg []byte) { c.messages = append(c.messages, msg) }

var markerCases = []struct {
	name    string
	markers network.Markers
}{
	{"默认CRLF", network.Markers{}},
	{"零字节结束", network.Markers{End: []byte{0}}},
	{"单字节起始", network.Markers{Start: []byte{0x02}, End: []byte{0x03}}},
	{"多字节起止", network.Markers{Start: []byte("<<"), End: []byte(">>")}},
	{"重复字节起始", network.Markers{Start: []byte("##"), End: []byte("\r\n")}},
	{"自重叠起始aab", network.Markers{Start: []byte("aab"), End: []byte("\r\n")}},
	{"自重叠起始abab", network.Markers{Start: []byte("abab"), End: []byte(";;")}},
}

// randomBytes 生成随机字节，字母表包含两个标记中的字节，可能拼出部分或完整标记
func randomBytes(r *rand.Rand, m network.Markers, maxLen int) []byte {
	alphabet := append([]byte("abcxyz"), m.Start...)
	alphabet = append(alphabet, m.End...)
	n := r.Intn(maxLen)
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[r.Intn(len(alphabet))]
	}
	return out
}

// randomPayload 生成可以包含标记字节、但放进一帧后不会提前成帧或触发起始复位的载荷
func randomPayload(r *rand.Rand, m network.Markers) []byte {
	for {
		payload := randomBytes(r, m, 24)
		if framesCleanly(m, payload) {
			return payload
		}
	}
}

func framesCleanly(m network.Markers, payload []byte) bool {
	frame := append(append(append([]byte{}, m.Start...), payload...), m.End...)
	if len(m.Start) > 0 && bytes.Contains(frame[1:], m.Start) {
		return false
	}
	return bytes.Index(frame[len(m.Start):], m.End) == len(payload)
}

func TestFramer_RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, tc := range markerCases {
		t.Run(tc.name, func(t *testing.T) {
			m := tc.markers.Normalize()
			for i := 0; i < 200; i++ {
				c := &collector{}
				f := New(tc.markers, WithMessageHandler(c.handle))
				payload := randomPayload(r, m)

				frame := append(append(append([]byte{}, m.Start...), payload...), m.End...)
				for _, b := range frame {
					f.PushByte(b)
				}

				require.Len(t, c.messages, 1)
				assert.Equal(t, payload, c.messages[0])
				assert.Empty(t, f.Buffered())
			}
		})
	}
}

func TestFramer_StartMarkerResets(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for _, tc := range markerCases {
		m := tc.markers.Normalize()
		if len(m.Start) == 0 {
			continue
		}
		t.Run(tc.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				f := New(tc.markers)
				partial := randomBytes(r, m, 32)
				if r.Intn(2) == 0 {
					partial = append(append([]byte{}, m.Start...), partial...)
				}

				f.Push(partial)
				f.Push(m.Start)

				assert.Equal(t, m.Start, f.Buffered(), "partial=%q", partial)
			}
		})
	}
}

func TestFramer_PayloadMayContainPartialMarkers(t *testing.T) {
	c := &collector{}
	f := New(network.Markers{Start: []byte("<<"), End: []byte(">>")}, WithMessageHandler(c.handle))

	f.Push([]byte("<<a<b>c\r>>"))

	require.Len(t, c.messages, 1)
	assert.Equal(t, "a<b>c\r", string(c.messages[0]))
}

func TestFramer_SelfOverlappingStartMarker(t *testing.T) {
	markers := network.Markers{Start: []byte("aab"), End: []byte("\r\n")}

	t.Run("跨推入保留部分标记", func(t *testing.T) {
		f := New(markers)
		f.Push([]byte("a"))
		f.Push([]byte("aab"))
		assert.Equal(t, "aab", string(f.Buffered()))
	})

	t.Run("失配后回退到重叠前缀", func(t *testing.T) {
		c := &collector{}
		f := New(markers, WithMessageHandler(c.handle))
		f.Push([]byte("aaabhello\r\n"))
		require.Len(t, c.messages, 1)
		assert.Equal(t, "hello", string(c.messages[0]))
	})

	t.Run("abab", func(t *testing.T) {
		c := &collector{}
		f := New(network.Markers{Start: []byte("abab"), End: []byte(";;")}, WithMessageHandler(c.handle))
		f.Push([]byte("ababab"))
		assert.Equal(t, "abab", string(f.Buffered()))
		f.Push([]byte("x;;"))
		require.Len(t, c.messages, 1)
		assert.Equal(t, "x", string(c.messages[0]))
	})
}

func TestFailureTable(t *testing.T) {
	assert.Equal(t, []int{0, 1, 0}, failureTable([]byte("aab")))
	assert.Equal(t, []int{0, 0, 1, 2}, failureTable([]byte("abab")))
	assert.Empty(t, failureTable(nil))
}

func TestFramer_MultipleMessagesInOneChunk(t *testing.T) {
	c := &collector{}
	f := New(network.Markers{End: []byte{0}}, WithMessageHandler(c.handle))

	f.Push([]byte("PING\x00PONG\x00PAR"))

	require.Len(t, c.messages, 2)
	assert.Equal(t, "PING", string(c.messages[0]))
	assert.Equal(t, "PONG", string(c.messages[1]))
	assert.Equal(t, "PAR", string(f.Buffered()))
}

func TestFramer_GarbageBeforeStartMarkerIsIgnored(t *testing.T) {
	c := &collector{}
	f := New(network.Markers{Start: []byte("<<"), End: []byte(">>")}, WithMessageHandler(c.handle))

	f.Push([]byte("noise<x<<hello>>"))

	require.Len(t, c.messages, 1)
	assert.Equal(t, "hello", string(c.messages[0]))
}

func TestFramer_OversizeIsDroppedAndReported(t *testing.T) {
	c := &collector{}
	var dropped []int
	f := New(network.Markers{},
		WithMaxMessageSize(8),
		WithMessageHandler(c.handle),
		WithDropHandler(func(n int) { dropped = append(dropped, n) }),
	)

	f.Push([]byte("0123456789"))
	f.Push([]byte("ok\r\n"))

	assert.Equal(t, uint64(1), f.Dropped())
	assert.Equal(t, []int{9}, dropped)
	require.Len(t, c.messages, 1)
	assert.Equal(t, "9ok", string(c.messages[0]))
}

func TestFramer_HandlerPanicIsRecovered(t *testing.T) {
	var errs []error
	var got []string
	calls := 0
	f := New(network.Markers{End: []byte{0}},
		WithMessageHandler(func(msg []byte) {
			calls++
			if calls == 1 {
				panic("boom")
			}
			got = append(got, string(msg))
		}),
		WithErrorHandler(func(err error) { errs = append(errs, err) }),
	)

	f.Push([]byte("a\x00b\x00"))

	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "boom")
	assert.Equal(t, []string{"b"}, got)
}

func TestFramer_DefaultsToCRLF(t *testing.T) {
	f := New(network.Markers{})
	assert.Equal(t, []byte("\r\n"), f.Markers().End)
	assert.Empty(t, f.Markers().Start)
}
