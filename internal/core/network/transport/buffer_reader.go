package transport

import (
	"context"

	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// BufferReader 基于固定字节切片的读取器（数据报与测试）
//
// 字节逐个推入分帧器，同样受门控制；切片耗尽后数据源结束。
type BufferReader struct {
	*Reader
	data []byte
}

// NewBufferReader 创建缓冲读取器并启动后台推送循环，data 被复制
func NewBufferReader(ctx context.Context, data []byte, markers network.Markers, opts ...Option) *BufferReader {
	b := &BufferReader{
		Reader: newReader(ctx, markers, buildOptions(opts)),
		data:   append([]byte(nil), data...),
	}
	go b.loop()
	return b
}

func (b *BufferReader) loop() {
	for _, c := range b.data {
		if err := b.gate.Wait(b.ctx); err != nil {
			b.finish(err)
			return
		}
		b.framer.PushByte(c)
	}
	b.finish(nil)
}
