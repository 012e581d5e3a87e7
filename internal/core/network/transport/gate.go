package transport

import (
	"context"
	"sync"
)

// Gate 可复位的手动事件
//
// Set 后所有 Wait 立即返回，直到 Reset；任意 goroutine 均可调用。
type Gate struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

// NewGate 创建门，open 为初始状态
func NewGate(open bool) *Gate {
	g := &Gate{ch: make(chan struct{})}
	if open {
		g.Set()
	}
	return g
}

// Set 打开门
func (g *Gate) Set() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.set {
		g.set = true
		close(g.ch)
	}
}

// Reset 关闭门
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.set {
		g.set = false
		g.ch = make(chan struct{})
	}
}

// IsSet 门是否打开
func (g *Gate) IsSet() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.set
}

// Wait 等待门打开，ctx 取消时返回 ctx.Err()
func (g *Gate) Wait(ctx context.Context) error {
	g.mu.Lock()
	ch := g.ch
	g.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
