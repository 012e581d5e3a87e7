// Package journal 连接日志
//
// 订阅事件总线上的连接建立、连接关闭与报文丢弃事件，按传输类型累计计数，
// 并保留最近关闭的若干条连接记录，供统计快照与运维排查使用。
package journal

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/weisyn/standpoint/pkg/interfaces/infrastructure/event"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/standpoint/pkg/types"
)

// DefaultCapacity 默认保留的最近关闭连接数
const DefaultCapacity = 16

// Counts 某一传输类型的累计计数
type Counts struct {
	Opened uint64 `json:"opened"`
	Closed uint64 `json:"closed"`
	Failed uint64 `json:"failed"` // 因错误关闭
}

// Snapshot 连接日志快照
type Snapshot struct {
	ByTransport  map[types.TransportKind]Counts `json:"by_transport"`
	Drops        uint64                         `json:"drops"`
	DroppedBytes uint64                         `json:"dropped_bytes"`
	LastDrop     *types.FrameDropEvent          `json:"last_drop,omitempty"`
	Recent       []types.ConnectionEvent        `json:"recent"` // 最近关闭的连接，新的在前
}

// Total 所有传输类型的合计
func (s Snapshot) Total() Counts {
	var t Counts
	for _, c := range s.ByTransport {
		t.Opened += c.Opened
		t.Closed += c.Closed
		t.Failed += c.Failed
	}
	return t
}

// Journal 连接日志
type Journal struct {
	bus      event.EventBus
	logger   logInterface.Logger
	capacity int

	attachMu sync.Mutex
	attached bool

	// mu 只保护计数，事件回调在总线锁内执行，订阅时不能持有它
	mu           sync.Mutex
	counts       map[types.TransportKind]*Counts
	drops        uint64
	droppedBytes uint64
	lastDrop     *types.FrameDropEvent
	recent       []types.ConnectionEvent
	next         int

	onOpened  func(*types.ConnectionEvent)
	onClosed  func(*types.ConnectionEvent)
	onDropped func(*types.FrameDropEvent)
}

// Option 连接日志选项
type Option func(*Journal)

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(j *Journal) { j.logger = logger }
}

// WithCapacity 设置保留的最近关闭连接数，n <= 0 时忽略
func WithCapacity(n int) Option {
	return func(j *Journal) {
		if n > 0 {
			j.capacity = n
		}
	}
}

// New 创建连接日志，Attach 之后才开始记录
func New(bus event.EventBus, opts ...Option) *Journal {
	j := &Journal{
		bus:      bus,
		capacity: DefaultCapacity,
		counts:   make(map[types.TransportKind]*Counts),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.recent = make([]types.ConnectionEvent, 0, j.capacity)
	j.onOpened = j.connectionOpened
	j.onClosed = j.connectionClosed
	j.onDropped = j.frameDropped
	return j
}

// Attach 订阅网络事件，重复调用无副作用
func (j *Journal) Attach() error {
	j.attachMu.Lock()
	defer j.attachMu.Unlock()
	if j.attached {
		return nil
	}
	err := multierr.Combine(
		j.bus.Subscribe(event.EventTypeConnectionOpened, j.onOpened),
		j.bus.Subscribe(event.EventTypeConnectionClosed, j.onClosed),
		j.bus.Subscribe(event.EventTypeFrameDropped, j.onDropped),
	)
	if err != nil {
		j.unsubscribe()
		return fmt.Errorf("订阅网络事件失败: %w", err)
	}
	j.attached = true
	return nil
}

// Detach 取消订阅，已记录的数据保留
func (j *Journal) Detach() {
	j.attachMu.Lock()
	defer j.attachMu.Unlock()
	if !j.attached {
		return
	}
	j.unsubscribe()
	j.attached = false
}

func (j *Journal) unsubscribe() {
	_ = j.bus.Unsubscribe(event.EventTypeConnectionOpened, j.onOpened)
	_ = j.bus.Unsubscribe(event.EventTypeConnectionClosed, j.onClosed)
	_ = j.bus.Unsubscribe(event.EventTypeFrameDropped, j.onDropped)
}

func (j *Journal) countsFor(kind types.TransportKind) *Counts {
	c, ok := j.counts[kind]
	if !ok {
		c = &Counts{}
		j.counts[kind] = c
	}
	return c
}

func (j *Journal) connectionOpened(e *types.ConnectionEvent) {
	if e == nil {
		return
	}
	j.mu.Lock()
	j.countsFor(e.Transport).Opened++
	j.mu.Unlock()
}

func (j *Journal) connectionClosed(e *types.ConnectionEvent) {
	if e == nil {
		return
	}
	j.mu.Lock()
	c := j.countsFor(e.Transport)
	c.Closed++
	if e.Err != "" {
		c.Failed++
	}
	if len(j.recent) < j.capacity {
		j.recent = append(j.recent, *e)
	} else {
		j.recent[j.next] = *e
	}
	j.next = (j.next + 1) % j.capacity
	j.mu.Unlock()

	if e.Err != "" && j.logger != nil {
		j.logger.Debugf("连接 %s (%s) 异常关闭: %s", e.ID, e.RemoteAddr, e.Err)
	}
}

func (j *Journal) frameDropped(e *types.FrameDropEvent) {
	if e == nil {
		return
	}
	j.mu.Lock()
	j.drops++
	j.droppedBytes += uint64(e.DroppedBytes)
	last := *e
	j.lastDrop = &last
	j.mu.Unlock()

	if j.logger != nil {
		j.logger.Debugf("连接 %s 丢弃超限报文 %d 字节 (上限 %d)", e.ConnectionID, e.DroppedBytes, e.MaxSize)
	}
}

// Snapshot 返回当前计数与最近关闭的连接
func (j *Journal) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Snapshot{
		ByTransport:  make(map[types.TransportKind]Counts, len(j.counts)),
		Drops:        j.drops,
		DroppedBytes: j.droppedBytes,
		Recent:       make([]types.ConnectionEvent, 0, len(j.recent)),
	}
	for k, c := range j.counts {
		s.ByTransport[k] = *c
	}
	if j.lastDrop != nil {
		last := *j.lastDrop
		s.LastDrop = &last
	}
	// 环形缓冲区按写入顺序倒序展开
	for i := 1; i <= len(j.recent); i++ {
		idx := (j.next - i + len(j.recent)) % len(j.recent)
		s.Recent = append(s.Recent, j.recent[idx])
	}
	return s
}

// AppendStats 追加到统计快照
func (j *Journal) AppendStats(b *strings.Builder) {
	s := j.Snapshot()
	t := s.Total()
	fmt.Fprintf(b, "Connections: opened=%d closed=%d failed=%d  FrameDrops: %d (%d bytes)\n",
		t.Opened, t.Closed, t.Failed, s.Drops, s.DroppedBytes)
	if s.LastDrop != nil {
		fmt.Fprintf(b, "Last drop: conn=%s bytes=%d at %s\n",
			s.LastDrop.ConnectionID, s.LastDrop.DroppedBytes, s.LastDrop.At.Format("15:04:05"))
	}
	for _, e := range s.Recent {
		status := "ok"
		if e.Err != "" {
			status = e.Err
		}
		fmt.Fprintf(b, "  %s %s %s msgs=%d dur=%s %s\n",
			e.Transport, e.ID, e.RemoteAddr, e.Messages, e.Duration(), status)
	}
}
