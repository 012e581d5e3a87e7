package metrics

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	infraClock "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/clock"
)

// RuntimeSample 一次运行时采样
type RuntimeSample struct {
	Time         time.Time     `json:"time"`
	Uptime       time.Duration `json:"uptime"`
	HeapAlloc    uint64        `json:"heap_alloc"`
	HeapInuse    uint64        `json:"heap_inuse"`
	Sys          uint64        `json:"sys"`
	NumGC        uint32        `json:"num_gc"`
	NumGoroutine int           `json:"num_goroutine"`
}

// RuntimeSampler 采样 runtime.MemStats
//
// 实现 prometheus.Collector（按需采样），同时实现 feature.ApplicationStats，
// 周期统计日志的第一段即来自这里。
type RuntimeSampler struct {
	clock     infraClock.Clock
	startedAt time.Time

	mu   sync.Mutex
	last RuntimeSample

	uptimeDesc     *prometheus.Desc
	goroutinesDesc *prometheus.Desc
	heapAllocDesc  *prometheus.Desc
}

// NewRuntimeSampler 创建运行时采样器，启动时间取创建时刻
func NewRuntimeSampler(clock infraClock.Clock) *RuntimeSampler {
	return &RuntimeSampler{
		clock:     clock,
		startedAt: clock.Now(),
		uptimeDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "runtime", "uptime_seconds"),
			"Seconds since the host was constructed.", nil, nil),
		goroutinesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "runtime", "goroutines"),
			"Goroutines at the time of the last sample.", nil, nil),
		heapAllocDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "runtime", "heap_alloc_bytes"),
			"Heap bytes allocated at the time of the last sample.", nil, nil),
	}
}

// Sample 立即采样一次
func (s *RuntimeSampler) Sample() RuntimeSample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	now := s.clock.Now()
	sample := RuntimeSample{
		Time:         now,
		Uptime:       now.Sub(s.startedAt),
		HeapAlloc:    ms.HeapAlloc,
		HeapInuse:    ms.HeapInuse,
		Sys:          ms.Sys,
		NumGC:        ms.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}
	s.mu.Lock()
	s.last = sample
	s.mu.Unlock()
	return sample
}

// Last 返回最近一次采样
func (s *RuntimeSampler) Last() RuntimeSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Describe 实现 prometheus.Collector
func (s *RuntimeSampler) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.uptimeDesc
	ch <- s.goroutinesDesc
	ch <- s.heapAllocDesc
}

// Collect 实现 prometheus.Collector
func (s *RuntimeSampler) Collect(ch chan<- prometheus.Metric) {
	sample := s.Sample()
	ch <- prometheus.MustNewConstMetric(s.uptimeDesc, prometheus.GaugeValue, sample.Uptime.Seconds())
	ch <- prometheus.MustNewConstMetric(s.goroutinesDesc, prometheus.GaugeValue, float64(sample.NumGoroutine))
	ch <- prometheus.MustNewConstMetric(s.heapAllocDesc, prometheus.GaugeValue, float64(sample.HeapAlloc))
}

// AppendApplicationStats 向统计日志输出运行时概况
func (s *RuntimeSampler) AppendApplicationStats(b *strings.Builder) {
	sample := s.Sample()
	fmt.Fprintf(b, "Uptime: %s  Goroutines: %d  HeapAlloc: %.1fMB  Sys: %.1fMB  GC: %d\n",
		sample.Uptime.Truncate(time.Second),
		sample.NumGoroutine,
		float64(sample.HeapAlloc)/(1<<20),
		float64(sample.Sys)/(1<<20),
		sample.NumGC,
	)
}
