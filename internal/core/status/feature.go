// Package status 状态服务 Feature
//
// 通过 HTTP 暴露宿主的运行状态：
//   - GET /status   周期统计快照与生命周期状态
//   - GET /health   宿主已启动时返回 200，否则 503
//   - GET /metrics  Prometheus 指标（可配置关闭）
package status

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	statusconfig "github.com/weisyn/standpoint/internal/config/status"
	"github.com/weisyn/standpoint/internal/core/feature"
	"github.com/weisyn/standpoint/internal/core/infrastructure/log"
	configiface "github.com/weisyn/standpoint/pkg/interfaces/config"
	hostiface "github.com/weisyn/standpoint/pkg/interfaces/host"
	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	metricsiface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/metrics"
	"github.com/weisyn/standpoint/pkg/types"
)

// Name Feature 注册名
const Name = "StatusFeature"

// shutdownTimeout Stop 未携带截止时间时的关闭等待上限
const shutdownTimeout = 5 * time.Second

// StatusFeature 状态服务
type StatusFeature struct {
	options  *statusconfig.StatusOptions
	lifetime hostiface.Lifetime
	stats    hostiface.StatsSource
	gatherer prometheus.Gatherer
	logger   logInterface.Logger
	router   *gin.Engine

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// Response /status 响应体
type Response struct {
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Stats     string    `json:"stats"`
}

// Use 在 StatusFeature:Enabled 为 true 时注册状态服务，否则返回 nil
func Use(c *feature.Collection, provider configiface.Provider) (*feature.Registration, error) {
	options := provider.GetStatus()
	if !options.Enabled {
		return nil, nil
	}
	reg, err := feature.Register(c, Name, newStatusFeature)
	if err != nil {
		return nil, err
	}
	reg.ConfigureServices(func(s *feature.Services) error {
		return feature.AddInstance[*statusconfig.StatusOptions](s, options)
	})
	return reg, nil
}

// gatherable 由持有独立注册表的指标实现提供
type gatherable interface {
	Registry() *prometheus.Registry
}

func newStatusFeature(s *feature.Services) (*StatusFeature, error) {
	options, err := feature.Resolve[*statusconfig.StatusOptions](s)
	if err != nil {
		return nil, err
	}
	lifetime, err := feature.Resolve[hostiface.Lifetime](s)
	if err != nil {
		return nil, err
	}
	stats, err := feature.Resolve[hostiface.StatsSource](s)
	if err != nil {
		return nil, err
	}
	base, err := feature.Resolve[logInterface.Logger](s)
	if err != nil {
		base = log.GetLogger()
	}

	var gatherer prometheus.Gatherer
	if options.EnableMetrics {
		if r, err := feature.Resolve[metricsiface.Recorder](s); err == nil {
			if g, ok := r.(gatherable); ok {
				gatherer = g.Registry()
			}
		}
	}
	return New(options, lifetime, stats, gatherer, log.NewModuleLogger(base, "status")), nil
}

// New 创建状态服务，gatherer 为 nil 时不注册 /metrics
func New(options *statusconfig.StatusOptions, lifetime hostiface.Lifetime, stats hostiface.StatsSource,
	gatherer prometheus.Gatherer, logger logInterface.Logger) *StatusFeature {
	f := &StatusFeature{
		options:  options,
		lifetime: lifetime,
		stats:    stats,
		gatherer: gatherer,
		logger:   logger,
	}
	f.router = f.setupRoutes()
	return f
}

func (f *StatusFeature) setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(f.logger))

	router.GET("/status", f.handleStatus)
	router.GET("/health", f.handleHealth)
	if f.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(f.gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

func (f *StatusFeature) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		State:     f.lifetime.State().String(),
		Timestamp: time.Now().UTC(),
		Stats:     f.stats.StatsSnapshot(),
	})
}

func (f *StatusFeature) handleHealth(c *gin.Context) {
	state := f.lifetime.State()
	code := http.StatusOK
	if state != types.ApplicationStarted {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"state":      state.String(),
		"request_id": RequestIDFrom(c),
	})
}

// Name 实现 feature.Named
func (f *StatusFeature) Name() string { return Name }

// Handler 路由，测试可直接使用
func (f *StatusFeature) Handler() http.Handler { return f.router }

// Addr 实际监听地址，未启动时为 nil
func (f *StatusFeature) Addr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addr
}

// Start 实现 feature.Feature
func (f *StatusFeature) Start(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.server != nil {
		return fmt.Errorf("状态服务已启动")
	}

	ln, err := net.Listen("tcp", f.options.ListenAddress)
	if err != nil {
		return fmt.Errorf("状态服务监听 %s 失败: %w", f.options.ListenAddress, err)
	}
	server := &http.Server{
		Handler:           f.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	f.server = server
	f.addr = ln.Addr()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Errorf("状态服务异常退出: %v", err)
		}
	}()
	f.logger.Infof("状态服务监听 http://%s", ln.Addr())
	return nil
}

// Stop 实现 feature.Feature，未启动时直接返回
func (f *StatusFeature) Stop(ctx context.Context) error {
	f.mu.Lock()
	server := f.server
	f.server = nil
	f.addr = nil
	f.mu.Unlock()
	if server == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}
	if err := server.Shutdown(ctx); err != nil {
		_ = server.Close()
		return fmt.Errorf("关闭状态服务失败: %w", err)
	}
	return nil
}

// AppendFeatureStats 实现 feature.Stats
func (f *StatusFeature) AppendFeatureStats(b *strings.Builder) {
	b.WriteString("====== Status ======\n")
	if addr := f.Addr(); addr != nil {
		fmt.Fprintf(b, "HTTP: http://%s  Metrics: %t\n", addr, f.gatherer != nil)
		return
	}
	b.WriteString("HTTP: 未启动\n")
}
