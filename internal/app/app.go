// Package app 组装并运行 StandPoint 节点
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/weisyn/standpoint/internal/core/host"
)

const (
	// startupTimeout 基础设施启动超时
	startupTimeout = 30 * time.Second

	// shutdownTimeout 基础设施停止超时
	shutdownTimeout = 30 * time.Second
)

// App 节点应用的对外接口
type App interface {
	// Host 宿主实例
	Host() *host.Application

	// Run 启动宿主并阻塞到收到终止信号，随后释放所有资源
	Run(ctx context.Context) error

	// Stop 停止宿主并释放基础设施，可重复调用
	Stop() error
}

type internalApp struct {
	bootstrap *Bootstrap
	host      *host.Application

	stopOnce sync.Once
	stopErr  error
}

// Start 装配并启动基础设施，返回尚未启动 Feature 的应用
func Start(opts ...Option) (App, error) {
	bootstrap := NewBootstrap(newOptions(opts...))
	if err := bootstrap.CreateFxApp(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := bootstrap.StartApp(ctx); err != nil {
		return nil, err
	}
	return &internalApp{bootstrap: bootstrap, host: bootstrap.Application()}, nil
}

func (a *internalApp) Host() *host.Application { return a.host }

func (a *internalApp) Run(ctx context.Context) error {
	runErr := a.host.Run(ctx)
	a.stopOnce.Do(func() {
		a.stopErr = a.shutdown(false)
	})
	return errors.Join(runErr, a.stopErr)
}

func (a *internalApp) Stop() error {
	a.stopOnce.Do(func() {
		a.stopErr = a.shutdown(true)
	})
	return a.stopErr
}

// shutdown 先停止宿主（如需要），再停止基础设施
func (a *internalApp) shutdown(stopHost bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var hostErr error
	if stopHost {
		hostErr = a.host.Stop(ctx)
	}
	return errors.Join(hostErr, a.bootstrap.StopApp(ctx))
}
