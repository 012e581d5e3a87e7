// Package echo 回显控制器：以 \0 结束每条消息，原样返回收到的内容
package echo

import (
	"context"

	logInterface "github.com/weisyn/standpoint/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/standpoint/pkg/interfaces/network"
)

// EndMarker 回显协议的结束标记
var EndMarker = []byte{0}

// Controller 回显控制器
type Controller struct {
	logger logInterface.Logger
}

var _ network.Controller = (*Controller)(nil)

// New 创建回显控制器
func New(logger logInterface.Logger) *Controller {
	return &Controller{logger: logger}
}

// Factory 返回每次创建新控制器的工厂
func Factory(logger logInterface.Logger) network.ControllerFactory {
	return func() (network.Controller, error) {
		return New(logger), nil
	}
}

// Registration 实现 network.Controller
func (c *Controller) Registration() network.ControllerRegistration {
	return network.ControllerRegistration{
		Handle:  c.handle,
		Markers: &network.Markers{End: EndMarker},
	}
}

func (c *Controller) handle(_ context.Context, conn network.Connection, message []byte) ([]byte, error) {
	if c.logger != nil {
		c.logger.Debugf("收到消息: conn=%s size=%d", conn.ID(), len(message))
	}
	return message, nil
}
