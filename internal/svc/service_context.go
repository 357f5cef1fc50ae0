package svc

import (
	"fmt"
	"io"
	"net/http"

	"github.com/fachebot/video-insight/internal/backend"
	"github.com/fachebot/video-insight/internal/config"
	"github.com/fachebot/video-insight/internal/notify"
	"github.com/fachebot/video-insight/internal/page"
	"github.com/fachebot/video-insight/internal/ui"

	"golang.org/x/net/proxy"
)

type ServiceContext struct {
	Config         *config.Config
	TransportProxy *http.Transport
	BackendClient  *backend.Client
	Page           *page.Document
	View           ui.View
	Notifier       *notify.Notifier
	Controller     *ui.Controller
}

// NewServiceContext 组装各组件；console 为控制台通知的输出目标
func NewServiceContext(c *config.Config, console io.Writer) (*ServiceContext, error) {
	// 创建SOCKS5代理
	var transportProxy *http.Transport
	if c.Sock5Proxy.Enable {
		socks5Proxy := fmt.Sprintf("%s:%d", c.Sock5Proxy.Host, c.Sock5Proxy.Port)
		dialer, err := proxy.SOCKS5("tcp", socks5Proxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("创建SOCKS5代理失败, %w", err)
		}
		transportProxy = &http.Transport{Dial: dialer.Dial}
	}

	// 加载宿主页面
	doc, err := page.New()
	if err != nil {
		return nil, err
	}
	view, err := doc.Bindings(c.Page.Icons)
	if err != nil {
		return nil, err
	}

	var backendClient *backend.Client
	if transportProxy != nil {
		backendClient = backend.NewClient(&c.Backend, transportProxy)
	} else {
		backendClient = backend.NewClient(&c.Backend, nil)
	}

	notifier := notify.NewNotifier(&c.Notify, console, doc)

	svcCtx := &ServiceContext{
		Config:         c,
		TransportProxy: transportProxy,
		BackendClient:  backendClient,
		Page:           doc,
		View:           view,
		Notifier:       notifier,
		Controller:     ui.NewController(backendClient, view, notifier, c.Loading),
	}
	return svcCtx, nil
}

// Close 释放后端连接
func (svcCtx *ServiceContext) Close() {
	if svcCtx.TransportProxy != nil {
		svcCtx.TransportProxy.CloseIdleConnections()
	}
}
