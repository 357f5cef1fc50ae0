package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fachebot/video-insight/internal/config"
	"github.com/fachebot/video-insight/internal/console"
	"github.com/fachebot/video-insight/internal/logger"
	"github.com/fachebot/video-insight/internal/svc"
	"github.com/fachebot/video-insight/internal/web"
)

var (
	configFile = flag.String("f", "etc/config.yaml", "the config file")
	mode       = flag.String("mode", "", "front end to run: console or web (overrides the config file)")
)

func main() {
	flag.Parse()

	// 读取配置文件
	c, err := config.LoadFromFile(*configFile)
	if err != nil {
		logger.Fatalf("读取配置文件失败, %s", err)
	}
	if *mode != "" {
		c.Mode = *mode
		if err := c.Validate(); err != nil {
			logger.Fatalf("命令行参数无效, %s", err)
		}
	}

	if err := logger.Setup(c.Log); err != nil {
		logger.Fatalf("初始化日志失败, %s", err)
	}

	// 创建服务上下文
	svcCtx, err := svc.NewServiceContext(c, os.Stdout)
	if err != nil {
		logger.Fatalf("创建服务上下文失败, %s", err)
	}
	defer svcCtx.Close()
	svcCtx.Controller.Init()

	// 等待程序退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch c.Mode {
	case config.ModeWeb:
		server := web.NewServer(&c.Web, svcCtx.Page, svcCtx.View, svcCtx.Controller)
		if err := server.ListenAndServe(ctx); err != nil {
			logger.Errorf("[Web] 服务异常退出, %s", err)
		}
	default:
		app := console.New(os.Stdin, os.Stdout, svcCtx.Page, svcCtx.View, svcCtx.Controller)
		if err := app.Run(ctx); err != nil {
			logger.Errorf("[Console] 异常退出, %s", err)
		}
	}

	logger.Infof("服务已停止")
}
