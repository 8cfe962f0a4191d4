package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/config"
	"github.com/palemoky/catch-the-ten/internal/logger"
	"github.com/palemoky/catch-the-ten/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	verbosity := flag.Int("verbosity", 0, "日志级别，2 及以上输出逐条消息")
	logFile := flag.String("log_file", "", "日志文件路径")
	flag.Parse()

	if err := logger.Init(nil, logger.Options{Verbosity: *verbosity, File: *logFile}); err != nil {
		klog.Exitf("初始化日志失败: %v", err)
	}
	defer logger.Flush()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		klog.Warningf("加载配置文件失败，使用默认配置: %v", err)
		cfg = config.Default()
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		logger.Flush()
		klog.Exitf("创建服务器失败: %v", err)
	}

	// SIGTERM 等待进行中的对局结束，SIGINT 立即关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sig := <-quit
		klog.Infof("收到信号 %s，正在关闭服务器...", sig)
		if sig == syscall.SIGTERM {
			srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
		} else {
			srv.GracefulShutdown(0)
		}
	}()

	klog.Info("🎮 抓十点服务器启动中...")
	if err := srv.Start(); err != nil {
		logger.Flush()
		klog.Exitf("服务器启动失败: %v", err)
	}
	<-stopped
}
