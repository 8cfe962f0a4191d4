package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/logger"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/simulator"
)

func main() {
	url := flag.String("url", "ws://localhost:1780/ws", "服务器地址")
	roomID := flag.String("room", "", "房间号，为空时自动生成")
	names := flag.String("names", strings.Join(simulator.DefaultNames, ","), "机器人昵称，逗号分隔；3 个时等待真人加入")
	encoding := flag.String("encoding", "json", "消息编码 json|protobuf")
	games := flag.Int("games", 1, "连续对局数")
	delay := flag.Duration("delay", 300*time.Millisecond, "每次出牌前的等待")
	verbosity := flag.Int("verbosity", 0, "日志级别")
	flag.Parse()

	if err := logger.Init(nil, logger.Options{Verbosity: *verbosity}); err != nil {
		klog.Exitf("初始化日志失败: %v", err)
	}
	defer logger.Flush()

	msgCodec, err := codec.ForName(*encoding)
	if err != nil {
		klog.Exit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var botNames []string
	for _, n := range strings.Split(*names, ",") {
		if n = strings.TrimSpace(n); n != "" {
			botNames = append(botNames, n)
		}
	}

	_, err = simulator.Run(ctx, simulator.Config{
		URL:    *url,
		RoomID: *roomID,
		Names:  botNames,
		Codec:  msgCodec,
		Games:  *games,
		Delay:  *delay,
		Out:    os.Stdout,
	})
	if err != nil {
		logger.Flush()
		klog.Exitf("模拟失败: %v", err)
	}
}
