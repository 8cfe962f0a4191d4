// Package simulator 打开多个机器人连接加入同一房间并自动出牌
package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"k8s.io/klog/v2"

	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/transport"
)

// DefaultNames 默认的机器人昵称
var DefaultNames = []string{"Alice", "Bob", "Charlie", "Dave"}

// Config 模拟器配置
type Config struct {
	URL    string      // ws://host:port/ws
	RoomID string      // 为空时生成
	Names  []string    // 机器人昵称，3 个时等待真人玩家加入第 4 个座位
	Codec  codec.Codec // 需与服务器编码一致
	Games  int         // 连续对局数，默认 1
	Delay  time.Duration
	Out    io.Writer // 为 nil 时不输出
}

// Result 模拟结果
type Result struct {
	RoomID  string
	Games   []protocol.GameOverPayload
	Latency time.Duration // 主持机器人最近一次 ping 的往返时间
}

// Run 连接机器人、开始对局并自动出牌，直到完成 cfg.Games 局
func Run(ctx context.Context, cfg Config) (*Result, error) {
	if len(cfg.Names) == 0 {
		cfg.Names = DefaultNames
	}
	if len(cfg.Names) > game.NumSeats {
		return nil, fmt.Errorf("机器人最多 %d 个", game.NumSeats)
	}
	if cfg.RoomID == "" {
		cfg.RoomID = fmt.Sprintf("sim-%d", time.Now().UnixNano()%100000)
	}
	if cfg.Games <= 0 {
		cfg.Games = 1
	}

	out := &printer{w: cfg.Out}
	out.println(titleStyle.Render("🎲 抓十点模拟器 | 房间 " + cfg.RoomID))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bots := make([]*bot, 0, len(cfg.Names))
	defer func() {
		for _, b := range bots {
			b.client.Close()
		}
	}()

	// 依次加入，座位与机器人顺序一致
	for i, name := range cfg.Names {
		client, err := transport.Dial(ctx, cfg.URL, cfg.Codec,
			transport.WithOnMessage(func(m *protocol.Message) {
				klog.V(2).Infof("[%s] ← %s", name, m.Type)
			}),
			transport.WithOnClose(func() {
				klog.V(1).Infof("机器人 %s 连接已关闭", name)
			}))
		if err != nil {
			return nil, err
		}
		b := newBot(name, cfg.RoomID, client, out, cfg.Delay, i == 0)
		bots = append(bots, b)
		go b.run(ctx)

		if err := client.JoinRoom(cfg.RoomID, name); err != nil {
			return nil, err
		}
		select {
		case <-b.joined:
		case err := <-b.errs:
			return nil, fmt.Errorf("%s: %w", name, err)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		klog.V(1).Infof("机器人 %s (%s) 已入座", name, client.PlayerID())
	}

	host := bots[0]
	if len(bots) < game.NumSeats {
		out.printf("\n📱 还差 %d 名玩家，请加入房间 %s", game.NumSeats-len(bots), cfg.RoomID)
	}
	select {
	case <-host.full:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	res := &Result{RoomID: cfg.RoomID}
	for round := 1; round <= cfg.Games; round++ {
		out.println(titleStyle.Render(fmt.Sprintf("\n🚀 第 %d 局开始", round)))
		if !host.client.IsConnected() {
			return res, transport.ErrClosed
		}
		// 顺带测一次延迟，结果在汇总中输出
		if err := host.client.Ping(); err != nil {
			return res, err
		}
		if err := host.client.StartGame(cfg.RoomID); err != nil {
			return res, err
		}

		over, err := waitGameOver(ctx, bots)
		if err != nil {
			return res, err
		}
		res.Games = append(res.Games, over)
		if over.Reason == string(game.ReasonAborted) {
			return res, errors.New("对局中止: " + over.Result)
		}
	}

	res.Latency = time.Duration(host.client.Latency()) * time.Millisecond
	out.println(summary(res))
	return res, nil
}

// waitGameOver 等待主持机器人收到 game_over，任一机器人出错时返回
func waitGameOver(ctx context.Context, bots []*bot) (protocol.GameOverPayload, error) {
	errs := make(chan error, len(bots))
	stop := make(chan struct{})
	defer close(stop)

	for _, b := range bots[1:] {
		go func(b *bot) {
			select {
			case err := <-b.errs:
				errs <- fmt.Errorf("%s: %w", b.name, err)
			case <-stop:
			}
		}(b)
	}

	host := bots[0]
	select {
	case over := <-host.over:
		return over, nil
	case err := <-host.errs:
		return protocol.GameOverPayload{}, fmt.Errorf("%s: %w", host.name, err)
	case err := <-errs:
		return protocol.GameOverPayload{}, err
	case <-host.client.Done():
		return protocol.GameOverPayload{}, transport.ErrClosed
	case <-ctx.Done():
		return protocol.GameOverPayload{}, ctx.Err()
	}
}

func summary(res *Result) string {
	wins := map[string]int{}
	for _, g := range res.Games {
		switch g.Winner {
		case string(game.TeamA), string(game.TeamB):
			wins[g.Winner]++
		default:
			wins["draw"]++
		}
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(fmt.Sprintf("📊 共 %d 局", len(res.Games))))
	fmt.Fprintf(&sb, "\nA 队胜 %d | B 队胜 %d | 平局 %d | 延迟 %v", wins["A"], wins["B"], wins["draw"], res.Latency)
	return resultStyle.Render(sb.String())
}
