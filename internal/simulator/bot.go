package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/palemoky/catch-the-ten/internal/game"
	"github.com/palemoky/catch-the-ten/internal/protocol"
	"github.com/palemoky/catch-the-ten/internal/protocol/codec"
	"github.com/palemoky/catch-the-ten/internal/transport"
)

// bot 一个自动出牌的连接
type bot struct {
	name    string
	roomID  string
	client  *transport.Client
	out     *printer
	delay   time.Duration
	narrate bool // 是否输出整桌事件，只有一个机器人负责

	seat     int
	joined   chan int
	over     chan protocol.GameOverPayload
	errs     chan error
	full     chan struct{}
	fullOnce sync.Once
}

func newBot(name, roomID string, client *transport.Client, out *printer, delay time.Duration, narrate bool) *bot {
	return &bot{
		name:    name,
		roomID:  roomID,
		client:  client,
		out:     out,
		delay:   delay,
		narrate: narrate,
		seat:    -1,
		joined:  make(chan int, 1),
		over:    make(chan protocol.GameOverPayload, 4),
		errs:    make(chan error, 4),
		full:    make(chan struct{}),
	}
}

// run 处理消息直到连接关闭或 ctx 结束
func (b *bot) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.client.Done():
			return
		case msg := <-b.client.Receive():
			if err := b.handle(ctx, msg); err != nil {
				b.report(err)
			}
		}
	}
}

func (b *bot) report(err error) {
	b.out.println(errorStyle.Render(fmt.Sprintf("✗ [%s] %v", b.name, err)))
	select {
	case b.errs <- err:
	default:
	}
}

func (b *bot) handle(ctx context.Context, msg *protocol.Message) error {
	switch msg.Type {
	case protocol.MsgJoinSuccess:
		p, err := codec.ParsePayload[protocol.JoinSuccessPayload](msg)
		if err != nil {
			return err
		}
		b.seat = p.Seat
		b.out.println(botStyle.Render(fmt.Sprintf("✓ %s 加入房间 %s (座位 %d)", b.name, p.RoomID, p.Seat)))
		select {
		case b.joined <- p.Seat:
		default:
		}

	case protocol.MsgJoinError:
		p, err := codec.ParsePayload[protocol.JoinErrorPayload](msg)
		if err != nil {
			return err
		}
		return fmt.Errorf("加入房间失败 (%d): %s", p.Code, p.Reason)

	case protocol.MsgInvalidMove:
		p, err := codec.ParsePayload[protocol.InvalidMovePayload](msg)
		if err != nil {
			return err
		}
		return fmt.Errorf("操作被拒绝 (%d): %s", p.Code, p.Reason)

	case protocol.MsgError:
		p, err := codec.ParsePayload[protocol.ErrorPayload](msg)
		if err != nil {
			return err
		}
		b.out.println(errorStyle.Render(fmt.Sprintf("⚠️ [%s] %d %s", b.name, p.Code, p.Message)))

	case protocol.MsgGameState:
		p, err := codec.ParsePayload[protocol.GameStatePayload](msg)
		if err != nil {
			return err
		}
		return b.onState(ctx, p)

	case protocol.MsgTrumpDecided:
		if b.narrate {
			p, err := codec.ParsePayload[protocol.TrumpDecidedPayload](msg)
			if err != nil {
				return err
			}
			b.out.println(trumpStyle.Render("👑 主牌花色: " + renderSuit(p.TrumpSuit)))
		}

	case protocol.MsgTrickResult:
		if b.narrate {
			p, err := codec.ParsePayload[protocol.TrickResultPayload](msg)
			if err != nil {
				return err
			}
			line := trickStyle.Render(fmt.Sprintf("   座位 %d 赢得本墩", p.WinnerSeat))
			if p.TensCaptured > 0 {
				line += " " + tenStyle.Render(fmt.Sprintf("+%d 张 10", p.TensCaptured))
			}
			b.out.println(line)
		}

	case protocol.MsgGameOver:
		p, err := codec.ParsePayload[protocol.GameOverPayload](msg)
		if err != nil {
			return err
		}
		if b.narrate {
			b.out.println(renderGameOver(p))
		}
		select {
		case b.over <- *p:
		default:
		}
	}
	return nil
}

// onState 轮到自己时出牌
func (b *bot) onState(ctx context.Context, s *protocol.GameStatePayload) error {
	if len(s.Players) == game.NumSeats {
		b.fullOnce.Do(func() { close(b.full) })
	}

	phase := game.Phase(s.Phase)
	if phase != game.PhaseTrumpDiscovery && phase != game.PhaseMainGame {
		return nil
	}
	if s.YourSeat == nil || *s.YourSeat != s.CurrentTurnSeat || *s.YourSeat >= len(s.Players) {
		return nil
	}

	pick, ok := ChooseCard(s.Players[*s.YourSeat].Hand, s.BaseSuit)
	if !ok {
		return errors.New("轮到出牌但手中没有牌")
	}

	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			return nil
		}
	}

	b.out.printf("🃏 %s (座位 %d) 出 %s", botStyle.Render(b.name), b.seat, renderCard(pick))
	return b.client.PlayCard(b.roomID, pick.ID)
}

func renderGameOver(p *protocol.GameOverPayload) string {
	body := fmt.Sprintf("%s\n\nA 队: %d 张 10, %d 墩\nB 队: %d 张 10, %d 墩",
		titleStyle.Render("🏁 "+p.Result),
		p.Scores.TeamA.Tens, p.Scores.TeamA.Tricks,
		p.Scores.TeamB.Tens, p.Scores.TeamB.Tricks)
	return resultStyle.Render(body)
}
