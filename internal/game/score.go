package game

import "fmt"

// Reason 结局原因
type Reason string

const (
	ReasonTens    Reason = "tens"    // 按 10 的张数决出胜负
	ReasonTricks  Reason = "tricks"  // 10 的张数相同，按墩数决出
	ReasonDraw    Reason = "draw"    // 完全平局
	ReasonAborted Reason = "aborted" // 有玩家离开，对局中止
)

// Outcome 对局结局，保留双方原始得分
type Outcome struct {
	Winner  Team // 平局或中止时为空
	Reason  Reason
	Message string
	Scores  Scores
}

// Aborted 是否为非正常结束
func (o *Outcome) Aborted() bool {
	return o != nil && o.Reason == ReasonAborted
}

// Decide 先比较 10 的张数，再比较墩数
func Decide(s Scores) *Outcome {
	o := &Outcome{Scores: s}
	switch {
	case s.TeamA.Tens != s.TeamB.Tens:
		o.Reason = ReasonTens
		o.Winner = TeamB
		if s.TeamA.Tens > s.TeamB.Tens {
			o.Winner = TeamA
		}
		o.Message = fmt.Sprintf("%s 队以 10 的张数获胜", o.Winner)
	case s.TeamA.Tricks != s.TeamB.Tricks:
		o.Reason = ReasonTricks
		o.Winner = TeamB
		if s.TeamA.Tricks > s.TeamB.Tricks {
			o.Winner = TeamA
		}
		o.Message = fmt.Sprintf("%s 队以墩数获胜", o.Winner)
	default:
		o.Reason = ReasonDraw
		o.Message = "平局"
	}
	return o
}

func (g *Game) finish() {
	g.phase = PhaseFinished
	g.outcome = Decide(g.scores)
}

// Abort 强制结束进行中的对局，返回中止结局；未在进行中时返回 nil
func (g *Game) Abort(message string) *Outcome {
	if !g.IsActive() {
		return nil
	}
	g.phase = PhaseFinished
	g.trumpPending = false
	g.outcome = &Outcome{
		Reason:  ReasonAborted,
		Message: message,
		Scores:  g.scores,
	}
	return g.outcome
}
