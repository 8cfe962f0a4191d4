package simulator

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/catch-the-ten/internal/protocol"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	trumpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	trickStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	tenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	resultStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	redSuit     = lipgloss.NewStyle().Foreground(lipgloss.Color("#CD0000")).Bold(true)
	blackSuit   = lipgloss.NewStyle().Bold(true)
)

var suitSymbols = map[string]string{
	"HEARTS":   "♥",
	"DIAMONDS": "♦",
	"CLUBS":    "♣",
	"SPADES":   "♠",
}

// renderCard 带花色符号和颜色的牌面
func renderCard(c protocol.CardInfo) string {
	sym := suitSymbols[c.Suit]
	if c.Suit == "HEARTS" || c.Suit == "DIAMONDS" {
		return redSuit.Render(sym + c.Rank)
	}
	return blackSuit.Render(sym + c.Rank)
}

// renderSuit 花色符号
func renderSuit(suit string) string {
	if sym, ok := suitSymbols[suit]; ok {
		return sym + " " + suit
	}
	return suit
}

// printer 多个机器人共享的输出
type printer struct {
	w  io.Writer
	mu sync.Mutex
}

func (p *printer) println(s string) {
	if p == nil || p.w == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, s)
}

func (p *printer) printf(format string, args ...any) {
	p.println(fmt.Sprintf(format, args...))
}
