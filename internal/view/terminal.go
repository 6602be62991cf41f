package view

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/healthdesk/internal/model/chat"
)

var (
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#101F38")).Background(lipgloss.Color("#e1e4e8")).Padding(0, 1)
	botStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BC34A")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Terminal renders a session as styled lines on a writer. It is safe for
// concurrent use.
type Terminal struct {
	mu   sync.Mutex
	out  io.Writer
	name string
}

// NewTerminal creates a renderer that labels assistant lines with name.
func NewTerminal(out io.Writer, name string) *Terminal {
	if name == "" {
		name = "Assistant"
	}
	return &Terminal{out: out, name: name}
}

func (t *Terminal) SetOpen(open bool) {
	if open {
		t.println(headerStyle.Render(t.name))
		return
	}
	t.println(mutedStyle.Render("(conversation closed)"))
}

func (t *Terminal) RenderMessage(msg chat.Message) {
	if msg.IsBot() {
		t.println(botStyle.Render(t.name+":") + " " + msg.Text)
		return
	}
	t.println(userStyle.Render("you") + " " + msg.Text)
}

func (t *Terminal) ShowTyping(uint64) {
	t.println(mutedStyle.Render(t.name + " is typing..."))
}

func (t *Terminal) HideTyping(uint64) {}

func (t *Terminal) HideError() {}

func (t *Terminal) ShowError(text string) {
	t.println(errorStyle.Render(text))
}

func (t *Terminal) ClearTranscript() {
	t.println(mutedStyle.Render("--- new conversation ---"))
}

func (t *Terminal) println(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, line)
}
