package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/xxxsen/profileqa/internal/model"
)

// Asker is the chat-facing subset of the QA service.
type Asker interface {
	AskStream(ctx context.Context, question string, onDelta func(string) error) (*model.QueryResult, error)
}

type turn struct {
	question string
	answer   string
	sources  int
	err      error
}

type deltaMsg string

type doneMsg struct {
	result *model.QueryResult
	err    error
}

// Model is the Bubble Tea model of the chat window.
type Model struct {
	ctx      context.Context
	asker    Asker
	title    string
	input    textinput.Model
	viewport viewport.Model
	turns    []turn
	events   chan tea.Msg
	busy     bool
	ready    bool
}

func New(ctx context.Context, asker Asker, title string) Model {
	ti := textinput.New()
	ti.Prompt = "you> "
	ti.Placeholder = "Ask about the profile, Enter to send, Ctrl+C to quit"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		asker:    asker,
		title:    title,
		input:    ti,
		viewport: viewport.New(0, 0),
	}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := historyBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + ih + 1
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.input.Reset()
			m.turns = append(m.turns, turn{question: q})
			m.busy = true
			m.events = make(chan tea.Msg, 16)
			m.refresh()
			return m, tea.Batch(m.ask(q), m.waitFor(m.events))
		}
	case deltaMsg:
		if n := len(m.turns); n > 0 {
			m.turns[n-1].answer += string(msg)
		}
		m.refresh()
		return m, m.waitFor(m.events)
	case doneMsg:
		m.busy = false
		if n := len(m.turns); n > 0 {
			last := &m.turns[n-1]
			last.err = msg.err
			if msg.result != nil {
				last.answer = msg.result.Answer
				last.sources = len(msg.result.Sources)
			}
		}
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question in the background and posts deltas, then a doneMsg, on the
// events channel.
func (m Model) ask(question string) tea.Cmd {
	events := m.events
	return func() tea.Msg {
		res, err := m.asker.AskStream(m.ctx, question, func(delta string) error {
			select {
			case events <- deltaMsg(delta):
				return nil
			case <-m.ctx.Done():
				return m.ctx.Err()
			}
		})
		select {
		case events <- doneMsg{result: res, err: err}:
		case <-m.ctx.Done():
		}
		return nil
	}
}

func (m Model) waitFor(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.turns) == 0 {
		return hintStyle.Render("No questions yet.")
	}
	var sb strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(questionStyle.Render("you> " + t.question))
		sb.WriteString("\n")
		switch {
		case t.err != nil:
			sb.WriteString(errorStyle.Render("error: " + t.err.Error()))
		case t.answer == "":
			sb.WriteString(hintStyle.Render("thinking..."))
		default:
			sb.WriteString(t.answer)
			if t.sources > 0 {
				sb.WriteString("\n")
				sb.WriteString(hintStyle.Render(fmt.Sprintf("(%d sources)", t.sources)))
			}
		}
	}
	return sb.String()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(m.title)
	status := hintStyle.Render("ready")
	if m.busy {
		status = hintStyle.Render("answering...")
	}
	return header + "\n" + historyBoxStyle.Render(m.viewport.View()) + "\n" + inputBoxStyle.Render(m.input.View()) + "\n" + status
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	historyBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
