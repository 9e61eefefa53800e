// Package tui is the interactive terminal frontend.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"newsresearch/internal/domain"
)

// MaxURLs is the number of URL fields offered per processing run.
const MaxURLs = 3

// Port is the TUI-facing subset of the application service.
type Port interface {
	Process(ctx context.Context, urls []string) (domain.ProcessReport, error)
	Ask(ctx context.Context, question string) (domain.Answer, error)
	IndexMeta() (domain.IndexMeta, bool)
}

type severity int

const (
	info severity = iota
	success
	warning
	failure
)

type processedMsg struct {
	report domain.ProcessReport
	err    error
}

type answeredMsg struct {
	answer domain.Answer
	err    error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	ctx      context.Context
	port     Port
	inputs   []textinput.Model // URL fields followed by the question
	focus    int
	spinner  spinner.Model
	viewport viewport.Model
	busy     string
	status   string
	level    severity
	answer   *domain.Answer
	digest   string
	ready    bool
}

// New creates the model. ctx bounds every action it starts.
func New(ctx context.Context, port Port) Model {
	inputs := make([]textinput.Model, MaxURLs+1)
	for i := range MaxURLs {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("URL %d > ", i+1)
		ti.Placeholder = "https://..."
		inputs[i] = ti
	}
	q := textinput.New()
	q.Prompt = "Question > "
	q.Placeholder = "Ask about the processed articles and press Enter"
	inputs[MaxURLs] = q
	inputs[0].Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	m := Model{
		ctx:      ctx,
		port:     port,
		inputs:   inputs,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		status:   "Enter up to 3 news article URLs, then press Enter or Ctrl+P to process them.",
	}
	if meta, ok := port.IndexMeta(); ok {
		m.status = fmt.Sprintf("Loaded index of %d chunks from %s. Ask away.", meta.Chunks, strings.Join(meta.Sources, ", "))
	}
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and action events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := resultBoxStyle.GetFrameSize()
		// title, inputs, blank line, status line
		reserved := 1 + len(m.inputs) + 2 + fh
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.viewport.SetContent(m.renderOutput())
		return m, nil

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case processedMsg:
		m.busy = ""
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.level = success
		m.status = fmt.Sprintf("Processed %d article(s) into %d chunks. Ask a question below.", msg.report.Documents, msg.report.Chunks)
		m.digest = msg.report.Digest
		m.answer = nil
		m.viewport.SetContent(m.renderOutput())
		m.viewport.GotoTop()
		return m, m.setFocus(MaxURLs)

	case answeredMsg:
		m.busy = ""
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.level = info
		m.status = ""
		m.answer = &msg.answer
		m.viewport.SetContent(m.renderOutput())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab", "down":
			return m, m.setFocus((m.focus + 1) % len(m.inputs))
		case "shift+tab", "up":
			return m, m.setFocus((m.focus - 1 + len(m.inputs)) % len(m.inputs))
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case "ctrl+p":
			return m.process()
		case "enter":
			if m.focus < MaxURLs {
				return m.process()
			}
			return m.ask()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) process() (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	urls := make([]string, 0, MaxURLs)
	for _, in := range m.inputs[:MaxURLs] {
		if u := strings.TrimSpace(in.Value()); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		m.setError(domain.ErrEmptyInput)
		return m, nil
	}
	m.busy = "Loading data from URLs..."
	ctx, port := m.ctx, m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		report, err := port.Process(ctx, urls)
		return processedMsg{report: report, err: err}
	})
}

func (m Model) ask() (tea.Model, tea.Cmd) {
	if m.busy != "" {
		return m, nil
	}
	question := strings.TrimSpace(m.inputs[MaxURLs].Value())
	if question == "" {
		return m, nil
	}
	m.busy = "Searching for answers..."
	ctx, port := m.ctx, m.port
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		answer, err := port.Ask(ctx, question)
		return answeredMsg{answer: answer, err: err}
	})
}

func (m *Model) setFocus(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

func (m *Model) setError(err error) {
	var ingestion *domain.IngestionError
	var answer *domain.AnswerError
	switch {
	case errors.Is(err, domain.ErrEmptyInput):
		m.level, m.status = warning, "Please enter at least one URL."
	case errors.Is(err, domain.ErrEmptyQuery):
		m.level, m.status = warning, "Please enter a question."
	case errors.Is(err, domain.ErrNoIndex):
		m.level, m.status = failure, "No index found. Process some URLs first."
	case errors.As(err, &ingestion):
		m.level, m.status = failure, fmt.Sprintf("Could not load %s: %v", ingestion.URL, ingestion.Err)
	case errors.As(err, &answer):
		m.level, m.status = failure, fmt.Sprintf("The language model failed: %v", answer.Err)
	default:
		m.level, m.status = failure, "Error: "+err.Error()
	}
}

// View renders the inputs, status line and output pane.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("News Research Tool"))
	b.WriteString("\n")
	for i, in := range m.inputs {
		if i == MaxURLs {
			b.WriteString("\n")
		}
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(resultBoxStyle.Render(m.viewport.View()))
	return b.String()
}

func (m Model) renderStatus() string {
	if m.busy != "" {
		return m.spinner.View() + " " + busyStyle.Render(m.busy)
	}
	switch m.level {
	case success:
		return successStyle.Render(m.status)
	case warning:
		return warningStyle.Render(m.status)
	case failure:
		return errorStyle.Render(m.status)
	}
	return hintStyle.Render(m.status)
}

func (m Model) renderOutput() string {
	width := max(20, m.viewport.Width-2)
	if m.answer != nil {
		var b strings.Builder
		b.WriteString(headingStyle.Render("Answer"))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Render(m.answer.Text))
		if len(m.answer.Sources) > 0 {
			b.WriteString("\n\n")
			b.WriteString(headingStyle.Render("Sources"))
			for _, s := range m.answer.Sources {
				b.WriteString("\n- " + s)
			}
		}
		return b.String()
	}
	if m.digest != "" {
		return headingStyle.Render("Digest") + "\n" + lipgloss.NewStyle().Width(width).Render(m.digest)
	}
	return hintStyle.Render("No answer yet.")
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headingStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	hintStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	busyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
