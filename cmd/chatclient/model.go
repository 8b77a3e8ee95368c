package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/GoMudEngine/ansitags"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/GoMudEngine/npcchat/internal/dialog"
	"github.com/GoMudEngine/npcchat/internal/wire"
)

const (
	frameInterval = 50 * time.Millisecond
	charsPerTick  = 2
	maxLogLines   = 500
)

type frameMsg wire.ServerFrame

type tickMsg time.Time

type disconnectedMsg struct {
	err error
}

type model struct {
	send      func(wire.ClientFrame) error
	input     textinput.Model
	presenter *dialog.Presenter

	name string
	log  []string

	// The NPC plain input goes to
	subject     string
	subjectName string

	// The reply being revealed, if any
	streaming     string
	streamingName string

	width  int
	closed bool
}

func newModel(send func(wire.ClientFrame) error) *model {
	ti := textinput.New()
	ti.Placeholder = `talk <name> <message>, npcs, ai, status, /leave, /quit`
	ti.CharLimit = wire.MaxTextLength
	ti.Prompt = `> `
	ti.Focus()

	return &model{
		send:      send,
		input:     ti,
		presenter: dialog.NewPresenter(),
		width:     80,
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 4

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.leave()
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue(``)
			if line == `` {
				return m, nil
			}
			if quit := m.submit(line); quit {
				return m, tea.Quit
			}
			return m, nil
		}

	case frameMsg:
		m.handleFrame(wire.ServerFrame(msg))
		return m, nil

	case tickMsg:
		m.advanceStream()
		return m, tick()

	case disconnectedMsg:
		m.closed = true
		m.addLine(fmt.Sprintf(`<ansi fg="red">Disconnected: %v</ansi>`, msg.err))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	var sb strings.Builder

	for _, line := range m.log {
		sb.WriteString(runewidth.Wrap(line, m.width))
		sb.WriteString("\n")
	}

	if m.streaming != `` {
		if text, ok := m.presenter.GetStreamedText(m.streaming, charsPerTick); ok {
			sb.WriteString(runewidth.Wrap(ansitags.Parse(replyLine(m.streamingName, text)), m.width))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	if m.subjectName != `` {
		sb.WriteString(ansitags.Parse(fmt.Sprintf(`Talking to <ansi fg="yellow">%s</ansi>`, m.subjectName)))
		sb.WriteString("\n")
	}
	sb.WriteString(m.input.View())

	return sb.String()
}

// submit handles a line typed by the player. Returns true to quit.
func (m *model) submit(line string) bool {

	switch {
	case line == `/quit`:
		m.leave()
		return true

	case line == `/leave`:
		m.leave()
		return false

	case strings.HasPrefix(line, `/talk `):
		id := strings.TrimSpace(strings.TrimPrefix(line, `/talk `))
		if _, err := uuid.Parse(id); err != nil {
			m.addLine(`/talk needs an NPC id. Use "talk <name> <message>" to talk by name.`)
			return false
		}
		m.selectSubject(id, id)
		return false
	}

	if m.closed {
		m.addLine(`<ansi fg="red">Not connected.</ansi>`)
		return false
	}

	frame := wire.ClientFrame{Kind: wire.KindCommand, Text: line}
	if m.subject != `` {
		frame = wire.ClientFrame{Kind: wire.KindChat, Subject: m.subject, Text: line}
		m.addLine(fmt.Sprintf(`You say, "%s"`, line))
	}

	if err := m.send(frame); err != nil {
		m.addLine(fmt.Sprintf(`<ansi fg="red">Send failed: %v</ansi>`, err))
	}
	return false
}

func (m *model) handleFrame(f wire.ServerFrame) {
	switch f.Kind {

	case wire.KindWelcome:
		m.name = f.Name
		m.addLine(fmt.Sprintf(`Connected as <ansi fg="cyan">%s</ansi>.`, f.Name))

	case wire.KindText:
		for _, line := range strings.Split(strings.TrimRight(f.Text, "\n"), "\n") {
			m.addLine(line)
		}

	case wire.KindReply:
		if f.Subject != m.subject {
			m.selectSubject(f.Subject, f.Name)
		}
		m.subjectName = f.Name

		// A new reply replaces one still being revealed
		m.streaming = f.Subject
		m.streamingName = f.Name
		m.presenter.SetResponse(f.Subject, f.Text)
	}
}

// advanceStream moves a finished reply into the log
func (m *model) advanceStream() {
	if m.streaming == `` {
		return
	}

	text, ok := m.presenter.GetStreamedText(m.streaming, charsPerTick)
	if !ok {
		m.streaming = ``
		return
	}

	if m.presenter.IsStreamingComplete(m.streaming) {
		m.addLine(replyLine(m.streamingName, text))
		m.presenter.ClearResponse(m.streaming)
		m.streaming = ``
	}
}

// selectSubject switches who plain input goes to. Anything still streaming
// from the previous NPC is dropped.
func (m *model) selectSubject(id string, name string) {
	if m.subject != `` && m.subject != id {
		m.finishStream()
	}
	m.subject = id
	m.subjectName = name
}

func (m *model) leave() {
	m.finishStream()
	m.subject = ``
	m.subjectName = ``
}

func (m *model) finishStream() {
	if m.streaming == `` {
		return
	}
	m.presenter.ClearResponse(m.streaming)
	m.streaming = ``
}

func (m *model) addLine(line string) {
	m.log = append(m.log, ansitags.Parse(line))
	if len(m.log) > maxLogLines {
		m.log = m.log[len(m.log)-maxLogLines:]
	}
}

func replyLine(name string, text string) string {
	return fmt.Sprintf(`<ansi fg="yellow">%s</ansi> says, "%s"`, name, text)
}
