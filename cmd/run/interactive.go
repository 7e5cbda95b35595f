package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/wippyai/edge-abi/config"
	"github.com/wippyai/edge-abi/runtime"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#98FB98"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// Longest response body shown before truncation.
const maxShownBody = 4096

type interactiveCmd struct{}

func (interactiveCmd) Run(common *config.CLI) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal; use invoke instead")
	}
	cfg, err := config.Load(common)
	if err != nil {
		return err
	}
	// Package loggers stay silent here; their output would tear the screen.
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

type modelState int

const (
	stateCompose modelState = iota
	stateShowResult
)

const (
	fieldMethod = iota
	fieldPath
	fieldHeaders
	fieldBody
	fieldCount
)

type interactiveModel struct {
	err      error
	cfg      *config.Config
	guest    *guest
	result   *exchange
	inputs   []textinput.Model
	focusIdx int
	state    modelState
}

// exchange is one request sent to the guest and what came back.
type exchange struct {
	status  string
	headers []string
	body    string
}

func newInteractiveModel(cfg *config.Config) *interactiveModel {
	m := &interactiveModel{
		cfg:    cfg,
		state:  stateCompose,
		inputs: make([]textinput.Model, fieldCount),
	}
	prompts := [fieldCount][2]string{
		fieldMethod:  {"method:  ", "GET"},
		fieldPath:    {"path:    ", "/"},
		fieldHeaders: {"headers: ", "Name: value; Name: value"},
		fieldBody:    {"body:    ", ""},
	}
	for i, p := range prompts {
		ti := textinput.New()
		ti.Prompt = p[0]
		ti.Placeholder = p[1]
		ti.Width = 60
		m.inputs[i] = ti
	}
	m.inputs[fieldMethod].SetValue("GET")
	m.inputs[fieldPath].SetValue("/")
	m.inputs[fieldMethod].Focus()
	return m
}

type loadedMsg struct {
	err   error
	guest *guest
}

type responseMsg struct {
	err    error
	result *exchange
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.loadGuest, textinput.Blink)
}

func (m *interactiveModel) loadGuest() tea.Msg {
	g, err := loadGuest(context.Background(), m.cfg, nil,
		runtime.WithStdout(io.Discard), runtime.WithStderr(io.Discard))
	return loadedMsg{guest: g, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.guest != nil {
				m.guest.Close(context.Background())
			}
			return m, tea.Quit

		case "enter":
			switch m.state {
			case stateCompose:
				if m.guest != nil {
					return m, m.send
				}
			case stateShowResult:
				m.state = stateCompose
				m.result = nil
				m.err = nil
			}
			return m, nil

		case "tab", "shift+tab":
			if m.state == stateCompose {
				step := 1
				if msg.String() == "shift+tab" {
					step = fieldCount - 1
				}
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + step) % fieldCount
				return m, m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			if m.state == stateShowResult {
				m.state = stateCompose
				m.result = nil
				m.err = nil
				return m, nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.guest = msg.guest

	case responseMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateCompose {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) send() tea.Msg {
	var headers []string
	for _, h := range strings.Split(m.inputs[fieldHeaders].Value(), ";") {
		if h = strings.TrimSpace(h); h != "" {
			headers = append(headers, h)
		}
	}
	method := m.inputs[fieldMethod].Value()
	if method == "" {
		method = "GET"
	}

	var body io.Reader
	if v := m.inputs[fieldBody].Value(); v != "" {
		body = strings.NewReader(v)
	}
	req, err := buildRequest(m.cfg.Server.Addr(), method, m.inputs[fieldPath].Value(), headers, body)
	if err != nil {
		return responseMsg{err: err}
	}

	res := invoke(m.guest.mod, req)
	data, err := io.ReadAll(io.LimitReader(res.Body, maxShownBody+1))
	if err != nil {
		return responseMsg{err: err}
	}
	out := &exchange{status: res.Status, body: string(data)}
	if len(data) > maxShownBody {
		out.body = string(data[:maxShownBody]) + "\n..."
	}
	var head strings.Builder
	writeHead(&head, res)
	out.headers = strings.Split(strings.TrimSpace(head.String()), "\n")[1:]
	return responseMsg{result: out}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress ctrl+c to quit.", m.err))
	}

	if m.guest == nil {
		return "Loading guest..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Edge Runner"))
	b.WriteString(" ")
	b.WriteString(m.cfg.Guest.Wasm)
	b.WriteString("\n\n")

	switch m.state {
	case stateCompose:
		b.WriteString("Compose a request:\n\n")
		for _, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter send • ctrl+c quit"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(statusStyle.Render(m.result.status))
			b.WriteString("\n")
			for _, h := range m.result.headers {
				b.WriteString(headerStyle.Render(h))
				b.WriteString("\n")
			}
			b.WriteString("\n")
			b.WriteString(resultStyle.Render(m.result.body))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • ctrl+c quit"))
	}

	return b.String()
}
