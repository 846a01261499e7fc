package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/rybosome/tspice-sub002/engine"
	"github.com/rybosome/tspice-sub002/spice"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectOp modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err      error
	backend  *spice.Backend
	cleanup  func()
	wasmFile string
	kernels  string
	cfg      *engine.Config
	log      *zap.Logger
	result   string
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

func newInteractiveModel(wasmFile, kernels string, cfg *engine.Config, log *zap.Logger) *interactiveModel {
	return &interactiveModel{
		wasmFile: wasmFile,
		kernels:  kernels,
		cfg:      cfg,
		log:      log,
		state:    stateSelectOp,
	}
}

type loadedMsg struct {
	err     error
	backend *spice.Backend
	cleanup func()
}

type callResultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadEngine
}

func (m *interactiveModel) loadEngine() tea.Msg {
	b, cleanup, err := newBackend(context.Background(), m.wasmFile, m.kernels, m.cfg, m.log)
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{backend: b, cleanup: cleanup}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			if m.cleanup != nil {
				m.cleanup()
			}
			return m, tea.Quit

		case "q":
			if m.state == stateSelectOp || m.state == stateShowResult {
				if m.cleanup != nil {
					m.cleanup()
				}
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectOp && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectOp && m.selected < len(operations)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectOp:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callOperation
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callOperation

			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectOp
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.backend = msg.backend
		m.cleanup = msg.cleanup

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
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

func (m *interactiveModel) prepareInputs() {
	op := operations[m.selected]
	m.inputs = make([]textinput.Model, len(op.params))
	for i, p := range op.params {
		ti := textinput.New()
		ti.Placeholder = p.typ
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) callOperation() tea.Msg {
	if m.backend == nil {
		return callResultMsg{err: fmt.Errorf("engine not loaded")}
	}
	op := operations[m.selected]
	args := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		args[i] = input.Value()
	}
	result, err := op.run(context.Background(), m.backend, args)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: result}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.backend == nil {
		return "Loading engine..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("tspice"))
	b.WriteString(" ")
	b.WriteString(m.wasmFile)
	b.WriteString(fmt.Sprintf("  (%d live handles)", m.backend.Handles()))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectOp:
		b.WriteString("Select an operation:\n\n")
		for i, op := range operations {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + formatOp(op)))
			} else {
				b.WriteString(cursor + formatOp(op))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		op := operations[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", opStyle.Render(op.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(op.params[i].typ))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		op := operations[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", opStyle.Render(op.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func formatOp(op operation) string {
	var params []string
	for _, p := range op.params {
		params = append(params, p.name+": "+typeStyle.Render(p.typ))
	}
	return opStyle.Render(op.name) + "(" + strings.Join(params, ", ") + ")"
}

func runInteractive(wasmFile, kernels string, cfg *engine.Config, log *zap.Logger) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("interactive mode needs a terminal")
	}
	p := tea.NewProgram(newInteractiveModel(wasmFile, kernels, cfg, log), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
