package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type handshakeDoneMsg struct {
	err error
}

type handshakeSpinnerModel struct {
	spinner spinner.Model
	label   string
	dial    tea.Cmd
	err     error
	done    bool
}

func newHandshakeSpinnerModel(label string, dial tea.Cmd) handshakeSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return handshakeSpinnerModel{
		spinner: s,
		label:   label,
		dial:    dial,
	}
}

func (m handshakeSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.dial)
}

func (m handshakeSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case handshakeDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m handshakeSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// runHandshakeSpinner shows a spinner on output until handshake returns.
func runHandshakeSpinner(ctx context.Context, output io.Writer, label string, handshake func(context.Context) error) error {
	handshakeCmd := func() tea.Msg {
		return handshakeDoneMsg{err: handshake(ctx)}
	}

	p := tea.NewProgram(
		newHandshakeSpinnerModel(label, handshakeCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(handshakeSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
