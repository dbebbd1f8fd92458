package ui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrPromptCancelled is returned when the user aborts a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

type passwordPrompt struct {
	input     textinput.Model
	title     string
	minLength int
	warning   string
	done      bool
	cancelled bool
}

func newPasswordPrompt(title string, minLength int) passwordPrompt {
	ti := textinput.New()
	ti.Placeholder = "password"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Focus()
	return passwordPrompt{input: ti, title: title, minLength: minLength}
}

func (p passwordPrompt) Init() tea.Cmd {
	return textinput.Blink
}

func (p passwordPrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			p.cancelled = true
			return p, tea.Quit
		case tea.KeyEnter:
			if len([]rune(p.input.Value())) < p.minLength {
				p.warning = fmt.Sprintf("Password must be at least %d characters", p.minLength)
				return p, nil
			}
			p.done = true
			return p, tea.Quit
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p passwordPrompt) View() string {
	if p.done || p.cancelled {
		return ""
	}
	view := styles.title.Render(p.title) + "\n" + p.input.View() + "\n"
	if p.warning != "" {
		view += styles.warn.Render(p.warning) + "\n"
	}
	return view + styles.help.Render("enter to confirm • esc to cancel") + "\n"
}

// PromptPassword reads a masked password of at least minLength characters from in.
func PromptPassword(in io.Reader, out io.Writer, title string, minLength int) (string, error) {
	final, err := tea.NewProgram(newPasswordPrompt(title, minLength), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	p := final.(passwordPrompt)
	if p.cancelled || !p.done {
		return "", ErrPromptCancelled
	}
	return p.input.Value(), nil
}
