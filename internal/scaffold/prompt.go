package scaffold

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCancelled is returned by PromptName when the user quits without a name
var ErrCancelled = errors.New("page creation cancelled")

var (
	promptTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	promptHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	promptErrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptPathStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type promptModel struct {
	input     textinput.Model
	pagesDir  string
	name      string
	errMsg    string
	done      bool
	cancelled bool
}

func newPromptModel(pagesDir string) promptModel {
	ti := textinput.New()
	ti.Placeholder = "about or blog/post"
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Focus()

	return promptModel{input: ti, pagesDir: pagesDir}
}

func (m promptModel) Init() tea.Cmd { return textinput.Blink }

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		case tea.KeyEnter:
			name, err := NormalizeName(m.input.Value())
			if err != nil {
				m.errMsg = "Enter a page name such as about or blog/post"
				return m, nil
			}
			m.name = name
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.errMsg = ""
	return m, cmd
}

func (m promptModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(promptTitleStyle.Render("New page"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")

	if name, err := NormalizeName(m.input.Value()); err == nil {
		b.WriteString(promptPathStyle.Render(fmt.Sprintf("%s/%s", m.pagesDir, name)))
		b.WriteString("\n")
	}
	if m.errMsg != "" {
		b.WriteString(promptErrStyle.Render(m.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(promptHintStyle.Render("Enter to create, Esc to cancel"))
	b.WriteString("\n")
	return b.String()
}

// PromptName asks for a page name on the terminal and returns it normalized
func PromptName(in io.Reader, out io.Writer, pagesDir string) (string, error) {
	p := tea.NewProgram(newPromptModel(pagesDir), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("failed to run prompt: %w", err)
	}

	m := final.(promptModel)
	if m.cancelled || !m.done {
		return "", ErrCancelled
	}
	return m.name, nil
}
