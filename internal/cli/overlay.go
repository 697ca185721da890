package cli

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errPromptCancelled = errors.New("cancelled")

type overlayDoneMsg struct{}

type overlayModel struct {
	spinner spinner.Model
	label   string
	done    bool
}

func newOverlayModel(label string) overlayModel {
	return overlayModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("205"))),
		),
		label: label,
	}
}

func (m overlayModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m overlayModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(overlayDoneMsg); ok {
		m.done = true
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m overlayModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.label + "..."
}

// loadingOverlay shows a spinner while the loading signal is active.
// set is called from uistate.Loading transitions.
type loadingOverlay struct {
	out   io.Writer
	label string

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

func newLoadingOverlay(out io.Writer, label string) *loadingOverlay {
	return &loadingOverlay{out: out, label: label}
}

func (o *loadingOverlay) set(active bool) {
	if active {
		o.start()
		return
	}
	o.stop()
}

func (o *loadingOverlay) start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.program != nil {
		return
	}

	p := tea.NewProgram(newOverlayModel(o.label),
		tea.WithOutput(o.out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Run()
	}()
	o.program, o.done = p, done
}

// stop clears the spinner and waits for the program to exit
func (o *loadingOverlay) stop() {
	o.mu.Lock()
	p, done := o.program, o.done
	o.program, o.done = nil, nil
	o.mu.Unlock()

	if p == nil {
		return
	}
	p.Send(overlayDoneMsg{})
	<-done
}

type promptModel struct {
	input     textinput.Model
	submitted bool
	cancelled bool
}

func (m promptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m promptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.submitted = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m promptModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	return m.input.View() + "\n"
}

// promptSecret reads a masked value from the terminal
func promptSecret(in io.Reader, out io.Writer, label string) (string, error) {
	input := textinput.New()
	input.Prompt = label + ": "
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	input.Focus()

	p := tea.NewProgram(promptModel{input: input}, tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}

	m, ok := final.(promptModel)
	if !ok || m.cancelled {
		return "", errPromptCancelled
	}
	return m.input.Value(), nil
}
