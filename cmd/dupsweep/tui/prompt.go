package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/planner"
)

// ErrAborted is returned when the user leaves a prompt with Ctrl+C.
var ErrAborted = errors.New("prompt aborted")

// PromptModel is a single-line input for a group selection.
type PromptModel struct {
	input   textinput.Model
	label   string
	done    bool
	aborted bool
	eof     bool
}

// NewPromptModel creates a focused prompt showing label.
func NewPromptModel(label string) PromptModel {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "none"
	ti.PlaceholderStyle = placeholderStyle
	ti.TextStyle = inputTextStyle
	ti.CharLimit = 256
	ti.Width = 40
	ti.Focus()

	return PromptModel{input: ti, label: label}
}

// Init starts the cursor blinking.
func (m PromptModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses. Enter submits, Esc submits an empty answer,
// Ctrl+C aborts and Ctrl+D on an empty line ends input.
func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyEsc:
			m.input.SetValue("")
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC:
			m.aborted = true
			return m, tea.Quit
		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.eof = true
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the prompt. Once answered it renders the final line so
// the transcript keeps the response.
func (m PromptModel) View() string {
	label := promptStyle.Render(m.label)
	switch {
	case m.aborted:
		return label + abortedStyle.Render("^C") + "\n"
	case m.eof:
		return label + "\n"
	case m.done:
		return label + m.input.Value() + "\n"
	}
	return label + m.input.View()
}

// Value returns the text entered so far.
func (m PromptModel) Value() string {
	return m.input.Value()
}

// Result converts the finished model into a ReadLine result.
func (m PromptModel) Result() (string, error) {
	switch {
	case m.aborted:
		return "", ErrAborted
	case m.eof:
		return "", io.EOF
	}
	return m.input.Value(), nil
}

// PromptReader implements planner.LineReader with a Bubble Tea program
// per question.
type PromptReader struct {
	in  io.Reader
	out io.Writer

	// OnAbort runs when the user presses Ctrl+C. The terminal is in raw
	// mode while a prompt is shown, so no SIGINT is delivered; pass the
	// run's cancel function here.
	OnAbort context.CancelFunc
}

// NewPromptReader reads keys from in and draws on out.
func NewPromptReader(in io.Reader, out io.Writer) *PromptReader {
	return &PromptReader{in: in, out: out}
}

// ReadLine shows prompt and blocks until the user answers.
func (r *PromptReader) ReadLine(prompt string) (string, error) {
	p := tea.NewProgram(NewPromptModel(prompt),
		tea.WithInput(r.in),
		tea.WithOutput(r.out),
		tea.WithoutSignalHandler(),
	)

	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}

	m, ok := final.(PromptModel)
	if !ok {
		return "", fmt.Errorf("unexpected prompt model %T", final)
	}

	line, err := m.Result()
	if errors.Is(err, ErrAborted) && r.OnAbort != nil {
		r.OnAbort()
	}
	return line, err
}

var _ planner.LineReader = (*PromptReader)(nil)
