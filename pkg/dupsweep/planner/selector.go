package planner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/types"
)

// Selector decides which members of a group to remove.
type Selector interface {
	Select(ctx context.Context, g types.Group) (Selection, error)
}

// Auto keeps the first member of every group and removes the rest.
type Auto struct{}

// Select always returns ModeAll.
func (Auto) Select(ctx context.Context, _ types.Group) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}
	return Selection{Mode: ModeAll}, nil
}

// LineReader reads one line of user input after showing a prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// PromptText is shown before each interactive selection.
const PromptText = "Remove which copies? (e.g. 2,3, 'all' or 'none'): "

// Prompt asks a LineReader for each group's selection.
type Prompt struct {
	Reader LineReader
}

// NewPrompt returns a Prompt reading from r.
func NewPrompt(r LineReader) *Prompt {
	return &Prompt{Reader: r}
}

// Select reads and parses one response for g.
func (p *Prompt) Select(ctx context.Context, g types.Group) (Selection, error) {
	if err := ctx.Err(); err != nil {
		return Selection{}, err
	}

	line, err := p.Reader.ReadLine(PromptText)
	if err != nil {
		return Selection{}, fmt.Errorf("reading selection: %w", err)
	}
	return ParseSelection(line, len(g.Members))
}

// ConsoleReader reads lines from an io.Reader and writes prompts to an
// io.Writer.
type ConsoleReader struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleReader returns a LineReader over in and out.
func NewConsoleReader(in io.Reader, out io.Writer) *ConsoleReader {
	return &ConsoleReader{in: bufio.NewReader(in), out: out}
}

// ReadLine writes the prompt and returns the next line without its line
// ending. A final line without a newline is returned before io.EOF.
func (c *ConsoleReader) ReadLine(prompt string) (string, error) {
	if _, err := io.WriteString(c.out, prompt); err != nil {
		return "", err
	}

	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
