// Package prompt asks the user to pick a disposition and to confirm it.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/thinkingscript/tidy/internal/dispose"
)

var (
	// ErrInterrupted is returned when the user presses Ctrl+C or input ends
	// during a prompt.
	ErrInterrupted = errors.New("interrupted")

	ErrInvalidChoice = errors.New("invalid choice")
)

type Prompter interface {
	ChooseAction() (dispose.Action, error)
	ConfirmToken(msg string) (string, error)
	Confirm(msg string) (bool, error)
}

// LineReader reads one line after showing prompt.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// ParseChoice maps the numbered menu answers to actions.
func ParseChoice(s string) (dispose.Action, error) {
	switch strings.TrimSpace(s) {
	case "1":
		return dispose.MoveToTrash, nil
	case "2":
		return dispose.DeletePermanent, nil
	case "3":
		return dispose.Cancel, nil
	default:
		return dispose.Cancel, ErrInvalidChoice
	}
}

const menu = `
How would you like to proceed?
1. Move to Trash/Recycle Bin (safer)
2. Delete permanently
3. Cancel operation
`

// Line prompts through a plain line source, used when huh cannot take
// over the terminal.
type Line struct {
	In  LineReader
	Out io.Writer
}

func (l *Line) ChooseAction() (dispose.Action, error) {
	fmt.Fprint(l.Out, menu)
	answer, err := l.read("\nEnter your choice (1-3): ")
	if err != nil {
		return dispose.Cancel, err
	}
	return ParseChoice(answer)
}

func (l *Line) ConfirmToken(msg string) (string, error) {
	return l.read("\n" + msg + " ")
}

func (l *Line) Confirm(msg string) (bool, error) {
	answer, err := l.read(msg + " (y/N): ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (l *Line) read(p string) (string, error) {
	s, err := l.In.ReadLine(p)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, ErrInterrupted) {
			return "", ErrInterrupted
		}
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// Scanner is a LineReader over any io.Reader. The prompt is written to Out.
type Scanner struct {
	r   *bufio.Reader
	Out io.Writer
}

func NewScanner(r io.Reader, out io.Writer) *Scanner {
	return &Scanner{r: bufio.NewReader(r), Out: out}
}

func (s *Scanner) ReadLine(p string) (string, error) {
	if s.Out != nil && p != "" {
		fmt.Fprint(s.Out, p)
	}
	line, err := s.r.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
