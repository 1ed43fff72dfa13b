package repl

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"

	"github.com/thinkingscript/tidy/internal/prompt"
	"github.com/thinkingscript/tidy/internal/ui"
)

// NewReader returns a line editor with history when in is a terminal, and a
// plain line scanner otherwise.
func NewReader(in *os.File, out io.Writer) prompt.LineReader {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return prompt.NewScanner(in, out)
	}
	rw := struct {
		io.Reader
		io.Writer
	}{in, out}
	return &termReader{fd: fd, t: term.NewTerminal(rw, "")}
}

// termReader puts the terminal in raw mode only while a line is edited, so
// command output and huh prompts see a normal terminal.
type termReader struct {
	fd int
	t  *term.Terminal

	mu    sync.Mutex
	state *term.State
}

func (r *termReader) ReadLine(p string) (string, error) {
	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	defer r.Restore()

	r.t.SetPrompt(ui.Prompt.Render(p))
	line, err := r.t.ReadLine()
	if err != nil {
		// Ctrl+C and Ctrl+D both end the session.
		return "", io.EOF
	}
	return line, nil
}

// Restore leaves raw mode if a read is in progress.
func (r *termReader) Restore() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != nil {
		term.Restore(r.fd, r.state)
		r.state = nil
	}
}
