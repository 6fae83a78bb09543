package core

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const keyCtrlC = 3

// LineReader reads one input line at a time, showing prompt first. It
// returns io.EOF at the end of the input, possibly with a final unterminated
// line.
type LineReader interface {
	ReadLine(prompt string) (string, error)
}

// ScriptReader reads lines from a file or pipe.
type ScriptReader struct {
	in *bufio.Reader
	// out receives the prompt, nil means no prompt is shown.
	out io.Writer
}

var _ LineReader = (*ScriptReader)(nil)

// NewScriptReader creates a LineReader over r that writes prompts to out.
func NewScriptReader(r io.Reader, out io.Writer) *ScriptReader {
	return &ScriptReader{in: bufio.NewReader(r), out: out}
}

// ReadLine implements LineReader.
func (s *ScriptReader) ReadLine(prompt string) (string, error) {
	if s.out != nil && prompt != "" {
		io.WriteString(s.out, prompt)
	}

	line, err := s.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

// TerminalReader is a line editor for interactive use. The terminal is only
// in raw mode while a line is being edited, so children always start with
// the terminal in its normal state.
type TerminalReader struct {
	fd       int
	terminal *term.Terminal
}

var _ LineReader = (*TerminalReader)(nil)

// NewTerminalReader creates a line editor on the terminal in. onInterrupt is
// called when Ctrl-C is typed; the line being edited is then abandoned.
func NewTerminalReader(in *os.File, out io.Writer, onInterrupt func()) *TerminalReader {
	rw := struct {
		io.Reader
		io.Writer
	}{
		Reader: &interruptReader{wrapped: in, onInterrupt: onInterrupt},
		Writer: out,
	}

	return &TerminalReader{
		fd:       int(in.Fd()),
		terminal: term.NewTerminal(rw, ""),
	}
}

// ReadLine implements LineReader.
func (t *TerminalReader) ReadLine(prompt string) (string, error) {
	state, err := term.MakeRaw(t.fd)
	if err != nil {
		return "", err
	}
	defer term.Restore(t.fd, state)

	if width, height, err := term.GetSize(t.fd); err == nil {
		t.terminal.SetSize(width, height)
	}
	t.terminal.SetPrompt(prompt)
	return t.terminal.ReadLine()
}

// interruptReader reports Ctrl-C bytes, which raw mode delivers as input
// rather than as a signal.
type interruptReader struct {
	wrapped     io.Reader
	onInterrupt func()
}

func (r *interruptReader) Read(p []byte) (int, error) {
	n, err := r.wrapped.Read(p)
	if n > 0 && r.onInterrupt != nil && bytes.IndexByte(p[:n], keyCtrlC) >= 0 {
		r.onInterrupt()
	}
	return n, err
}
