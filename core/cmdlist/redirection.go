package cmdlist

import (
	"os"
	"strings"
)

// Redirect is a set of standard streams to be replaced by files.
type Redirect uint8

const (
	RedirectStdout Redirect = 1 << iota
	RedirectStdin
	RedirectStderr
)

// ApplyOrder is the order redirections are applied to a child.
var ApplyOrder = []Redirect{RedirectStdout, RedirectStdin, RedirectStderr}

// ParseRedirect maps an operator spelling to the stream it replaces.
func ParseRedirect(op string) (Redirect, bool) {
	switch op {
	case ">":
		return RedirectStdout, true
	case "<":
		return RedirectStdin, true
	case "2>":
		return RedirectStderr, true
	default:
		return 0, false
	}
}

// Fd is the descriptor the redirection replaces.
func (r Redirect) Fd() int {
	switch r {
	case RedirectStdin:
		return 0
	case RedirectStderr:
		return 2
	default:
		return 1
	}
}

// OpenFlags are the flags the target is opened with: input is read-only,
// output targets are created or truncated.
func (r Redirect) OpenFlags() int {
	if r == RedirectStdin {
		return os.O_RDONLY
	}
	return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
}

func (r Redirect) String() string {
	var ops []string
	for _, kind := range ApplyOrder {
		if r&kind == 0 {
			continue
		}
		switch kind {
		case RedirectStdout:
			ops = append(ops, ">")
		case RedirectStdin:
			ops = append(ops, "<")
		case RedirectStderr:
			ops = append(ops, "2>")
		}
	}
	return strings.Join(ops, ",")
}

// Redirection holds the redirections requested for one command. Setting the
// same stream twice keeps the last path.
type Redirection struct {
	Mask   Redirect `json:"mask,omitempty"`
	Stdout string   `json:"stdout,omitempty"`
	Stdin  string   `json:"stdin,omitempty"`
	Stderr string   `json:"stderr,omitempty"`
}

// Set records a redirection of kind to path.
func (r *Redirection) Set(kind Redirect, path string) {
	r.Mask |= kind
	switch kind {
	case RedirectStdout:
		r.Stdout = path
	case RedirectStdin:
		r.Stdin = path
	case RedirectStderr:
		r.Stderr = path
	}
}

// Has is true if kind was requested.
func (r Redirection) Has(kind Redirect) bool {
	return r.Mask&kind != 0
}

// Path returns the target of kind, or "" if it wasn't requested.
func (r Redirection) Path(kind Redirect) string {
	if !r.Has(kind) {
		return ""
	}
	switch kind {
	case RedirectStdout:
		return r.Stdout
	case RedirectStdin:
		return r.Stdin
	case RedirectStderr:
		return r.Stderr
	default:
		return ""
	}
}

// Empty is true if nothing is redirected.
func (r Redirection) Empty() bool {
	return r.Mask == 0
}
