package cmdlist

import (
	"errors"
	"fmt"
	"io"

	"github.com/josephlewis42/jobsh/core/shell"
)

// ErrEmptyCommand is returned when an operator follows a command with no
// words, as in "a ; ; b".
var ErrEmptyCommand = errors.New("syntax error: empty command")

// ParseError is a problem with one token that doesn't stop the line from
// running.
type ParseError struct {
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Token, e.Reason)
}

// TokenSource yields tokens one at a time, ending with shell.End.
type TokenSource interface {
	Next() shell.Token
}

var controlBits = map[shell.Kind]Control{
	shell.Sequence:   Sequence,
	shell.Background: Background,
	shell.Pipe:       Piped,
	shell.And:        And,
	shell.Or:         Or,
}

// Parse lexes and builds one line.
func Parse(line string, diag io.Writer) (*List, error) {
	lexer := shell.NewLexer(line)
	list, err := Build(lexer, diag)
	if lexErr := lexer.Err(); lexErr != nil {
		return nil, fmt.Errorf("syntax error: %w", lexErr)
	}
	return list, err
}

// Build assembles a command list from src. Non-fatal problems are written to
// diag and kept in the list's Warnings.
func Build(src TokenSource, diag io.Writer) (*List, error) {
	b := &builder{list: New(), src: src, diag: diag}
	b.cursor = b.list.Head()

	tok := src.Next()
	for tok.Kind != shell.End {
		node := b.list.Node(b.cursor)

		switch {
		case tok.Kind == shell.Word:
			node.Argv = append(node.Argv, tok.Text)
			tok = src.Next()

		case tok.Kind.IsRedirect():
			tok = b.redirect(tok)

		case tok.Kind.IsControl():
			// Lines whose head has no words are skipped whole, so only an
			// empty command after a real one is an error.
			if node.Empty() && !b.list.Empty() {
				return nil, fmt.Errorf("%w near %q", ErrEmptyCommand, tok.Text)
			}
			node.Control |= controlBits[tok.Kind]
			b.cursor = b.list.append()
			tok = src.Next()

		default:
			return nil, fmt.Errorf("syntax error: unexpected %v", tok)
		}
	}

	b.finish()
	return b.list, nil
}

type builder struct {
	list   *List
	cursor NodeID
	src    TokenSource
	diag   io.Writer
}

func (b *builder) warn(token, reason string) {
	pe := &ParseError{Token: token, Reason: reason}
	b.list.Warnings = append(b.list.Warnings, pe)
	if b.diag != nil {
		fmt.Fprintln(b.diag, pe)
	}
}

// redirect consumes op and its target, returning the token after them.
// Unknown operators are reported and have no effect.
func (b *builder) redirect(op shell.Token) shell.Token {
	kind, ok := ParseRedirect(op.Text)
	if !ok {
		b.warn(op.Text, "invalid redirection")
	}

	target := b.src.Next()
	if target.Kind != shell.Word {
		near := target.Text
		if target.Kind == shell.End {
			near = "newline"
		}
		b.warn(op.Text, fmt.Sprintf("missing target near %q", near))
		return target
	}

	if ok {
		node := b.list.Node(b.cursor)
		node.Control |= Redirected
		node.Redir.Set(kind, target.Text)
	}
	return b.src.Next()
}

// finish drops the trailing placeholder and stamps the final terminator.
func (b *builder) finish() {
	if b.list.Node(b.cursor).Empty() && b.cursor != b.list.Head() {
		b.list.removeLast()
	}

	last := b.list.Node(b.list.last())
	// A pipe needs a consumer.
	last.Control &^= Piped
	if last.Control.Terminator() == 0 {
		last.Control |= Normal
	}
}
