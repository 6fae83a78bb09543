// Package shell splits a command line into the typed token stream consumed by
// the command-list builder.
//
// Token recognition loosely follows
// https://pubs.opengroup.org/onlinepubs/9699919799/utilities/V3_chap02.html
// but only the control operators ; & | && || and the redirections > < 2> are
// given meaning. Everything else is a word.
package shell

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anmitsu/go-shlex"
)

// Kind classifies a Token.
type Kind int

const (
	Word Kind = iota
	RedirectOut
	RedirectIn
	RedirectErr
	Sequence
	Background
	Pipe
	And
	Or
	End
)

var kindNames = map[Kind]string{
	Word:        "word",
	RedirectOut: "redirect-out",
	RedirectIn:  "redirect-in",
	RedirectErr: "redirect-err",
	Sequence:    "sequence",
	Background:  "background",
	Pipe:        "pipe",
	And:         "and",
	Or:          "or",
	End:         "end",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsRedirect is true for the redirection operator kinds.
func (k Kind) IsRedirect() bool {
	return k == RedirectOut || k == RedirectIn || k == RedirectErr
}

// IsControl is true for operators that terminate a command.
func (k Kind) IsControl() bool {
	return k >= Sequence && k <= Or
}

// Token is a single lexical unit. End tokens carry no text.
type Token struct {
	Kind Kind
	Text string
}

func (t Token) String() string {
	if t.Kind == End {
		return "end"
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

// ErrUnexpectedEOF is returned when the line ends inside a quote or after a
// trailing backslash.
var ErrUnexpectedEOF = errors.New("unexpected end of file")

// Operators, longest first so that prefixes don't shadow them. The unsupported
// spellings (>>, 2>>, &>) are still lexed as redirections so the builder can
// reject them by name.
var operators = []Token{
	{RedirectErr, "2>>"},
	{And, "&&"},
	{Or, "||"},
	{RedirectOut, ">>"},
	{RedirectOut, "&>"},
	{RedirectErr, "2>"},
	{Sequence, ";"},
	{Background, "&"},
	{Pipe, "|"},
	{RedirectOut, ">"},
	{RedirectIn, "<"},
}

// Lexer produces tokens from one command line.
type Lexer struct {
	input string
	pos   int
	err   error
}

// NewLexer creates a lexer over line.
func NewLexer(line string) *Lexer {
	return &Lexer{input: line}
}

// Err returns the error that stopped the lexer, if any.
func (l *Lexer) Err() error {
	return l.err
}

// Next returns the next token. Once the input is exhausted, or an error
// occurs, it returns End forever.
func (l *Lexer) Next() Token {
	if l.err != nil {
		return Token{Kind: End}
	}

	l.skipSpace()
	if l.pos >= len(l.input) || l.input[l.pos] == '#' {
		l.pos = len(l.input)
		return Token{Kind: End}
	}

	rest := l.input[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op.Text) {
			l.pos += len(op.Text)
			return op
		}
	}

	raw, err := l.scanWord()
	if err != nil {
		l.err = err
		return Token{Kind: End}
	}

	word, err := unquote(raw)
	if err != nil {
		l.err = err
		return Token{Kind: End}
	}
	return Token{Kind: Word, Text: word}
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
}

// scanWord advances over one word, honoring quotes, and returns it unprocessed.
func (l *Lexer) scanWord() (string, error) {
	start := l.pos
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\\':
			if l.pos+1 >= len(l.input) {
				return "", ErrUnexpectedEOF
			}
			l.pos += 2
		case c == '\'':
			end := strings.IndexByte(l.input[l.pos+1:], '\'')
			if end < 0 {
				return "", ErrUnexpectedEOF
			}
			l.pos += end + 2
		case c == '"':
			if err := l.skipDoubleQuoted(); err != nil {
				return "", err
			}
		case isSpace(c) || isOperatorByte(c):
			return l.input[start:l.pos], nil
		default:
			l.pos++
		}
	}
	return l.input[start:l.pos], nil
}

func (l *Lexer) skipDoubleQuoted() error {
	for i := l.pos + 1; i < len(l.input); i++ {
		switch l.input[i] {
		case '\\':
			i++
		case '"':
			l.pos = i + 1
			return nil
		}
	}
	return ErrUnexpectedEOF
}

// unquote removes quoting from a raw word.
func unquote(raw string) (string, error) {
	if !strings.ContainsAny(raw, `'"\`) {
		return raw, nil
	}

	words, err := shlex.Split(raw, true)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnexpectedEOF, err)
	}
	// A raw word holds no unquoted whitespace, so shlex yields at most one
	// field; "" and '' yield none.
	return strings.Join(words, ""), nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isOperatorByte(c byte) bool {
	return strings.IndexByte(";&|<>", c) >= 0
}
