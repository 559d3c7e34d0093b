// Package scanner implements the character-level reader used inline by the
// parser. There is no token stream: the parser asks for literals, identifiers
// and integers at the cursor and the scanner either consumes them or leaves
// the cursor untouched.
package scanner

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExpectedIdent = errors.New("expected identifier")
	ErrIdentTooLong  = errors.New("identifier too long")
)

// ExpectError reports a literal token that was required but not found.
type ExpectError struct {
	Token string
}

func (e *ExpectError) Error() string {
	return fmt.Sprintf("expected token %q", e.Token)
}

type Scanner struct {
	input       string // source text
	length      int    // length of the source text
	position    int    // current byte offset
	line        int    // current line number for error reporting
	column      int    // current column number for error reporting
	maxIdentLen int    // longest identifier accepted
}

// Create a new scanner over s accepting identifiers of at most maxIdentLen bytes
func NewScanner(s string, maxIdentLen int) *Scanner {
	return &Scanner{
		input:       s,
		length:      len(s),
		position:    0,
		line:        1,
		column:      1,
		maxIdentLen: maxIdentLen,
	}
}

// AtEOF reports whether the cursor is at the end of the input
func (s *Scanner) AtEOF() bool {
	return s.position >= s.length
}

// Peek returns the byte under the cursor, or 0 at end of input
func (s *Scanner) Peek() byte {
	if s.AtEOF() {
		return 0
	}

	return s.input[s.position]
}

// Pos returns the current cursor position
func (s *Scanner) Pos() Position {
	return Position{
		Line:   s.line,
		Column: s.column,
		Offset: s.position,
	}
}

// SkipWhitespace consumes a run of space, tab, CR and LF
func (s *Scanner) SkipWhitespace() {
	for s.position < s.length && isSpace(s.input[s.position]) {
		s.advance(1)
	}
}

// SkipComment consumes everything up to and including the next newline
func (s *Scanner) SkipComment() {
	for s.position < s.length {
		ch := s.input[s.position]
		s.advance(1)
		if ch == '\n' {
			break
		}
	}
}

// Match consumes text if it is next in the input, skipping whitespace on both
// sides. On failure the cursor does not move.
func (s *Scanner) Match(text string) bool {
	mark := s.save()
	s.SkipWhitespace()

	if strings.HasPrefix(s.input[s.position:], text) {
		s.advance(len(text))
		s.SkipWhitespace()
		return true
	}

	s.restore(mark)
	return false
}

// Expect is Match that fails with an *ExpectError
func (s *Scanner) Expect(text string) error {
	if !s.Match(text) {
		return &ExpectError{Token: text}
	}

	return nil
}

// Ident consumes a maximal run of identifier characters
func (s *Scanner) Ident() (string, error) {
	ident := identRegex.FindString(s.input[s.position:])
	if ident == "" {
		return "", ErrExpectedIdent
	}

	if len(ident) > s.maxIdentLen {
		return "", fmt.Errorf("%w (max %d): %q", ErrIdentTooLong, s.maxIdentLen, ident[:s.maxIdentLen])
	}

	s.advance(len(ident))
	return ident, nil
}

// Int consumes a maximal run of decimal digits. Overflow wraps silently.
func (s *Scanner) Int() int64 {
	digits := digitRegex.FindString(s.input[s.position:])

	var n uint64
	for i := 0; i < len(digits); i++ {
		n = 10*n + uint64(digits[i]-'0')
	}

	s.advance(len(digits))
	return int64(n)
}

// Rest returns up to n bytes of the remaining input with line breaks
// replaced by spaces, for use in diagnostics
func (s *Scanner) Rest(n int) string {
	rest := s.input[s.position:]
	if len(rest) > n {
		rest = rest[:n]
	}

	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, rest)
}

type mark struct {
	position, line, column int
}

func (s *Scanner) save() mark {
	return mark{s.position, s.line, s.column}
}

func (s *Scanner) restore(m mark) {
	s.position = m.position
	s.line = m.line
	s.column = m.column
}

// Advance the scanner position by n bytes
func (s *Scanner) advance(n int) {
	for range n {
		if s.position >= s.length {
			break
		}

		if s.input[s.position] == '\n' {
			s.line++
			s.column = 1
		} else {
			s.column++
		}

		s.position++
	}
}
