// Package scanner decodes the token-line wire format read by the evaluator
// loop. A line is a sequence of tokens separated by blanks. Each token is
// either a single-character structural marker ({ } ( ) [ ] ;), a bare name
// (ID, PLUS, exp, ...) or a name carrying a quoted value (INT:'42',
// FRAG:'ls -l '). Inside a quoted value a backslash escapes the next byte.
package scanner

import "github.com/lush-shell/lush/token"

// ValueScanner iterates byte-by-byte over a token line, tracking quoted
// value boundaries and escape sequences. Callers check InValue() instead of
// maintaining their own inQuote/escaped flags.
//
// InValue() returns true for the whole quoted span including both
// delimiters, so a decoder can skip every byte that belongs to a value.
type ValueScanner struct {
	src     string
	pos     int
	inQuote bool
	escaped bool
	closing bool // set when a closing quote is processed
	escape  bool // set when the current byte is an escaping backslash
}

// New creates a ValueScanner for the given line.
// Call Next() to advance to the first byte.
func New(src string) *ValueScanner {
	return &ValueScanner{src: src, pos: -1}
}

// Next advances to the next byte, updating quote/escape state.
// Returns the byte and true, or (0, false) at end of input.
func (s *ValueScanner) Next() (byte, bool) {
	s.closing = false
	s.escape = false
	s.pos++
	if s.pos >= len(s.src) {
		return 0, false
	}
	ch := s.src[s.pos]

	if s.escaped {
		s.escaped = false
		return ch, true
	}
	if ch == '\\' && s.inQuote {
		s.escaped = true
		s.escape = true
		return ch, true
	}
	if ch == '\'' {
		if s.inQuote {
			s.closing = true
		}
		s.inQuote = !s.inQuote
	}
	return ch, true
}

// InValue reports whether the current position is inside a quoted value,
// including both the opening and the closing quote.
func (s *ValueScanner) InValue() bool { return s.inQuote || s.closing }

// Closing reports whether the current byte is the quote that ends a value.
func (s *ValueScanner) Closing() bool { return s.closing }

// Escape reports whether the current byte is a backslash that escapes the
// byte after it.
func (s *ValueScanner) Escape() bool { return s.escape }

// Unterminated reports whether the scan ended inside a quoted value or
// right after a dangling backslash.
func (s *ValueScanner) Unterminated() bool { return s.inQuote || s.escaped }

// Pos returns the current byte offset (the position of the last byte
// returned by Next). Returns -1 before the first call to Next.
func (s *ValueScanner) Pos() int { return s.pos }

// Peek returns the next byte without advancing, or (0, false) at end.
func (s *ValueScanner) Peek() (byte, bool) {
	if s.pos+1 >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos+1], true
}

// IsOpenMarker reports whether ch is an opening group/block/command marker.
func IsOpenMarker(ch byte) bool {
	return ch == '(' || ch == '[' || ch == '{'
}

// IsCloseMarker reports whether ch is a closing group/block/command marker.
func IsCloseMarker(ch byte) bool {
	return ch == ')' || ch == ']' || ch == '}'
}

// IsMarker reports whether ch is any single-character structural marker.
func IsMarker(ch byte) bool {
	return token.IsStructural(string(ch))
}

// Depth returns the nesting depth left open at the end of s, counting only
// markers outside quoted values. A positive result means the line leaves
// structures open for continuation on a later line; a negative one means it
// closes structures opened earlier.
func Depth(s string) int {
	depth := 0
	sc := New(s)
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if sc.InValue() {
			continue
		}
		if IsOpenMarker(ch) {
			depth++
		} else if IsCloseMarker(ch) {
			depth--
		}
	}
	return depth
}
