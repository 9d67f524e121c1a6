package scanner

import (
	"fmt"
	"strings"

	"github.com/lush-shell/lush/token"
)

// SyntaxError reports a malformed token line.
type SyntaxError struct {
	Pos int // 0-based byte offset
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("column %d: %s", e.Pos+1, e.Msg)
}

// Tokenize decodes one line of the wire format into tokens.
func Tokenize(line string) ([]token.Token, error) {
	var (
		toks      []token.Token
		name      strings.Builder
		value     strings.Builder
		nameStart = -1
		wantQuote bool
		inValue   bool
	)
	flush := func() {
		if name.Len() > 0 {
			toks = append(toks, token.Token{Name: name.String()})
			name.Reset()
			nameStart = -1
		}
	}

	sc := New(line)
	for ch, ok := sc.Next(); ok; ch, ok = sc.Next() {
		if wantQuote {
			if ch != '\'' {
				return nil, &SyntaxError{Pos: sc.Pos(), Msg: fmt.Sprintf("expected quoted value after %q", name.String()+":")}
			}
			wantQuote = false
			inValue = true
			continue
		}
		if inValue {
			switch {
			case sc.Closing():
				toks = append(toks, token.Token{Name: name.String(), Value: value.String()})
				name.Reset()
				value.Reset()
				nameStart = -1
				inValue = false
			case sc.Escape():
			default:
				value.WriteByte(ch)
			}
			continue
		}

		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			flush()
		case IsMarker(ch):
			flush()
			toks = append(toks, token.Token{Name: string(ch)})
		case ch == ':':
			if name.Len() == 0 {
				return nil, &SyntaxError{Pos: sc.Pos(), Msg: "value without a token name"}
			}
			wantQuote = true
		case ch == '\'':
			return nil, &SyntaxError{Pos: sc.Pos(), Msg: "quoted value must follow NAME:"}
		case isNameByte(ch):
			if nameStart < 0 {
				nameStart = sc.Pos()
			}
			name.WriteByte(ch)
		default:
			return nil, &SyntaxError{Pos: sc.Pos(), Msg: fmt.Sprintf("unexpected character %q", ch)}
		}
	}
	if wantQuote || sc.Unterminated() {
		pos := nameStart
		if pos < 0 {
			pos = len(line)
		}
		return nil, &SyntaxError{Pos: pos, Msg: "incomplete token value"}
	}
	flush()
	return toks, nil
}

func isNameByte(ch byte) bool {
	return ch == '_' ||
		('a' <= ch && ch <= 'z') ||
		('A' <= ch && ch <= 'Z') ||
		('0' <= ch && ch <= '9')
}

// Format renders tokens back into a single wire-format line.
func Format(toks []token.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
