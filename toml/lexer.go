package toml

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Lexer splits TOML input into tokens, tracking line and column
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int
}

// NewLexer creates a lexer positioned at the start of input
func NewLexer(input []byte) *Lexer {
	return &Lexer{input: input, line: 1}
}

// NextToken returns the next token in the stream
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return l.token(TokenEOF, "", l.line, l.col)
	}

	line, col := l.line, l.col+1
	ch := l.peek()

	switch ch {
	case '\n':
		l.advance()
		return l.token(TokenNewline, "\n", line, col)
	case '#':
		return l.readComment(line, col)
	case '"':
		return l.readString(line, col)
	}

	if typ, ok := delimiters[ch]; ok {
		l.advance()
		return l.token(typ, string(ch), line, col)
	}

	if isDigit(ch) || ch == '+' || ch == '-' || isAlpha(ch) || ch == '_' {
		return l.readBareOrNumber(line, col)
	}

	l.advance()
	return l.token(TokenError, fmt.Sprintf("unexpected character %q", ch), line, col)
}

var delimiters = map[rune]TokenType{
	'=': TokenEqual,
	'.': TokenDot,
	',': TokenComma,
	'[': TokenLBracket,
	']': TokenRBracket,
	'{': TokenLBrace,
	'}': TokenRBrace,
}

func (l *Lexer) token(typ TokenType, literal string, line, col int) Token {
	return Token{Type: typ, Literal: literal, Line: line, Col: col}
}

func (l *Lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, w := utf8.DecodeRune(l.input[l.pos:])
	l.pos += w
	if r == '\n' {
		l.line++
		l.col = 0
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRune(l.input[l.pos:])
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) readComment(line, col int) Token {
	l.advance() // '#'
	start := l.pos
	for l.pos < len(l.input) && l.peek() != '\n' {
		l.advance()
	}
	return l.token(TokenComment, string(l.input[start:l.pos]), line, col)
}

// readString reads a basic string; newlines are not allowed inside
func (l *Lexer) readString(line, col int) Token {
	l.advance() // opening quote
	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.advance()
		switch ch {
		case '\n':
			return l.token(TokenError, "newline in string", line, col)
		case '"':
			return l.token(TokenString, sb.String(), line, col)
		case '\\':
			esc := l.advance()
			switch esc {
			case '"', '\\':
				sb.WriteRune(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				return l.token(TokenError, fmt.Sprintf("unsupported escape \\%c", esc), line, col)
			}
		default:
			sb.WriteRune(ch)
		}
	}
	return l.token(TokenError, "unterminated string", line, col)
}

// readBareOrNumber reads a run of key/number characters and classifies it
func (l *Lexer) readBareOrNumber(line, col int) Token {
	start := l.pos
	first := l.peek()
	numeric := isDigit(first) || first == '+' || first == '-'

	for l.pos < len(l.input) {
		ch := l.peek()
		if isAlpha(ch) || isDigit(ch) || ch == '_' || ch == '-' || ch == '+' || (ch == '.' && numeric) {
			l.advance()
			continue
		}
		break
	}
	lit := string(l.input[start:l.pos])

	if lit == "true" || lit == "false" {
		return l.token(TokenBool, lit, line, col)
	}
	if !numeric {
		return l.token(TokenIdent, lit, line, col)
	}

	digits := strings.TrimLeft(lit, "+-")
	if len(digits) > 2 && digits[0] == '0' && strings.ContainsRune("xXoObB", rune(digits[1])) {
		return l.token(TokenInteger, lit, line, col)
	}
	if strings.ContainsAny(digits, ".eE") {
		return l.token(TokenFloat, lit, line, col)
	}
	for _, r := range digits {
		if isAlpha(r) {
			// Bare keys may start with a digit: 1st = "x"
			return l.token(TokenIdent, lit, line, col)
		}
	}
	return l.token(TokenInteger, lit, line, col)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
