package toml

import "fmt"

// TokenType represents the type of a lexical token
type TokenType int

const (
	TokenError TokenType = iota
	TokenEOF
	TokenComment

	// Literals
	TokenIdent   // bare key
	TokenString  // "quoted"
	TokenInteger // 123, -4, 0x1F
	TokenFloat   // 1.5, 2e3
	TokenBool    // true/false

	// Delimiters
	TokenEqual    // =
	TokenDot      // .
	TokenComma    // ,
	TokenLBracket // [
	TokenRBracket // ]
	TokenLBrace   // {
	TokenRBrace   // }
	TokenNewline  // \n
)

// Token represents a lexical token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
}

// Pos formats the token position for error messages
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Col)
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenError:
		return fmt.Sprintf("Error(%s)", t.Literal)
	case TokenNewline:
		return "Newline"
	}
	if len(t.Literal) > 20 {
		return fmt.Sprintf("%q...", t.Literal[:20])
	}
	return fmt.Sprintf("%q", t.Literal)
}
