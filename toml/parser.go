package toml

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser builds a generic document tree from TOML tokens
// Tables become map[string]any, arrays []any, arrays of tables []map[string]any
// Integers are int64, floats float64
type Parser struct {
	lexer *Lexer
	cur   Token
	next  Token
	root  map[string]any
	scope map[string]any
	// defined tracks explicitly declared [tables] so redeclaration is an error
	defined map[string]bool
}

// NewParser creates a parser over input
func NewParser(input []byte) *Parser {
	p := &Parser{
		lexer:   NewLexer(input),
		root:    make(map[string]any),
		defined: make(map[string]bool),
	}
	p.scope = p.root
	p.advance()
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.cur = p.next
	p.next = p.lexer.NextToken()
	for p.next.Type == TokenComment {
		p.next = p.lexer.NextToken()
	}
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf("toml %s: %s", p.cur.Pos(), fmt.Sprintf(format, args...))
}

// Parse consumes the whole input
func (p *Parser) Parse() (map[string]any, error) {
	for p.cur.Type != TokenEOF {
		switch p.cur.Type {
		case TokenNewline, TokenComment:
			p.advance()
			continue
		case TokenLBracket:
			if err := p.parseHeader(); err != nil {
				return nil, err
			}
		case TokenIdent, TokenString, TokenInteger:
			if err := p.parseAssignment(p.scope); err != nil {
				return nil, err
			}
		case TokenError:
			return nil, p.errorf("%s", p.cur.Literal)
		default:
			return nil, p.errorf("unexpected %s", p.cur)
		}

		if err := p.expectLineEnd(); err != nil {
			return nil, err
		}
	}
	return p.root, nil
}

func (p *Parser) expectLineEnd() error {
	switch p.cur.Type {
	case TokenNewline:
		p.advance()
		return nil
	case TokenEOF, TokenComment:
		return nil
	}
	return p.errorf("expected end of line, got %s", p.cur)
}

// parseHeader handles [table] and [[array.of.tables]]
func (p *Parser) parseHeader() error {
	array := p.next.Type == TokenLBracket
	p.advance()
	if array {
		p.advance()
	}

	keys, err := p.parseKey()
	if err != nil {
		return err
	}
	closers := 1
	if array {
		closers = 2
	}
	for range closers {
		if p.cur.Type != TokenRBracket {
			return p.errorf("expected ] after table name, got %s", p.cur)
		}
		p.advance()
	}

	parent, err := p.walk(p.root, keys[:len(keys)-1])
	if err != nil {
		return err
	}
	last := keys[len(keys)-1]
	path := strings.Join(keys, ".")

	if array {
		var list []map[string]any
		switch existing := parent[last].(type) {
		case nil:
		case []map[string]any:
			list = existing
		default:
			return p.errorf("%s is not an array of tables", path)
		}
		table := make(map[string]any)
		parent[last] = append(list, table)
		p.scope = table
		return nil
	}

	if p.defined[path] {
		return p.errorf("table %s defined twice", path)
	}
	p.defined[path] = true

	switch existing := parent[last].(type) {
	case nil:
		table := make(map[string]any)
		parent[last] = table
		p.scope = table
	case map[string]any:
		p.scope = existing
	default:
		return p.errorf("%s is not a table", path)
	}
	return nil
}

// walk descends through keys from table, creating implicit tables
// The last element of an array of tables is the traversal target
func (p *Parser) walk(table map[string]any, keys []string) (map[string]any, error) {
	for _, key := range keys {
		switch existing := table[key].(type) {
		case nil:
			child := make(map[string]any)
			table[key] = child
			table = child
		case map[string]any:
			table = existing
		case []map[string]any:
			if len(existing) == 0 {
				return nil, p.errorf("empty array of tables %s", key)
			}
			table = existing[len(existing)-1]
		default:
			return nil, p.errorf("key %s already holds a value", key)
		}
	}
	return table, nil
}

func (p *Parser) parseAssignment(table map[string]any) error {
	keys, err := p.parseKey()
	if err != nil {
		return err
	}
	if p.cur.Type != TokenEqual {
		return p.errorf("expected = after key, got %s", p.cur)
	}
	p.advance()

	val, err := p.parseValue()
	if err != nil {
		return err
	}

	parent, err := p.walk(table, keys[:len(keys)-1])
	if err != nil {
		return err
	}
	last := keys[len(keys)-1]
	if _, exists := parent[last]; exists {
		return p.errorf("duplicate key %s", strings.Join(keys, "."))
	}
	parent[last] = val
	return nil
}

func (p *Parser) parseKey() ([]string, error) {
	var keys []string
	for {
		switch p.cur.Type {
		case TokenIdent, TokenString, TokenInteger, TokenBool:
			keys = append(keys, p.cur.Literal)
		default:
			return nil, p.errorf("expected key, got %s", p.cur)
		}
		p.advance()

		if p.cur.Type != TokenDot {
			return keys, nil
		}
		p.advance()
	}
}

func (p *Parser) parseValue() (any, error) {
	tok := p.cur
	switch tok.Type {
	case TokenString:
		p.advance()
		return tok.Literal, nil
	case TokenInteger:
		n, err := strconv.ParseInt(strings.ReplaceAll(tok.Literal, "_", ""), 0, 64)
		if err != nil {
			return nil, p.errorf("invalid integer %s", tok.Literal)
		}
		p.advance()
		return n, nil
	case TokenFloat:
		f, err := strconv.ParseFloat(strings.ReplaceAll(tok.Literal, "_", ""), 64)
		if err != nil {
			return nil, p.errorf("invalid float %s", tok.Literal)
		}
		p.advance()
		return f, nil
	case TokenBool:
		p.advance()
		return tok.Literal == "true", nil
	case TokenLBracket:
		return p.parseArray()
	case TokenLBrace:
		return p.parseInlineTable()
	case TokenError:
		return nil, p.errorf("%s", tok.Literal)
	}
	return nil, p.errorf("expected value, got %s", tok)
}

func (p *Parser) skipNewlines() {
	for p.cur.Type == TokenNewline {
		p.advance()
	}
}

func (p *Parser) parseArray() ([]any, error) {
	p.advance() // [
	arr := make([]any, 0)

	for {
		p.skipNewlines()
		if p.cur.Type == TokenRBracket {
			p.advance()
			return arr, nil
		}

		val, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)

		p.skipNewlines()
		switch p.cur.Type {
		case TokenComma:
			p.advance()
		case TokenRBracket:
		default:
			return nil, p.errorf("expected , or ] in array, got %s", p.cur)
		}
	}
}

func (p *Parser) parseInlineTable() (map[string]any, error) {
	p.advance() // {
	table := make(map[string]any)

	if p.cur.Type == TokenRBrace {
		p.advance()
		return table, nil
	}
	for {
		if err := p.parseAssignment(table); err != nil {
			return nil, err
		}
		switch p.cur.Type {
		case TokenComma:
			p.advance()
		case TokenRBrace:
			p.advance()
			return table, nil
		default:
			return nil, p.errorf("expected , or } in inline table, got %s", p.cur)
		}
	}
}
