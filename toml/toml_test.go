package toml

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestLexerTokens(t *testing.T) {
	input := `kind = "water" # comment
pos = [1, -2]
[[entity]]
`
	want := []TokenType{
		TokenIdent, TokenEqual, TokenString, TokenComment, TokenNewline,
		TokenIdent, TokenEqual, TokenLBracket, TokenInteger, TokenComma, TokenInteger, TokenRBracket, TokenNewline,
		TokenLBracket, TokenLBracket, TokenIdent, TokenRBracket, TokenRBracket, TokenNewline,
		TokenEOF,
	}

	l := NewLexer([]byte(input))
	for i, typ := range want {
		tok := l.NextToken()
		if tok.Type != typ {
			t.Fatalf("token %d = %v (type %d), want type %d", i, tok, tok.Type, typ)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want TokenType
	}{
		{"42", TokenInteger},
		{"-7", TokenInteger},
		{"+3", TokenInteger},
		{"1_000", TokenInteger},
		{"0xFF", TokenInteger},
		{"1.5", TokenFloat},
		{"2e3", TokenFloat},
		{"-0.25", TokenFloat},
		{"true", TokenBool},
		{"ticks_per_second", TokenIdent},
		{"kebab-key", TokenIdent},
	}
	for _, tt := range tests {
		tok := NewLexer([]byte(tt.in)).NextToken()
		if tok.Type != tt.want || tok.Literal != tt.in {
			t.Errorf("%q lexed as %v type %d, want type %d", tt.in, tok, tok.Type, tt.want)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	l := NewLexer([]byte("a = 1\n  b = 2"))
	var toks []Token
	for tok := l.NextToken(); tok.Type != TokenEOF; tok = l.NextToken() {
		toks = append(toks, tok)
	}
	b := toks[4]
	if b.Literal != "b" || b.Pos() != "2:3" {
		t.Errorf("b at %s, want 2:3", b.Pos())
	}
}

func TestParseTree(t *testing.T) {
	input := `
title = "demo"
nested.key = 1

[world]
width = 0x10
ratio = 0.5

[[entity]]
position = [1, 1]

[[entity]]
position = [
  2,
  3,
]
tags = { a = true, b.c = "x" }
`
	tree, err := NewParser([]byte(input)).Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := map[string]any{
		"title":  "demo",
		"nested": map[string]any{"key": int64(1)},
		"world":  map[string]any{"width": int64(16), "ratio": 0.5},
		"entity": []map[string]any{
			{"position": []any{int64(1), int64(1)}},
			{
				"position": []any{int64(2), int64(3)},
				"tags":     map[string]any{"a": true, "b": map[string]any{"c": "x"}},
			},
		},
	}
	if !reflect.DeepEqual(tree, want) {
		t.Errorf("tree =\n%#v\nwant\n%#v", tree, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"duplicate key", "a = 1\na = 2", "duplicate key a"},
		{"table twice", "[w]\n[w]", "defined twice"},
		{"missing equals", "a 1", "expected ="},
		{"two values on a line", "a = 1 b = 2", "expected end of line"},
		{"unterminated string", `a = "x`, "unterminated string"},
		{"bad integer", "a = 12abc_", "expected value"},
		{"value as table", "a = 1\n[a]", "a is not a table"},
		{"array not closed", "a = [1 2]", "expected , or ]"},
		{"bad character", "a = @", "unexpected character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser([]byte(tt.input)).Parse()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not mention %q", err, tt.msg)
			}
			if !strings.HasPrefix(err.Error(), "toml ") {
				t.Errorf("error %q lacks position prefix", err)
			}
		})
	}
}

type world struct {
	Width  int     `toml:"width"`
	Height uint8   `toml:"height"`
	Rate   float64 `toml:"ticks_per_second"`
	Kind   string  `toml:"kind"`
}

type entity struct {
	Position [2]int `toml:"position"`
	Wants    uint8  `toml:"wants"`
	Visible  *bool  `toml:"visible"`
}

type document struct {
	Kind     string   `toml:"kind"`
	World    *world   `toml:"world"`
	Entities []entity `toml:"entity"`
	Ignored  string   `toml:"-"`
}

func TestUnmarshal(t *testing.T) {
	input := `
kind = "power"

[world]
width = 40
height = 20
ticks_per_second = 8

[[entity]]
position = [3, -1]
wants = 255
visible = false

[[entity]]
position = [0, 0]
wants = 0
`
	var doc document
	if err := Unmarshal([]byte(input), &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if doc.Kind != "power" || doc.World == nil || doc.World.Width != 40 || doc.World.Height != 20 || doc.World.Rate != 8 {
		t.Errorf("doc = %+v world = %+v", doc, doc.World)
	}
	if len(doc.Entities) != 2 {
		t.Fatalf("entities = %d, want 2", len(doc.Entities))
	}
	e0, e1 := doc.Entities[0], doc.Entities[1]
	if e0.Position != [2]int{3, -1} || e0.Wants != 255 || e0.Visible == nil || *e0.Visible {
		t.Errorf("entity 0 = %+v", e0)
	}
	if e1.Visible != nil {
		t.Error("absent visible should stay nil")
	}
}

func TestUnmarshalRangeChecks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"uint8 overflow", "[[entity]]\nwants = 256", "entity[0].wants: 256 out of range"},
		{"negative uint", "[[entity]]\nwants = -1", "out of range for uint8"},
		{"float into uint", "[[entity]]\nwants = 1.5", "cannot decode float64"},
		{"array length", "[[entity]]\nposition = [1, 2, 3]", "need 2 elements"},
		{"string into int", "[world]\nwidth = \"wide\"", "world.width: cannot decode string"},
		{"table into string", "[kind]\nx = 1", "kind: cannot decode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc document
			err := Unmarshal([]byte(tt.input), &doc)
			if err == nil || !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("err = %v, want mention of %q", err, tt.msg)
			}
		})
	}
}

func TestUnmarshalStrictUnknownKeys(t *testing.T) {
	input := "kind = \"unit\"\ncolour = 1\n[world]\nwidht = 3"

	var loose document
	if err := Unmarshal([]byte(input), &loose); err != nil {
		t.Fatalf("loose decode: %v", err)
	}

	var strict document
	err := UnmarshalStrict([]byte(input), &strict)
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("err = %v, want ErrUnknownKey", err)
	}
	// Nested tables are checked before the enclosing one
	if !strings.Contains(err.Error(), "world.widht") {
		t.Errorf("err = %v", err)
	}
}

func TestUnmarshalNonPointer(t *testing.T) {
	var doc document
	for _, target := range []any{doc, (*document)(nil)} {
		if err := Unmarshal([]byte("kind = \"unit\""), target); err == nil || !strings.Contains(err.Error(), "non-nil pointer") {
			t.Errorf("Unmarshal into %T: err = %v", target, err)
		}
	}
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.toml")
	if err := os.WriteFile(path, []byte("kind = \"ore\"\nbogus = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	var doc document
	err := DecodeFile(path, &doc)
	if !errors.Is(err, ErrUnknownKey) || !strings.Contains(err.Error(), path) {
		t.Errorf("err = %v", err)
	}

	if err := DecodeFile(filepath.Join(t.TempDir(), "missing.toml"), &doc); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v", err)
	}
}
