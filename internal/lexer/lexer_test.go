package lexer

import (
	"testing"

	"github.com/moonscope/moonscope/internal/token"
)

func collect(input string) []token.Token {
	l := New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func expectTypes(t *testing.T, input string, want ...token.Type) {
	t.Helper()
	toks := collect(input)
	if len(toks) != len(want)+1 {
		t.Fatalf("input %q: got %d tokens, want %d\n%v", input, len(toks)-1, len(want), toks)
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("input %q: token %d = %s (%q), want %s", input, i, toks[i].Type, toks[i].Lexeme, w)
		}
	}
}

func TestBasicTokens(t *testing.T) {
	expectTypes(t, "local x = 1 + 2.5",
		token.LOCAL, token.IDENT, token.ASSIGN, token.NUMBER, token.PLUS, token.NUMBER)
	expectTypes(t, "a ~= b <= c .. d ...",
		token.IDENT, token.NE, token.IDENT, token.LE, token.IDENT, token.CONCAT, token.IDENT, token.ELLIPSIS)
	expectTypes(t, "t[1].x:m()",
		token.IDENT, token.LBRACKET, token.NUMBER, token.RBRACKET, token.DOT,
		token.IDENT, token.COLON, token.IDENT, token.LPAREN, token.RPAREN)
}

func TestKeywords(t *testing.T) {
	expectTypes(t, "if nil then return false end",
		token.IF, token.NIL, token.THEN, token.RETURN, token.FALSE, token.END)
}

func TestStrings(t *testing.T) {
	toks := collect(`x = "he\"llo" .. 'wo\110rld'`)
	if toks[2].Type != token.STRING || toks[2].Literal != `he"llo` {
		t.Errorf("double-quoted string = %q", toks[2].Literal)
	}
	if toks[4].Type != token.STRING || toks[4].Literal != "wonrld" {
		t.Errorf("escaped decimal = %q", toks[4].Literal)
	}
}

func TestLongStringsAndComments(t *testing.T) {
	toks := collect("x = [[long\nstring]]")
	if toks[2].Type != token.STRING || toks[2].Literal != "long\nstring" {
		t.Errorf("long string = %q", toks[2].Literal)
	}
	expectTypes(t, "a --[[ comment\nspanning lines ]] b", token.IDENT, token.IDENT)
	expectTypes(t, "a -- plain comment\nb", token.IDENT, token.IDENT)
}

func TestMetaComments(t *testing.T) {
	expectTypes(t, "--# assume p: integer|nil",
		token.META_HASH, token.IDENT, token.IDENT, token.COLON, token.IDENT,
		token.PIPE, token.NIL, token.META_END)
	expectTypes(t, "local a --: var {number}\nlocal b",
		token.LOCAL, token.IDENT, token.META_SLOT, token.IDENT, token.LBRACE,
		token.IDENT, token.RBRACE, token.META_END, token.LOCAL, token.IDENT)
	expectTypes(t, "--v (a: integer) -> string\nfunction f(a) end",
		token.META_SIG, token.LPAREN, token.IDENT, token.COLON, token.IDENT, token.RPAREN,
		token.ARROW, token.IDENT, token.META_END,
		token.FUNCTION, token.IDENT, token.LPAREN, token.IDENT, token.RPAREN, token.END)
}

func TestExpectationCommentsAreSkipped(t *testing.T) {
	expectTypes(t, "local p\n--@< some message\np()",
		token.LOCAL, token.IDENT, token.IDENT, token.LPAREN, token.RPAREN)
}

func TestPositions(t *testing.T) {
	toks := collect("local x\nx = 1")
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("local at %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	if toks[2].Line != 2 || toks[2].Column != 1 {
		t.Errorf("second x at %d:%d, want 2:1", toks[2].Line, toks[2].Column)
	}
	if toks[4].Line != 2 || toks[4].Column != 5 {
		t.Errorf("1 at %d:%d, want 2:5", toks[4].Line, toks[4].Column)
	}
}
