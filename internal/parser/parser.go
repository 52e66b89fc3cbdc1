package parser

import (
	"fmt"

	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/config"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/lexer"
	"github.com/moonscope/moonscope/internal/token"
)

// Parser builds a Program from the token stream. It is a recursive
// descent parser over the Lua 5.1 grammar with the structured annotation
// forms spliced in at their attachment points.
type Parser struct {
	l *lexer.Lexer

	curToken  token.Token
	peekToken token.Token

	errors []*diagnostics.Diagnostic
	depth  int
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a whole chunk.
func Parse(input string) (*ast.Program, []*diagnostics.Diagnostic) {
	p := New(lexer.New(input))
	prog := p.ParseProgram()
	return prog, p.Errors()
}

func (p *Parser) Errors() []*diagnostics.Diagnostic { return p.errors }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.Type) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.Type) bool { return p.peekToken.Type == t }

func (p *Parser) expect(t token.Type) bool {
	if p.curTokenIs(t) {
		p.nextToken()
		return true
	}
	p.errorf(p.curToken, "expected %s, got %s", string(t), describe(p.curToken))
	return false
}

func (p *Parser) errorf(tok token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrP001, tok, fmt.Sprintf(format, args...)))
}

func (p *Parser) annotErrorf(tok token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrP002, tok, fmt.Sprintf(format, args...)))
}

// ParseProgram parses statements until EOF.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		} else if !p.curTokenIs(token.EOF) {
			// Recovery: the statement parser reported and did not
			// consume; skip one token to avoid looping.
			p.nextToken()
		}
	}
	return prog
}

// parseBlock parses statements until one of the given terminators; the
// terminator is left for the caller.
func (p *Parser) parseBlock(terminators ...token.Type) *ast.Block {
	p.depth++
	defer func() { p.depth-- }()
	block := &ast.Block{}
	if p.depth > config.MaxRecursionDepth {
		p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrP006, p.curToken,
			"block too deeply nested: recursion depth limit exceeded"))
		for !p.curTokenIs(token.EOF) {
			p.nextToken()
		}
		return block
	}
	for {
		if p.curTokenIs(token.EOF) {
			p.errorf(p.curToken, "unexpected end of file inside a block")
			return block
		}
		for _, t := range terminators {
			if p.curTokenIs(t) {
				return block
			}
		}
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		} else if !p.curTokenIs(token.EOF) {
			p.nextToken()
		}
	}
}

// skipMeta consumes tokens to the end of the current structured comment.
func (p *Parser) skipMeta() {
	for !p.curTokenIs(token.META_END) && !p.curTokenIs(token.EOF) {
		p.nextToken()
	}
	if p.curTokenIs(token.META_END) {
		p.nextToken()
	}
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of file"
	case token.META_END:
		return "end of annotation"
	default:
		return "`" + tok.Lexeme + "`"
	}
}
