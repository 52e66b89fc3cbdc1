package parser

import (
	"strconv"
	"strings"

	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/config"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/token"
)

// Binary operator precedence, per the Lua 5.1 reference manual. `..` and
// `^` are right-associative.
const (
	lowestPrec = 0
	orPrec     = 1
	andPrec    = 2
	cmpPrec    = 3
	concatPrec = 4
	addPrec    = 5
	mulPrec    = 6
	unaryPrec  = 7
	powPrec    = 8
)

func binaryPrec(t token.Type) (int, bool) {
	switch t {
	case token.OR:
		return orPrec, false
	case token.AND:
		return andPrec, false
	case token.LT, token.GT, token.LE, token.GE, token.EQ, token.NE:
		return cmpPrec, false
	case token.CONCAT:
		return concatPrec, true
	case token.PLUS, token.MINUS:
		return addPrec, false
	case token.STAR, token.SLASH, token.PERCENT:
		return mulPrec, false
	case token.CARET:
		return powPrec, true
	default:
		return 0, false
	}
}

func (p *Parser) parseExpressionList() []ast.Expression {
	var exprs []ast.Expression
	e := p.parseExpression(lowestPrec)
	if e == nil {
		return exprs
	}
	exprs = append(exprs, e)
	for p.curTokenIs(token.COMMA) {
		p.nextToken()
		e = p.parseExpression(lowestPrec)
		if e == nil {
			return exprs
		}
		exprs = append(exprs, e)
	}
	return exprs
}

func (p *Parser) parseExpression(minPrec int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > config.MaxRecursionDepth {
		p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrP006, p.curToken,
			"expression too complex: recursion depth limit exceeded"))
		return nil
	}

	left := p.parseUnaryExpression()
	if left == nil {
		return nil
	}

	for {
		prec, rightAssoc := binaryPrec(p.curToken.Type)
		if prec == 0 || prec <= minPrec {
			break
		}
		opTok := p.curToken
		p.nextToken()
		nextMin := prec
		if rightAssoc {
			nextMin = prec - 1
		}
		right := p.parseExpression(nextMin)
		if right == nil {
			return left
		}
		left = &ast.InfixExpression{Token: opTok, Left: left, Op: opTok.Lexeme, Right: right}
	}
	return left
}

func (p *Parser) parseUnaryExpression() ast.Expression {
	switch p.curToken.Type {
	case token.NOT, token.MINUS, token.HASH:
		tok := p.curToken
		p.nextToken()
		right := p.parseExpression(unaryPrec - 1)
		if right == nil {
			return nil
		}
		return &ast.PrefixExpression{Token: tok, Op: tok.Lexeme, Right: right}
	default:
		return p.parseSimpleExpression()
	}
}

func (p *Parser) parseSimpleExpression() ast.Expression {
	switch p.curToken.Type {
	case token.NIL:
		tok := p.curToken
		p.nextToken()
		return &ast.NilLiteral{Token: tok}
	case token.TRUE, token.FALSE:
		tok := p.curToken
		p.nextToken()
		return &ast.BooleanLiteral{Token: tok, Value: tok.Type == token.TRUE}
	case token.NUMBER:
		return p.parseNumberLiteral()
	case token.STRING:
		tok := p.curToken
		p.nextToken()
		return &ast.StringLiteral{Token: tok, Value: tok.Literal}
	case token.ELLIPSIS:
		tok := p.curToken
		p.nextToken()
		return &ast.VarargExpression{Token: tok}
	case token.FUNCTION:
		tok := p.curToken
		p.nextToken()
		return p.parseFunctionRest(tok)
	case token.META_SIG:
		// A --v signature may precede a function literal expression.
		sig := p.parseSignature()
		if !p.curTokenIs(token.FUNCTION) {
			p.annotErrorf(sig.tok, "--v must be immediately followed by a function")
			return nil
		}
		tok := p.curToken
		p.nextToken()
		fn := p.parseFunctionRest(tok)
		p.applySignature(fn, sig)
		return fn
	case token.LBRACE:
		return p.parseTableConstructor()
	default:
		return p.parseSuffixedExpression()
	}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	tok := p.curToken
	p.nextToken()
	lit := &ast.NumberLiteral{Token: tok}
	text := tok.Literal
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		n, err := strconv.ParseInt(text[2:], 16, 64)
		if err != nil {
			p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrL001, tok,
				"malformed number near `"+text+"`"))
			return lit
		}
		lit.Value = float64(n)
		lit.IsInt = true
		lit.Int = n
		return lit
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		p.errors = append(p.errors, diagnostics.NewError(diagnostics.ErrL001, tok,
			"malformed number near `"+text+"`"))
		return lit
	}
	lit.Value = f
	if n := int64(f); float64(n) == f && !strings.ContainsAny(text, ".eE") {
		lit.IsInt = true
		lit.Int = n
	}
	return lit
}

// parseSuffixedExpression parses a primary expression followed by any
// number of index, call and method-call suffixes.
func (p *Parser) parseSuffixedExpression() ast.Expression {
	var expr ast.Expression
	switch p.curToken.Type {
	case token.IDENT:
		expr = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
		p.nextToken()
	case token.LPAREN:
		tok := p.curToken
		p.nextToken()
		inner := p.parseExpression(lowestPrec)
		p.expect(token.RPAREN)
		expr = &ast.ParenExpression{Token: tok, Inner: inner}
	default:
		p.errorf(p.curToken, "unexpected %s", describe(p.curToken))
		return nil
	}

	for {
		switch p.curToken.Type {
		case token.DOT:
			tok := p.curToken
			p.nextToken()
			if !p.curTokenIs(token.IDENT) {
				p.errorf(p.curToken, "expected a name after `.`, got %s", describe(p.curToken))
				return expr
			}
			key := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Lexeme}
			expr = &ast.IndexExpression{Token: tok, Object: expr, Key: key, IsDot: true}
			p.nextToken()
		case token.LBRACKET:
			tok := p.curToken
			p.nextToken()
			key := p.parseExpression(lowestPrec)
			p.expect(token.RBRACKET)
			expr = &ast.IndexExpression{Token: tok, Object: expr, Key: key}
		case token.COLON:
			tok := p.curToken
			p.nextToken()
			if !p.curTokenIs(token.IDENT) {
				p.errorf(p.curToken, "expected a method name after `:`, got %s", describe(p.curToken))
				return expr
			}
			method := p.curToken.Lexeme
			p.nextToken()
			args, ok := p.parseCallArgs()
			if !ok {
				p.errorf(p.curToken, "expected arguments after the method name")
				return expr
			}
			expr = &ast.MethodCallExpression{Token: tok, Receiver: expr, Method: method, Args: args}
		case token.LPAREN, token.STRING, token.LBRACE:
			tok := p.curToken
			args, ok := p.parseCallArgs()
			if !ok {
				return expr
			}
			expr = &ast.CallExpression{Token: tok, Callee: expr, Args: args}
		default:
			return expr
		}
	}
}

// parseCallArgs parses `(...)`, a string argument, or a table argument.
func (p *Parser) parseCallArgs() ([]ast.Expression, bool) {
	switch p.curToken.Type {
	case token.LPAREN:
		p.nextToken()
		var args []ast.Expression
		if !p.curTokenIs(token.RPAREN) {
			args = p.parseExpressionList()
		}
		p.expect(token.RPAREN)
		return args, true
	case token.STRING:
		arg := &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
		p.nextToken()
		return []ast.Expression{arg}, true
	case token.LBRACE:
		return []ast.Expression{p.parseTableConstructor()}, true
	default:
		return nil, false
	}
}

func (p *Parser) parseTableConstructor() ast.Expression {
	tok := p.curToken
	p.nextToken() // past {
	ctor := &ast.TableConstructor{Token: tok}
	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.errorf(p.curToken, "unexpected end of file inside a table constructor")
			return ctor
		}
		field := &ast.TableField{}
		switch {
		case p.curTokenIs(token.LBRACKET):
			p.nextToken()
			field.Key = p.parseExpression(lowestPrec)
			p.expect(token.RBRACKET)
			p.expect(token.ASSIGN)
			field.Value = p.parseExpression(lowestPrec)
			field.IsRec = true
		case p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN):
			field.Name = p.curToken.Lexeme
			field.IsRec = true
			p.nextToken()
			p.nextToken()
			field.Value = p.parseExpression(lowestPrec)
		default:
			field.Value = p.parseExpression(lowestPrec)
		}
		if field.Value == nil {
			return ctor
		}
		ctor.Fields = append(ctor.Fields, field)
		if p.curTokenIs(token.COMMA) || p.curTokenIs(token.SEMI) {
			p.nextToken()
		} else {
			break
		}
	}
	p.expect(token.RBRACE)
	return ctor
}
