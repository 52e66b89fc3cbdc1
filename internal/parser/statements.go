package parser

import (
	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/token"
)

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.SEMI:
		p.nextToken()
		return nil
	case token.META_HASH:
		return p.parseMetaStatement()
	case token.META_SIG:
		return p.parseSignedFunctionStatement()
	case token.LOCAL:
		if p.peekTokenIs(token.FUNCTION) {
			return p.parseFunctionStatement(nil)
		}
		return p.parseLocalStatement()
	case token.FUNCTION:
		return p.parseFunctionStatement(nil)
	case token.DO:
		return p.parseDoStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.REPEAT:
		return p.parseRepeatStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		tok := p.curToken
		p.nextToken()
		return &ast.BreakStatement{Token: tok}
	default:
		return p.parseExpressionStatement()
	}
}

// parseMetaStatement handles `--# assume`, `--# type` and `--# open`.
func (p *Parser) parseMetaStatement() ast.Statement {
	metaTok := p.curToken
	p.nextToken() // past --#

	if p.curTokenIs(token.META_END) {
		// An empty `--#` line is allowed and means nothing.
		p.nextToken()
		return nil
	}
	if !p.curTokenIs(token.IDENT) {
		p.annotErrorf(p.curToken, "expected assume, type or open after --#, got %s", describe(p.curToken))
		p.skipMeta()
		return nil
	}

	switch p.curToken.Lexeme {
	case "assume":
		p.nextToken()
		global := false
		if p.curTokenIs(token.IDENT) && p.curToken.Lexeme == "global" && p.peekTokenIs(token.IDENT) {
			global = true
			p.nextToken()
		}
		if !p.curTokenIs(token.IDENT) {
			p.annotErrorf(p.curToken, "expected a name after assume, got %s", describe(p.curToken))
			p.skipMeta()
			return nil
		}
		name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
		p.nextToken()
		if !p.curTokenIs(token.COLON) {
			p.annotErrorf(p.curToken, "expected `:` after the assumed name, got %s", describe(p.curToken))
			p.skipMeta()
			return nil
		}
		p.nextToken()
		annot := p.parseSlotAnnot()
		if annot == nil {
			p.skipMeta()
			return nil
		}
		p.endMeta()
		return &ast.AssumeStatement{Token: metaTok, Name: name, Global: global, Annot: annot}

	case "type":
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.annotErrorf(p.curToken, "expected a name after type, got %s", describe(p.curToken))
			p.skipMeta()
			return nil
		}
		name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
		p.nextToken()
		if !p.curTokenIs(token.ASSIGN) {
			p.annotErrorf(p.curToken, "expected `=` after the alias name, got %s", describe(p.curToken))
			p.skipMeta()
			return nil
		}
		p.nextToken()
		kind := p.parseKind()
		if kind == nil {
			p.skipMeta()
			return nil
		}
		p.endMeta()
		return &ast.TypeAliasStatement{Token: metaTok, Name: name, Kind: kind}

	case "open":
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.annotErrorf(p.curToken, "expected an environment name after open, got %s", describe(p.curToken))
			p.skipMeta()
			return nil
		}
		name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
		p.nextToken()
		p.endMeta()
		return &ast.OpenStatement{Token: metaTok, Name: name}

	default:
		p.annotErrorf(p.curToken, "unrecognized annotation keyword `%s`", p.curToken.Lexeme)
		p.skipMeta()
		return nil
	}
}

// endMeta expects the end of the structured comment and reports trailing
// garbage. A chained annotation marker on the same line also terminates
// and is left for the caller.
func (p *Parser) endMeta() {
	switch p.curToken.Type {
	case token.META_END:
		p.nextToken()
	case token.META_HASH, token.META_SLOT, token.META_RET, token.META_SIG:
		// Chained annotation: the caller picks it up.
	default:
		p.annotErrorf(p.curToken, "unexpected %s at the end of the annotation", describe(p.curToken))
		p.skipMeta()
	}
}

// parseSignedFunctionStatement handles a `--v (params) -> rets` signature
// followed by a function declaration.
func (p *Parser) parseSignedFunctionStatement() ast.Statement {
	sig := p.parseSignature()
	if p.curTokenIs(token.LOCAL) || p.curTokenIs(token.FUNCTION) {
		return p.parseFunctionStatement(sig)
	}
	p.annotErrorf(p.curToken, "--v must be immediately followed by a function declaration")
	return nil
}

// signature is the parsed form of a --v annotation.
type signature struct {
	tok         token.Token
	params      []*ast.KFuncParam
	isVararg    bool
	varargKind  ast.Kind
	returns     []ast.Kind
	hasRetAnnot bool
}

func (p *Parser) parseSignature() *signature {
	sig := &signature{tok: p.curToken}
	p.nextToken() // past --v
	if !p.curTokenIs(token.LPAREN) {
		p.annotErrorf(p.curToken, "expected `(` after --v, got %s", describe(p.curToken))
		p.skipMeta()
		return sig
	}
	p.nextToken()
	for !p.curTokenIs(token.RPAREN) {
		if p.curTokenIs(token.ELLIPSIS) {
			sig.isVararg = true
			p.nextToken()
			if p.curTokenIs(token.COLON) {
				p.nextToken()
				sig.varargKind = p.parseKind()
			}
			break
		}
		if !p.curTokenIs(token.IDENT) {
			p.annotErrorf(p.curToken, "expected a parameter name, got %s", describe(p.curToken))
			p.skipMeta()
			return sig
		}
		name := p.curToken.Lexeme
		p.nextToken()
		var annot *ast.SlotAnnot
		if p.curTokenIs(token.COLON) {
			p.nextToken()
			annot = p.parseSlotAnnot()
		}
		sig.params = append(sig.params, &ast.KFuncParam{Name: name, Annot: annot})
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if !p.expect(token.RPAREN) {
		p.skipMeta()
		return sig
	}
	if p.curTokenIs(token.ARROW) {
		p.nextToken()
		sig.returns = p.parseReturnKinds()
		sig.hasRetAnnot = true
	}
	p.endMeta()
	return sig
}

func (p *Parser) parseLocalStatement() ast.Statement {
	tok := p.curToken
	p.nextToken() // past local

	stmt := &ast.LocalStatement{Token: tok}
	for {
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken, "expected a variable name, got %s", describe(p.curToken))
			return stmt
		}
		stmt.Names = append(stmt.Names, &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme})
		p.nextToken()
		stmt.Annots = append(stmt.Annots, p.parseTrailingSlotAnnot())
		if !p.curTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if p.curTokenIs(token.ASSIGN) {
		p.nextToken()
		stmt.Values = p.parseExpressionList()
		// A trailing annotation after the value list attaches to the
		// last declared name.
		if a := p.parseTrailingSlotAnnot(); a != nil && len(stmt.Annots) > 0 {
			if stmt.Annots[len(stmt.Annots)-1] == nil {
				stmt.Annots[len(stmt.Annots)-1] = a
			}
		}
	}
	return stmt
}

// parseTrailingSlotAnnot consumes a `--: [mod] kind` annotation if one is
// under the cursor.
func (p *Parser) parseTrailingSlotAnnot() *ast.SlotAnnot {
	if !p.curTokenIs(token.META_SLOT) {
		return nil
	}
	p.nextToken()
	annot := p.parseSlotAnnot()
	p.endMeta()
	return annot
}

func (p *Parser) parseDoStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.DoStatement{Token: tok, Body: body}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	cond := p.parseExpression(lowestPrec)
	p.expect(token.DO)
	body := p.parseBlock(token.END)
	p.expect(token.END)
	return &ast.WhileStatement{Token: tok, Cond: cond, Body: body}
}

func (p *Parser) parseRepeatStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	body := p.parseBlock(token.UNTIL)
	p.expect(token.UNTIL)
	cond := p.parseExpression(lowestPrec)
	return &ast.RepeatStatement{Token: tok, Body: body, Cond: cond}
}

func (p *Parser) parseIfStatement() ast.Statement {
	tok := p.curToken
	stmt := &ast.IfStatement{Token: tok}
	for {
		clauseTok := p.curToken
		p.nextToken() // past if/elseif
		cond := p.parseExpression(lowestPrec)
		p.expect(token.THEN)
		body := p.parseBlock(token.ELSEIF, token.ELSE, token.END)
		stmt.Clauses = append(stmt.Clauses, &ast.IfClause{Token: clauseTok, Cond: cond, Body: body})
		if !p.curTokenIs(token.ELSEIF) {
			break
		}
	}
	if p.curTokenIs(token.ELSE) {
		p.nextToken()
		stmt.Else = p.parseBlock(token.END)
	}
	p.expect(token.END)
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	tok := p.curToken
	p.nextToken() // past for
	if !p.curTokenIs(token.IDENT) {
		p.errorf(p.curToken, "expected a loop variable name, got %s", describe(p.curToken))
		return nil
	}
	first := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	p.nextToken()

	if p.curTokenIs(token.ASSIGN) {
		p.nextToken()
		stmt := &ast.NumericForStatement{Token: tok, Var: first}
		stmt.Start = p.parseExpression(lowestPrec)
		p.expect(token.COMMA)
		stmt.Stop = p.parseExpression(lowestPrec)
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			stmt.Step = p.parseExpression(lowestPrec)
		}
		p.expect(token.DO)
		stmt.Body = p.parseBlock(token.END)
		p.expect(token.END)
		return stmt
	}

	stmt := &ast.GenericForStatement{Token: tok, Names: []*ast.Identifier{first}}
	for p.curTokenIs(token.COMMA) {
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken, "expected a loop variable name, got %s", describe(p.curToken))
			return stmt
		}
		stmt.Names = append(stmt.Names, &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme})
		p.nextToken()
	}
	p.expect(token.IN)
	stmt.Exprs = p.parseExpressionList()
	p.expect(token.DO)
	stmt.Body = p.parseBlock(token.END)
	p.expect(token.END)
	return stmt
}

// parseFunctionStatement parses `function name...` and `local function
// name...`, attaching an optional --v signature.
func (p *Parser) parseFunctionStatement(sig *signature) ast.Statement {
	tok := p.curToken
	isLocal := false
	if p.curTokenIs(token.LOCAL) {
		isLocal = true
		p.nextToken()
	}
	p.expect(token.FUNCTION)

	if !p.curTokenIs(token.IDENT) {
		p.errorf(p.curToken, "expected a function name, got %s", describe(p.curToken))
		return nil
	}
	name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	p.nextToken()

	stmt := &ast.FunctionStatement{Token: tok, IsLocal: isLocal, Name: name}
	for p.curTokenIs(token.DOT) {
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken, "expected a name after `.`, got %s", describe(p.curToken))
			return stmt
		}
		stmt.Path = append(stmt.Path, p.curToken.Lexeme)
		p.nextToken()
	}
	if p.curTokenIs(token.COLON) {
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken, "expected a method name after `:`, got %s", describe(p.curToken))
			return stmt
		}
		stmt.IsMethod = true
		stmt.Path = append(stmt.Path, p.curToken.Lexeme)
		p.nextToken()
	}

	stmt.Func = p.parseFunctionRest(tok)
	p.applySignature(stmt.Func, sig)
	return stmt
}

// applySignature merges a --v signature into a function literal. The
// signature's parameter names must match the declaration.
func (p *Parser) applySignature(fn *ast.FunctionLiteral, sig *signature) {
	if sig == nil || fn == nil {
		return
	}
	if len(sig.params) != len(fn.Params) {
		p.annotErrorf(sig.tok, "the --v signature names %d parameters but the function has %d",
			len(sig.params), len(fn.Params))
		return
	}
	for i, sp := range sig.params {
		if sp.Name != fn.Params[i].Value {
			p.annotErrorf(sig.tok, "the --v signature parameter `%s` does not match `%s`",
				sp.Name, fn.Params[i].Value)
			return
		}
		if sp.Annot != nil {
			fn.ParamAnnots[i] = sp.Annot
		}
	}
	if sig.isVararg != fn.IsVararg {
		p.annotErrorf(sig.tok, "the --v signature disagrees with the function about varargs")
		return
	}
	if sig.varargKind != nil {
		fn.VarargAnnot = sig.varargKind
	}
	if sig.hasRetAnnot {
		fn.ReturnAnnot = sig.returns
		fn.HasRetAnnot = true
	}
}

// parseFunctionRest parses `(params) body end` with inline annotations.
func (p *Parser) parseFunctionRest(tok token.Token) *ast.FunctionLiteral {
	fn := &ast.FunctionLiteral{Token: tok}
	if !p.expect(token.LPAREN) {
		return fn
	}
	for !p.curTokenIs(token.RPAREN) {
		if p.curTokenIs(token.ELLIPSIS) {
			fn.IsVararg = true
			p.nextToken()
			break
		}
		if !p.curTokenIs(token.IDENT) {
			p.errorf(p.curToken, "expected a parameter name, got %s", describe(p.curToken))
			return fn
		}
		fn.Params = append(fn.Params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme})
		p.nextToken()
		fn.ParamAnnots = append(fn.ParamAnnots, p.parseTrailingSlotAnnot())
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	p.expect(token.RPAREN)

	// Annotations after the parameter list: `--:` binds to the last
	// parameter, `-->` declares the return kinds.
	if a := p.parseTrailingSlotAnnot(); a != nil {
		if n := len(fn.ParamAnnots); n > 0 && fn.ParamAnnots[n-1] == nil {
			fn.ParamAnnots[n-1] = a
		} else {
			p.annotErrorf(a.Token, "--: has no parameter to attach to")
		}
	}
	if p.curTokenIs(token.META_RET) {
		p.nextToken()
		fn.ReturnAnnot = p.parseReturnKinds()
		fn.HasRetAnnot = true
		p.endMeta()
	}

	fn.Body = p.parseBlock(token.END)
	p.expect(token.END)
	return fn
}

func (p *Parser) parseReturnStatement() ast.Statement {
	tok := p.curToken
	p.nextToken()
	stmt := &ast.ReturnStatement{Token: tok}
	if p.curTokenIs(token.END) || p.curTokenIs(token.EOF) || p.curTokenIs(token.ELSE) ||
		p.curTokenIs(token.ELSEIF) || p.curTokenIs(token.UNTIL) || p.curTokenIs(token.SEMI) {
		if p.curTokenIs(token.SEMI) {
			p.nextToken()
		}
		return stmt
	}
	stmt.Values = p.parseExpressionList()
	if p.curTokenIs(token.SEMI) {
		p.nextToken()
	}
	return stmt
}

// parseExpressionStatement handles calls used as statements and multiple
// assignment.
func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.curToken
	first := p.parseSuffixedExpression()
	if first == nil {
		return nil
	}

	if p.curTokenIs(token.ASSIGN) || p.curTokenIs(token.COMMA) || p.curTokenIs(token.META_SLOT) {
		stmt := &ast.AssignStatement{Token: tok, Targets: []ast.Expression{first}}
		stmt.Annots = append(stmt.Annots, p.parseTrailingSlotAnnot())
		for p.curTokenIs(token.COMMA) {
			p.nextToken()
			target := p.parseSuffixedExpression()
			if target == nil {
				return stmt
			}
			stmt.Targets = append(stmt.Targets, target)
			stmt.Annots = append(stmt.Annots, p.parseTrailingSlotAnnot())
		}
		if !p.expect(token.ASSIGN) {
			return stmt
		}
		stmt.Values = p.parseExpressionList()
		if a := p.parseTrailingSlotAnnot(); a != nil && len(stmt.Annots) > 0 {
			if stmt.Annots[len(stmt.Annots)-1] == nil {
				stmt.Annots[len(stmt.Annots)-1] = a
			}
		}
		return stmt
	}

	switch first.(type) {
	case *ast.CallExpression, *ast.MethodCallExpression:
	default:
		p.errorf(tok, "syntax error: this expression cannot be used as a statement")
	}
	return &ast.ExpressionStatement{Token: tok, Expr: first}
}
