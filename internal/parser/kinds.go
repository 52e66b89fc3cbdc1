package parser

import (
	"strconv"

	"github.com/moonscope/moonscope/internal/ast"
	"github.com/moonscope/moonscope/internal/diagnostics"
	"github.com/moonscope/moonscope/internal/lexer"
	"github.com/moonscope/moonscope/internal/token"
)

// parseSlotAnnot parses `[mod] kind` as written after `--:`, in record
// fields, and in --v parameters.
func (p *Parser) parseSlotAnnot() *ast.SlotAnnot {
	annot := &ast.SlotAnnot{Token: p.curToken, Mod: ast.ModNone}
	if p.curTokenIs(token.IDENT) {
		switch p.curToken.Lexeme {
		case "const":
			annot.Mod = ast.ModConst
			p.nextToken()
		case "var":
			annot.Mod = ast.ModVar
			p.nextToken()
		case "currently":
			annot.Mod = ast.ModCurrently
			p.nextToken()
		}
	}
	annot.Kind = p.parseKind()
	if annot.Kind == nil {
		return nil
	}
	return annot
}

// parseKind parses a full kind expression: unions of postfix kinds.
func (p *Parser) parseKind() ast.Kind {
	first := p.parsePostfixKind()
	if first == nil {
		return nil
	}
	if !p.curTokenIs(token.PIPE) {
		return first
	}
	union := &ast.KUnion{Token: first.GetToken(), Kinds: []ast.Kind{first}}
	for p.curTokenIs(token.PIPE) {
		p.nextToken()
		next := p.parsePostfixKind()
		if next == nil {
			return union
		}
		union.Kinds = append(union.Kinds, next)
	}
	return union
}

// parsePostfixKind parses an atomic kind with any number of `?` suffixes.
func (p *Parser) parsePostfixKind() ast.Kind {
	kind := p.parseAtomKind()
	if kind == nil {
		return nil
	}
	for p.curTokenIs(token.QUESTION) {
		kind = &ast.KOptional{Token: p.curToken, Inner: kind}
		p.nextToken()
	}
	return kind
}

func (p *Parser) parseAtomKind() ast.Kind {
	tok := p.curToken
	switch tok.Type {
	case token.QUESTION:
		p.nextToken()
		return &ast.KDynamic{Token: tok}
	case token.NIL:
		p.nextToken()
		return &ast.KName{Token: tok, Name: "nil"}
	case token.TRUE:
		p.nextToken()
		return &ast.KBoolLit{Token: tok, Value: true}
	case token.FALSE:
		p.nextToken()
		return &ast.KBoolLit{Token: tok, Value: false}
	case token.NUMBER:
		p.nextToken()
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.annotErrorf(tok, "only integer literals can appear in a type, got `%s`", tok.Literal)
			return nil
		}
		return &ast.KIntLit{Token: tok, Value: n}
	case token.MINUS:
		p.nextToken()
		if !p.curTokenIs(token.NUMBER) {
			p.annotErrorf(p.curToken, "expected a number after `-` in a type")
			return nil
		}
		numTok := p.curToken
		p.nextToken()
		n, err := strconv.ParseInt(numTok.Literal, 10, 64)
		if err != nil {
			p.annotErrorf(numTok, "only integer literals can appear in a type, got `%s`", numTok.Literal)
			return nil
		}
		return &ast.KIntLit{Token: tok, Value: -n}
	case token.STRING:
		p.nextToken()
		return &ast.KStrLit{Token: tok, Value: tok.Literal}
	case token.IDENT:
		p.nextToken()
		return &ast.KName{Token: tok, Name: tok.Lexeme}
	case token.FUNCTION:
		p.nextToken()
		if !p.curTokenIs(token.LPAREN) {
			// Bare `function` is the opaque function top.
			return &ast.KName{Token: tok, Name: "function"}
		}
		return p.parseFuncKind(tok)
	case token.LPAREN:
		p.nextToken()
		inner := p.parseKind()
		if !p.expect(token.RPAREN) {
			return nil
		}
		return inner
	case token.LBRACE:
		return p.parseTableKind(tok)
	case token.LBRACKET:
		// `[attr] kind` attribute prefix.
		p.nextToken()
		if !p.curTokenIs(token.IDENT) {
			p.annotErrorf(p.curToken, "expected an attribute name, got %s", describe(p.curToken))
			return nil
		}
		name := p.curToken.Lexeme
		p.nextToken()
		if !p.expect(token.RBRACKET) {
			return nil
		}
		inner := p.parsePostfixKind()
		if inner == nil {
			return nil
		}
		return &ast.KAttr{Token: tok, Name: name, Inner: inner}
	default:
		p.annotErrorf(tok, "unexpected %s in a type", describe(tok))
		return nil
	}
}

func (p *Parser) parseFuncKind(tok token.Token) ast.Kind {
	fn := &ast.KFunc{Token: tok}
	p.nextToken() // past (
	for !p.curTokenIs(token.RPAREN) {
		if p.curTokenIs(token.ELLIPSIS) {
			fn.HasTail = true
			p.nextToken()
			if p.curTokenIs(token.COLON) {
				p.nextToken()
				fn.Vararg = p.parseKind()
			}
			break
		}
		// Parameters may be written `name: kind` or as a bare kind.
		var param *ast.KFuncParam
		if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.COLON) {
			param = &ast.KFuncParam{Name: p.curToken.Lexeme}
			p.nextToken()
			p.nextToken()
			param.Annot = p.parseSlotAnnot()
		} else {
			param = &ast.KFuncParam{}
			annot := p.parseSlotAnnot()
			if annot == nil {
				return fn
			}
			param.Annot = annot
		}
		fn.Params = append(fn.Params, param)
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
		}
	}
	if !p.expect(token.RPAREN) {
		return fn
	}
	if p.curTokenIs(token.ARROW) {
		p.nextToken()
		fn.Returns = p.parseReturnKinds()
	}
	return fn
}

// parseReturnKinds parses the return side of a function kind or a -->
// annotation: either one kind or a parenthesised, possibly empty list.
func (p *Parser) parseReturnKinds() []ast.Kind {
	if p.curTokenIs(token.LPAREN) {
		// Distinguish `(integer)?` (a single grouped kind) from a list:
		// parse the list form and let a single element behave the same.
		p.nextToken()
		var kinds []ast.Kind
		for !p.curTokenIs(token.RPAREN) {
			k := p.parseKind()
			if k == nil {
				return kinds
			}
			kinds = append(kinds, k)
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
			}
		}
		p.expect(token.RPAREN)
		if len(kinds) == 1 && p.curTokenIs(token.QUESTION) {
			k := kinds[0]
			for p.curTokenIs(token.QUESTION) {
				k = &ast.KOptional{Token: p.curToken, Inner: k}
				p.nextToken()
			}
			return []ast.Kind{k}
		}
		return kinds
	}
	k := p.parseKind()
	if k == nil {
		return nil
	}
	return []ast.Kind{k}
}

func (p *Parser) parseTableKind(tok token.Token) ast.Kind {
	p.nextToken() // past {

	// Empty braces denote the no-keys-known shape.
	if p.curTokenIs(token.RBRACE) {
		p.nextToken()
		return &ast.KRecord{Token: tok}
	}

	// `{[K] = V}` is a map.
	if p.curTokenIs(token.LBRACKET) {
		p.nextToken()
		key := p.parseKind()
		if key == nil {
			return nil
		}
		if !p.expect(token.RBRACKET) || !p.expect(token.ASSIGN) {
			return nil
		}
		val := p.parseSlotAnnot()
		if val == nil {
			return nil
		}
		if !p.expect(token.RBRACE) {
			return nil
		}
		return &ast.KMap{Token: tok, Key: key, Value: val}
	}

	// `{a = K, ...}` is a record.
	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.ASSIGN) {
		rec := &ast.KRecord{Token: tok}
		for {
			if !p.curTokenIs(token.IDENT) {
				p.annotErrorf(p.curToken, "expected a field name, got %s", describe(p.curToken))
				return rec
			}
			name := p.curToken.Lexeme
			p.nextToken()
			if !p.expect(token.ASSIGN) {
				return rec
			}
			annot := p.parseSlotAnnot()
			if annot == nil {
				return rec
			}
			rec.Fields = append(rec.Fields, &ast.KRecordField{Name: name, Annot: annot})
			if p.curTokenIs(token.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
		p.expect(token.RBRACE)
		return rec
	}

	// Otherwise one kind is an array, several are a tuple.
	var items []*ast.SlotAnnot
	for {
		annot := p.parseSlotAnnot()
		if annot == nil {
			return nil
		}
		items = append(items, annot)
		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	if len(items) == 1 {
		return &ast.KArray{Token: tok, Elem: items[0]}
	}
	return &ast.KTuple{Token: tok, Items: items}
}

// ParseSlotAnnotText parses a standalone `[mod] kind` annotation, as used
// by the predefined environment definitions.
func ParseSlotAnnotText(text string) (*ast.SlotAnnot, []*diagnostics.Diagnostic) {
	p := New(lexer.New("--: " + text))
	annot := p.parseTrailingSlotAnnot()
	return annot, p.Errors()
}
