package ast

import (
	"github.com/moonscope/moonscope/internal/token"
)

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node for a single chunk (file or module).
type Program struct {
	File       string
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) GetToken() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].GetToken()
	}
	return token.Token{}
}

// Block is a scoped statement list.
type Block struct {
	Statements []Statement
}

// LocalStatement declares local variables:
// local a, b = e1, e2 with optional --: annotations per name.
type LocalStatement struct {
	Token  token.Token // the 'local' token
	Names  []*Identifier
	Annots []*SlotAnnot // parallel to Names; entries may be nil
	Values []Expression
}

func (s *LocalStatement) statementNode()        {}
func (s *LocalStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *LocalStatement) GetToken() token.Token { return s.Token }

// AssignStatement assigns to variables and table slots:
// a, t.x = e1, e2 with optional --: annotations on fresh globals.
type AssignStatement struct {
	Token   token.Token
	Targets []Expression // Identifier or IndexExpression
	Annots  []*SlotAnnot // parallel to Targets; entries may be nil
	Values  []Expression
}

func (s *AssignStatement) statementNode()        {}
func (s *AssignStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *AssignStatement) GetToken() token.Token { return s.Token }

// ExpressionStatement is a bare call used as a statement.
type ExpressionStatement struct {
	Token token.Token
	Expr  Expression
}

func (s *ExpressionStatement) statementNode()        {}
func (s *ExpressionStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *ExpressionStatement) GetToken() token.Token { return s.Token }

// DoStatement is an explicit block: do ... end.
type DoStatement struct {
	Token token.Token
	Body  *Block
}

func (s *DoStatement) statementNode()        {}
func (s *DoStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *DoStatement) GetToken() token.Token { return s.Token }

// WhileStatement: while cond do ... end.
type WhileStatement struct {
	Token token.Token
	Cond  Expression
	Body  *Block
}

func (s *WhileStatement) statementNode()        {}
func (s *WhileStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *WhileStatement) GetToken() token.Token { return s.Token }

// RepeatStatement: repeat ... until cond.
type RepeatStatement struct {
	Token token.Token
	Body  *Block
	Cond  Expression
}

func (s *RepeatStatement) statementNode()        {}
func (s *RepeatStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *RepeatStatement) GetToken() token.Token { return s.Token }

// IfClause is one `if`/`elseif` arm.
type IfClause struct {
	Token token.Token
	Cond  Expression
	Body  *Block
}

// IfStatement: if ... then ... elseif ... else ... end.
type IfStatement struct {
	Token   token.Token
	Clauses []*IfClause
	Else    *Block // nil when absent
}

func (s *IfStatement) statementNode()        {}
func (s *IfStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *IfStatement) GetToken() token.Token { return s.Token }

// NumericForStatement: for i = start, stop[, step] do ... end.
type NumericForStatement struct {
	Token token.Token
	Var   *Identifier
	Start Expression
	Stop  Expression
	Step  Expression // nil when absent
	Body  *Block
}

func (s *NumericForStatement) statementNode()        {}
func (s *NumericForStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *NumericForStatement) GetToken() token.Token { return s.Token }

// GenericForStatement: for a, b in e1, e2, e3 do ... end.
type GenericForStatement struct {
	Token token.Token
	Names []*Identifier
	Exprs []Expression
	Body  *Block
}

func (s *GenericForStatement) statementNode()        {}
func (s *GenericForStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *GenericForStatement) GetToken() token.Token { return s.Token }

// FunctionStatement declares a function:
// function name(...) / function t.a.b(...) / function t:m(...) /
// local function name(...), with an optional --v signature.
type FunctionStatement struct {
	Token    token.Token
	IsLocal  bool
	Name     *Identifier
	Path     []string // dotted path after the first name, method name last
	IsMethod bool     // declared with `:` (implicit self)
	Func     *FunctionLiteral
}

func (s *FunctionStatement) statementNode()        {}
func (s *FunctionStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *FunctionStatement) GetToken() token.Token { return s.Token }

// ReturnStatement: return e1, e2, ...
type ReturnStatement struct {
	Token  token.Token
	Values []Expression
}

func (s *ReturnStatement) statementNode()        {}
func (s *ReturnStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *ReturnStatement) GetToken() token.Token { return s.Token }

// BreakStatement: break.
type BreakStatement struct {
	Token token.Token
}

func (s *BreakStatement) statementNode()        {}
func (s *BreakStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *BreakStatement) GetToken() token.Token { return s.Token }

// AssumeStatement is the meta declaration `--# assume NAME: [attr] M KIND`.
type AssumeStatement struct {
	Token  token.Token
	Name   *Identifier
	Global bool // assume global NAME: ...
	Annot  *SlotAnnot
}

func (s *AssumeStatement) statementNode()        {}
func (s *AssumeStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *AssumeStatement) GetToken() token.Token { return s.Token }

// TypeAliasStatement is the meta declaration `--# type NAME = KIND`.
type TypeAliasStatement struct {
	Token token.Token
	Name  *Identifier
	Kind  Kind
}

func (s *TypeAliasStatement) statementNode()        {}
func (s *TypeAliasStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *TypeAliasStatement) GetToken() token.Token { return s.Token }

// OpenStatement is the meta declaration `--# open ENV`, loading a
// predefined environment such as the lua51 standard library bindings.
type OpenStatement struct {
	Token token.Token
	Name  *Identifier
}

func (s *OpenStatement) statementNode()        {}
func (s *OpenStatement) TokenLiteral() string  { return s.Token.Lexeme }
func (s *OpenStatement) GetToken() token.Token { return s.Token }
