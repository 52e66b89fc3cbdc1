package ast

import (
	"github.com/moonscope/moonscope/internal/token"
)

// Identifier is a bare name.
type Identifier struct {
	Token token.Token
	Value string
}

func (e *Identifier) expressionNode()       {}
func (e *Identifier) TokenLiteral() string  { return e.Token.Lexeme }
func (e *Identifier) GetToken() token.Token { return e.Token }

// NilLiteral is the nil keyword.
type NilLiteral struct {
	Token token.Token
}

func (e *NilLiteral) expressionNode()       {}
func (e *NilLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *NilLiteral) GetToken() token.Token { return e.Token }

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (e *BooleanLiteral) expressionNode()       {}
func (e *BooleanLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *BooleanLiteral) GetToken() token.Token { return e.Token }

// NumberLiteral is a numeric literal; IsInt marks values that are exact
// integers, which type as integer singletons.
type NumberLiteral struct {
	Token token.Token
	Value float64
	IsInt bool
	Int   int64
}

func (e *NumberLiteral) expressionNode()       {}
func (e *NumberLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *NumberLiteral) GetToken() token.Token { return e.Token }

// StringLiteral is a short or long string literal.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (e *StringLiteral) expressionNode()       {}
func (e *StringLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *StringLiteral) GetToken() token.Token { return e.Token }

// VarargExpression is `...`.
type VarargExpression struct {
	Token token.Token
}

func (e *VarargExpression) expressionNode()       {}
func (e *VarargExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *VarargExpression) GetToken() token.Token { return e.Token }

// FunctionLiteral is `function(params) body end`, with optional parameter
// and return annotations (from --:, --> and --v forms).
type FunctionLiteral struct {
	Token       token.Token
	Params      []*Identifier
	ParamAnnots []*SlotAnnot // parallel to Params; entries may be nil
	IsVararg    bool
	VarargAnnot Kind // element kind of the variadic tail, when annotated
	ReturnAnnot []Kind
	HasRetAnnot bool
	Body        *Block
}

func (e *FunctionLiteral) expressionNode()       {}
func (e *FunctionLiteral) TokenLiteral() string  { return e.Token.Lexeme }
func (e *FunctionLiteral) GetToken() token.Token { return e.Token }

// TableField is one entry of a table constructor: [k]=v, name=v, or a
// positional item (Key and Name both unset).
type TableField struct {
	Key   Expression // nil unless [k]=v form
	Name  string     // set for name=v form
	IsRec bool
	Value Expression
}

// TableConstructor is `{ ... }`.
type TableConstructor struct {
	Token  token.Token
	Fields []*TableField
}

func (e *TableConstructor) expressionNode()       {}
func (e *TableConstructor) TokenLiteral() string  { return e.Token.Lexeme }
func (e *TableConstructor) GetToken() token.Token { return e.Token }

// CallExpression is `f(args)`, including the sugar forms f"s" and f{...}.
type CallExpression struct {
	Token  token.Token
	Callee Expression
	Args   []Expression
}

func (e *CallExpression) expressionNode()       {}
func (e *CallExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *CallExpression) GetToken() token.Token { return e.Token }

// MethodCallExpression is `recv:name(args)`, equivalent to
// recv.name(recv, args).
type MethodCallExpression struct {
	Token    token.Token
	Receiver Expression
	Method   string
	Args     []Expression
}

func (e *MethodCallExpression) expressionNode()       {}
func (e *MethodCallExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *MethodCallExpression) GetToken() token.Token { return e.Token }

// IndexExpression is `t[k]`; the dot form t.name parses into it with a
// string-literal key and IsDot set.
type IndexExpression struct {
	Token  token.Token
	Object Expression
	Key    Expression
	IsDot  bool
}

func (e *IndexExpression) expressionNode()       {}
func (e *IndexExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *IndexExpression) GetToken() token.Token { return e.Token }

// PrefixExpression is a unary operator application: -e, not e, #e.
type PrefixExpression struct {
	Token token.Token
	Op    string
	Right Expression
}

func (e *PrefixExpression) expressionNode()       {}
func (e *PrefixExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *PrefixExpression) GetToken() token.Token { return e.Token }

// InfixExpression is a binary operator application.
type InfixExpression struct {
	Token token.Token
	Left  Expression
	Op    string
	Right Expression
}

func (e *InfixExpression) expressionNode()       {}
func (e *InfixExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *InfixExpression) GetToken() token.Token { return e.Token }

// ParenExpression is a parenthesised expression; it truncates a
// multi-valued inner expression to its first value.
type ParenExpression struct {
	Token token.Token
	Inner Expression
}

func (e *ParenExpression) expressionNode()       {}
func (e *ParenExpression) TokenLiteral() string  { return e.Token.Lexeme }
func (e *ParenExpression) GetToken() token.Token { return e.Token }
