package ast

import (
	"github.com/moonscope/moonscope/internal/token"
)

// Kind is the AST of a type annotation, before it is resolved against the
// alias table into a checker type.
type Kind interface {
	Node
	kindNode()
}

// Modifier is the slot variance written in an annotation. Unmarked slots
// default per position: binding slots to currently, inner table slots to
// var.
type Modifier int

const (
	ModNone Modifier = iota
	ModConst
	ModVar
	ModCurrently
)

// SlotAnnot pairs a modifier with a kind, as written after `--:` or in a
// record field.
type SlotAnnot struct {
	Token token.Token
	Mod   Modifier
	Kind  Kind
}

// KName is a named kind: a primitive (nil, boolean, number, integer,
// string, table, function), WHATEVER, or a user alias.
type KName struct {
	Token token.Token
	Name  string
}

func (k *KName) kindNode()             {}
func (k *KName) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KName) GetToken() token.Token { return k.Token }

// KDynamic is the `?` kind.
type KDynamic struct {
	Token token.Token
}

func (k *KDynamic) kindNode()             {}
func (k *KDynamic) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KDynamic) GetToken() token.Token { return k.Token }

// KBoolLit is the literal kind `true` or `false`.
type KBoolLit struct {
	Token token.Token
	Value bool
}

func (k *KBoolLit) kindNode()             {}
func (k *KBoolLit) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KBoolLit) GetToken() token.Token { return k.Token }

// KIntLit is a singleton integer kind.
type KIntLit struct {
	Token token.Token
	Value int64
}

func (k *KIntLit) kindNode()             {}
func (k *KIntLit) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KIntLit) GetToken() token.Token { return k.Token }

// KStrLit is a singleton string kind.
type KStrLit struct {
	Token token.Token
	Value string
}

func (k *KStrLit) kindNode()             {}
func (k *KStrLit) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KStrLit) GetToken() token.Token { return k.Token }

// KUnion is `A | B | ...`.
type KUnion struct {
	Token token.Token
	Kinds []Kind
}

func (k *KUnion) kindNode()             {}
func (k *KUnion) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KUnion) GetToken() token.Token { return k.Token }

// KOptional is the `K?` sugar for K | nil.
type KOptional struct {
	Token token.Token
	Inner Kind
}

func (k *KOptional) kindNode()             {}
func (k *KOptional) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KOptional) GetToken() token.Token { return k.Token }

// KRecordField is one `name = [mod] K` entry of a record kind.
type KRecordField struct {
	Name  string
	Annot *SlotAnnot
}

// KRecord is `{a = K, b = var K}`.
type KRecord struct {
	Token  token.Token
	Fields []*KRecordField
}

func (k *KRecord) kindNode()             {}
func (k *KRecord) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KRecord) GetToken() token.Token { return k.Token }

// KTuple is `{K, K, ...}` with two or more items.
type KTuple struct {
	Token token.Token
	Items []*SlotAnnot
}

func (k *KTuple) kindNode()             {}
func (k *KTuple) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KTuple) GetToken() token.Token { return k.Token }

// KArray is `{K}`.
type KArray struct {
	Token token.Token
	Elem  *SlotAnnot
}

func (k *KArray) kindNode()             {}
func (k *KArray) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KArray) GetToken() token.Token { return k.Token }

// KMap is `{[K] = V}`.
type KMap struct {
	Token token.Token
	Key   Kind
	Value *SlotAnnot
}

func (k *KMap) kindNode()             {}
func (k *KMap) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KMap) GetToken() token.Token { return k.Token }

// KFuncParam is one `name: [mod] K` parameter of a function kind.
type KFuncParam struct {
	Name  string
	Annot *SlotAnnot
}

// KFunc is `function(a: K, ...) -> (K, K)`.
type KFunc struct {
	Token   token.Token
	Params  []*KFuncParam
	Vararg  Kind // element kind of `...`, nil when not variadic
	HasTail bool
	Returns []Kind
}

func (k *KFunc) kindNode()             {}
func (k *KFunc) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KFunc) GetToken() token.Token { return k.Token }

// KAttr wraps a kind with an attribute: `[require] function(...)`.
type KAttr struct {
	Token token.Token
	Name  string
	Inner Kind
}

func (k *KAttr) kindNode()             {}
func (k *KAttr) TokenLiteral() string  { return k.Token.Lexeme }
func (k *KAttr) GetToken() token.Token { return k.Token }
