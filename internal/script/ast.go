package script

// Exp is a compiled expression node. Nodes are immutable after parsing and
// may be shared between evaluations.
type Exp interface {
	eval(s *Scope, env Env, input Value) ([]Value, error)
}

// BinOp enumerates binary arithmetic and comparison operators.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op BinOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpRem:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

type identityExp struct{}

type literalExp struct {
	v Value
}

type varExp struct {
	name string
}

// pathPart is one indexing step. Exactly one of key, index, slice or iter
// describes the step.
type pathPart struct {
	key      string
	index    Exp
	start    Exp
	end      Exp
	slice    bool
	iter     bool
	optional bool
}

type pathExp struct {
	head  Exp
	parts []pathPart
}

type arrayExp struct {
	body Exp
}

type objectEntry struct {
	key Exp
	val Exp
}

type objectExp struct {
	entries []objectEntry
}

type assignExp struct {
	name string
	rhs  Exp
}

type pipeExp struct {
	left  Exp
	right Exp
}

// bindExp evaluates source and, for each output, binds it to name while
// running body against the original input.
type bindExp struct {
	source Exp
	name   string
	body   Exp
}

type commaExp struct {
	left  Exp
	right Exp
}

type tryExp struct {
	body  Exp
	catch Exp
}

type ifBranch struct {
	cond Exp
	then Exp
}

type ifExp struct {
	branches []ifBranch
	els      Exp
}

type binExp struct {
	op    BinOp
	left  Exp
	right Exp
}

type andExp struct {
	left  Exp
	right Exp
}

type orExp struct {
	left  Exp
	right Exp
}

type altExp struct {
	left  Exp
	right Exp
}

type negExp struct {
	term Exp
}

type strExp struct {
	parts []Exp
}

type selectExp struct {
	cond Exp
}

type iterKind int

const (
	iterMap iterKind = iota
	iterAny
	iterAll
)

type iterExp struct {
	kind iterKind
	body Exp
}

type callExp struct {
	name string
	args []Exp
}

type builtinExp struct {
	name string
	args []Exp
}

type errorExp struct {
	msg Exp
}

type emptyExp struct{}

type funcDef struct {
	name   string
	params []string
	body   Exp
}

func (d *funcDef) key() string { return defKey(d.name, len(d.params)) }

type defsExp struct {
	defs []*funcDef
	body Exp
}
