package script

import (
	"errors"
	"math"
	"strings"

	"github.com/itchyny/gojq"
)

// Parse compiles a single query into an expression tree. Lexing and parsing
// are done by gojq; the resulting syntax tree is lowered into our own nodes.
func Parse(src string) (Exp, error) {
	q, err := gojq.Parse(src)
	if err != nil {
		return nil, syntaxError(err)
	}
	return convertQuery(q)
}

func syntaxError(err error) error {
	var pe *gojq.ParseError
	if errors.As(err, &pe) {
		return newError(InvalidSyntax, "%v at offset %d", pe, pe.Offset)
	}
	return newError(InvalidSyntax, "%v", err)
}

func unsupported(what string) error {
	return newError(InvalidSyntax, "%s is not supported", what)
}

func convertQuery(q *gojq.Query) (Exp, error) {
	if q == nil {
		return identityExp{}, nil
	}
	if len(q.Imports) > 0 || q.Meta != nil {
		return nil, unsupported("module import")
	}
	var (
		body Exp
		err  error
	)
	switch {
	case q.Term != nil:
		body, err = convertTerm(q.Term)
	case q.Left != nil:
		body, err = convertOp(q)
	default:
		body = identityExp{}
	}
	if err != nil {
		return nil, err
	}
	if len(q.FuncDefs) == 0 {
		return body, nil
	}
	defs, err := convertDefs(q.FuncDefs)
	if err != nil {
		return nil, err
	}
	return &defsExp{defs: defs, body: body}, nil
}

func convertDefs(fds []*gojq.FuncDef) ([]*funcDef, error) {
	defs := make([]*funcDef, 0, len(fds))
	for _, fd := range fds {
		body, err := convertQuery(fd.Body)
		if err != nil {
			return nil, err
		}
		defs = append(defs, &funcDef{name: fd.Name, params: fd.Args, body: body})
	}
	return defs, nil
}

func convertOp(q *gojq.Query) (Exp, error) {
	if q.Op == gojq.OpAssign {
		name, ok := variableName(q.Left)
		if !ok {
			return nil, unsupported("assignment to a path")
		}
		rhs, err := convertQuery(q.Right)
		if err != nil {
			return nil, err
		}
		return &assignExp{name: name, rhs: rhs}, nil
	}

	left, err := convertQuery(q.Left)
	if err != nil {
		return nil, err
	}
	right, err := convertQuery(q.Right)
	if err != nil {
		return nil, err
	}
	switch q.Op {
	case gojq.OpPipe:
		return &pipeExp{left: left, right: right}, nil
	case gojq.OpComma:
		return &commaExp{left: left, right: right}, nil
	case gojq.OpAnd:
		return &andExp{left: left, right: right}, nil
	case gojq.OpOr:
		return &orExp{left: left, right: right}, nil
	case gojq.OpAlt:
		return &altExp{left: left, right: right}, nil
	}
	op, ok := binOps[q.Op]
	if !ok {
		return nil, unsupported("operator " + q.Op.String())
	}
	return &binExp{op: op, left: left, right: right}, nil
}

var binOps = map[gojq.Operator]BinOp{
	gojq.OpAdd: OpAdd,
	gojq.OpSub: OpSub,
	gojq.OpMul: OpMul,
	gojq.OpDiv: OpDiv,
	gojq.OpMod: OpRem,
	gojq.OpEq:  OpEq,
	gojq.OpNe:  OpNe,
	gojq.OpLt:  OpLt,
	gojq.OpLe:  OpLe,
	gojq.OpGt:  OpGt,
	gojq.OpGe:  OpGe,
}

// variableName reports whether q is a bare "$name" term.
func variableName(q *gojq.Query) (string, bool) {
	if q == nil || q.Term == nil || len(q.FuncDefs) > 0 {
		return "", false
	}
	t := q.Term
	if t.Type != gojq.TermTypeFunc || len(t.SuffixList) > 0 || len(t.Func.Args) > 0 {
		return "", false
	}
	if !strings.HasPrefix(t.Func.Name, "$") {
		return "", false
	}
	return t.Func.Name, true
}

func convertTerm(t *gojq.Term) (Exp, error) {
	var (
		head  Exp
		parts []pathPart
		err   error
	)
	switch t.Type {
	case gojq.TermTypeIdentity:
	case gojq.TermTypeNull:
		head = &literalExp{v: Null()}
	case gojq.TermTypeTrue:
		head = &literalExp{v: Bool(true)}
	case gojq.TermTypeFalse:
		head = &literalExp{v: Bool(false)}
	case gojq.TermTypeIndex:
		part, err := convertIndex(t.Index)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	case gojq.TermTypeFunc:
		head, err = convertFunc(t.Func)
	case gojq.TermTypeObject:
		head, err = convertObject(t.Object)
	case gojq.TermTypeArray:
		var body Exp
		if t.Array.Query != nil {
			body, err = convertQuery(t.Array.Query)
		}
		head = &arrayExp{body: body}
	case gojq.TermTypeNumber:
		var v Value
		v, err = parseNumber(t.Number)
		head = &literalExp{v: v}
	case gojq.TermTypeUnary:
		var inner Exp
		inner, err = convertTerm(t.Unary.Term)
		if t.Unary.Op == gojq.OpSub {
			head = &negExp{term: inner}
		} else {
			head = inner
		}
	case gojq.TermTypeString:
		head, err = convertString(t.Str)
	case gojq.TermTypeIf:
		head, err = convertIf(t.If)
	case gojq.TermTypeTry:
		head, err = convertTry(t.Try)
	case gojq.TermTypeQuery:
		head, err = convertQuery(t.Query)
	case gojq.TermTypeRecurse:
		return nil, unsupported("recursive descent")
	case gojq.TermTypeFormat:
		return nil, unsupported("format string")
	case gojq.TermTypeReduce:
		return nil, unsupported("reduce")
	case gojq.TermTypeForeach:
		return nil, unsupported("foreach")
	case gojq.TermTypeLabel, gojq.TermTypeBreak:
		return nil, unsupported("label")
	default:
		return nil, unsupported("term")
	}
	if err != nil {
		return nil, err
	}

	// flush turns the pending path parts into a single node.
	flush := func() Exp {
		if len(parts) == 0 {
			if head == nil {
				return identityExp{}
			}
			return head
		}
		e := &pathExp{head: head, parts: parts}
		head, parts = e, nil
		return e
	}

	for i, suf := range t.SuffixList {
		switch {
		case suf.Index != nil:
			part, err := convertIndex(suf.Index)
			if err != nil {
				return nil, err
			}
			parts = append(parts, part)
		case suf.Iter:
			parts = append(parts, pathPart{iter: true})
		case suf.Optional:
			if len(parts) > 0 {
				parts[len(parts)-1].optional = true
			} else {
				head = &tryExp{body: flush()}
			}
		case suf.Bind != nil:
			if i != len(t.SuffixList)-1 {
				return nil, unsupported("suffix after binding")
			}
			if len(suf.Bind.Patterns) != 1 || suf.Bind.Patterns[0].Name == "" {
				return nil, unsupported("destructuring pattern")
			}
			body, err := convertQuery(suf.Bind.Body)
			if err != nil {
				return nil, err
			}
			return &bindExp{source: flush(), name: suf.Bind.Patterns[0].Name, body: body}, nil
		}
	}
	return flush(), nil
}

func convertIndex(idx *gojq.Index) (pathPart, error) {
	switch {
	case idx.Name != "":
		return pathPart{key: idx.Name}, nil
	case idx.Str != nil:
		if len(idx.Str.Queries) == 0 {
			return pathPart{key: idx.Str.Str}, nil
		}
		e, err := convertString(idx.Str)
		return pathPart{index: e}, err
	case idx.IsSlice:
		var p pathPart
		p.slice = true
		if idx.Start != nil {
			e, err := convertQuery(idx.Start)
			if err != nil {
				return p, err
			}
			p.start = e
		}
		if idx.End != nil {
			e, err := convertQuery(idx.End)
			if err != nil {
				return p, err
			}
			p.end = e
		}
		return p, nil
	}
	e, err := convertQuery(idx.Start)
	return pathPart{index: e}, err
}

func convertArgs(qs []*gojq.Query) ([]Exp, error) {
	args := make([]Exp, len(qs))
	for i, q := range qs {
		e, err := convertQuery(q)
		if err != nil {
			return nil, err
		}
		args[i] = e
	}
	return args, nil
}

// builtinArity lists the closed builtins that are evaluated natively.
var builtinArity = map[string]int{
	"length":    0,
	"keys":      0,
	"abs":       0,
	"not":       0,
	"add":       0,
	"reverse":   0,
	"sort":      0,
	"unique":    0,
	"max":       0,
	"min":       0,
	"sort_by":   1,
	"unique_by": 1,
	"max_by":    1,
	"min_by":    1,
}

func convertFunc(f *gojq.Func) (Exp, error) {
	args, err := convertArgs(f.Args)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(f.Name, "$") {
		return &varExp{name: f.Name}, nil
	}
	switch {
	case f.Name == "empty" && len(args) == 0:
		return emptyExp{}, nil
	case f.Name == "error" && len(args) <= 1:
		e := &errorExp{}
		if len(args) == 1 {
			e.msg = args[0]
		}
		return e, nil
	case f.Name == "select" && len(args) == 1:
		return &selectExp{cond: args[0]}, nil
	case f.Name == "map" && len(args) == 1:
		return &iterExp{kind: iterMap, body: args[0]}, nil
	case (f.Name == "any" || f.Name == "all") && len(args) <= 1:
		e := &iterExp{kind: iterAny, body: identityExp{}}
		if f.Name == "all" {
			e.kind = iterAll
		}
		if len(args) == 1 {
			e.body = args[0]
		}
		return e, nil
	case f.Name == "nan" && len(args) == 0:
		return &literalExp{v: F64(math.NaN())}, nil
	case f.Name == "infinite" && len(args) == 0:
		return &literalExp{v: F64(math.Inf(1))}, nil
	}
	if n, ok := builtinArity[f.Name]; ok && n == len(args) {
		return &builtinExp{name: f.Name, args: args}, nil
	}
	return &callExp{name: f.Name, args: args}, nil
}

func convertString(s *gojq.String) (Exp, error) {
	if len(s.Queries) == 0 {
		return &literalExp{v: String(s.Str)}, nil
	}
	parts := make([]Exp, 0, len(s.Queries))
	for _, q := range s.Queries {
		if q.Term != nil && q.Term.Type == gojq.TermTypeString && q.Term.Str != nil && len(q.Term.Str.Queries) == 0 {
			parts = append(parts, &literalExp{v: String(q.Term.Str.Str)})
			continue
		}
		e, err := convertQuery(q)
		if err != nil {
			return nil, err
		}
		parts = append(parts, e)
	}
	return &strExp{parts: parts}, nil
}

func convertObject(o *gojq.Object) (Exp, error) {
	entries := make([]objectEntry, 0, len(o.KeyVals))
	for _, kv := range o.KeyVals {
		var (
			entry objectEntry
			err   error
		)
		switch {
		case kv.KeyQuery != nil:
			entry.key, err = convertQuery(kv.KeyQuery)
		case kv.KeyString != nil:
			entry.key, err = convertString(kv.KeyString)
			if err == nil && kv.Val == nil {
				entry.val = &pathExp{parts: []pathPart{{index: entry.key}}}
			}
		case strings.HasPrefix(kv.Key, "$"):
			if kv.Val == nil {
				entry.key = &literalExp{v: String(kv.Key[1:])}
				entry.val = &varExp{name: kv.Key}
			} else {
				entry.key = &varExp{name: kv.Key}
			}
		default:
			entry.key = &literalExp{v: String(kv.Key)}
			if kv.Val == nil {
				entry.val = &pathExp{parts: []pathPart{{key: kv.Key}}}
			}
		}
		if err != nil {
			return nil, err
		}
		if kv.Val != nil {
			entry.val, err = convertQuery(kv.Val)
			if err != nil {
				return nil, err
			}
		}
		if entry.val == nil {
			return nil, unsupported("object key without value")
		}
		entries = append(entries, entry)
	}
	return &objectExp{entries: entries}, nil
}

func convertIf(i *gojq.If) (Exp, error) {
	e := &ifExp{}
	add := func(cq, tq *gojq.Query) error {
		cond, err := convertQuery(cq)
		if err != nil {
			return err
		}
		then, err := convertQuery(tq)
		if err != nil {
			return err
		}
		e.branches = append(e.branches, ifBranch{cond: cond, then: then})
		return nil
	}
	if err := add(i.Cond, i.Then); err != nil {
		return nil, err
	}
	for _, elif := range i.Elif {
		if err := add(elif.Cond, elif.Then); err != nil {
			return nil, err
		}
	}
	if i.Else != nil {
		els, err := convertQuery(i.Else)
		if err != nil {
			return nil, err
		}
		e.els = els
	}
	return e, nil
}

func convertTry(t *gojq.Try) (Exp, error) {
	body, err := convertQuery(t.Body)
	if err != nil {
		return nil, err
	}
	e := &tryExp{body: body}
	if t.Catch != nil {
		e.catch, err = convertQuery(t.Catch)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}
