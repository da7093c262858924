package script

import (
	"encoding/json"
	"strings"
)

// Eval runs e against input with s as the variable scope.
func (s *Scope) Eval(e Exp, env Env, input Value) ([]Value, error) {
	if env == nil {
		env = NopEnv{}
	}
	return evalExp(e, s, env, input)
}

// Run parses and evaluates src in a fresh scope.
func Run(src string, env Env, input Value) ([]Value, error) {
	e, err := Parse(src)
	if err != nil {
		return nil, err
	}
	return NewScope().Eval(e, env, input)
}

// evalExp charges one unit of budget per visited node.
func evalExp(e Exp, s *Scope, env Env, input Value) ([]Value, error) {
	if err := s.consume(1); err != nil {
		return nil, err
	}
	return e.eval(s, env, input)
}

func (identityExp) eval(_ *Scope, _ Env, input Value) ([]Value, error) {
	return []Value{input}, nil
}

func (e *literalExp) eval(*Scope, Env, Value) ([]Value, error) {
	return []Value{e.v}, nil
}

func (e *varExp) eval(s *Scope, env Env, _ Value) ([]Value, error) {
	if v, ok := s.Var(e.name); ok {
		return []Value{v}, nil
	}
	if v, ok := env.Var(e.name); ok {
		return []Value{v}, nil
	}
	return nil, newError(UndefinedVariable, "%s", e.name)
}

func (e *pathExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	cur := []Value{input}
	if e.head != nil {
		var err error
		cur, err = evalExp(e.head, s, env, input)
		if err != nil {
			return nil, err
		}
	}
	for _, part := range e.parts {
		var next []Value
		for _, v := range cur {
			out, err := part.apply(s, env, input, v)
			if err != nil {
				if part.optional {
					continue
				}
				return nil, err
			}
			next = append(next, out...)
		}
		cur = next
	}
	return cur, nil
}

// apply indexes target. Index expressions are evaluated against the input of
// the whole path, as in ".[.n]".
func (p *pathPart) apply(s *Scope, env Env, input, target Value) ([]Value, error) {
	switch {
	case p.iter:
		return target.Iter()
	case p.slice:
		starts, err := optionalInts(p.start, s, env, input)
		if err != nil {
			return nil, err
		}
		ends, err := optionalInts(p.end, s, env, input)
		if err != nil {
			return nil, err
		}
		var out []Value
		for _, lo := range starts {
			for _, hi := range ends {
				v, err := target.IndexRange(lo, hi)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
		}
		return out, nil
	case p.index != nil:
		keys, err := evalExp(p.index, s, env, input)
		if err != nil {
			return nil, err
		}
		out := make([]Value, 0, len(keys))
		for _, k := range keys {
			v, err := indexValue(env, target, k)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}
	v, err := indexKey(env, target, p.key)
	if err != nil {
		return nil, err
	}
	return []Value{v}, nil
}

func optionalInts(e Exp, s *Scope, env Env, input Value) ([]*int64, error) {
	if e == nil {
		return []*int64{nil}, nil
	}
	vals, err := evalExp(e, s, env, input)
	if err != nil {
		return nil, err
	}
	out := make([]*int64, 0, len(vals))
	for _, v := range vals {
		if v.IsNull() {
			out = append(out, nil)
			continue
		}
		n, ok := v.AsInt()
		if !ok {
			return nil, newError(InvalidKey, "slice bound must be a number, got %s", v.Kind())
		}
		out = append(out, &n)
	}
	return out, nil
}

func indexValue(env Env, target, key Value) (Value, error) {
	switch key.Kind() {
	case KindString:
		return indexKey(env, target, key.s)
	case KindU64, KindI64, KindF64:
		n, ok := key.AsInt()
		if !ok {
			return Null(), nil
		}
		return target.IndexNum(n)
	case KindObject:
		// {start, end} slice form
		var lo, hi *int64
		if n, ok := key.Field("start").AsInt(); ok {
			lo = &n
		}
		if n, ok := key.Field("end").AsInt(); ok {
			hi = &n
		}
		return target.IndexRange(lo, hi)
	}
	return Null(), newError(InvalidKey, "cannot index %s with %s", target.Kind(), key.Kind())
}

func indexKey(env Env, target Value, key string) (Value, error) {
	switch target.Kind() {
	case KindNull:
		return Null(), nil
	case KindObject:
		return target.obj[key], nil
	case KindCard, KindPlayer:
		return env.Field(target, key)
	}
	return Null(), newError(InvalidKey, "cannot index %s with %q", target.Kind(), key)
}

func (e *arrayExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	if e.body == nil {
		return []Value{Array(nil)}, nil
	}
	vals, err := evalExp(e.body, s, env, input)
	if err != nil {
		return nil, err
	}
	return []Value{Array(vals)}, nil
}

// eval builds a single object. Each key output gets the last value of its
// value expression; a value expression with no output drops the key.
func (e *objectExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	obj := make(map[string]Value, len(e.entries))
	for _, entry := range e.entries {
		keys, err := evalExp(entry.key, s, env, input)
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			name, ok := k.AsString()
			if !ok {
				name = k.String()
			}
			vals, err := evalExp(entry.val, s, env, input)
			if err != nil {
				return nil, err
			}
			if len(vals) > 0 {
				obj[name] = vals[len(vals)-1]
			}
		}
	}
	return []Value{Object(obj)}, nil
}

func (e *assignExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	vals, err := evalExp(e.rhs, s, env, input)
	if err != nil {
		return nil, err
	}
	if len(vals) > 0 {
		s.SetVar(e.name, vals[len(vals)-1])
	}
	return vals, nil
}

func (e *pipeExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	left, err := evalExp(e.left, s, env, input)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, v := range left {
		right, err := evalExp(e.right, s, env, v)
		if err != nil {
			return nil, err
		}
		out = append(out, right...)
	}
	return out, nil
}

// eval binds the last value of source, so the body runs at most once.
func (e *bindExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	vals, err := evalExp(e.source, s, env, input)
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	s.frames = append(s.frames, frame{e.name: {value: vals[len(vals)-1]}})
	defer func() { s.frames = s.frames[:len(s.frames)-1] }()
	return evalExp(e.body, s, env, input)
}

func (e *commaExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	left, err := evalExp(e.left, s, env, input)
	if err != nil {
		return nil, err
	}
	right, err := evalExp(e.right, s, env, input)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

// eval runs body eagerly; any failure discards its partial output and routes
// to catch, budget errors included. The catch runs on what budget is left.
func (e *tryExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	vals, err := evalExp(e.body, s, env, input)
	if err == nil {
		return vals, nil
	}
	if e.catch == nil {
		return nil, nil
	}
	msg := String(err.Error())
	if se, ok := err.(*Error); ok && se.Kind == Custom {
		msg = String(se.Msg)
	}
	return evalExp(e.catch, s, env, msg)
}

func (e *ifExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	for _, br := range e.branches {
		conds, err := evalExp(br.cond, s, env, input)
		if err != nil {
			return nil, err
		}
		for _, c := range conds {
			if c.Truthy() {
				return evalExp(br.then, s, env, input)
			}
		}
	}
	if e.els == nil {
		return []Value{input}, nil
	}
	return evalExp(e.els, s, env, input)
}

func (e *binExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	left, err := evalExp(e.left, s, env, input)
	if err != nil {
		return nil, err
	}
	right, err := evalExp(e.right, s, env, input)
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(left)*len(right))
	for _, r := range right {
		for _, l := range left {
			v, err := applyBinOp(s, e.op, l, r)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func applyBinOp(s *Scope, op BinOp, l, r Value) (Value, error) {
	switch op {
	case OpAdd:
		return Add(l, r)
	case OpSub:
		return Sub(l, r)
	case OpMul:
		if l.kind == KindString && r.kind == KindU64 {
			if r.u > uint64(s.budget) {
				return Null(), ErrExecutionLimitExceeded
			}
			if err := s.consume(int(r.u)); err != nil {
				return Null(), err
			}
		}
		return Mul(l, r)
	case OpDiv:
		return Div(l, r)
	case OpRem:
		return Rem(l, r)
	case OpEq:
		return Bool(Compare(l, r) == 0), nil
	case OpNe:
		return Bool(Compare(l, r) != 0), nil
	case OpLt:
		return Bool(Compare(l, r) < 0), nil
	case OpLe:
		return Bool(Compare(l, r) <= 0), nil
	case OpGt:
		return Bool(Compare(l, r) > 0), nil
	case OpGe:
		return Bool(Compare(l, r) >= 0), nil
	}
	return Null(), newError(InvalidCalculation, "unknown operator %s", op)
}

func (e *andExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	return shortCircuit(s, env, input, e.left, e.right, false)
}

func (e *orExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	return shortCircuit(s, env, input, e.left, e.right, true)
}

// shortCircuit implements "and" (stop=false) and "or" (stop=true): a left
// value whose truthiness equals stop decides the result without evaluating
// the right side.
func shortCircuit(s *Scope, env Env, input Value, left, right Exp, stop bool) ([]Value, error) {
	lvals, err := evalExp(left, s, env, input)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, l := range lvals {
		if l.Truthy() == stop {
			out = append(out, Bool(stop))
			continue
		}
		rvals, err := evalExp(right, s, env, input)
		if err != nil {
			return nil, err
		}
		for _, r := range rvals {
			out = append(out, Bool(r.Truthy()))
		}
	}
	return out, nil
}

// eval yields the truthy outputs of left, or the outputs of right if there
// are none. Errors on the left, budget errors included, count as no output.
func (e *altExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	left, _ := evalExp(e.left, s, env, input)
	var out []Value
	for _, v := range left {
		if v.Truthy() {
			out = append(out, v)
		}
	}
	if len(out) > 0 {
		return out, nil
	}
	return evalExp(e.right, s, env, input)
}

func (e *negExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	vals, err := evalExp(e.term, s, env, input)
	if err != nil {
		return nil, err
	}
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		n, err := Neg(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// eval concatenates every output of every part into one string.
func (e *strExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	var sb strings.Builder
	for _, part := range e.parts {
		vals, err := evalExp(part, s, env, input)
		if err != nil {
			return nil, err
		}
		for _, v := range vals {
			sb.WriteString(stringify(v))
		}
	}
	return []Value{String(sb.String())}, nil
}

func stringify(v Value) string {
	if str, ok := v.AsString(); ok {
		return str
	}
	b, err := json.Marshal(v)
	if err != nil {
		return v.Kind().String()
	}
	return string(b)
}

func (e *selectExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	conds, err := evalExp(e.cond, s, env, input)
	if err != nil {
		return nil, err
	}
	var out []Value
	for _, c := range conds {
		if c.Truthy() {
			out = append(out, input)
		}
	}
	return out, nil
}

func (e *iterExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	items, err := input.Iter()
	if err != nil {
		return nil, err
	}
	var results []Value
	for _, item := range items {
		vals, err := evalExp(e.body, s, env, item)
		if err != nil {
			return nil, err
		}
		results = append(results, vals...)
	}
	switch e.kind {
	case iterAny:
		for _, v := range results {
			if v.Truthy() {
				return []Value{Bool(true)}, nil
			}
		}
		return []Value{Bool(false)}, nil
	case iterAll:
		for _, v := range results {
			if !v.Truthy() {
				return []Value{Bool(false)}, nil
			}
		}
		return []Value{Bool(true)}, nil
	}
	return []Value{Array(results)}, nil
}

func (e *callExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	if fn := s.lookupFunc(e.name, len(e.args)); fn != nil {
		return s.invoke(fn, e.args, env, input)
	}
	var args []Value
	for _, a := range e.args {
		vals, err := evalExp(a, s, env, input)
		if err != nil {
			return nil, err
		}
		args = append(args, vals...)
	}
	return env.Invoke(e.name, args, input)
}

func (e *errorExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	msg := input
	if e.msg != nil {
		vals, err := evalExp(e.msg, s, env, input)
		if err != nil {
			return nil, err
		}
		msg = last(vals)
	}
	return nil, &Error{Kind: Custom, Msg: stringify(msg)}
}

func (emptyExp) eval(*Scope, Env, Value) ([]Value, error) {
	return nil, nil
}

func (e *defsExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	s.frames = append(s.frames, frame{})
	visible := s.snapshot()
	for _, d := range e.defs {
		s.define(d, visible)
	}
	defer func() { s.frames = s.frames[:len(s.frames)-1] }()
	return evalExp(e.body, s, env, input)
}
