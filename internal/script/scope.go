package script

import "strconv"

// ExecutionLimit is the number of nodes a single activation may visit.
const ExecutionLimit = 256

// Env is the host surface visible to scripts.
type Env interface {
	// Var resolves a host-provided variable such as "$source".
	Var(name string) (Value, bool)
	// Field indexes a card or player reference by key.
	Field(target Value, key string) (Value, error)
	// Invoke runs a host function. It must return an *Error of kind
	// UndefinedFilter for names it does not know.
	Invoke(name string, args []Value, input Value) ([]Value, error)
}

// NopEnv is an Env with no variables, fields or functions.
type NopEnv struct{}

func (NopEnv) Var(string) (Value, bool) { return Null(), false }

func (NopEnv) Field(target Value, key string) (Value, error) {
	return Null(), newError(InvalidKey, "cannot index %s with %q", target.Kind(), key)
}

func (NopEnv) Invoke(name string, args []Value, _ Value) ([]Value, error) {
	return nil, newError(UndefinedFilter, "%s/%d", name, len(args))
}

// Function is a callable bound in a scope frame: either a def or a closure
// over an argument expression.
type Function struct {
	params []string
	body   Exp
	// frames visible to body when invoked. nil means only the parent chain.
	frames []frame
}

type binding struct {
	value Value
	fn    *Function
}

type frame map[string]binding

// Scope holds variable frames, an optional parent and the remaining
// execution budget. A Scope is not safe for concurrent use.
type Scope struct {
	parent *Scope
	frames []frame
	budget int
}

// NewScope returns an empty scope with a full budget.
func NewScope() *Scope {
	return &Scope{frames: []frame{{}}, budget: ExecutionLimit}
}

// Child returns a fresh scope with a full budget that resolves unknown names
// through s.
func (s *Scope) Child() *Scope {
	c := NewScope()
	c.parent = s
	return c
}

// Remaining reports the unspent budget.
func (s *Scope) Remaining() int { return s.budget }

// ResetBudget restores the full execution limit.
func (s *Scope) ResetBudget() { s.budget = ExecutionLimit }

func (s *Scope) consume(n int) error {
	if n > s.budget {
		return ErrExecutionLimitExceeded
	}
	s.budget -= n
	return nil
}

// SetVar binds name (including the leading '$') in the innermost frame.
func (s *Scope) SetVar(name string, v Value) {
	s.frames[len(s.frames)-1][name] = binding{value: v}
}

// Var looks a variable up through the frames and then the parent chain.
func (s *Scope) Var(name string) (Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		for i := len(sc.frames) - 1; i >= 0; i-- {
			if b, ok := sc.frames[i][name]; ok && b.fn == nil {
				return b.value, true
			}
		}
	}
	return Null(), false
}

func (s *Scope) lookupFunc(name string, arity int) *Function {
	key := defKey(name, arity)
	for sc := s; sc != nil; sc = sc.parent {
		for i := len(sc.frames) - 1; i >= 0; i-- {
			if b, ok := sc.frames[i][key]; ok && b.fn != nil {
				return b.fn
			}
		}
	}
	return nil
}

func (s *Scope) define(d *funcDef, visible []frame) {
	s.frames[len(s.frames)-1][d.key()] = binding{fn: &Function{params: d.params, body: d.body, frames: visible}}
}

// snapshot returns the current frames with capacity capped so later appends
// never alias.
func (s *Scope) snapshot() []frame {
	return s.frames[:len(s.frames):len(s.frames)]
}

// invoke calls fn with argument expressions evaluated against the caller's
// frames. "$name" params bind the last value of their argument; other params
// bind a closure over the argument expression.
func (s *Scope) invoke(fn *Function, args []Exp, env Env, input Value) ([]Value, error) {
	if len(args) != len(fn.params) {
		return nil, newError(InvalidArgumentCount, "expected %d arguments, got %d", len(fn.params), len(args))
	}
	f := make(frame, len(fn.params))
	caller := s.snapshot()
	for i, p := range fn.params {
		if isVarName(p) {
			vals, err := evalExp(args[i], s, env, input)
			if err != nil {
				return nil, err
			}
			f[p] = binding{value: last(vals)}
			continue
		}
		f[p] = binding{fn: &Function{body: args[i], frames: caller}}
	}
	return s.enter(fn, f, env, input)
}

// invokeValues calls fn with already-evaluated arguments.
func (s *Scope) invokeValues(fn *Function, args []Value, env Env, input Value) ([]Value, error) {
	if len(args) != len(fn.params) {
		return nil, newError(InvalidArgumentCount, "expected %d arguments, got %d", len(fn.params), len(args))
	}
	f := make(frame, len(fn.params))
	for i, p := range fn.params {
		if isVarName(p) {
			f[p] = binding{value: args[i]}
			continue
		}
		f[p] = binding{fn: &Function{body: &literalExp{v: args[i]}}}
	}
	return s.enter(fn, f, env, input)
}

func (s *Scope) enter(fn *Function, f frame, env Env, input Value) ([]Value, error) {
	saved := s.frames
	s.frames = append(fn.frames[:len(fn.frames):len(fn.frames)], f)
	defer func() { s.frames = saved }()
	return evalExp(fn.body, s, env, input)
}

func isVarName(p string) bool { return len(p) > 0 && p[0] == '$' }

func defKey(name string, arity int) string {
	if arity == 0 {
		return name
	}
	return name + "/" + strconv.Itoa(arity)
}

func last(vs []Value) Value {
	if len(vs) == 0 {
		return Null()
	}
	return vs[len(vs)-1]
}
