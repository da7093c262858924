package script

import (
	"github.com/itchyny/gojq"
)

// Module is a compiled set of top-level definitions. It is immutable after
// Compile and can be shared by any number of card instances.
type Module struct {
	root *Scope
}

// Compile parses src, which may only contain "def" statements.
func Compile(src string) (*Module, error) {
	q, err := gojq.Parse(src)
	if err != nil {
		return nil, syntaxError(err)
	}
	if q.Term != nil || q.Left != nil {
		return nil, newError(InvalidSyntax, "module must contain only definitions")
	}
	if len(q.Imports) > 0 || q.Meta != nil {
		return nil, unsupported("module import")
	}
	defs, err := convertDefs(q.FuncDefs)
	if err != nil {
		return nil, err
	}
	root := NewScope()
	for _, d := range defs {
		root.define(d, nil)
	}
	return &Module{root: root}, nil
}

// HasDef reports whether the module defines name with the given arity.
func (m *Module) HasDef(name string, arity int) bool {
	if m == nil {
		return false
	}
	_, ok := m.root.frames[0][defKey(name, arity)]
	return ok
}

// Call invokes the definition name with args on a null input, using a fresh
// scope with a full execution budget.
func (m *Module) Call(env Env, name string, args ...Value) ([]Value, error) {
	if env == nil {
		env = NopEnv{}
	}
	fn := m.root.lookupFunc(name, len(args))
	if fn == nil {
		return nil, newError(UndefinedFilter, "%s/%d", name, len(args))
	}
	return m.root.Child().invokeValues(fn, args, env, Null())
}

// CallLast is Call returning only the last output, or null.
func (m *Module) CallLast(env Env, name string, args ...Value) (Value, error) {
	vals, err := m.Call(env, name, args...)
	if err != nil {
		return Null(), err
	}
	return last(vals), nil
}
