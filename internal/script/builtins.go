package script

import (
	"math"
	"sort"
	"unicode/utf8"
)

func (e *builtinExp) eval(s *Scope, env Env, input Value) ([]Value, error) {
	switch e.name {
	case "length":
		return one(length(input))
	case "keys":
		return one(keys(input))
	case "abs":
		return one(abs(input))
	case "not":
		return []Value{Bool(!input.Truthy())}, nil
	case "add":
		return one(addAll(input))
	case "reverse":
		return one(reverse(input))
	case "sort", "unique", "max", "min":
		items, err := arrayInput(e.name, input)
		if err != nil {
			return nil, err
		}
		return []Value{pick(e.name, items, items)}, nil
	case "sort_by", "unique_by", "max_by", "min_by":
		items, err := arrayInput(e.name, input)
		if err != nil {
			return nil, err
		}
		ks := make([]Value, len(items))
		for i, item := range items {
			vals, err := evalExp(e.args[0], s, env, item)
			if err != nil {
				return nil, err
			}
			ks[i] = last(vals)
		}
		return []Value{pick(e.name, items, ks)}, nil
	}
	return nil, newError(UndefinedFilter, "%s/%d", e.name, len(e.args))
}

func one(v Value, err error) ([]Value, error) {
	if err != nil {
		return nil, err
	}
	return []Value{v}, nil
}

func length(v Value) (Value, error) {
	switch v.kind {
	case KindNull:
		return U64(0), nil
	case KindU64, KindI64, KindF64:
		return abs(v)
	case KindString:
		return Int(utf8.RuneCountInString(v.s)), nil
	case KindArray:
		return Int(len(v.arr)), nil
	case KindObject:
		return Int(len(v.obj)), nil
	}
	return Null(), newError(InvalidCalculation, "%s has no length", v.kind)
}

func keys(v Value) (Value, error) {
	switch v.kind {
	case KindObject:
		ks := v.SortedKeys()
		out := make([]Value, len(ks))
		for i, k := range ks {
			out[i] = String(k)
		}
		return Array(out), nil
	case KindArray:
		out := make([]Value, len(v.arr))
		for i := range v.arr {
			out[i] = Int(i)
		}
		return Array(out), nil
	}
	return Null(), newError(InvalidCalculation, "%s has no keys", v.kind)
}

func abs(v Value) (Value, error) {
	switch v.kind {
	case KindU64:
		return v, nil
	case KindI64:
		if v.i >= 0 {
			return U64(uint64(v.i)), nil
		}
		if v.i == math.MinInt64 {
			return U64(uint64(math.MaxInt64) + 1), nil
		}
		return U64(uint64(-v.i)), nil
	case KindF64:
		return F64(math.Abs(v.f)), nil
	}
	return Null(), newError(InvalidCalculation, "%s has no absolute value", v.kind)
}

func addAll(v Value) (Value, error) {
	items, err := v.Iter()
	if err != nil {
		return Null(), err
	}
	acc := Null()
	for _, item := range items {
		if acc, err = Add(acc, item); err != nil {
			return Null(), err
		}
	}
	return acc, nil
}

func reverse(v Value) (Value, error) {
	switch v.kind {
	case KindNull:
		return Array(nil), nil
	case KindString:
		r := []rune(v.s)
		for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
			r[i], r[j] = r[j], r[i]
		}
		return String(string(r)), nil
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, item := range v.arr {
			out[len(out)-1-i] = item
		}
		return Array(out), nil
	}
	return Null(), newError(InvalidCalculation, "%s cannot be reversed", v.kind)
}

func arrayInput(name string, v Value) ([]Value, error) {
	if v.kind != KindArray {
		return nil, newError(InvalidIteration, "%s input must be an array, got %s", name, v.kind)
	}
	return v.arr, nil
}

// pick implements sort/unique/max/min and their _by forms. ks[i] is the sort
// key of items[i]; ties keep input order.
func pick(name string, items, ks []Value) Value {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return Compare(ks[idx[a]], ks[idx[b]]) < 0
	})
	switch name {
	case "max", "max_by":
		if len(idx) == 0 {
			return Null()
		}
		return items[idx[len(idx)-1]]
	case "min", "min_by":
		if len(idx) == 0 {
			return Null()
		}
		return items[idx[0]]
	case "unique", "unique_by":
		out := make([]Value, 0, len(idx))
		for n, i := range idx {
			if n > 0 && Equal(ks[idx[n-1]], ks[i]) {
				continue
			}
			out = append(out, items[i])
		}
		return Array(out)
	}
	out := make([]Value, len(idx))
	for n, i := range idx {
		out[n] = items[i]
	}
	return Array(out)
}
