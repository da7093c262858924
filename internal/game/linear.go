package game

import (
	"encoding/json"
	"fmt"
	"math"
)

type unsigned interface {
	~uint8 | ~uint16 | ~uint32
}

// Linear is a numeric attribute with a pending linear transform:
// (assign or base) * mul + add, clamped to T's range.
type Linear[T unsigned] struct {
	base     T
	modified bool
	mul      float64
	add      float64
	assign   *T
}

func NewLinear[T unsigned](v T) Linear[T] {
	return Linear[T]{base: v}
}

func (l Linear[T]) Value() T {
	if !l.modified {
		return l.base
	}
	v := l.base
	if l.assign != nil {
		v = *l.assign
	}
	return clampTo[T](float64(v)*l.mul + l.add)
}

// Base returns the unmodified value.
func (l Linear[T]) Base() T { return l.base }

// Diff is negative, zero or positive as Value is below, at or above Base.
func (l Linear[T]) Diff() int {
	switch v := l.Value(); {
	case v < l.base:
		return -1
	case v > l.base:
		return 1
	}
	return 0
}

func (l *Linear[T]) touch() {
	if !l.modified {
		l.modified, l.mul, l.add = true, 1, 0
	}
}

func (l *Linear[T]) Add(n float64) {
	l.touch()
	l.add += n
}

func (l *Linear[T]) Mul(n float64) {
	l.touch()
	l.mul *= n
}

func (l *Linear[T]) Assign(v T) {
	l.touch()
	l.assign = &v
}

// Modify applies m. "=" replaces the whole transform with a plain value.
func (l *Linear[T]) Modify(m Modifier) {
	switch m.Op {
	case OpAssign:
		*l = NewLinear(clampTo[T](m.Amount))
	case OpAdd:
		l.Add(m.Amount)
	case OpSub:
		l.Add(-m.Amount)
	case OpMul:
		l.Mul(m.Amount)
	case OpDiv:
		if m.Amount != 0 {
			l.Mul(1 / m.Amount)
		}
	}
}

func clampTo[T unsigned](f float64) T {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= float64(^T(0)):
		return ^T(0)
	}
	return T(f)
}

func (l Linear[T]) String() string {
	return fmt.Sprint(l.Value())
}

// MarshalJSON encodes the current value.
func (l Linear[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Value())
}

func (l *Linear[T]) UnmarshalJSON(b []byte) error {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*l = NewLinear(v)
	return nil
}
