package game

import (
	"encoding/json"
	"fmt"
	"sort"
)

type ModifierOp string

const (
	OpAssign ModifierOp = "="
	OpAdd    ModifierOp = "+"
	OpSub    ModifierOp = "-"
	OpMul    ModifierOp = "*"
	OpDiv    ModifierOp = "/"
)

func (op ModifierOp) valid() bool {
	switch op {
	case OpAssign, OpAdd, OpSub, OpMul, OpDiv:
		return true
	}
	return false
}

// Modifier adjusts a numeric attribute. It is written as [op, n].
type Modifier struct {
	Op     ModifierOp
	Amount float64
}

func (m Modifier) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.Op, m.Amount})
}

func (m *Modifier) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("modifier must be [op, value]: %w", err)
	}
	op, err := decodeOp(pair[0])
	if err != nil {
		return err
	}
	m.Op = op
	return json.Unmarshal(pair[1], &m.Amount)
}

func decodeOp(raw json.RawMessage) (ModifierOp, error) {
	var op ModifierOp
	if err := json.Unmarshal(raw, &op); err != nil {
		return "", err
	}
	if !op.valid() {
		return "", fmt.Errorf("invalid operator %q", op)
	}
	return op, nil
}

// AbilityModifier adds or removes one ability. Other operators are ignored.
type AbilityModifier[T any] struct {
	Op      ModifierOp
	Ability T
}

func (m *AbilityModifier[T]) UnmarshalJSON(b []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("ability modifier must be [op, ability]: %w", err)
	}
	op, err := decodeOp(pair[0])
	if err != nil {
		return err
	}
	m.Op = op
	return json.Unmarshal(pair[1], &m.Ability)
}

// ability is implemented by the element types of AbilityList.
type ability[T any] interface {
	comparable
	kind() string
	// merge folds other (of the same kind) into the receiver. ok is false
	// when the merged ability cancels out.
	merge(other T) (merged T, ok bool)
}

func (k KeywordAbility) kind() string { return string(k) }

func (k KeywordAbility) merge(KeywordAbility) (KeywordAbility, bool) { return k, true }

func (a AnonymousAbility) kind() string { return string(a) }

func (a AnonymousAbility) merge(AnonymousAbility) (AnonymousAbility, bool) { return a, true }

// AbilityList is a sorted set of abilities keyed by kind. A kind removed
// during a recompute stays removed for the rest of it.
type AbilityList[T ability[T]] struct {
	items   []T
	removed map[string]bool
}

func NewAbilityList[T ability[T]](items ...T) AbilityList[T] {
	var l AbilityList[T]
	for _, it := range items {
		l.insert(it)
	}
	return l
}

func (l *AbilityList[T]) insert(a T) {
	for i, cur := range l.items {
		if cur.kind() != a.kind() {
			continue
		}
		merged, ok := cur.merge(a)
		if ok {
			l.items[i] = merged
		} else {
			l.items = append(l.items[:i], l.items[i+1:]...)
		}
		return
	}
	l.items = append(l.items, a)
	sort.Slice(l.items, func(i, j int) bool { return l.items[i].kind() < l.items[j].kind() })
}

func (l *AbilityList[T]) Add(a T) {
	if l.removed[a.kind()] {
		return
	}
	l.insert(a)
}

func (l *AbilityList[T]) Remove(a T) {
	k := a.kind()
	out := l.items[:0]
	for _, cur := range l.items {
		if cur.kind() != k {
			out = append(out, cur)
		}
	}
	l.items = out
	if l.removed == nil {
		l.removed = make(map[string]bool)
	}
	l.removed[k] = true
}

func (l *AbilityList[T]) Modify(m AbilityModifier[T]) {
	switch m.Op {
	case OpAdd:
		l.Add(m.Ability)
	case OpSub:
		l.Remove(m.Ability)
	}
}

func (l AbilityList[T]) Contains(a T) bool {
	for _, cur := range l.items {
		if cur == a {
			return true
		}
	}
	return false
}

func (l AbilityList[T]) Len() int { return len(l.items) }

// Items returns a copy of the abilities in kind order.
func (l AbilityList[T]) Items() []T {
	return append([]T(nil), l.items...)
}

func (l AbilityList[T]) clone() AbilityList[T] {
	return AbilityList[T]{items: l.Items()}
}

func (l AbilityList[T]) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func (l *AbilityList[T]) UnmarshalJSON(b []byte) error {
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*l = NewAbilityList(items...)
	return nil
}

// --- Player abilities ---

// PlayerAbility is a player-wide ability. Propagate stacks by amount.
type PlayerAbility struct {
	Name   string `json:"name"`
	Amount int    `json:"amount,omitempty"`
}

const (
	PlayerAbilityPropagate = "propagate"
	PlayerAbilityDraw      = "draw"
)

func Propagate(n int) PlayerAbility { return PlayerAbility{Name: PlayerAbilityPropagate, Amount: n} }

func (p PlayerAbility) kind() string { return p.Name }

func (p PlayerAbility) merge(other PlayerAbility) (PlayerAbility, bool) {
	if p.Name != PlayerAbilityPropagate {
		return p, true
	}
	p.Amount += other.Amount
	return p, p.Amount != 0
}

// PropagateAmount sums the propagate bonus in l.
func PropagateAmount(l AbilityList[PlayerAbility]) int {
	for _, a := range l.items {
		if a.Name == PlayerAbilityPropagate {
			return a.Amount
		}
	}
	return 0
}
