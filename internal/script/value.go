package script

import (
	"encoding/json"
	"fmt"
	"math"
	"math/bits"
	"sort"
	"strconv"
	"strings"
)

// Kind is the runtime type tag of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindU64
	KindI64
	KindF64
	KindString
	KindArray
	KindObject
	KindCard
	KindPlayer
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindU64, KindI64, KindF64:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindCard:
		return "card"
	case KindPlayer:
		return "player"
	default:
		return "unknown"
	}
}

// CardRef identifies a card instance together with the timestamp it had when
// the reference was taken. A reference whose timestamp no longer matches the
// card has gone stale.
type CardRef struct {
	ID        uint32 `json:"id"`
	Timestamp uint16 `json:"timestamp"`
}

func (c CardRef) String() string {
	return fmt.Sprintf("#%d@%d", c.ID, c.Timestamp)
}

// PlayerRef identifies a seat.
type PlayerRef uint8

// Value is the polymorphic value flowing through script evaluation.
// The zero Value is null.
type Value struct {
	kind   Kind
	b      bool
	u      uint64
	i      int64
	f      float64
	s      string
	arr    []Value
	obj    map[string]Value
	card   CardRef
	player PlayerRef
}

func Null() Value { return Value{} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func U64(u uint64) Value { return Value{kind: KindU64, u: u} }
func I64(i int64) Value { return Value{kind: KindI64, i: i} }
func F64(f float64) Value { return Value{kind: KindF64, f: f} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Card(ref CardRef) Value { return Value{kind: KindCard, card: ref} }
func Player(ref PlayerRef) Value { return Value{kind: KindPlayer, player: ref} }

// Int returns U64 for non-negative n and I64 otherwise.
func Int(n int) Value {
	if n >= 0 {
		return U64(uint64(n))
	}
	return I64(int64(n))
}

// Array wraps vs. The slice is not copied.
func Array(vs []Value) Value {
	if vs == nil {
		vs = []Value{}
	}
	return Value{kind: KindArray, arr: vs}
}

// Object wraps m. The map is not copied.
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindObject, obj: m}
}

func (v Value) Kind() Kind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindU64 || v.kind == KindI64 || v.kind == KindF64 }

// Truthy reports whether v is neither null nor false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

func (v Value) AsArray() ([]Value, bool) { return v.arr, v.kind == KindArray }

func (v Value) AsObject() (map[string]Value, bool) { return v.obj, v.kind == KindObject }

func (v Value) AsCard() (CardRef, bool) { return v.card, v.kind == KindCard }

func (v Value) AsPlayer() (PlayerRef, bool) { return v.player, v.kind == KindPlayer }

// AsInt converts numeric values to int64. Floats are truncated.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindU64:
		if v.u > math.MaxInt64 {
			return 0, false
		}
		return int64(v.u), true
	case KindI64:
		return v.i, true
	case KindF64:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, false
		}
		return int64(v.f), true
	}
	return 0, false
}

// AsUint converts non-negative numeric values to uint64.
func (v Value) AsUint() (uint64, bool) {
	switch v.kind {
	case KindU64:
		return v.u, true
	case KindI64:
		if v.i < 0 {
			return 0, false
		}
		return uint64(v.i), true
	case KindF64:
		if v.f < 0 || math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, false
		}
		return uint64(v.f), true
	}
	return 0, false
}

func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindU64:
		return float64(v.u), true
	case KindI64:
		return float64(v.i), true
	case KindF64:
		return v.f, true
	}
	return 0, false
}

// Field returns the value under key for objects, null otherwise.
func (v Value) Field(key string) Value {
	if v.kind != KindObject {
		return Null()
	}
	return v.obj[key]
}

// Len is the element count of arrays, objects and strings.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return len(v.obj)
	case KindString:
		return len(v.s)
	}
	return 0
}

// SortedKeys returns object keys in iteration order.
func (v Value) SortedKeys() []string {
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- Ordering ---

func rank(v Value) int {
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		if v.b {
			return 2
		}
		return 1
	case KindU64, KindI64, KindF64:
		return 3
	case KindString:
		return 4
	case KindArray:
		return 5
	case KindObject:
		return 6
	default:
		return 7
	}
}

// Compare imposes a total order: null < false < true < numbers < strings <
// arrays < objects < custom references.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch a.kind {
	case KindNull, KindBool:
		return 0
	case KindU64, KindI64, KindF64:
		return compareNumbers(a, b)
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindArray:
		for i := 0; i < len(a.arr) && i < len(b.arr); i++ {
			if c := Compare(a.arr[i], b.arr[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(a.arr), len(b.arr))
	case KindObject:
		ka, kb := a.SortedKeys(), b.SortedKeys()
		for i := 0; i < len(ka) && i < len(kb); i++ {
			if c := strings.Compare(ka[i], kb[i]); c != 0 {
				return c
			}
		}
		if c := cmpInt(len(ka), len(kb)); c != 0 {
			return c
		}
		for _, k := range ka {
			if c := Compare(a.obj[k], b.obj[k]); c != 0 {
				return c
			}
		}
		return 0
	}
	// custom: players before cards
	if a.kind != b.kind {
		if a.kind == KindPlayer {
			return -1
		}
		return 1
	}
	if a.kind == KindPlayer {
		return cmpInt(int(a.player), int(b.player))
	}
	if c := cmpInt(int(a.card.ID), int(b.card.ID)); c != 0 {
		return c
	}
	return cmpInt(int(a.card.Timestamp), int(b.card.Timestamp))
}

// Equal reports Compare(a, b) == 0.
func Equal(a, b Value) bool { return Compare(a, b) == 0 }

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareNumbers(a, b Value) int {
	if a.kind != KindF64 && b.kind != KindF64 {
		switch {
		case a.kind == KindU64 && b.kind == KindU64:
			return cmpUint(a.u, b.u)
		case a.kind == KindI64 && b.kind == KindI64:
			return cmpInt64(a.i, b.i)
		case a.kind == KindU64:
			// b is negative or small signed
			if b.i < 0 {
				return 1
			}
			return cmpUint(a.u, uint64(b.i))
		default:
			if a.i < 0 {
				return -1
			}
			return cmpUint(uint64(a.i), b.u)
		}
	}
	fa, _ := a.AsFloat()
	fb, _ := b.AsFloat()
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	case fa == fb:
		return 0
	}
	// NaN sorts below every number
	an, bn := math.IsNaN(fa), math.IsNaN(fb)
	switch {
	case an && bn:
		return 0
	case an:
		return -1
	default:
		return 1
	}
}

func cmpUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// --- Arithmetic ---

type numClass int

const (
	classUnsigned numClass = iota
	classSigned
	classFloat
)

func classify(a, b Value) numClass {
	if a.kind == KindF64 || b.kind == KindF64 {
		return classFloat
	}
	if a.kind == KindU64 && b.kind == KindU64 {
		return classUnsigned
	}
	return classSigned
}

func toSigned(v Value) (int64, error) {
	if v.kind == KindI64 {
		return v.i, nil
	}
	if v.u > math.MaxInt64 {
		return 0, newError(IntegerOverflow, "%d does not fit a signed integer", v.u)
	}
	return int64(v.u), nil
}

func signedPair(a, b Value) (int64, int64, error) {
	x, err := toSigned(a)
	if err != nil {
		return 0, 0, err
	}
	y, err := toSigned(b)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func isZero(v Value) bool {
	switch v.kind {
	case KindU64:
		return v.u == 0
	case KindI64:
		return v.i == 0
	case KindF64:
		return v.f == 0
	}
	return false
}

func calcError(op string, a, b Value) *Error {
	return newError(InvalidCalculation, "%s (%s) and %s (%s) cannot be %s", a.kind, a.Short(), b.kind, b.Short(), op)
}

// Add implements "+".
func Add(a, b Value) (Value, error) {
	switch {
	case b.kind == KindNull:
		return a, nil
	case a.kind == KindNull:
		return b, nil
	case a.IsNumber() && b.IsNumber():
		switch classify(a, b) {
		case classUnsigned:
			sum, carry := bits.Add64(a.u, b.u, 0)
			if carry != 0 {
				return Null(), newError(IntegerOverflow, "%d + %d", a.u, b.u)
			}
			return U64(sum), nil
		case classSigned:
			x, y, err := signedPair(a, b)
			if err != nil {
				return Null(), err
			}
			s := x + y
			if (y > 0 && s < x) || (y < 0 && s > x) {
				return Null(), newError(IntegerOverflow, "%d + %d", x, y)
			}
			return I64(s), nil
		default:
			fa, _ := a.AsFloat()
			fb, _ := b.AsFloat()
			return F64(fa + fb), nil
		}
	case a.kind == KindString && b.kind == KindString:
		return String(a.s + b.s), nil
	case a.kind == KindArray && b.kind == KindArray:
		out := make([]Value, 0, len(a.arr)+len(b.arr))
		out = append(out, a.arr...)
		return Array(append(out, b.arr...)), nil
	case a.kind == KindObject && b.kind == KindObject:
		out := make(map[string]Value, len(a.obj)+len(b.obj))
		for k, v := range a.obj {
			out[k] = v
		}
		for k, v := range b.obj {
			out[k] = v
		}
		return Object(out), nil
	}
	return Null(), calcError("added", a, b)
}

// Sub implements "-". Subtracting unsigned integers always yields a signed result.
func Sub(a, b Value) (Value, error) {
	switch {
	case a.IsNumber() && b.IsNumber():
		if classify(a, b) == classFloat {
			fa, _ := a.AsFloat()
			fb, _ := b.AsFloat()
			return F64(fa - fb), nil
		}
		x, y, err := signedPair(a, b)
		if err != nil {
			return Null(), err
		}
		d := x - y
		if (y > 0 && d > x) || (y < 0 && d < x) {
			return Null(), newError(IntegerOverflow, "%d - %d", x, y)
		}
		return I64(d), nil
	case a.kind == KindArray && b.kind == KindArray:
		out := make([]Value, 0, len(a.arr))
		for _, v := range a.arr {
			if !contains(b.arr, v) {
				out = append(out, v)
			}
		}
		return Array(out), nil
	}
	return Null(), calcError("subtracted", a, b)
}

func contains(vs []Value, v Value) bool {
	for _, x := range vs {
		if Equal(x, v) {
			return true
		}
	}
	return false
}

// maxRepeatLen bounds the length of a repeated string.
const maxRepeatLen = 1 << 20

// Mul implements "*". The evaluator charges the execution budget for string
// repetition before calling Mul; Mul only bounds the result length.
func Mul(a, b Value) (Value, error) {
	switch {
	case a.kind == KindString && b.kind == KindU64:
		if b.u > maxRepeatLen || uint64(len(a.s))*b.u > maxRepeatLen {
			return Null(), newError(IntegerOverflow, "%s * %d", a.Short(), b.u)
		}
		return String(strings.Repeat(a.s, int(b.u))), nil
	case a.IsNumber() && b.IsNumber():
		switch classify(a, b) {
		case classUnsigned:
			hi, lo := bits.Mul64(a.u, b.u)
			if hi != 0 {
				return Null(), newError(IntegerOverflow, "%d * %d", a.u, b.u)
			}
			return U64(lo), nil
		case classSigned:
			x, y, err := signedPair(a, b)
			if err != nil {
				return Null(), err
			}
			if x != 0 && y != 0 {
				p := x * y
				if p/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
					return Null(), newError(IntegerOverflow, "%d * %d", x, y)
				}
				return I64(p), nil
			}
			return I64(0), nil
		default:
			fa, _ := a.AsFloat()
			fb, _ := b.AsFloat()
			return F64(fa * fb), nil
		}
	case a.kind == KindObject && b.kind == KindObject:
		return Object(deepMerge(a.obj, b.obj)), nil
	}
	return Null(), calcError("multiplied", a, b)
}

func deepMerge(a, b map[string]Value) map[string]Value {
	out := make(map[string]Value, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if cur, ok := out[k]; ok && cur.kind == KindObject && v.kind == KindObject {
			out[k] = Object(deepMerge(cur.obj, v.obj))
			continue
		}
		out[k] = v
	}
	return out
}

// Div implements "/". Numeric division always yields a float.
func Div(a, b Value) (Value, error) {
	switch {
	case a.kind == KindString && b.kind == KindString:
		parts := strings.Split(a.s, b.s)
		out := make([]Value, len(parts))
		for i, p := range parts {
			out[i] = String(p)
		}
		return Array(out), nil
	case a.IsNumber() && b.IsNumber():
		if isZero(b) {
			return Null(), newError(DivisionByZero, "%s / %s", a.Short(), b.Short())
		}
		fa, _ := a.AsFloat()
		fb, _ := b.AsFloat()
		return F64(fa / fb), nil
	}
	return Null(), calcError("divided", a, b)
}

// Rem implements "%".
func Rem(a, b Value) (Value, error) {
	if !a.IsNumber() || !b.IsNumber() {
		return Null(), calcError("divided", a, b)
	}
	if isZero(b) {
		return Null(), newError(DivisionByZero, "%s %% %s", a.Short(), b.Short())
	}
	switch classify(a, b) {
	case classUnsigned:
		return U64(a.u % b.u), nil
	case classSigned:
		x, y, err := signedPair(a, b)
		if err != nil {
			return Null(), err
		}
		if y == -1 {
			return I64(0), nil
		}
		return I64(x % y), nil
	}
	fa, _ := a.AsFloat()
	fb, _ := b.AsFloat()
	return F64(math.Mod(fa, fb)), nil
}

// Neg implements unary minus.
func Neg(a Value) (Value, error) {
	switch a.kind {
	case KindU64:
		if a.u > math.MaxInt64 {
			return F64(-float64(a.u)), nil
		}
		return I64(-int64(a.u)), nil
	case KindI64:
		if a.i == math.MinInt64 {
			return F64(-float64(a.i)), nil
		}
		return I64(-a.i), nil
	case KindF64:
		return F64(-a.f), nil
	}
	return Null(), newError(InvalidCalculation, "%s (%s) cannot be negated", a.kind, a.Short())
}

// --- Indexing ---

// IndexNum indexes an array. Negative indices count from the end and
// out-of-range indices yield null.
func (v Value) IndexNum(n int64) (Value, error) {
	if v.kind == KindNull {
		return Null(), nil
	}
	if v.kind != KindArray {
		return Null(), newError(InvalidKey, "cannot index %s with number", v.kind)
	}
	if n < 0 {
		n += int64(len(v.arr))
	}
	if n < 0 || n >= int64(len(v.arr)) {
		return Null(), nil
	}
	return v.arr[n], nil
}

// IndexRange slices arrays and strings, clamping the bounds.
func (v Value) IndexRange(start, end *int64) (Value, error) {
	var n int
	switch v.kind {
	case KindNull:
		return Null(), nil
	case KindArray:
		n = len(v.arr)
	case KindString:
		n = len(v.s)
	default:
		return Null(), newError(InvalidKey, "cannot slice %s", v.kind)
	}
	lo, hi := clampRange(start, end, n)
	if v.kind == KindString {
		return String(v.s[lo:hi]), nil
	}
	out := make([]Value, hi-lo)
	copy(out, v.arr[lo:hi])
	return Array(out), nil
}

func clampRange(start, end *int64, n int) (int, int) {
	norm := func(p *int64, def int) int {
		if p == nil {
			return def
		}
		x := *p
		if x < 0 {
			x += int64(n)
		}
		if x < 0 {
			return 0
		}
		if x > int64(n) {
			return n
		}
		return int(x)
	}
	lo, hi := norm(start, 0), norm(end, n)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Iter yields array elements or object values in key order.
func (v Value) Iter() ([]Value, error) {
	switch v.kind {
	case KindArray:
		return v.arr, nil
	case KindObject:
		out := make([]Value, 0, len(v.obj))
		for _, k := range v.SortedKeys() {
			out = append(out, v.obj[k])
		}
		return out, nil
	}
	return nil, newError(InvalidIteration, "cannot iterate over %s", v.kind)
}

// --- Conversion ---

// Short renders a compact form for error messages.
func (v Value) Short() string {
	b, err := json.Marshal(v)
	if err != nil {
		return v.kind.String()
	}
	s := string(b)
	if len(s) > 32 {
		s = s[:29] + "..."
	}
	return s
}

func (v Value) String() string {
	b, err := json.Marshal(v)
	if err != nil {
		return v.kind.String()
	}
	return string(b)
}

// MarshalJSON encodes v. Card references become {"id","timestamp"} objects,
// and players become their seat number.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindU64:
		return []byte(strconv.FormatUint(v.u, 10)), nil
	case KindI64:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindF64:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		return json.Marshal(v.arr)
	case KindObject:
		return json.Marshal(v.obj)
	case KindCard:
		return json.Marshal(v.card)
	case KindPlayer:
		return json.Marshal(uint8(v.player))
	}
	return nil, fmt.Errorf("marshal value: unknown kind %d", v.kind)
}

// UnmarshalJSON decodes plain JSON into v.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	out, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// FromAny converts decoded JSON/YAML data and common Go scalars to a Value.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(t), nil
	case int64:
		if t >= 0 {
			return U64(uint64(t)), nil
		}
		return I64(t), nil
	case uint64:
		return U64(t), nil
	case uint32:
		return U64(uint64(t)), nil
	case uint16:
		return U64(uint64(t)), nil
	case uint8:
		return U64(uint64(t)), nil
	case float64:
		return F64(t), nil
	case json.Number:
		return parseNumber(string(t))
	case string:
		return String(t), nil
	case CardRef:
		return Card(t), nil
	case PlayerRef:
		return Player(t), nil
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return Null(), err
			}
			out[i] = ev
		}
		return Array(out), nil
	case []Value:
		return Array(t), nil
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return Null(), err
			}
			out[k] = ev
		}
		return Object(out), nil
	case map[string]Value:
		return Object(t), nil
	}
	return Null(), newError(InvalidConversion, "unsupported Go type %T", x)
}

func parseNumber(s string) (Value, error) {
	if u, err := strconv.ParseUint(s, 10, 64); err == nil {
		return U64(u), nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return I64(i), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null(), newError(InvalidConversion, "invalid number %q", s)
	}
	return F64(f), nil
}

// Decode converts v into the Go value pointed to by out via its JSON form.
func Decode(v Value, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return newError(InvalidConversion, "%v", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return newError(InvalidConversion, "%v", err)
	}
	return nil
}
