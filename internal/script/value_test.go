package script

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

var valueCmp = cmp.Comparer(func(a, b Value) bool { return a.Kind() == b.Kind() && Equal(a, b) })

// TestAddPromotion: numeric kinds promote u+u=u, u+i=i, any+f=f.
func TestAddPromotion(t *testing.T) {
	cases := []struct {
		a, b, want Value
	}{
		{U64(1), U64(2), U64(3)},
		{U64(1), I64(-2), I64(-1)},
		{I64(-2), U64(1), I64(-1)},
		{U64(1), F64(0.5), F64(1.5)},
		{I64(1), F64(0.5), F64(1.5)},
		{Null(), U64(7), U64(7)},
		{String("x"), Null(), String("x")},
		{String("ab"), String("cd"), String("abcd")},
		{Array([]Value{U64(1)}), Array([]Value{U64(2)}), Array([]Value{U64(1), U64(2)})},
	}
	for _, c := range cases {
		got, err := Add(c.a, c.b)
		if err != nil {
			t.Fatalf("%v + %v: %v", c.a, c.b, err)
		}
		if diff := cmp.Diff(c.want, got, valueCmp); diff != "" {
			t.Errorf("%v + %v mismatch (-want +got):\n%s", c.a, c.b, diff)
		}
	}
}

// TestAddObjectsLastWriteWins: object union keeps the right-hand value.
func TestAddObjectsLastWriteWins(t *testing.T) {
	a := Object(map[string]Value{"x": U64(1), "y": U64(2)})
	b := Object(map[string]Value{"y": U64(3)})
	got, err := Add(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := Object(map[string]Value{"x": U64(1), "y": U64(3)})
	if !Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// TestArithmeticClosure: mismatched kinds fail instead of coercing.
func TestArithmeticClosure(t *testing.T) {
	ops := map[string]func(a, b Value) (Value, error){"add": Add, "sub": Sub, "mul": Mul, "div": Div, "rem": Rem}
	for name, op := range ops {
		if _, err := op(String("x"), Array(nil)); !errors.Is(err, ErrInvalidCalculation) {
			t.Errorf("%s(string, array): expected InvalidCalculation, got %v", name, err)
		}
	}
	if _, err := Add(U64(math.MaxUint64), U64(1)); !errors.Is(err, ErrIntegerOverflow) {
		t.Errorf("expected IntegerOverflow, got %v", err)
	}
	if _, err := Mul(U64(math.MaxUint64), U64(2)); !errors.Is(err, ErrIntegerOverflow) {
		t.Errorf("expected IntegerOverflow, got %v", err)
	}
}

// TestSubUnsignedYieldsSigned: 2 - 5 on unsigned operands is -3.
func TestSubUnsignedYieldsSigned(t *testing.T) {
	got, err := Sub(U64(2), U64(5))
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != KindI64 {
		t.Fatalf("expected signed result, got %s", got.Kind())
	}
	if n, _ := got.AsInt(); n != -3 {
		t.Errorf("expected -3, got %d", n)
	}

	arr, err := Sub(Array([]Value{U64(1), U64(2), U64(3), U64(2)}), Array([]Value{U64(2)}))
	if err != nil {
		t.Fatal(err)
	}
	if want := Array([]Value{U64(1), U64(3)}); !Equal(arr, want) {
		t.Errorf("array difference: got %v, want %v", arr, want)
	}
}

// TestDivisionByZero: any zero divisor fails for "/" and "%".
func TestDivisionByZero(t *testing.T) {
	for _, zero := range []Value{U64(0), I64(0), F64(0)} {
		if _, err := Div(U64(1), zero); !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("1 / %v: expected DivisionByZero, got %v", zero, err)
		}
		if _, err := Rem(I64(-1), zero); !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("-1 %% %v: expected DivisionByZero, got %v", zero, err)
		}
	}
}

// TestDivAlwaysFloat: integer division produces a float; u%u stays unsigned.
func TestDivAlwaysFloat(t *testing.T) {
	got, err := Div(U64(6), U64(4))
	if err != nil {
		t.Fatal(err)
	}
	if f, ok := got.AsFloat(); got.Kind() != KindF64 || !ok || f != 1.5 {
		t.Errorf("6 / 4 = %v (%s), want 1.5", got, got.Kind())
	}
	rem, err := Rem(U64(7), U64(4))
	if err != nil {
		t.Fatal(err)
	}
	if rem.Kind() != KindU64 || !Equal(rem, U64(3)) {
		t.Errorf("7 %% 4 = %v (%s), want unsigned 3", rem, rem.Kind())
	}
	parts, err := Div(String("a,b,c"), String(","))
	if err != nil {
		t.Fatal(err)
	}
	if parts.Len() != 3 {
		t.Errorf("split: got %v", parts)
	}
}

// TestMulStringAndMerge: string repetition and deep object merge.
func TestMulStringAndMerge(t *testing.T) {
	got, err := Mul(String("ab"), U64(3))
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := got.AsString(); s != "ababab" {
		t.Errorf("got %q", s)
	}

	a := Object(map[string]Value{"k": Object(map[string]Value{"a": U64(1), "b": U64(2)})})
	b := Object(map[string]Value{"k": Object(map[string]Value{"b": U64(3)}), "z": Bool(true)})
	merged, err := Mul(a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := Object(map[string]Value{
		"k": Object(map[string]Value{"a": U64(1), "b": U64(3)}),
		"z": Bool(true),
	})
	if !Equal(merged, want) {
		t.Errorf("merge: got %v, want %v", merged, want)
	}
}

// TestMulStringRepeatBounds: huge repeat counts fail instead of panicking
// or allocating without limit.
func TestMulStringRepeatBounds(t *testing.T) {
	for _, tc := range []struct {
		s string
		n uint64
	}{
		{"a", 1 << 63},
		{"a", math.MaxUint64},
		{"", math.MaxUint64},
		{"abcd", maxRepeatLen},
	} {
		if _, err := Mul(String(tc.s), U64(tc.n)); !errors.Is(err, ErrIntegerOverflow) {
			t.Errorf("Mul(%q, %d): got %v, want integer overflow", tc.s, tc.n, err)
		}
	}
	got, err := Mul(String(""), U64(maxRepeatLen))
	if err != nil {
		t.Fatal(err)
	}
	if s, _ := got.AsString(); s != "" {
		t.Errorf("got %q", s)
	}
}

// TestNeg: unsigned negation becomes signed; non-numbers fail.
func TestNeg(t *testing.T) {
	got, err := Neg(U64(5))
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != KindI64 || !Equal(got, I64(-5)) {
		t.Errorf("-5: got %v (%s)", got, got.Kind())
	}
	if _, err := Neg(String("x")); !errors.Is(err, ErrInvalidCalculation) {
		t.Errorf("expected InvalidCalculation, got %v", err)
	}
}

// TestCompareRanking: values of different kinds sort by kind rank.
func TestCompareRanking(t *testing.T) {
	want := []Value{
		Null(),
		Bool(false),
		Bool(true),
		I64(-1),
		U64(0),
		F64(0.5),
		String("a"),
		String("b"),
		Array([]Value{U64(1)}),
		Array([]Value{U64(1), U64(0)}),
		Object(map[string]Value{"a": U64(1)}),
		Player(0),
		Card(CardRef{ID: 1}),
	}
	got := make([]Value, len(want))
	for i := range want {
		got[len(want)-1-i] = want[i]
	}
	sort.SliceStable(got, func(i, j int) bool { return Compare(got[i], got[j]) < 0 })
	if diff := cmp.Diff(want, got, valueCmp); diff != "" {
		t.Errorf("ordering mismatch (-want +got):\n%s", diff)
	}
	if !Equal(U64(2), F64(2)) || !Equal(I64(2), U64(2)) {
		t.Error("numbers should compare by value across representations")
	}
}

// TestTruthiness: only null and false are falsy.
func TestTruthiness(t *testing.T) {
	falsy := []Value{Null(), Bool(false)}
	truthy := []Value{Bool(true), U64(0), F64(0), String(""), Array(nil), Object(nil), Player(0)}
	for _, v := range falsy {
		if v.Truthy() {
			t.Errorf("%v should be falsy", v)
		}
	}
	for _, v := range truthy {
		if !v.Truthy() {
			t.Errorf("%v should be truthy", v)
		}
	}
}

// TestIndexNumNegative: negative indices count from the end.
func TestIndexNumNegative(t *testing.T) {
	arr := Array([]Value{U64(10), U64(20), U64(30)})
	cases := map[int64]Value{-1: U64(30), -3: U64(10), 0: U64(10), 5: Null(), -4: Null()}
	for idx, want := range cases {
		got, err := arr.IndexNum(idx)
		if err != nil {
			t.Fatalf("index %d: %v", idx, err)
		}
		if !Equal(got, want) {
			t.Errorf("index %d: got %v, want %v", idx, got, want)
		}
	}
	if _, err := String("x").IndexNum(0); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected InvalidKey, got %v", err)
	}
}

// TestIndexRangeClamps: slice bounds clamp to the container length.
func TestIndexRangeClamps(t *testing.T) {
	lo, hi := int64(-2), int64(100)
	got, err := Array([]Value{U64(1), U64(2), U64(3)}).IndexRange(&lo, &hi)
	if err != nil {
		t.Fatal(err)
	}
	if want := Array([]Value{U64(2), U64(3)}); !Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	start := int64(1)
	s, err := String("hello").IndexRange(&start, nil)
	if err != nil {
		t.Fatal(err)
	}
	if str, _ := s.AsString(); str != "ello" {
		t.Errorf("got %q", str)
	}
}

// TestJSONInterchange: card references and players encode as plain JSON.
func TestJSONInterchange(t *testing.T) {
	v := Object(map[string]Value{
		"card":   Card(CardRef{ID: 7, Timestamp: 2}),
		"player": Player(1),
		"n":      I64(-3),
	})
	b, err := v.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	const want = `{"card":{"id":7,"timestamp":2},"n":-3,"player":1}`
	if string(b) != want {
		t.Errorf("got %s, want %s", b, want)
	}

	var back Value
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatal(err)
	}
	if n, _ := back.Field("n").AsInt(); n != -3 {
		t.Errorf("decoded n = %v", back.Field("n"))
	}

	var decoded struct {
		Card CardRef `json:"card"`
	}
	if err := Decode(v, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Card != (CardRef{ID: 7, Timestamp: 2}) {
		t.Errorf("decoded card = %+v", decoded.Card)
	}
}
