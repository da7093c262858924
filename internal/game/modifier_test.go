package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestLinear checks the transform and clamping of numeric attributes.
func TestLinear(t *testing.T) {
	tests := []struct {
		name string
		mods []Modifier
		want uint32
	}{
		{"untouched", nil, 300},
		{"add", []Modifier{{OpAdd, 100}}, 400},
		{"sub below zero", []Modifier{{OpSub, 1000}}, 0},
		{"mul then add", []Modifier{{OpMul, 2}, {OpAdd, 50}}, 650},
		{"div", []Modifier{{OpDiv, 2}}, 150},
		{"div by zero ignored", []Modifier{{OpDiv, 0}}, 300},
		{"assign resets", []Modifier{{OpAdd, 100}, {OpAssign, 50}}, 50},
		{"assign then add", []Modifier{{OpAssign, 50}, {OpAdd, 25}}, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLinear[uint32](300)
			for _, m := range tt.mods {
				l.Modify(m)
			}
			if got := l.Value(); got != tt.want {
				t.Errorf("Value = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestLinearClampUint8: small attributes saturate instead of wrapping.
func TestLinearClampUint8(t *testing.T) {
	l := NewLinear[uint8](200)
	l.Add(100)
	if got := l.Value(); got != 255 {
		t.Errorf("Value = %d, want 255", got)
	}
	if l.Diff() != 1 {
		t.Errorf("Diff = %d, want 1", l.Diff())
	}
}

// TestModifierJSON: modifiers are written as [op, n].
func TestModifierJSON(t *testing.T) {
	var m Modifier
	if err := json.Unmarshal([]byte(`["*", 1.5]`), &m); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Modifier{Op: OpMul, Amount: 1.5}, m); diff != "" {
		t.Errorf("modifier (-want +got):\n%s", diff)
	}
	for _, bad := range []string{`["%", 1]`, `{"op": "+"}`, `["+"]`} {
		if err := json.Unmarshal([]byte(bad), &m); err == nil {
			t.Errorf("%s: expected error", bad)
		}
	}
}

// TestAbilityList: removal wins over later additions within one recompute.
func TestAbilityList(t *testing.T) {
	l := NewAbilityList(KeywordToxic, KeywordDevour, KeywordToxic)
	if diff := cmp.Diff([]KeywordAbility{KeywordDevour, KeywordToxic}, l.Items()); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
	l.Modify(AbilityModifier[KeywordAbility]{Op: OpSub, Ability: KeywordToxic})
	l.Modify(AbilityModifier[KeywordAbility]{Op: OpAdd, Ability: KeywordToxic})
	if l.Contains(KeywordToxic) {
		t.Error("toxic should stay removed")
	}
	l.Modify(AbilityModifier[KeywordAbility]{Op: OpMul, Ability: KeywordStealth})
	if l.Contains(KeywordStealth) {
		t.Error("only + and - change abilities")
	}

	var decoded AbilityModifier[KeywordAbility]
	if err := json.Unmarshal([]byte(`["+", "piercing"]`), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Op != OpAdd || decoded.Ability != KeywordPiercing {
		t.Errorf("decoded = %+v", decoded)
	}
}

// TestPropagateMerge: propagate amounts stack and cancel out at zero.
func TestPropagateMerge(t *testing.T) {
	var l AbilityList[PlayerAbility]
	l.Add(Propagate(1))
	l.Add(Propagate(2))
	if got := PropagateAmount(l); got != 3 {
		t.Errorf("propagate = %d, want 3", got)
	}
	l.Add(Propagate(-3))
	if l.Len() != 0 {
		t.Errorf("abilities = %v, want none", l.Items())
	}
	l.Add(PlayerAbility{Name: PlayerAbilityDraw})
	l.Add(PlayerAbility{Name: PlayerAbilityDraw})
	if l.Len() != 1 {
		t.Errorf("abilities = %v, want one draw", l.Items())
	}
}

// TestShardConsume: cards pay with their own color first.
func TestShardConsume(t *testing.T) {
	s := ShardList{ColorGreen: 1, ColorColorless: 2}
	if got := s.Available(ColorGreen); got != 3 {
		t.Errorf("available green = %d, want 3", got)
	}
	if got := s.Available(ColorRed); got != 2 {
		t.Errorf("available red = %d, want 2", got)
	}
	if err := s.Consume(ColorGreen, 2); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(ShardList{ColorColorless: 1}, s); diff != "" {
		t.Errorf("pool (-want +got):\n%s", diff)
	}
	if err := s.Consume(ColorRed, 2); !errors.Is(err, ErrInsufficientShards) {
		t.Errorf("err = %v, want ErrInsufficientShards", err)
	}
	if s.Len() != 1 {
		t.Errorf("failed payment changed the pool: %v", s)
	}
}

// TestParseColor covers combined and unknown colors.
func TestParseColor(t *testing.T) {
	c, err := ParseColor("Red+Blue")
	if err != nil {
		t.Fatal(err)
	}
	if c != ColorRed|ColorBlue || c.String() != "red+blue" {
		t.Errorf("color = %v", c)
	}
	if c, _ := ParseColor(""); c != ColorColorless {
		t.Errorf("empty = %v, want colorless", c)
	}
	if _, err := ParseColor("purple"); err == nil {
		t.Error("expected error for purple")
	}
}
