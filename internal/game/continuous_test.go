package game

import (
	"errors"
	"testing"
)

// powerEffect modifies its own source's power.
type powerEffect struct {
	mod        Modifier
	err        error
	deactivate bool
}

func (p powerEffect) ApplyCard(_ *GameState, source, target *Card) (ContinuousResult, error) {
	if p.err != nil {
		return ContinuousResult{}, p.err
	}
	if source.ID != target.ID {
		return ContinuousResult{}, nil
	}
	if p.deactivate {
		return ContinuousResult{Deactivate: true}, nil
	}
	m := p.mod
	return ContinuousResult{Modifier: &ComputedAttributeModifier{Power: &m}}, nil
}

func (powerEffect) ApplyPlayer(*GameState, *Card, *Player) (ContinuousResult, error) {
	return ContinuousResult{}, nil
}

func addPower(e *Environment, c *Card, p powerEffect, cond Condition) *ContinuousItem {
	it := &ContinuousItem{Source: c.TimedID(), Effect: p, Condition: cond, Active: true}
	e.Continuous().Add(it)
	e.computeEffects()
	return it
}

// TestContinuousFoldOrder: the latest record is folded first, so an older
// assignment wins over a newer addition.
func TestContinuousFoldOrder(t *testing.T) {
	tests := []struct {
		name  string
		first Modifier
		then  Modifier
		want  uint32
	}{
		{"assign then add", Modifier{Op: OpAssign, Amount: 500}, Modifier{Op: OpAdd, Amount: 100}, 500},
		{"add then assign", Modifier{Op: OpAdd, Amount: 100}, Modifier{Op: OpAssign, Amount: 500}, 600},
		{"add then double", Modifier{Op: OpAdd, Amount: 100}, Modifier{Op: OpMul, Amount: 2}, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
			bear := place(t, e, 0, "mini")
			addPower(e, bear, powerEffect{mod: tt.first}, OnField())
			addPower(e, bear, powerEffect{mod: tt.then}, OnField())
			if got := bear.Computed.CurrentPower(); got != tt.want {
				t.Errorf("power = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestContinuousDeactivate: a record that asks to stop is skipped and then
// collected on Update.
func TestContinuousDeactivate(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	bear := place(t, e, 0, "mini")
	before := e.Continuous().Len()
	it := addPower(e, bear, powerEffect{deactivate: true}, Always())
	if it.Active {
		t.Error("record should be inactive")
	}
	e.Continuous().Update(e.State())
	if got := e.Continuous().Len(); got != before {
		t.Errorf("records = %d, want %d", got, before)
	}
}

// TestContinuousErrorSkipped: a failing record leaves the others intact.
func TestContinuousErrorSkipped(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	bear := place(t, e, 0, "mini")
	addPower(e, bear, powerEffect{mod: Modifier{Op: OpAdd, Amount: 50}}, OnField())
	it := addPower(e, bear, powerEffect{err: errors.New("boom")}, OnField())
	if got := bear.Computed.CurrentPower(); got != 150 {
		t.Errorf("power = %d, want 150", got)
	}
	if !it.Active {
		t.Error("an error must not deactivate the record")
	}
}

// TestContinuousSourceLeavesField: on_field records stop once their source
// moves, even if it comes back.
func TestContinuousSourceLeavesField(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	bear := place(t, e, 0, "mini")
	it := addPower(e, bear, powerEffect{mod: Modifier{Op: OpAdd, Amount: 100}}, OnField())
	if got := bear.Computed.CurrentPower(); got != 200 {
		t.Fatalf("power = %d, want 200", got)
	}

	p0 := e.State().Players[0]
	p0.remove(ZoneField, bear.ID)
	bear.setZone(Zone{Player: 0, Kind: ZoneHand})
	p0.push(bear)
	p0.remove(ZoneHand, bear.ID)
	bear.setZone(Zone{Player: 0, Kind: ZoneField})
	p0.push(bear)
	e.computeEffects()

	if got := bear.Computed.CurrentPower(); got != 100 {
		t.Errorf("power = %d, want 100", got)
	}
	if it.Active {
		t.Error("record should be inactive")
	}
}

// TestConditionInTurn: in_turn records end with the turn.
func TestConditionInTurn(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	advance(t, e)
	bear := place(t, e, 0, "mini")
	addPower(e, bear, powerEffect{mod: Modifier{Op: OpAdd, Amount: 100}}, InTurn(e.State().Turn))
	if got := bear.Computed.CurrentPower(); got != 200 {
		t.Fatalf("power = %d, want 200", got)
	}
	endTurn(t, e)
	if got := bear.Computed.CurrentPower(); got != 100 {
		t.Errorf("power = %d, want 100", got)
	}
}
