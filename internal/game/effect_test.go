package game

import (
	"errors"
	"slices"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedEffect requests every id in stack and continuous on activation
// and fails wherever the matching error is set.
type scriptedEffect struct {
	NoEffect
	stack       []EffectID
	continuous  []EffectID
	activateErr error
	triggerErr  map[EffectID]error
	castableErr error
}

func (f *scriptedEffect) EventFilter() EventFilter { return EventCasted.Filter() }

func (f *scriptedEffect) IsCastable(_ *GameState, _ *Card, castable bool) (bool, error) {
	if f.castableErr != nil {
		return false, f.castableErr
	}
	return castable, nil
}

func (f *scriptedEffect) Activate(_ CardEvent, ctx *EffectActivateContext) error {
	for _, id := range f.stack {
		ctx.TriggerStack(id)
	}
	for _, id := range f.continuous {
		ctx.TriggerContinuous(id)
	}
	return f.activateErr
}

func (f *scriptedEffect) Trigger(id EffectID, ctx *EffectTriggerContext) error {
	switch {
	case ctx.RequestedAsStack():
		ctx.PushStack(id, func(*EffectTriggerContext, *Action) (EffectReport, error) { return EffectReport{}, nil })
	case ctx.RequestedAsContinuous():
		ctx.PushContinuous(noModifier{}, OnField())
	}
	return f.triggerErr[id]
}

func (f *scriptedEffect) Clone() Effect {
	c := *f
	return &c
}

type noModifier struct{}

func (noModifier) ApplyCard(*GameState, *Card, *Card) (ContinuousResult, error) {
	return ContinuousResult{}, nil
}

func (noModifier) ApplyPlayer(*GameState, *Card, *Player) (ContinuousResult, error) {
	return ContinuousResult{}, nil
}

func observedEnv(t *testing.T) (*Environment, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.WarnLevel)
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20), ignoreCost, func(cfg *EnvironmentConfig) {
		cfg.Logger = zap.New(core)
	})
	return e, logs
}

func stackIDs(e *Environment) []EffectID {
	var out []EffectID
	for _, it := range e.Stack() {
		out = append(out, it.ID)
	}
	return out
}

// TestTriggerEventActivateFailure: a failed activation registers nothing,
// even the ids it requested before failing.
func TestTriggerEventActivateFailure(t *testing.T) {
	e, logs := observedEnv(t)
	advance(t, e)
	card := place(t, e, 0, "turb")
	card.Effect = &scriptedEffect{
		stack:       []EffectID{"main"},
		continuous:  []EffectID{"aura"},
		activateErr: errors.New("boom"),
	}
	stack, continuous := len(e.Stack()), e.Continuous().Len()

	events, err := e.execute(OpTriggerEvent{Source: card.ID, Target: card.ID, Event: Casted(card.Zone)})
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want none", len(events))
	}
	if len(e.Stack()) != stack || e.Continuous().Len() != continuous {
		t.Errorf("stack %d -> %d, continuous %d -> %d", stack, len(e.Stack()), continuous, e.Continuous().Len())
	}
	if logs.FilterMessage("effect activation failed").Len() != 1 {
		t.Errorf("activation failure not logged: %v", logs.All())
	}
}

// TestScriptActivationFailure: a script that requests an entry and then
// fails leaves the stack as it was.
func TestScriptActivationFailure(t *testing.T) {
	c, err := LoadCatalog([]byte(`
cards:
  - id: boom
    name: Boom
    type: creature
    power: 100
    script: 'def on_casted($e): trigger_stack("main"), error("boom");'
`))
	if err != nil {
		t.Fatal(err)
	}
	a, err := c.Get("boom")
	if err != nil {
		t.Fatal(err)
	}
	e, logs := observedEnv(t)
	advance(t, e)
	card := place(t, e, 0, "turb")
	card.Effect = a.NewEffect()
	before := len(e.Stack())

	if _, err := e.execute(OpTriggerEvent{Source: card.ID, Target: card.ID, Event: Casted(card.Zone)}); err != nil {
		t.Fatal(err)
	}
	if after := len(e.Stack()); after != before {
		t.Errorf("stack %d -> %d, want unchanged", before, after)
	}
	if logs.FilterMessage("effect activation failed").Len() != 1 {
		t.Errorf("activation failure not logged: %v", logs.All())
	}
}

// TestTriggerEventTriggerFailure: a failed trigger drops only what that
// trigger pushed.
func TestTriggerEventTriggerFailure(t *testing.T) {
	e, logs := observedEnv(t)
	advance(t, e)
	card := place(t, e, 0, "turb")
	card.Effect = &scriptedEffect{
		stack:      []EffectID{"bad", "good"},
		continuous: []EffectID{"aura", "broken"},
		triggerErr: map[EffectID]error{"bad": errors.New("boom"), "broken": errors.New("boom")},
	}
	stack, continuous := stackIDs(e), e.Continuous().Len()

	if _, err := e.execute(OpTriggerEvent{Source: card.ID, Target: card.ID, Event: Casted(card.Zone)}); err != nil {
		t.Fatal(err)
	}
	if got, want := stackIDs(e), append(stack, "good"); !slices.Equal(got, want) {
		t.Errorf("stack = %v, want %v", got, want)
	}
	if got := e.Continuous().Len(); got != continuous+1 {
		t.Errorf("continuous = %d, want %d", got, continuous+1)
	}
	if n := logs.FilterMessage("effect trigger failed").Len(); n != 2 {
		t.Errorf("logged %d trigger failures, want 2", n)
	}
}

// TestCastableHookFailure: a failing castable hook hides the card and is
// logged.
func TestCastableHookFailure(t *testing.T) {
	e, logs := observedEnv(t)
	advance(t, e)
	p0 := e.State().Players[0]
	if len(p0.Hand) < 2 {
		t.Fatalf("hand has %d cards", len(p0.Hand))
	}
	broken := p0.Hand[0]
	broken.Effect = &scriptedEffect{castableErr: errors.New("boom")}

	got := e.castableCards(p0)
	if len(got) != len(p0.Hand)-1 {
		t.Errorf("got %d castable cards, want %d", len(got), len(p0.Hand)-1)
	}
	if slices.Contains(got, broken.TimedID()) {
		t.Error("card with a failing castable hook is listed")
	}
	entries := logs.FilterMessage("castable check failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d castable failures, want 1", len(entries))
	}
	if err, ok := entries[0].ContextMap()["error"].(string); !ok || err != "boom" {
		t.Errorf("error field = %v", entries[0].ContextMap()["error"])
	}
}
