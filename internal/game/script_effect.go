package game

import (
	"fmt"

	"github.com/peterkuimelis/shardx/internal/script"
)

// ScriptEffect is an Effect backed by a compiled card script.
//
// Hooks, all optional:
//
//	on_<event>($e)         react to an event with trigger_stack/trigger_continuous
//	trigger($id)           register entries with push_stack/push_continuous
//	resolve($id; $action)  resolve a stack entry into a report object
//	continuous($id; $t)    card modifier object, false to deactivate, null for no change
//	continuous_player($id; $p)  the same for player abilities
//	castable($base)        refine the engine's castability verdict
type ScriptEffect struct {
	module *script.Module
	filter EventFilter
}

func newScriptEffect(m *script.Module) *ScriptEffect {
	e := &ScriptEffect{module: m}
	for _, k := range CardEventKinds {
		if m.HasDef("on_"+k.String(), 1) {
			e.filter |= k.Filter()
		}
	}
	return e
}

func (e *ScriptEffect) EventFilter() EventFilter { return e.filter }

func (e *ScriptEffect) Clone() Effect {
	c := *e
	return &c
}

func (e *ScriptEffect) IsCastable(state *GameState, card *Card, castable bool) (bool, error) {
	if !e.module.HasDef("castable", 1) {
		return castable, nil
	}
	env := newScriptEnv(state)
	env.vars["$source"] = cardValue(card)
	env.vars["$controller"] = playerValue(card.Controller())
	v, err := e.module.CallLast(env, "castable", script.Bool(castable))
	if err != nil {
		return false, fmt.Errorf("castable: %w", err)
	}
	return v.Truthy(), nil
}

func (e *ScriptEffect) Activate(event CardEvent, ctx *EffectActivateContext) error {
	name := "on_" + event.Kind.String()
	if !e.module.HasDef(name, 1) {
		return nil
	}
	env := newScriptEnv(ctx.state)
	env.activate = ctx
	env.vars["$source"] = cardValue(ctx.source)
	env.vars["$target"] = cardValue(ctx.target)
	env.vars["$controller"] = playerValue(ctx.target.Controller())
	_, err := e.module.Call(env, name, event.Value())
	return err
}

func (e *ScriptEffect) Trigger(id EffectID, ctx *EffectTriggerContext) error {
	if !e.module.HasDef("trigger", 1) {
		switch {
		case ctx.RequestedAsStack():
			ctx.PushStack(id, e.handler(id))
		case ctx.RequestedAsContinuous():
			ctx.PushContinuous(e.continuous(id), OnField())
		}
		return nil
	}
	_, err := e.module.Call(e.triggerEnv(ctx), "trigger", script.String(id))
	return err
}

func (e *ScriptEffect) triggerEnv(ctx *EffectTriggerContext) *scriptEnv {
	env := newScriptEnv(ctx.state)
	env.trigger = ctx
	env.effect = e
	env.vars["$source"] = cardValue(ctx.source)
	env.vars["$controller"] = playerValue(ctx.source.Controller())
	return env
}

// handler resolves stack entry id through resolve($id; $action).
func (e *ScriptEffect) handler(id EffectID) StackHandler {
	return func(ctx *EffectTriggerContext, action *Action) (EffectReport, error) {
		v, err := e.module.CallLast(e.triggerEnv(ctx), "resolve", script.String(id), actionValue(action))
		if err != nil {
			return EffectReport{}, fmt.Errorf("resolve %q: %w", id, err)
		}
		var report EffectReport
		if v.IsNull() {
			return report, nil
		}
		if err := script.Decode(v, &report); err != nil {
			return EffectReport{}, fmt.Errorf("resolve %q report: %w", id, err)
		}
		return report, nil
	}
}

func (e *ScriptEffect) continuous(id EffectID) ContinuousEffect {
	return &scriptContinuous{module: e.module, id: id}
}

// scriptContinuous runs continuous($id; $target) or
// continuous_player($id; $player) for one record.
type scriptContinuous struct {
	module *script.Module
	id     EffectID
}

func (c *scriptContinuous) call(env *scriptEnv, hook string, target script.Value, out any) (bool, error) {
	v, err := c.module.CallLast(env, hook, script.String(c.id), target)
	if err != nil {
		return false, err
	}
	switch v.Kind() {
	case script.KindNull:
		return false, nil
	case script.KindBool:
		b, _ := v.AsBool()
		return !b, nil
	case script.KindObject:
		return false, script.Decode(v, out)
	}
	return false, &script.Error{Kind: script.InvalidConversion, Msg: fmt.Sprintf("continuous %q returned %s", c.id, v.Kind())}
}

func (c *scriptContinuous) ApplyCard(state *GameState, source, target *Card) (ContinuousResult, error) {
	if !c.module.HasDef("continuous", 2) {
		return ContinuousResult{}, nil
	}
	env := newScriptEnv(state)
	env.vars["$source"] = cardValue(source)
	env.vars["$target"] = cardValue(target)
	var mod ComputedAttributeModifier
	deactivate, err := c.call(env, "continuous", cardValue(target), &mod)
	if err != nil || deactivate {
		return ContinuousResult{Deactivate: deactivate}, err
	}
	return ContinuousResult{Modifier: &mod}, nil
}

func (c *scriptContinuous) ApplyPlayer(state *GameState, source *Card, p *Player) (ContinuousResult, error) {
	if !c.module.HasDef("continuous_player", 2) {
		return ContinuousResult{}, nil
	}
	env := newScriptEnv(state)
	env.vars["$source"] = cardValue(source)
	env.vars["$player"] = playerValue(p.ID)
	var mod PlayerAbilityModifier
	deactivate, err := c.call(env, "continuous_player", playerValue(p.ID), &mod)
	if err != nil || deactivate {
		return ContinuousResult{Deactivate: deactivate}, err
	}
	return ContinuousResult{PlayerModifier: &mod}, nil
}

func cardValue(c *Card) script.Value { return script.Card(c.TimedID()) }

func playerValue(p uint8) script.Value { return script.Player(script.PlayerRef(p)) }

func cardList(cards []*Card) script.Value {
	out := make([]script.Value, len(cards))
	for i, c := range cards {
		out[i] = cardValue(c)
	}
	return script.Array(out)
}

func actionValue(a *Action) script.Value {
	if a == nil {
		return script.Null()
	}
	obj := map[string]script.Value{"name": script.String(string(a.Name))}
	if a.Card != nil {
		obj["card"] = script.Card(*a.Card)
	}
	if len(a.Attackers) > 0 {
		ids := make([]script.Value, len(a.Attackers))
		for i, id := range a.Attackers {
			ids[i] = script.Card(id)
		}
		obj["attackers"] = script.Array(ids)
	}
	return script.Object(obj)
}
