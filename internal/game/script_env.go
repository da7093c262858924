package game

import (
	"fmt"

	"github.com/peterkuimelis/shardx/internal/script"
)

// scriptEnv exposes the game to card scripts. The read-only builtins are
// always present; trigger_* needs an activate context and push_* a
// trigger context.
type scriptEnv struct {
	state    *GameState
	vars     map[string]script.Value
	activate *EffectActivateContext
	trigger  *EffectTriggerContext
	effect   *ScriptEffect
}

func newScriptEnv(state *GameState) *scriptEnv {
	return &scriptEnv{
		state: state,
		vars:  map[string]script.Value{"$turn": script.U64(uint64(state.Turn))},
	}
}

func (e *scriptEnv) Var(name string) (script.Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func undefined(name string, args []script.Value) error {
	return &script.Error{Kind: script.UndefinedFilter, Msg: fmt.Sprintf("%s/%d", name, len(args))}
}

func conversion(format string, args ...any) error {
	return &script.Error{Kind: script.InvalidConversion, Msg: fmt.Sprintf(format, args...)}
}

func (e *scriptEnv) card(v script.Value) (*Card, error) {
	ref, ok := v.AsCard()
	if !ok {
		return nil, conversion("expected card, got %s", v.Kind())
	}
	return e.state.FindCard(ref.ID)
}

func (e *scriptEnv) player(v script.Value) (*Player, error) {
	if ref, ok := v.AsPlayer(); ok {
		return e.state.Player(uint8(ref))
	}
	if n, ok := v.AsUint(); ok && n < 256 {
		return e.state.Player(uint8(n))
	}
	return nil, conversion("expected player, got %s", v.Kind())
}

func (e *scriptEnv) Field(target script.Value, key string) (script.Value, error) {
	if target.Kind() == script.KindPlayer {
		p, err := e.player(target)
		if err != nil {
			return script.Null(), err
		}
		return playerField(p, key)
	}
	c, err := e.card(target)
	if err != nil {
		return script.Null(), err
	}
	return cardField(c, key)
}

func cardField(c *Card, key string) (script.Value, error) {
	switch key {
	case "id":
		return script.U64(uint64(c.ID)), nil
	case "timestamp":
		return script.U64(uint64(c.Timestamp)), nil
	case "archetype":
		return script.String(c.Archetype.ID), nil
	case "name":
		return script.String(c.Archetype.Name), nil
	case "color":
		return script.String(c.Computed.Color.String()), nil
	case "cost":
		return script.U64(uint64(c.Computed.Cost.Value())), nil
	case "power":
		if c.Computed.Power == nil {
			return script.Null(), nil
		}
		return script.U64(uint64(c.Computed.CurrentPower())), nil
	case "shields":
		return script.U64(uint64(c.Computed.CurrentShields())), nil
	case "card_type":
		return script.String(c.Computed.CardType.String()), nil
	case "creature_type":
		return script.String(c.Computed.CreatureType), nil
	case "abilities":
		items := c.Computed.Abilities.Items()
		out := make([]script.Value, len(items))
		for i, a := range items {
			out[i] = script.String(string(a))
		}
		return script.Array(out), nil
	case "controller":
		return playerValue(c.Controller()), nil
	case "owner":
		return playerValue(c.Owner), nil
	case "zone":
		return script.String(c.Zone.Kind.String()), nil
	case "targetable":
		return script.Bool(c.Targetable()), nil
	case "token":
		return script.Bool(c.Token), nil
	case "exhausted":
		return script.Bool(c.Field == FieldExhausted), nil
	}
	return script.Null(), &script.Error{Kind: script.InvalidKey, Msg: fmt.Sprintf("card has no field %q", key)}
}

func playerField(p *Player, key string) (script.Value, error) {
	switch key {
	case "id":
		return script.U64(uint64(p.ID)), nil
	case "life":
		return script.U64(uint64(p.Life)), nil
	case "hand_size":
		return script.Int(len(p.Hand)), nil
	case "deck_size":
		return script.Int(len(p.Deck)), nil
	case "field_size":
		return script.Int(len(p.Field)), nil
	case "shards":
		return script.U64(uint64(p.Shards.Len())), nil
	}
	return script.Null(), &script.Error{Kind: script.InvalidKey, Msg: fmt.Sprintf("player has no field %q", key)}
}

func (e *scriptEnv) Invoke(name string, args []script.Value, _ script.Value) ([]script.Value, error) {
	one := func(v script.Value, err error) ([]script.Value, error) {
		if err != nil {
			return nil, err
		}
		return []script.Value{v}, nil
	}
	switch {
	case name == "turn" && len(args) == 0:
		return one(script.U64(uint64(e.state.Turn)), nil)

	case name == "next_player" && len(args) == 1:
		p, err := e.player(args[0])
		if err != nil {
			return nil, err
		}
		return one(playerValue(e.state.NextPlayer(p.ID)), nil)

	case (name == "controller" || name == "owner") && len(args) == 1:
		c, err := e.card(args[0])
		if err != nil {
			return nil, err
		}
		if name == "owner" {
			return one(playerValue(c.Owner), nil)
		}
		return one(playerValue(c.Controller()), nil)

	case (name == "field" || name == "hand" || name == "graveyard") && len(args) == 1:
		p, err := e.player(args[0])
		if err != nil {
			return nil, err
		}
		var k ZoneKind
		if err := k.UnmarshalText([]byte(name)); err != nil {
			return nil, err
		}
		return one(cardList(p.Cards(k)), nil)

	case name == "life" && len(args) == 1:
		p, err := e.player(args[0])
		if err != nil {
			return nil, err
		}
		return one(script.U64(uint64(p.Life)), nil)

	case (name == "trigger_stack" || name == "trigger_continuous") && len(args) == 1 && e.activate != nil:
		id, ok := args[0].AsString()
		if !ok {
			return nil, conversion("%s expects a string id, got %s", name, args[0].Kind())
		}
		if name == "trigger_stack" {
			e.activate.TriggerStack(id)
		} else {
			e.activate.TriggerContinuous(id)
		}
		return one(script.Null(), nil)

	case name == "push_stack" && len(args) == 1 && e.trigger != nil:
		id, ok := args[0].AsString()
		if !ok {
			return nil, conversion("push_stack expects a string id, got %s", args[0].Kind())
		}
		e.trigger.PushStack(id, e.effect.handler(id))
		return one(script.Null(), nil)

	case name == "push_continuous" && (len(args) == 1 || len(args) == 2) && e.trigger != nil:
		id, ok := args[0].AsString()
		if !ok {
			return nil, conversion("push_continuous expects a string id, got %s", args[0].Kind())
		}
		cond := OnField()
		if len(args) == 2 {
			var err error
			if cond, err = e.condition(args[1]); err != nil {
				return nil, err
			}
		}
		e.trigger.PushContinuous(e.effect.continuous(id), cond)
		return one(script.Null(), nil)
	}
	return nil, undefined(name, args)
}

func (e *scriptEnv) condition(v script.Value) (Condition, error) {
	s, _ := v.AsString()
	switch s {
	case "on_field":
		return OnField(), nil
	case "in_turn":
		return InTurn(e.state.Turn), nil
	case "always":
		return Always(), nil
	}
	return Condition{}, conversion("unknown condition %s", v)
}
