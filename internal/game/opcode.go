package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/log"
)

// Opcode is one primitive state change. Opcodes are staged in batches and
// each execution returns the log events it produced.
type Opcode interface {
	isOpcode()
}

type OpStartGame struct{}

type OpChangeTurn struct {
	Turn   uint16
	Player uint8
	Phase  Phase
}

type OpChangePhase struct{ Phase Phase }

type OpSetLife struct {
	Player uint8
	Life   uint32
}

// OpResetPlayerState clears the player's counters and readies their field.
type OpResetPlayerState struct{ Player uint8 }

// OpGenerateShards adds shards, adjusted by the player's propagate ability.
// Source is 0 for shards that no card produced.
type OpGenerateShards struct {
	Player uint8
	Source ObjectID
	Color  Color
	Amount uint32
}

type OpConsumeShards struct {
	Player uint8
	Source ObjectID
	Color  Color
	Amount uint32
}

type OpBreakShield struct{ Card ObjectID }

// OpGenerateCardToken puts a freshly built token onto its controller's field.
type OpGenerateCardToken struct{ Card *Card }

type OpDrawCard struct{ Player uint8 }

type OpCastCard struct {
	Player uint8
	Card   ObjectID
	Cost   uint8
}

type OpMoveCard struct {
	Card   ObjectID
	From   Zone
	To     Zone
	Reason MoveReason
}

type OpShuffleDeck struct{ Player uint8 }

// OpTriggerEvent delivers Event to Target's effect. Source caused it.
type OpTriggerEvent struct {
	Source ObjectID
	Target ObjectID
	Event  CardEvent
}

type OpSetFieldState struct {
	Card  ObjectID
	State FieldState
}

type OpSetBattleState struct {
	Card  ObjectID
	State BattleState
}

// OpResetBattleState readies every field card without a battle role and
// clears all battle roles.
type OpResetBattleState struct{}

// OpAttack logs an attack. Blocker is 0 for a direct attack on Player.
type OpAttack struct {
	Attacker ObjectID
	Blocker  ObjectID
	Player   uint8
}

type OpInflictDamage struct {
	Player uint8
	Amount uint32
}

func (OpStartGame) isOpcode()         {}
func (OpChangeTurn) isOpcode()        {}
func (OpChangePhase) isOpcode()       {}
func (OpSetLife) isOpcode()           {}
func (OpResetPlayerState) isOpcode()  {}
func (OpGenerateShards) isOpcode()    {}
func (OpConsumeShards) isOpcode()     {}
func (OpBreakShield) isOpcode()       {}
func (OpGenerateCardToken) isOpcode() {}
func (OpDrawCard) isOpcode()          {}
func (OpCastCard) isOpcode()          {}
func (OpMoveCard) isOpcode()          {}
func (OpShuffleDeck) isOpcode()       {}
func (OpTriggerEvent) isOpcode()      {}
func (OpSetFieldState) isOpcode()     {}
func (OpSetBattleState) isOpcode()    {}
func (OpResetBattleState) isOpcode()  {}
func (OpAttack) isOpcode()            {}
func (OpInflictDamage) isOpcode()     {}

func (e *Environment) turn() int { return int(e.state.Turn) }

func (e *Environment) phase() string { return e.state.Phase.String() }

// execute applies op to the game state.
func (e *Environment) execute(op Opcode) ([]log.GameEvent, error) {
	e.timestamp++
	s := e.state
	switch op := op.(type) {
	case OpStartGame:
		return []log.GameEvent{log.NewGameStartedEvent()}, nil

	case OpChangeTurn:
		s.Turn, s.Current, s.Phase = op.Turn, op.Player, op.Phase
		for _, p := range s.Players {
			p.Counters = PlayerCounters{}
		}
		return []log.GameEvent{
			log.NewTurnEvent(e.turn(), e.phase(), int(op.Player)),
			log.NewPhaseChangeEvent(e.turn(), e.phase(), int(op.Player)),
		}, nil

	case OpChangePhase:
		s.Phase = op.Phase
		return []log.GameEvent{log.NewPhaseChangeEvent(e.turn(), e.phase(), int(s.Current))}, nil

	case OpSetLife:
		p, err := s.Player(op.Player)
		if err != nil {
			return nil, err
		}
		p.Life = op.Life
		return []log.GameEvent{log.NewLifeChangeEvent(e.turn(), e.phase(), int(p.ID), int(p.Life))}, nil

	case OpResetPlayerState:
		p, err := s.Player(op.Player)
		if err != nil {
			return nil, err
		}
		p.Counters = PlayerCounters{}
		for _, c := range p.Field {
			c.Field = FieldActive
		}
		return nil, nil

	case OpGenerateShards:
		p, err := s.Player(op.Player)
		if err != nil {
			return nil, err
		}
		amount := max(int64(op.Amount)+int64(PropagateAmount(p.Abilities)), 0)
		p.Shards.Add(op.Color, uint32(amount))
		var source *log.CardInfo
		if op.Source != 0 {
			if c, err := s.FindCard(op.Source); err == nil {
				source = c.infoPtr()
			}
		}
		return []log.GameEvent{log.NewShardsEarnedEvent(e.turn(), e.phase(), int(p.ID), source, op.Color.String(), int(amount))}, nil

	case OpConsumeShards:
		p, err := s.Player(op.Player)
		if err != nil {
			return nil, err
		}
		source, err := s.FindCard(op.Source)
		if err != nil {
			return nil, err
		}
		if err := p.Shards.Consume(op.Color, op.Amount); err != nil {
			return nil, err
		}
		return []log.GameEvent{log.NewShardsSpentEvent(e.turn(), e.phase(), int(p.ID), source.Info(), op.Color.String(), int(op.Amount))}, nil

	case OpBreakShield:
		c, err := s.FindCard(op.Card)
		if err != nil {
			return nil, err
		}
		e.continuous.Add(&ContinuousItem{Source: c.TimedID(), Effect: shieldBroken{}, Condition: OnField(), Active: true})
		return []log.GameEvent{log.NewShieldBrokenEvent(e.turn(), e.phase(), int(c.Controller()), c.Info())}, nil

	case OpGenerateCardToken:
		p, err := s.Player(op.Card.Controller())
		if err != nil {
			return nil, err
		}
		p.push(op.Card)
		return []log.GameEvent{log.NewTokenGeneratedEvent(e.turn(), e.phase(), int(p.ID), op.Card.Info())}, nil

	case OpDrawCard:
		p, err := s.Player(op.Player)
		if err != nil {
			return nil, err
		}
		card := p.drawTop()
		if card == nil {
			p.lose(EndgameDeckOut)
			return nil, nil
		}
		from := card.Zone
		card.setZone(Zone{Player: p.ID, Kind: ZoneHand})
		p.push(card)
		p.Counters.Draw++
		return []log.GameEvent{e.movedEvent(p.ID, card, from, MoveReasonDraw)}, nil

	case OpCastCard:
		p, err := s.Player(op.Player)
		if err != nil {
			return nil, err
		}
		card := p.remove(ZoneHand, op.Card)
		if card == nil {
			return nil, fmt.Errorf("cast card %d: %w", op.Card, ErrCardNotFound)
		}
		from := card.Zone
		card.setZone(Zone{Player: p.ID, Kind: ZoneField})
		p.push(card)
		p.Counters.Cast++
		if op.Cost == 0 {
			p.Counters.FreeCasted++
		}
		return []log.GameEvent{e.movedEvent(p.ID, card, from, MoveReasonCasted)}, nil

	case OpMoveCard:
		from, err := s.Player(op.From.Player)
		if err != nil {
			return nil, err
		}
		card := from.remove(op.From.Kind, op.Card)
		if card == nil {
			return nil, nil
		}
		controller := card.Controller()
		if card.Token && op.To.Kind != ZoneField {
			owner, err := s.Player(card.Owner)
			if err != nil {
				return nil, err
			}
			card.setZone(Zone{Player: owner.ID, Kind: ZoneLimbo})
			owner.push(card)
			return []log.GameEvent{log.NewTokenDestroyedEvent(e.turn(), e.phase(), int(controller), card.Info())}, nil
		}
		to, err := s.Player(op.To.Player)
		if err != nil {
			return nil, err
		}
		card.setZone(op.To)
		to.push(card)
		return []log.GameEvent{e.movedEvent(controller, card, op.From, op.Reason)}, nil

	case OpShuffleDeck:
		p, err := s.Player(op.Player)
		if err != nil {
			return nil, err
		}
		p.shuffleDeck(s.rng)
		return []log.GameEvent{log.NewShuffleEvent(e.turn(), e.phase(), int(p.ID))}, nil

	case OpTriggerEvent:
		return e.triggerEvent(op)

	case OpSetFieldState:
		c, err := s.FindCard(op.Card)
		if err != nil {
			return nil, err
		}
		if c.Zone.Kind == ZoneField {
			c.Field = op.State
		}
		return nil, nil

	case OpSetBattleState:
		c, err := s.FindCard(op.Card)
		if err != nil {
			return nil, err
		}
		if c.Zone.Kind != ZoneField {
			return nil, nil
		}
		c.Battle = op.State
		if op.State.Kind == BattleAttacking {
			return []log.GameEvent{log.NewAttackDeclaredEvent(e.turn(), e.phase(), int(c.Controller()), c.Info())}, nil
		}
		return nil, nil

	case OpResetBattleState:
		for _, c := range s.FieldCards() {
			if c.Battle.Kind == BattleNone {
				c.Field = FieldActive
			}
			c.Battle = BattleState{}
		}
		return nil, nil

	case OpAttack:
		attacker, err := s.FindCard(op.Attacker)
		if err != nil {
			return nil, err
		}
		if op.Blocker == 0 {
			return []log.GameEvent{log.NewCreatureAttackedPlayerEvent(e.turn(), e.phase(), int(op.Player), attacker.Info())}, nil
		}
		blocker, err := s.FindCard(op.Blocker)
		if err != nil {
			return nil, err
		}
		return []log.GameEvent{log.NewCreatureAttackedCreatureEvent(e.turn(), e.phase(), int(attacker.Controller()), attacker.Info(), blocker.Info())}, nil

	case OpInflictDamage:
		p, err := s.Player(op.Player)
		if err != nil {
			return nil, err
		}
		if op.Amount >= p.Life {
			p.Life = 0
		} else {
			p.Life -= op.Amount
		}
		return []log.GameEvent{
			log.NewDamageEvent(e.turn(), e.phase(), int(p.ID), int(op.Amount)),
			log.NewLifeChangeEvent(e.turn(), e.phase(), int(p.ID), int(p.Life)),
		}, nil
	}
	return nil, fmt.Errorf("unknown opcode %T", op)
}

func (e *Environment) movedEvent(player uint8, card *Card, from Zone, reason MoveReason) log.GameEvent {
	return log.NewCardMovedEvent(e.turn(), e.phase(), int(player), card.Info(), from.String(), card.Zone.String(), reason.String())
}

// triggerEvent runs the target's Activate and then Trigger for every id it
// requested, stack ids first. A failed Activate requests nothing and a
// failed Trigger registers nothing.
func (e *Environment) triggerEvent(op OpTriggerEvent) ([]log.GameEvent, error) {
	source, err := e.state.FindCard(op.Source)
	if err != nil {
		return nil, err
	}
	target, err := e.state.FindCard(op.Target)
	if err != nil {
		return nil, err
	}
	actx := newActivateContext(e.state, source, target)
	if err := target.Effect.Activate(op.Event, actx); err != nil {
		e.logger.Warn("effect activation failed",
			zap.Stringer("card", target),
			zap.Stringer("event", op.Event.Kind),
			zap.Error(err))
		return nil, nil
	}

	var events []log.GameEvent
	for _, id := range actx.stack {
		events = append(events, log.NewEffectActivatedEvent(e.turn(), e.phase(), int(target.Controller()), target.Info(), id))
	}

	// Each id gets its own context so a failing trigger adds nothing.
	trigger := func(id EffectID, origin triggerOrigin) {
		tctx := newTriggerContext(e.state, target, origin)
		if err := target.Effect.Trigger(id, tctx); err != nil {
			e.logger.Warn("effect trigger failed",
				zap.Stringer("card", target),
				zap.String("id", id),
				zap.Error(err))
			return
		}
		e.continuous.Add(tctx.continuous...)
		e.stack.Push(tctx.stack...)
	}
	for _, id := range actx.stack {
		trigger(id, originStack)
	}
	for _, id := range actx.continuous {
		trigger(id, originContinuous)
	}
	return events, nil
}
