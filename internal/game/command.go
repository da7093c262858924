package game

import (
	"fmt"
)

// CommandKind is the name of an action command.
type CommandKind string

const (
	CmdInflictDamage       CommandKind = "inflict_damage"
	CmdDestroyCard         CommandKind = "destroy_card"
	CmdReturnCardToHand    CommandKind = "return_card_to_hand"
	CmdShuffleCardIntoDeck CommandKind = "shuffle_card_into_deck"
	CmdSetFieldState       CommandKind = "set_field_state"
	CmdGenerateCardToken   CommandKind = "generate_card_token"
	CmdGenerateShards      CommandKind = "generate_shards"
	CmdConsumeShards       CommandKind = "consume_shards"
	CmdBreakShield         CommandKind = "break_shield"
)

// ActionCommand is a high-level instruction produced by an effect. The
// engine expands it into opcodes. Only the fields the kind needs are read.
type ActionCommand struct {
	Name      CommandKind    `json:"name"`
	Player    uint8          `json:"player,omitempty"`
	Amount    uint32         `json:"amount,omitempty"`
	Source    *TimedObjectID `json:"source,omitempty"`
	Target    *TimedObjectID `json:"target,omitempty"`
	Reason    EventReason    `json:"reason,omitempty"`
	Color     Color          `json:"color,omitempty"`
	State     FieldState     `json:"state,omitempty"`
	Archetype string         `json:"archetype,omitempty"`
}

// commandOpcodes expands cmd into opcode batches against the current state.
func (e *Environment) commandOpcodes(cmd ActionCommand) ([][]Opcode, error) {
	s := e.state
	var source *Card
	if cmd.Source != nil {
		source, _ = s.FindCard(cmd.Source.ID)
	}
	target := func() (*Card, error) {
		if cmd.Target == nil {
			return nil, fmt.Errorf("%s without target: %w", cmd.Name, ErrInvalidAction)
		}
		return s.FindTimed(*cmd.Target)
	}
	sourceID := func() ObjectID {
		if source == nil {
			return 0
		}
		return source.ID
	}

	switch cmd.Name {
	case CmdInflictDamage:
		if _, err := s.Player(cmd.Player); err != nil {
			return nil, err
		}
		return [][]Opcode{{OpInflictDamage{Player: cmd.Player, Amount: cmd.Amount}}}, nil

	case CmdDestroyCard:
		t, err := target()
		if err != nil {
			return nil, err
		}
		piercing := source != nil && source.Computed.Has(KeywordPiercing)
		if !piercing && t.Computed.CurrentShields() > 0 {
			return [][]Opcode{{OpBreakShield{Card: t.ID}}}, nil
		}
		return e.applyEvent(Destroyed(cmd.Reason), orCard(source, t), t), nil

	case CmdReturnCardToHand:
		t, err := target()
		if err != nil {
			return nil, err
		}
		ev := CardEvent{Kind: EventReturnedToHand, Reason: cmd.Reason}
		return e.applyEvent(ev, orCard(source, t), t), nil

	case CmdShuffleCardIntoDeck:
		t, err := target()
		if err != nil {
			return nil, err
		}
		ev := CardEvent{Kind: EventReturnedToDeck, Reason: cmd.Reason}
		out := e.applyEvent(ev, orCard(source, t), t)
		return append(out, []Opcode{OpShuffleDeck{Player: t.Owner}}), nil

	case CmdSetFieldState:
		t, err := target()
		if err != nil {
			return nil, err
		}
		return [][]Opcode{{OpSetFieldState{Card: t.ID, State: cmd.State}}}, nil

	case CmdGenerateCardToken:
		a, err := e.catalog.Get(cmd.Archetype)
		if err != nil {
			return nil, err
		}
		if _, err := s.Player(cmd.Player); err != nil {
			return nil, err
		}
		token := newCard(s.NextID(), cmd.Player, a)
		token.Token = true
		token.setZone(Zone{Player: cmd.Player, Kind: ZoneField})
		out := [][]Opcode{{OpGenerateCardToken{Card: token}}}
		out = append(out, e.applyEvent(Casted(token.Zone), token, token)...)
		return append(out, e.applyEventAny(CardEvent{Kind: EventAnyCasted, From: token.Zone}, token)...), nil

	case CmdGenerateShards:
		if _, err := s.Player(cmd.Player); err != nil {
			return nil, err
		}
		return [][]Opcode{{OpGenerateShards{Player: cmd.Player, Source: sourceID(), Color: cmd.Color, Amount: cmd.Amount}}}, nil

	case CmdConsumeShards:
		if source == nil {
			return nil, fmt.Errorf("%s without source: %w", cmd.Name, ErrInvalidAction)
		}
		return [][]Opcode{{OpConsumeShards{Player: cmd.Player, Source: source.ID, Color: cmd.Color, Amount: cmd.Amount}}}, nil

	case CmdBreakShield:
		t, err := target()
		if err != nil {
			return nil, err
		}
		return [][]Opcode{{OpBreakShield{Card: t.ID}}}, nil
	}
	return nil, fmt.Errorf("unknown command %q: %w", cmd.Name, ErrInvalidAction)
}

func orCard(c, fallback *Card) *Card {
	if c == nil {
		return fallback
	}
	return c
}

// applyEvent stages event on target. Destruction and returns also move
// the card; the trigger is staged only if target listens for the event.
func (e *Environment) applyEvent(event CardEvent, source, target *Card) [][]Opcode {
	var trigger []Opcode
	if target.EventFilter().Contains(event.Kind) {
		trigger = []Opcode{OpTriggerEvent{Source: source.ID, Target: target.ID, Event: event}}
	}
	move := func(to ZoneKind, reason MoveReason) []Opcode {
		return append([]Opcode{OpMoveCard{
			Card:   target.ID,
			From:   target.Zone,
			To:     Zone{Player: target.Owner, Kind: to},
			Reason: reason,
		}}, trigger...)
	}

	switch event.Kind {
	case EventDestroyed:
		var out [][]Opcode
		spoils := !target.Computed.Has(KeywordVolatile) && !source.Computed.Has(KeywordDevour) && !target.Token
		if spoils {
			out = append(out, []Opcode{OpGenerateShards{Player: target.Owner, Source: target.ID, Color: ColorColorless, Amount: 1}})
		}
		return append(out, move(ZoneGraveyard, MoveReasonDestroyed))
	case EventReturnedToHand:
		return [][]Opcode{move(ZoneHand, MoveReasonMove)}
	case EventReturnedToDeck:
		return [][]Opcode{move(ZoneDeck, MoveReasonMove)}
	}
	if trigger == nil {
		return nil
	}
	return [][]Opcode{trigger}
}

// applyEventAny stages event on every field card.
func (e *Environment) applyEventAny(event CardEvent, source *Card) [][]Opcode {
	var out [][]Opcode
	for _, c := range e.state.FieldCards() {
		out = append(out, e.applyEvent(event, source, c)...)
	}
	return out
}
