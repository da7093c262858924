package game

import (
	"cmp"
	"fmt"
	"slices"
)

// processPlayerPhase stages the opcode batches for the current phase,
// given the acting player's answer (nil if none).
func (e *Environment) processPlayerPhase(action *Action) ([][]Opcode, error) {
	s := e.state
	if s.Turn == 0 {
		return e.initialize(), nil
	}

	// Hexes resolve through the stack and leave the field once nothing
	// on the stack refers to them.
	var used []Opcode
	for _, c := range s.FieldCards() {
		if c.Computed.IsHex() && !e.stack.HasSource(c.ID) {
			used = append(used, OpMoveCard{
				Card:   c.ID,
				From:   c.Zone,
				To:     Zone{Player: c.Owner, Kind: ZoneGraveyard},
				Reason: MoveReasonMove,
			})
		}
	}
	if len(used) > 0 {
		return [][]Opcode{used}, nil
	}

	current := s.CurrentPlayer()
	switch s.Phase {
	case PhaseStandby:
		return e.standby(current), nil

	case PhaseDraw:
		return [][]Opcode{{OpDrawCard{Player: current.ID}, OpChangePhase{Phase: PhaseMain}}}, nil

	case PhaseMain:
		if action == nil {
			return nil, nil
		}
		switch action.Name {
		case ActionCastCard:
			return e.castCard(current, action)
		case ActionAttack:
			var batch []Opcode
			for _, id := range action.Attackers {
				c, err := s.FindTimed(id)
				if err != nil {
					return nil, err
				}
				batch = append(batch, OpSetBattleState{Card: c.ID, State: BattleState{Kind: BattleAttacking}})
			}
			return [][]Opcode{append(batch, OpChangePhase{Phase: PhaseBlock})}, nil
		case ActionEndTurn:
			return [][]Opcode{{OpResetBattleState{}, OpChangePhase{Phase: PhaseEnd}}}, nil
		}
		return nil, nil

	case PhaseBlock:
		if len(attackingCards(current)) == 0 {
			return [][]Opcode{{OpChangePhase{Phase: PhaseBattle}}}, nil
		}
		if action == nil {
			return nil, nil
		}
		defender, err := s.Player(s.NextPlayer(current.ID))
		if err != nil {
			return nil, err
		}
		switch action.Name {
		case ActionBlock:
			var batch []Opcode
			for _, pair := range action.Pairs {
				attacker, err := s.FindTimed(pair.Attacker)
				if err != nil {
					return nil, err
				}
				blocker, err := s.FindTimed(pair.Blocker)
				if err != nil {
					return nil, err
				}
				batch = append(batch, OpSetBattleState{
					Card:  blocker.ID,
					State: BattleState{Kind: BattleBlocking, Attacker: attacker.ID},
				})
			}
			return [][]Opcode{append(batch, OpChangePhase{Phase: PhaseBattle})}, nil
		case ActionCastCard:
			return e.castCard(defender, action)
		}
		return nil, nil

	case PhaseBattle:
		defender, err := s.Player(s.NextPlayer(current.ID))
		if err != nil {
			return nil, err
		}
		return e.battle(current, defender), nil

	case PhaseEnd:
		if action != nil && action.Name == ActionSelectCard && action.Card != nil {
			card, err := s.FindTimed(*action.Card)
			if err != nil {
				return nil, err
			}
			return [][]Opcode{{OpMoveCard{
				Card:   card.ID,
				From:   Zone{Player: current.ID, Kind: ZoneHand},
				To:     Zone{Player: current.ID, Kind: ZoneGraveyard},
				Reason: MoveReasonDiscarded,
			}}}, nil
		}
		if len(current.Hand) > s.Regulation.MaxHandSize {
			return nil, nil
		}
		return [][]Opcode{{OpChangeTurn{Turn: s.Turn + 1, Player: s.NextPlayer(current.ID), Phase: PhaseStandby}}}, nil
	}
	return nil, fmt.Errorf("unknown phase %d", s.Phase)
}

func (e *Environment) initialize() [][]Opcode {
	s := e.state
	batch := []Opcode{OpStartGame{}}
	for _, p := range s.Players {
		batch = append(batch, OpSetLife{Player: p.ID, Life: s.Regulation.InitialLife})
	}
	if !s.Debug.NoDeckShuffle {
		for _, p := range s.Players {
			batch = append(batch, OpShuffleDeck{Player: p.ID})
		}
	}
	for _, p := range s.Players {
		for i := 0; i < s.Regulation.InitialHandSize; i++ {
			batch = append(batch, OpDrawCard{Player: p.ID})
		}
	}
	batch = append(batch, OpChangeTurn{Turn: 1, Player: e.firstPlayer, Phase: PhaseStandby})
	return [][]Opcode{batch}
}

// standby grants one colorless shard plus one shard of each color among
// the player's field creatures.
func (e *Environment) standby(p *Player) [][]Opcode {
	batch := []Opcode{
		OpResetPlayerState{Player: p.ID},
		OpGenerateShards{Player: p.ID, Color: ColorColorless, Amount: 1},
	}
	var colors []Color
	for _, c := range p.Field {
		color := c.Computed.Color
		if c.Computed.IsCreature() && color != ColorColorless && !slices.Contains(colors, color) {
			colors = append(colors, color)
		}
	}
	slices.Sort(colors)
	for _, color := range colors {
		batch = append(batch, OpGenerateShards{Player: p.ID, Color: color, Amount: 1})
	}
	return [][]Opcode{append(batch, OpChangePhase{Phase: PhaseDraw})}
}

// castCard pays for and casts a card from p's hand, then stages the
// Casted event for the card and AnyCasted for every field card.
func (e *Environment) castCard(p *Player, action *Action) ([][]Opcode, error) {
	if action.Card == nil {
		return nil, fmt.Errorf("cast without card: %w", ErrInvalidAction)
	}
	card, err := e.state.FindTimed(*action.Card)
	if err != nil {
		return nil, err
	}
	if card.Zone != (Zone{Player: p.ID, Kind: ZoneHand}) {
		return nil, fmt.Errorf("cast %s from %s: %w", card, card.Zone, ErrAlreadyCast)
	}
	cost := card.Computed.Cost.Value()
	var batch []Opcode
	if !e.state.Debug.IgnoreCost && cost > 0 {
		if avail := p.Shards.Available(card.Computed.Color); avail < uint32(cost) {
			return nil, fmt.Errorf("cast %s: %d needed, %d available: %w", card, cost, avail, ErrInsufficientShards)
		}
		batch = append(batch, OpConsumeShards{Player: p.ID, Source: card.ID, Color: card.Computed.Color, Amount: uint32(cost)})
	}
	batch = append(batch, OpCastCard{Player: p.ID, Card: card.ID, Cost: cost})
	out := [][]Opcode{batch}
	out = append(out, e.applyEvent(Casted(card.Zone), card, card)...)
	return append(out, e.applyEventAny(CardEvent{Kind: EventAnyCasted, From: card.Zone}, card)...), nil
}

func attackingCards(p *Player) []*Card {
	var out []*Card
	for _, c := range p.Field {
		if c.Battle.Kind == BattleAttacking {
			out = append(out, c)
		}
	}
	return out
}

func findBlocker(p *Player, attacker ObjectID) *Card {
	for _, c := range p.Field {
		if c.Battle.Kind == BattleBlocking && c.Battle.Attacker == attacker {
			return c
		}
	}
	return nil
}

// battle resolves one attacker per call: blocked attackers first, then by
// timestamp.
func (e *Environment) battle(current, defender *Player) [][]Opcode {
	attackers := attackingCards(current)
	if len(attackers) == 0 {
		if !e.stack.IsEmpty() {
			return nil
		}
		return [][]Opcode{{OpResetBattleState{}, OpChangePhase{Phase: PhaseEnd}}}
	}
	blockedRank := func(c *Card) int {
		if findBlocker(defender, c.ID) != nil {
			return 0
		}
		return 1
	}
	attacker := slices.MinFunc(attackers, func(a, b *Card) int {
		if c := cmp.Compare(blockedRank(a), blockedRank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a.Timestamp, b.Timestamp)
	})
	blocker := findBlocker(defender, attacker.ID)
	power := attacker.Computed.CurrentPower()

	var out [][]Opcode
	out = append(out, e.applyEvent(CardEvent{Kind: EventAttacking}, attacker, attacker)...)
	attack := OpAttack{Attacker: attacker.ID, Player: defender.ID}
	if blocker != nil {
		attack.Blocker = blocker.ID
	}
	out = append(out, []Opcode{
		attack,
		OpSetBattleState{Card: attacker.ID, State: BattleState{Kind: BattleAttacked}},
		OpSetFieldState{Card: attacker.ID, State: FieldExhausted},
	})

	if blocker == nil && power > 0 {
		out = append(out, []Opcode{OpInflictDamage{Player: defender.ID, Amount: power}})
		out = append(out, e.applyEvent(DealtDamage(defender.ID, power, EventReasonBattle), attacker, attacker)...)
	}

	if blocker != nil {
		out = append(out, e.applyEvent(CardEvent{Kind: EventBlocking}, blocker, blocker)...)
		blockerPower := blocker.Computed.CurrentPower()
		var destroyed []Opcode
		if (blockerPower > 0 && power <= blockerPower) || blocker.Computed.Has(KeywordToxic) {
			destroyed = append(destroyed, e.battleDestroy(blocker, attacker)...)
		}
		if (power > 0 && blockerPower <= power) || attacker.Computed.Has(KeywordToxic) {
			destroyed = append(destroyed, e.battleDestroy(attacker, blocker)...)
		}
		if len(destroyed) > 0 {
			out = append(out, destroyed)
		}
	}

	return append(out, e.applyEvent(CardEvent{Kind: EventAttacked}, attacker, attacker)...)
}

func (e *Environment) battleDestroy(source, target *Card) []Opcode {
	src, tgt := source.TimedID(), target.TimedID()
	batches, err := e.commandOpcodes(ActionCommand{Name: CmdDestroyCard, Source: &src, Target: &tgt, Reason: EventReasonBattle})
	if err != nil {
		return nil
	}
	return slices.Concat(batches...)
}
