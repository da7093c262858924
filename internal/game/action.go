package game

import (
	"cmp"
	"slices"
	"sort"
)

// ActionKind is the name of a player action.
type ActionKind string

const (
	ActionSelectCard   ActionKind = "select_card"
	ActionAttack       ActionKind = "attack"
	ActionBlock        ActionKind = "block"
	ActionCastCard     ActionKind = "cast_card"
	ActionEndTurn      ActionKind = "end_turn"
	ActionContinue     ActionKind = "continue"
	ActionConcede      ActionKind = "concede"
	ActionDebugCommand ActionKind = "debug_command"
)

// actionOrder is the display order of legal actions.
var actionOrder = map[ActionKind]int{
	ActionSelectCard: 0,
	ActionAttack:     1,
	ActionBlock:      2,
	ActionCastCard:   3,
	ActionEndTurn:    4,
	ActionContinue:   5,
}

// BlockPair assigns one blocker to one attacker.
type BlockPair struct {
	Attacker TimedObjectID `json:"attacker"`
	Blocker  TimedObjectID `json:"blocker"`
}

// Action is what a player sends to the engine.
type Action struct {
	Name      ActionKind      `json:"name"`
	Card      *TimedObjectID  `json:"card,omitempty"`      // select_card, cast_card
	Attackers []TimedObjectID `json:"attackers,omitempty"` // attack
	Pairs     []BlockPair     `json:"pairs,omitempty"`     // block
	Commands  []ActionCommand `json:"commands,omitempty"`  // debug_command
}

func CastCardAction(card TimedObjectID) Action {
	return Action{Name: ActionCastCard, Card: &card}
}

func SelectCardAction(card TimedObjectID) Action {
	return Action{Name: ActionSelectCard, Card: &card}
}

func AttackAction(attackers ...TimedObjectID) Action {
	return Action{Name: ActionAttack, Attackers: attackers}
}

func BlockAction(pairs ...BlockPair) Action {
	return Action{Name: ActionBlock, Pairs: pairs}
}

// AvailableAction is one legal action kind with its candidates.
type AvailableAction struct {
	Name      ActionKind      `json:"name"`
	Cards     []TimedObjectID `json:"cards,omitempty"`
	Attackers []TimedObjectID `json:"attackers,omitempty"`
	Blockers  []TimedObjectID `json:"blockers,omitempty"`
}

// PlayerAvailableActions is the legal-action set offered to one player.
type PlayerAvailableActions struct {
	Player       uint8             `json:"player"`
	Actions      []AvailableAction `json:"actions"`
	Instructions string            `json:"instructions,omitempty"`
}

func (p *PlayerAvailableActions) sort() {
	sort.SliceStable(p.Actions, func(i, j int) bool {
		return actionOrder[p.Actions[i].Name] < actionOrder[p.Actions[j].Name]
	})
}

// Get returns the available action of kind k.
func (p *PlayerAvailableActions) Get(k ActionKind) (AvailableAction, bool) {
	for _, a := range p.Actions {
		if a.Name == k {
			return a, true
		}
	}
	return AvailableAction{}, false
}

// Validate reports whether player may take a. Concede and debug commands
// are always accepted.
func (p *PlayerAvailableActions) Validate(player uint8, a Action) bool {
	switch a.Name {
	case ActionConcede, ActionDebugCommand:
		return true
	}
	if player != p.Player {
		return false
	}
	avail, ok := p.Get(a.Name)
	if !ok {
		return false
	}
	switch a.Name {
	case ActionSelectCard, ActionCastCard:
		return a.Card != nil && slices.Contains(avail.Cards, *a.Card)
	case ActionAttack:
		return distinct(a.Attackers) && containsAll(avail.Attackers, a.Attackers)
	case ActionBlock:
		blockers := make([]TimedObjectID, 0, len(a.Pairs))
		for _, pair := range a.Pairs {
			if !slices.Contains(avail.Attackers, pair.Attacker) {
				return false
			}
			blockers = append(blockers, pair.Blocker)
		}
		return distinct(blockers) && containsAll(avail.Blockers, blockers)
	}
	return true
}

// DefaultAction picks a trivial legal action: the oldest card for a
// selection, no attackers, no blockers, or ending the turn. Casting is
// never chosen.
func (p *PlayerAvailableActions) DefaultAction() (Action, bool) {
	for _, a := range p.Actions {
		switch a.Name {
		case ActionSelectCard:
			if len(a.Cards) == 0 {
				continue
			}
			oldest := slices.MinFunc(a.Cards, func(x, y TimedObjectID) int {
				if c := cmp.Compare(x.Timestamp, y.Timestamp); c != 0 {
					return c
				}
				return cmp.Compare(x.ID, y.ID)
			})
			return SelectCardAction(oldest), true
		case ActionAttack:
			return AttackAction(), true
		case ActionBlock:
			return BlockAction(), true
		case ActionEndTurn, ActionContinue:
			return Action{Name: a.Name}, true
		}
	}
	return Action{}, false
}

func distinct(ids []TimedObjectID) bool {
	seen := make(map[ObjectID]bool, len(ids))
	for _, id := range ids {
		if seen[id.ID] {
			return false
		}
		seen[id.ID] = true
	}
	return true
}

func containsAll(set, ids []TimedObjectID) bool {
	for _, id := range ids {
		if !slices.Contains(set, id) {
			return false
		}
	}
	return true
}
