package game

import (
	"go.uber.org/zap"
)

// ConditionKind selects how long a continuous record stays alive.
type ConditionKind int

const (
	// CondOnField lasts while the source stays on the field.
	CondOnField ConditionKind = iota
	// CondInTurn lasts until the turn changes.
	CondInTurn
	CondAlways
)

var conditionNames = []string{"on_field", "in_turn", "always"}

func (k ConditionKind) String() string { return enumName(conditionNames, int(k)) }

// Condition is the lifetime of a continuous record.
type Condition struct {
	Kind ConditionKind
	Turn uint16 // for CondInTurn
}

func OnField() Condition { return Condition{Kind: CondOnField} }

func InTurn(turn uint16) Condition { return Condition{Kind: CondInTurn, Turn: turn} }

func Always() Condition { return Condition{Kind: CondAlways} }

// Met checks the condition for a record registered by ref, whose card is
// now source.
func (c Condition) Met(state *GameState, ref TimedObjectID, source *Card) bool {
	switch c.Kind {
	case CondOnField:
		return source.Zone.Kind == ZoneField && source.Timestamp == ref.Timestamp
	case CondInTurn:
		return state.Turn == c.Turn
	default:
		return true
	}
}

// ContinuousResult is the outcome of one continuous closure. Deactivate
// turns the record off for good.
type ContinuousResult struct {
	Modifier       *ComputedAttributeModifier
	PlayerModifier *PlayerAbilityModifier
	Deactivate     bool
}

// ContinuousEffect computes modifiers for cards and players.
type ContinuousEffect interface {
	ApplyCard(state *GameState, source, target *Card) (ContinuousResult, error)
	ApplyPlayer(state *GameState, source *Card, player *Player) (ContinuousResult, error)
}

// ContinuousItem is one registered continuous record.
type ContinuousItem struct {
	Source    TimedObjectID
	Timestamp uint64
	Effect    ContinuousEffect
	Condition Condition
	Active    bool
}

// ContinuousList holds the continuous records of a game in registration
// order.
type ContinuousList struct {
	items   []*ContinuousItem
	counter uint64
	logger  *zap.Logger
}

func NewContinuousList(logger *zap.Logger) *ContinuousList {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContinuousList{logger: logger}
}

// Add stamps and appends records.
func (l *ContinuousList) Add(items ...*ContinuousItem) {
	for _, it := range items {
		l.counter++
		it.Timestamp = l.counter
		l.items = append(l.items, it)
	}
}

func (l *ContinuousList) Len() int { return len(l.items) }

// Items returns the records in registration order.
func (l *ContinuousList) Items() []*ContinuousItem {
	return append([]*ContinuousItem(nil), l.items...)
}

// live deactivates a record whose source is gone or whose condition no
// longer holds, and returns the source when the record is still active.
func (l *ContinuousList) live(state *GameState, it *ContinuousItem) (*Card, bool) {
	if !it.Active {
		return nil, false
	}
	src, err := state.FindCard(it.Source.ID)
	if err != nil || !it.Condition.Met(state, it.Source, src) {
		it.Active = false
		return nil, false
	}
	return src, true
}

// ApplyCard rebuilds card's computed attributes from its archetype and
// folds every active record into them, most recent first.
func (l *ContinuousList) ApplyCard(state *GameState, card *Card) ComputedAttribute {
	computed := newComputed(card.Archetype)
	for i := len(l.items) - 1; i >= 0; i-- {
		it := l.items[i]
		src, ok := l.live(state, it)
		if !ok {
			continue
		}
		res, err := it.Effect.ApplyCard(state, src, card)
		if err != nil {
			l.logger.Warn("continuous effect failed",
				zap.Uint32("source", it.Source.ID),
				zap.Uint32("target", card.ID),
				zap.Error(err))
			continue
		}
		if res.Deactivate {
			it.Active = false
			continue
		}
		if res.Modifier != nil {
			computed.Apply(*res.Modifier)
		}
	}
	return computed
}

// ApplyPlayer folds every active record into a fresh ability list for p.
func (l *ContinuousList) ApplyPlayer(state *GameState, p *Player) AbilityList[PlayerAbility] {
	var abilities AbilityList[PlayerAbility]
	for i := len(l.items) - 1; i >= 0; i-- {
		it := l.items[i]
		src, ok := l.live(state, it)
		if !ok {
			continue
		}
		res, err := it.Effect.ApplyPlayer(state, src, p)
		if err != nil {
			l.logger.Warn("continuous player effect failed",
				zap.Uint32("source", it.Source.ID),
				zap.Uint8("player", p.ID),
				zap.Error(err))
			continue
		}
		if res.Deactivate {
			it.Active = false
			continue
		}
		if res.PlayerModifier != nil && res.PlayerModifier.Abilities != nil {
			abilities.Modify(*res.PlayerModifier.Abilities)
		}
	}
	return abilities.clone()
}

// Update drops inactive records and records whose condition is unmet.
func (l *ContinuousList) Update(state *GameState) {
	out := l.items[:0]
	for _, it := range l.items {
		if _, ok := l.live(state, it); ok {
			out = append(out, it)
		}
	}
	for i := len(out); i < len(l.items); i++ {
		l.items[i] = nil
	}
	l.items = out
}

// shieldBroken removes one shield from its source card.
type shieldBroken struct{}

func (shieldBroken) ApplyCard(_ *GameState, source, target *Card) (ContinuousResult, error) {
	if source.ID != target.ID {
		return ContinuousResult{}, nil
	}
	return ContinuousResult{Modifier: &ComputedAttributeModifier{Shields: &Modifier{Op: OpSub, Amount: 1}}}, nil
}

func (shieldBroken) ApplyPlayer(*GameState, *Card, *Player) (ContinuousResult, error) {
	return ContinuousResult{}, nil
}
