package log

import (
	"fmt"
)

// EventType enumerates all observable game events.
type EventType int

const (
	EventGameStarted EventType = iota
	EventGameEnded
	EventTurnChanged
	EventPhaseChanged
	EventAttackDeclared
	EventCreatureAttackedCreature
	EventCreatureAttackedPlayer
	EventLifeChanged
	EventDamageTaken
	EventShardsEarned
	EventShardsSpent
	EventCardMoved
	EventCardTokenGenerated
	EventCardTokenDestroyed
	EventDeckShuffled
	EventEffectActivated
	EventCardTargeted
	EventShieldBroken
	eventTypeCount
)

func (e EventType) String() string {
	switch e {
	case EventGameStarted:
		return "GameStarted"
	case EventGameEnded:
		return "GameEnded"
	case EventTurnChanged:
		return "TurnChanged"
	case EventPhaseChanged:
		return "PhaseChanged"
	case EventAttackDeclared:
		return "AttackDeclared"
	case EventCreatureAttackedCreature:
		return "CreatureAttackedCreature"
	case EventCreatureAttackedPlayer:
		return "CreatureAttackedPlayer"
	case EventLifeChanged:
		return "LifeChanged"
	case EventDamageTaken:
		return "DamageTaken"
	case EventShardsEarned:
		return "ShardsEarned"
	case EventShardsSpent:
		return "ShardsSpent"
	case EventCardMoved:
		return "CardMoved"
	case EventCardTokenGenerated:
		return "CardTokenGenerated"
	case EventCardTokenDestroyed:
		return "CardTokenDestroyed"
	case EventDeckShuffled:
		return "DeckShuffled"
	case EventEffectActivated:
		return "EffectActivated"
	case EventCardTargeted:
		return "CardTargeted"
	case EventShieldBroken:
		return "ShieldBroken"
	default:
		return "Unknown"
	}
}

func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

func (e *EventType) UnmarshalText(b []byte) error {
	for t := EventType(0); t < eventTypeCount; t++ {
		if t.String() == string(b) {
			*e = t
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", b)
}

// CardInfo is the snapshot of a card carried by an event.
type CardInfo struct {
	ID        uint32 `json:"id"`
	Timestamp uint16 `json:"timestamp"`
	Owner     int    `json:"owner"`
	Archetype string `json:"archetype,omitempty"`
	Name      string `json:"name,omitempty"`
	// Visible is a bitmask of the players allowed to see the card face.
	Visible uint8 `json:"-"`
}

// VisibleTo reports whether player p may see the card face.
func (c *CardInfo) VisibleTo(p int) bool {
	return c.Visible&(1<<uint(p)) != 0
}

func (c *CardInfo) redacted(viewer int) *CardInfo {
	if c == nil || c.VisibleTo(viewer) {
		return c
	}
	return &CardInfo{ID: c.ID, Timestamp: c.Timestamp, Owner: c.Owner, Visible: c.Visible}
}

func (c *CardInfo) label() string {
	switch {
	case c == nil:
		return "?"
	case c.Name != "":
		return c.Name
	default:
		return fmt.Sprintf("hidden card #%d", c.ID)
	}
}

// GameEvent represents a single observable event in a game.
type GameEvent struct {
	Seq      int       `json:"seq"`             // monotonic sequence number
	Turn     int       `json:"turn"`            // which turn (1-based, 0 during setup)
	Phase    string    `json:"phase,omitempty"` // current phase name
	Player   int       `json:"player"`          // acting or affected player
	Type     EventType `json:"type"`
	Card     *CardInfo `json:"card,omitempty"`
	Target   *CardInfo `json:"target,omitempty"`
	From     string    `json:"from,omitempty"`
	To       string    `json:"to,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Amount   int       `json:"amount,omitempty"`
	Color    string    `json:"color,omitempty"`
	EffectID string    `json:"effect_id,omitempty"`
	Winner   *int      `json:"winner,omitempty"`
	Details  string    `json:"details"` // human-readable detail string
}

// Redacted returns the event as seen by viewer: card faces hidden from the
// viewer are stripped and Details is rebuilt.
func (e GameEvent) Redacted(viewer int) GameEvent {
	card, target := e.Card.redacted(viewer), e.Target.redacted(viewer)
	if card == e.Card && target == e.Target {
		return e
	}
	e.Card, e.Target = card, target
	e.Details = describe(e)
	return e
}

func describe(e GameEvent) string {
	switch e.Type {
	case EventGameStarted:
		return "Game started"
	case EventGameEnded:
		if e.Winner == nil {
			return fmt.Sprintf("Game ended in a draw (%s)", e.Reason)
		}
		return fmt.Sprintf("%s wins! (%s)", playerName(*e.Winner), e.Reason)
	case EventTurnChanged:
		return fmt.Sprintf("=== Turn %d (%s) ===", e.Turn, playerName(e.Player))
	case EventPhaseChanged:
		return fmt.Sprintf("Phase → %s", e.Phase)
	case EventAttackDeclared:
		return fmt.Sprintf("%s declares an attack with %s", playerName(e.Player), e.Card.label())
	case EventCreatureAttackedCreature:
		return fmt.Sprintf("%s attacks %s", e.Card.label(), e.Target.label())
	case EventCreatureAttackedPlayer:
		return fmt.Sprintf("%s attacks %s directly", e.Card.label(), playerName(e.Player))
	case EventLifeChanged:
		return fmt.Sprintf("%s life: %d", playerName(e.Player), e.Amount)
	case EventDamageTaken:
		return fmt.Sprintf("%s takes %d damage", playerName(e.Player), e.Amount)
	case EventShardsEarned:
		if e.Card == nil {
			return fmt.Sprintf("%s earns %d %s shard(s)", playerName(e.Player), e.Amount, e.Color)
		}
		return fmt.Sprintf("%s earns %d %s shard(s) from %s", playerName(e.Player), e.Amount, e.Color, e.Card.label())
	case EventShardsSpent:
		return fmt.Sprintf("%s spends %d %s shard(s) on %s", playerName(e.Player), e.Amount, e.Color, e.Card.label())
	case EventCardMoved:
		return fmt.Sprintf("%s: %s → %s (%s)", e.Card.label(), e.From, e.To, e.Reason)
	case EventCardTokenGenerated:
		return fmt.Sprintf("Token %s is generated for %s", e.Card.label(), playerName(e.Player))
	case EventCardTokenDestroyed:
		return fmt.Sprintf("Token %s leaves the game", e.Card.label())
	case EventDeckShuffled:
		return fmt.Sprintf("%s shuffled their deck", playerName(e.Player))
	case EventEffectActivated:
		return fmt.Sprintf("%s activates %q", e.Card.label(), e.EffectID)
	case EventCardTargeted:
		return fmt.Sprintf("%s targets %s", e.Card.label(), e.Target.label())
	case EventShieldBroken:
		return fmt.Sprintf("A shield of %s is broken", e.Card.label())
	}
	return e.Type.String()
}

// --- Helper constructors for common events ---

func newEvent(turn int, phase string, player int, t EventType) GameEvent {
	return GameEvent{Turn: turn, Phase: phase, Player: player, Type: t}
}

func finish(e GameEvent) GameEvent {
	e.Details = describe(e)
	return e
}

func NewGameStartedEvent() GameEvent {
	return finish(newEvent(0, "", 0, EventGameStarted))
}

func NewGameEndedEvent(turn int, phase string, winner *int, reason string) GameEvent {
	e := newEvent(turn, phase, 0, EventGameEnded)
	if winner != nil {
		w := *winner
		e.Winner = &w
		e.Player = w
	}
	e.Reason = reason
	return finish(e)
}

func NewTurnEvent(turn int, phase string, player int) GameEvent {
	return finish(newEvent(turn, phase, player, EventTurnChanged))
}

func NewPhaseChangeEvent(turn int, phase string, player int) GameEvent {
	return finish(newEvent(turn, phase, player, EventPhaseChanged))
}

func NewAttackDeclaredEvent(turn int, phase string, player int, attacker CardInfo) GameEvent {
	e := newEvent(turn, phase, player, EventAttackDeclared)
	e.Card = &attacker
	return finish(e)
}

func NewCreatureAttackedCreatureEvent(turn int, phase string, player int, attacker, blocker CardInfo) GameEvent {
	e := newEvent(turn, phase, player, EventCreatureAttackedCreature)
	e.Card, e.Target = &attacker, &blocker
	return finish(e)
}

// NewCreatureAttackedPlayerEvent records a direct attack; player is the one attacked.
func NewCreatureAttackedPlayerEvent(turn int, phase string, player int, attacker CardInfo) GameEvent {
	e := newEvent(turn, phase, player, EventCreatureAttackedPlayer)
	e.Card = &attacker
	return finish(e)
}

func NewLifeChangeEvent(turn int, phase string, player int, life int) GameEvent {
	e := newEvent(turn, phase, player, EventLifeChanged)
	e.Amount = life
	return finish(e)
}

func NewDamageEvent(turn int, phase string, player int, amount int) GameEvent {
	e := newEvent(turn, phase, player, EventDamageTaken)
	e.Amount = amount
	return finish(e)
}

// NewShardsEarnedEvent records generated shards. source is nil for the
// standby phase income.
func NewShardsEarnedEvent(turn int, phase string, player int, source *CardInfo, color string, amount int) GameEvent {
	e := newEvent(turn, phase, player, EventShardsEarned)
	e.Card, e.Color, e.Amount = source, color, amount
	return finish(e)
}

func NewShardsSpentEvent(turn int, phase string, player int, source CardInfo, color string, amount int) GameEvent {
	e := newEvent(turn, phase, player, EventShardsSpent)
	e.Card, e.Color, e.Amount = &source, color, amount
	return finish(e)
}

func NewCardMovedEvent(turn int, phase string, player int, card CardInfo, from, to, reason string) GameEvent {
	e := newEvent(turn, phase, player, EventCardMoved)
	e.Card, e.From, e.To, e.Reason = &card, from, to, reason
	return finish(e)
}

func NewTokenGeneratedEvent(turn int, phase string, player int, card CardInfo) GameEvent {
	e := newEvent(turn, phase, player, EventCardTokenGenerated)
	e.Card = &card
	return finish(e)
}

func NewTokenDestroyedEvent(turn int, phase string, player int, card CardInfo) GameEvent {
	e := newEvent(turn, phase, player, EventCardTokenDestroyed)
	e.Card = &card
	return finish(e)
}

func NewShuffleEvent(turn int, phase string, player int) GameEvent {
	return finish(newEvent(turn, phase, player, EventDeckShuffled))
}

func NewEffectActivatedEvent(turn int, phase string, player int, source CardInfo, id string) GameEvent {
	e := newEvent(turn, phase, player, EventEffectActivated)
	e.Card, e.EffectID = &source, id
	return finish(e)
}

func NewCardTargetedEvent(turn int, phase string, player int, source, target CardInfo) GameEvent {
	e := newEvent(turn, phase, player, EventCardTargeted)
	e.Card, e.Target = &source, &target
	return finish(e)
}

func NewShieldBrokenEvent(turn int, phase string, player int, card CardInfo) GameEvent {
	e := newEvent(turn, phase, player, EventShieldBroken)
	e.Card = &card
	return finish(e)
}
