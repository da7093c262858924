package game

import (
	"fmt"

	"github.com/peterkuimelis/shardx/internal/log"
)

// CardSnapshot is a card as one player sees it. Faces the viewer may not
// see carry only the id, timestamp and owner.
type CardSnapshot struct {
	ID        ObjectID           `json:"id"`
	Timestamp uint16             `json:"timestamp"`
	Owner     uint8              `json:"owner"`
	Archetype string             `json:"archetype,omitempty"`
	Name      string             `json:"name,omitempty"`
	Computed  *ComputedAttribute `json:"computed,omitempty"`
	Field     *FieldState        `json:"field_state,omitempty"`
	Battle    *BattleState       `json:"battle_state,omitempty"`
	Token     bool               `json:"token,omitempty"`
}

// TimedID returns the reference actions use for this card.
func (s CardSnapshot) TimedID() TimedObjectID {
	return TimedObjectID{ID: s.ID, Timestamp: s.Timestamp}
}

// PlayerSnapshot is one player's zones. The deck is a count.
type PlayerSnapshot struct {
	ID        uint8           `json:"id"`
	Life      uint32          `json:"life"`
	Deck      int             `json:"deck"`
	Hand      []CardSnapshot  `json:"hand"`
	Field     []CardSnapshot  `json:"field"`
	Graveyard []CardSnapshot  `json:"graveyard"`
	Shards    ShardList       `json:"shards"`
	Abilities []PlayerAbility `json:"abilities,omitempty"`
}

// StackSnapshot is a stack entry without its handler.
type StackSnapshot struct {
	Source TimedObjectID `json:"source"`
	ID     EffectID      `json:"id"`
}

// LocalEnvironment is the redacted game state for one viewer.
type LocalEnvironment struct {
	Player           uint8                   `json:"player"`
	Turn             uint16                  `json:"turn"`
	Phase            Phase                   `json:"phase"`
	Current          uint8                   `json:"current"`
	Players          []PlayerSnapshot        `json:"players"`
	Stack            []StackSnapshot         `json:"stack"`
	AvailableActions *PlayerAvailableActions `json:"available_actions,omitempty"`
	Endgame          EndgameState            `json:"endgame"`
	Timestamp        uint64                  `json:"timestamp"`
}

// Local builds viewer's view of the game. The legal-action set is included
// only when it belongs to viewer.
func (e *Environment) Local(viewer uint8) LocalEnvironment {
	s := e.state
	out := LocalEnvironment{
		Player:    viewer,
		Turn:      s.Turn,
		Phase:     s.Phase,
		Current:   s.Current,
		Endgame:   e.endgame,
		Timestamp: e.timestamp,
		Stack:     []StackSnapshot{},
	}
	for _, p := range s.Players {
		out.Players = append(out.Players, PlayerSnapshot{
			ID:        p.ID,
			Life:      p.Life,
			Deck:      len(p.Deck),
			Hand:      snapshots(p.Hand, viewer),
			Field:     snapshots(p.Field, viewer),
			Graveyard: snapshots(p.Graveyard, viewer),
			Shards:    p.Shards.Clone(),
			Abilities: p.Abilities.Items(),
		})
	}
	for _, item := range e.stack.Items() {
		out.Stack = append(out.Stack, StackSnapshot{Source: item.Source, ID: item.ID})
	}
	if e.last != nil && e.last.Player == viewer {
		out.AvailableActions = e.last
	}
	return out
}

// Snapshot returns c as viewer sees it.
func (c *Card) Snapshot(viewer uint8) CardSnapshot {
	s := CardSnapshot{ID: c.ID, Timestamp: c.Timestamp, Owner: c.Owner}
	if !c.RevealedTo(viewer) {
		return s
	}
	computed := c.Computed
	s.Archetype = c.Archetype.ID
	s.Name = c.Archetype.Name
	s.Computed = &computed
	s.Token = c.Token
	if c.Zone.Kind == ZoneField {
		field, battle := c.Field, c.Battle
		s.Field = &field
		s.Battle = &battle
	}
	return s
}

func snapshots(cards []*Card, viewer uint8) []CardSnapshot {
	out := make([]CardSnapshot, len(cards))
	for i, c := range cards {
		out[i] = c.Snapshot(viewer)
	}
	return out
}

// RedactLogs returns logs as viewer may see them.
func RedactLogs(logs []log.GameEvent, viewer uint8) []log.GameEvent {
	out := make([]log.GameEvent, len(logs))
	for i, ev := range logs {
		out[i] = ev.Redacted(int(viewer))
	}
	return out
}

// Redacted returns the report as viewer may see it.
func (r Report) Redacted(viewer uint8) Report {
	r.Logs = RedactLogs(r.Logs, viewer)
	if r.AvailableActions != nil && r.AvailableActions.Player != viewer {
		r.AvailableActions = nil
	}
	return r
}

// Find looks a card up in every visible zone.
func (v LocalEnvironment) Find(id TimedObjectID) (CardSnapshot, bool) {
	for _, p := range v.Players {
		for _, zone := range [][]CardSnapshot{p.Field, p.Hand, p.Graveyard} {
			for _, c := range zone {
				if c.TimedID() == id {
					return c, true
				}
			}
		}
	}
	return CardSnapshot{}, false
}

// Label is the card's display name, with its power when it has one.
func (s CardSnapshot) Label() string {
	switch {
	case s.Name == "":
		return fmt.Sprintf("hidden card #%d", s.ID)
	case s.Computed != nil && s.Computed.Power != nil:
		return fmt.Sprintf("%s (%d)", s.Name, s.Computed.CurrentPower())
	}
	return s.Name
}
