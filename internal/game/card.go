package game

import (
	"fmt"

	"github.com/peterkuimelis/shardx/internal/log"
)

// allPlayers is the reveal mask for public zones.
const allPlayers uint8 = 0xff

// Card is one card instance in a game.
type Card struct {
	ID        ObjectID
	Owner     uint8
	Zone      Zone
	Archetype *Archetype
	Computed  ComputedAttribute
	Effect    Effect
	Revealed  uint8 // bitmask of players that may see the face
	Timestamp uint16
	Token     bool
	Field     FieldState
	Battle    BattleState
}

func newCard(id ObjectID, owner uint8, a *Archetype) *Card {
	return &Card{
		ID:        id,
		Owner:     owner,
		Zone:      Zone{Player: owner, Kind: ZoneDeck},
		Archetype: a,
		Computed:  newComputed(a),
		Effect:    a.NewEffect(),
		Token:     a.Token,
	}
}

// TimedID pins the card to its current stay in its zone.
func (c *Card) TimedID() TimedObjectID {
	return TimedObjectID{ID: c.ID, Timestamp: c.Timestamp}
}

// Controller is the player whose zone holds the card.
func (c *Card) Controller() uint8 { return c.Zone.Player }

func (c *Card) EventFilter() EventFilter {
	if c.Effect == nil {
		return 0
	}
	return c.Effect.EventFilter()
}

func (c *Card) RevealedTo(p uint8) bool { return c.Revealed&(1<<p) != 0 }

// Targetable is false for stealth cards on the field.
func (c *Card) Targetable() bool {
	return !(c.Zone.Kind == ZoneField && c.Computed.Has(KeywordStealth))
}

// setZone moves the card's bookkeeping to z. Every zone change except
// field to field starts a new stay: the timestamp advances and the
// computed attributes return to the archetype's.
func (c *Card) setZone(z Zone) {
	switch z.Kind {
	case ZoneHand:
		c.Revealed |= 1 << z.Player
	case ZoneField, ZoneGraveyard:
		c.Revealed = allPlayers
	}
	if c.Zone.Kind != ZoneField || z.Kind != ZoneField {
		c.Timestamp++
		c.Computed = newComputed(c.Archetype)
		c.Field = FieldActive
		c.Battle = BattleState{}
	}
	c.Zone = z
}

// Info is the log snapshot of the card.
func (c *Card) Info() log.CardInfo {
	return log.CardInfo{
		ID:        c.ID,
		Timestamp: c.Timestamp,
		Owner:     int(c.Owner),
		Archetype: c.Archetype.ID,
		Name:      c.Archetype.Name,
		Visible:   c.Revealed,
	}
}

func (c *Card) infoPtr() *log.CardInfo {
	if c == nil {
		return nil
	}
	info := c.Info()
	return &info
}

// String is the card name with its id, for diagnostics.
func (c *Card) String() string {
	return fmt.Sprintf("%s#%d", c.Archetype.Name, c.ID)
}
