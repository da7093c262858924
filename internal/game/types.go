package game

import (
	"fmt"
	"strings"

	"github.com/peterkuimelis/shardx/internal/script"
)

// ObjectID identifies a card instance for the lifetime of a game.
type ObjectID = uint32

// TimedObjectID pins a card instance to one stay in one zone. It goes stale
// as soon as the card changes zones.
type TimedObjectID = script.CardRef

// parseEnum looks up b in the name table of a small int enum.
func parseEnum[T ~int](names []string, b []byte, kind string) (T, error) {
	for i, n := range names {
		if n == string(b) {
			return T(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, b)
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "unknown"
	}
	return names[i]
}

// --- Enums ---

type Phase int

const (
	PhaseStandby Phase = iota
	PhaseDraw
	PhaseMain
	PhaseBlock
	PhaseBattle
	PhaseEnd
)

var phaseNames = []string{"standby", "draw", "main", "block", "battle", "end"}

func (p Phase) String() string {
	switch p {
	case PhaseStandby:
		return "Standby Phase"
	case PhaseDraw:
		return "Draw Phase"
	case PhaseMain:
		return "Main Phase"
	case PhaseBlock:
		return "Block Phase"
	case PhaseBattle:
		return "Battle Phase"
	case PhaseEnd:
		return "End Phase"
	default:
		return "None"
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(enumName(phaseNames, int(p))), nil }

func (p *Phase) UnmarshalText(b []byte) (err error) {
	*p, err = parseEnum[Phase](phaseNames, b, "phase")
	return err
}

type ZoneKind int

const (
	ZoneDeck ZoneKind = iota
	ZoneHand
	ZoneField
	ZoneGraveyard
	ZoneLimbo // tokens that left the field
)

var zoneNames = []string{"deck", "hand", "field", "graveyard", "limbo"}

func (z ZoneKind) String() string { return enumName(zoneNames, int(z)) }

func (z ZoneKind) MarshalText() ([]byte, error) { return []byte(z.String()), nil }

func (z *ZoneKind) UnmarshalText(b []byte) (err error) {
	*z, err = parseEnum[ZoneKind](zoneNames, b, "zone")
	return err
}

// Zone is a player-owned card zone.
type Zone struct {
	Player uint8    `json:"player"`
	Kind   ZoneKind `json:"kind"`
}

func (z Zone) String() string {
	return fmt.Sprintf("P%d %s", z.Player+1, z.Kind)
}

type MoveReason int

const (
	MoveReasonMove MoveReason = iota
	MoveReasonDraw
	MoveReasonCasted
	MoveReasonDestroyed
	MoveReasonDiscarded
)

var moveReasonNames = []string{"move", "draw", "casted", "destroyed", "discarded"}

func (r MoveReason) String() string { return enumName(moveReasonNames, int(r)) }

type EventReason int

const (
	EventReasonBattle EventReason = iota
	EventReasonEffect
)

var eventReasonNames = []string{"battle", "effect"}

func (r EventReason) String() string { return enumName(eventReasonNames, int(r)) }

func (r EventReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *EventReason) UnmarshalText(b []byte) (err error) {
	*r, err = parseEnum[EventReason](eventReasonNames, b, "event reason")
	return err
}

type CardType int

const (
	CardTypeCreature CardType = iota
	CardTypeHex
)

var cardTypeNames = []string{"creature", "hex"}

func (t CardType) String() string { return enumName(cardTypeNames, int(t)) }

func (t CardType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *CardType) UnmarshalText(b []byte) (err error) {
	*t, err = parseEnum[CardType](cardTypeNames, b, "card type")
	return err
}

// FieldState tracks whether a field card can still attack or block this turn.
type FieldState int

const (
	FieldActive FieldState = iota
	FieldExhausted
)

var fieldStateNames = []string{"active", "exhausted"}

func (s FieldState) String() string { return enumName(fieldStateNames, int(s)) }

func (s FieldState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *FieldState) UnmarshalText(b []byte) (err error) {
	*s, err = parseEnum[FieldState](fieldStateNames, b, "field state")
	return err
}

type BattleKind int

const (
	BattleNone BattleKind = iota
	BattleAttacking
	BattleBlocking
	BattleAttacked
)

var battleKindNames = []string{"none", "attacking", "blocking", "attacked"}

func (k BattleKind) String() string { return enumName(battleKindNames, int(k)) }

func (k BattleKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *BattleKind) UnmarshalText(b []byte) (err error) {
	*k, err = parseEnum[BattleKind](battleKindNames, b, "battle state")
	return err
}

// BattleState is the per-turn combat role of a field card. Attacker is set
// only for BattleBlocking.
type BattleState struct {
	Kind     BattleKind `json:"kind"`
	Attacker ObjectID   `json:"attacker,omitempty"`
}

type EndgameReason int

const (
	EndgameConcede EndgameReason = iota
	EndgameLifeZero
	EndgameDeckOut
	EndgameSimultaneousEnd
)

var endgameReasonNames = []string{"concede", "life_zero", "deck_out", "simultaneous_end"}

func (r EndgameReason) String() string { return enumName(endgameReasonNames, int(r)) }

func (r EndgameReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *EndgameReason) UnmarshalText(b []byte) (err error) {
	*r, err = parseEnum[EndgameReason](endgameReasonNames, b, "endgame reason")
	return err
}

// EndgameState is the game result. Winner is nil for a draw.
type EndgameState struct {
	Finished bool          `json:"finished"`
	Winner   *uint8        `json:"winner,omitempty"`
	Reason   EndgameReason `json:"reason"`
}

func (s EndgameState) String() string {
	switch {
	case !s.Finished:
		return "In Progress"
	case s.Winner == nil:
		return "Draw"
	default:
		return fmt.Sprintf("Winner: P%d", *s.Winner+1)
	}
}

// PlayerEndgame is one player's outcome once decided.
type PlayerEndgame struct {
	Win    bool          `json:"win"`
	Reason EndgameReason `json:"reason"`
}

// --- Colors ---

// Color is a bitset; the zero value is colorless.
type Color uint8

const (
	ColorRed Color = 1 << iota
	ColorYellow
	ColorGreen
	ColorBlue

	ColorColorless Color = 0
)

// Colors lists the real colors in display order.
var Colors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

var colorNames = map[Color]string{ColorRed: "red", ColorYellow: "yellow", ColorGreen: "green", ColorBlue: "blue"}

func (c Color) String() string {
	if c == ColorColorless {
		return "colorless"
	}
	var parts []string
	for _, base := range Colors {
		if c&base != 0 {
			parts = append(parts, colorNames[base])
		}
	}
	return strings.Join(parts, "+")
}

func (c Color) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseColor accepts "colorless" or "+"-joined color names.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "colorless" {
		return ColorColorless, nil
	}
	var c Color
	for _, part := range strings.Split(s, "+") {
		found := false
		for base, name := range colorNames {
			if name == part {
				c |= base
				found = true
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown color %q", part)
		}
	}
	return c, nil
}

// --- Keyword abilities ---

// KeywordAbility is a named static ability on a card.
type KeywordAbility string

const (
	KeywordToxic    KeywordAbility = "toxic"
	KeywordVolatile KeywordAbility = "volatile"
	KeywordPiercing KeywordAbility = "piercing"
	KeywordStealth  KeywordAbility = "stealth"
	KeywordDevour   KeywordAbility = "devour"
)

func (k KeywordAbility) Valid() bool {
	switch k {
	case KeywordToxic, KeywordVolatile, KeywordPiercing, KeywordStealth, KeywordDevour:
		return true
	}
	return false
}

func (k *KeywordAbility) UnmarshalText(b []byte) error {
	v := KeywordAbility(b)
	if !v.Valid() {
		return fmt.Errorf("unknown keyword ability %q", b)
	}
	*k = v
	return nil
}

// AnonymousAbility is a rules flag with no keyword text.
type AnonymousAbility string

const AnonymousDefender AnonymousAbility = "defender"

func (a *AnonymousAbility) UnmarshalText(b []byte) error {
	if AnonymousAbility(b) != AnonymousDefender {
		return fmt.Errorf("unknown anonymous ability %q", b)
	}
	*a = AnonymousAbility(b)
	return nil
}
