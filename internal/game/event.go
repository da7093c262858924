package game

import (
	"github.com/peterkuimelis/shardx/internal/script"
)

// CardEventKind is a game event a card effect can react to.
type CardEventKind int

const (
	EventCasted CardEventKind = iota
	EventDestroyed
	EventReturnedToHand
	EventReturnedToDeck
	EventDealtDamage
	EventAttacking
	EventBlocking
	EventAttacked
	EventAnyCasted
)

var cardEventNames = []string{
	"casted", "destroyed", "returned_to_hand", "returned_to_deck",
	"dealt_damage", "attacking", "blocking", "attacked", "any_casted",
}

// CardEventKinds lists every kind in declaration order.
var CardEventKinds = []CardEventKind{
	EventCasted, EventDestroyed, EventReturnedToHand, EventReturnedToDeck,
	EventDealtDamage, EventAttacking, EventBlocking, EventAttacked, EventAnyCasted,
}

func (k CardEventKind) String() string { return enumName(cardEventNames, int(k)) }

// Filter is the single-bit filter matching k.
func (k CardEventKind) Filter() EventFilter { return 1 << uint(k) }

// EventFilter is a bitset of CardEventKinds.
type EventFilter uint16

func (f EventFilter) Contains(k CardEventKind) bool { return f&k.Filter() != 0 }

// CardEvent is one occurrence of an event. Only the fields relevant to the
// kind are set: From for casts, Reason for destruction and returns,
// Player, Amount and Reason for dealt damage.
type CardEvent struct {
	Kind   CardEventKind
	From   Zone
	Reason EventReason
	Player uint8
	Amount uint32
}

func Casted(from Zone) CardEvent { return CardEvent{Kind: EventCasted, From: from} }

func Destroyed(reason EventReason) CardEvent { return CardEvent{Kind: EventDestroyed, Reason: reason} }

func DealtDamage(player uint8, amount uint32, reason EventReason) CardEvent {
	return CardEvent{Kind: EventDealtDamage, Player: player, Amount: amount, Reason: reason}
}

// Value is the event as passed to on_<event> handlers.
func (e CardEvent) Value() script.Value {
	obj := map[string]script.Value{"name": script.String(e.Kind.String())}
	switch e.Kind {
	case EventCasted, EventAnyCasted:
		obj["from"] = script.Object(map[string]script.Value{
			"player": script.Player(script.PlayerRef(e.From.Player)),
			"kind":   script.String(e.From.Kind.String()),
		})
	case EventDestroyed, EventReturnedToHand, EventReturnedToDeck:
		obj["reason"] = script.String(e.Reason.String())
	case EventDealtDamage:
		obj["player"] = script.Player(script.PlayerRef(e.Player))
		obj["amount"] = script.U64(uint64(e.Amount))
		obj["reason"] = script.String(e.Reason.String())
	}
	return script.Object(obj)
}
