package game

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/peterkuimelis/shardx/internal/log"
)

// TestMireAlligatorSelectFlow: the stack entry waits for a selection, is
// re-pushed once, and resolves with the chosen card.
func TestMireAlligatorSelectFlow(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"mire"}, 20), makeDeck(nil, 20), ignoreCost)
	cobra := place(t, e, 0, "wast")
	advance(t, e)
	alligator := findIn(t, e, 0, ZoneHand, "mire")

	choice := act(t, e, 0, CastCardAction(alligator.TimedID()))
	if choice == nil || choice.Player != 0 {
		t.Fatalf("expected a selection for P1, got %+v", choice)
	}
	want := []AvailableAction{{Name: ActionSelectCard, Cards: []TimedObjectID{cobra.TimedID()}}}
	if diff := cmp.Diff(want, choice.Actions); diff != "" {
		t.Errorf("actions (-want +got):\n%s", diff)
	}
	if choice.Instructions != "Choose a card to destroy" {
		t.Errorf("instructions = %q", choice.Instructions)
	}
	if n := len(e.Stack()); n != 1 {
		t.Fatalf("stack has %d entries, want the re-pushed one", n)
	}

	act(t, e, 0, SelectCardAction(cobra.TimedID()))
	p0 := e.State().Players[0]
	if !hasIn(p0, ZoneGraveyard, "wast") {
		t.Errorf("cobra not destroyed, field %v", zoneIDs(p0, ZoneField))
	}
	if len(e.Stack()) != 0 {
		t.Error("stack should be empty")
	}
	// Devour: no shard for the destroyed cobra.
	if got := p0.Shards.Get(ColorColorless); got != 1 {
		t.Errorf("colorless shards = %d, want 1", got)
	}
}

// TestMireAlligatorNoCandidates: with nothing else on the field the entry
// resolves without asking.
func TestMireAlligatorNoCandidates(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"mire"}, 20), makeDeck(nil, 20), ignoreCost)
	advance(t, e)
	alligator := findIn(t, e, 0, ZoneHand, "mire")

	next := act(t, e, 0, CastCardAction(alligator.TimedID()))
	if _, ok := next.Get(ActionEndTurn); !ok {
		t.Errorf("expected main phase actions, got %+v", next)
	}
	if alligator.Zone.Kind != ZoneField {
		t.Errorf("alligator in %s", alligator.Zone)
	}
}

// TestPyrosnailDestroyed: a destroyed Pyrosnail damages the opponent of
// its owner and grants no shard.
func TestPyrosnailDestroyed(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	coyote := place(t, e, 0, "host")
	snail := place(t, e, 1, "pyro")
	advance(t, e)

	act(t, e, 0, AttackAction(coyote.TimedID()))
	act(t, e, 1, BlockAction(BlockPair{Attacker: coyote.TimedID(), Blocker: snail.TimedID()}))

	p0, p1 := e.State().Players[0], e.State().Players[1]
	if !hasIn(p1, ZoneGraveyard, "pyro") {
		t.Fatal("snail should be destroyed")
	}
	if p0.Life != 1900 {
		t.Errorf("P1 life = %d, want 1900", p0.Life)
	}
	if got := p1.Shards.Get(ColorColorless); got != 1 {
		t.Errorf("P2 colorless shards = %d, want only the standby one", got)
	}
}

// TestVigilantLynxBoost: an opponent's cast boosts the lynx until the end
// of the turn.
func TestVigilantLynxBoost(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"mini"}, 20), makeDeck(nil, 20))
	lynx := place(t, e, 1, "vigi")
	advance(t, e)
	bear := findIn(t, e, 0, ZoneHand, "mini")

	act(t, e, 0, CastCardAction(bear.TimedID()))
	if got := lynx.Computed.CurrentPower(); got != 200 {
		t.Errorf("lynx power = %d, want 200", got)
	}
	effects := e.Continuous().Len()

	endTurn(t, e)
	if got := lynx.Computed.CurrentPower(); got != 100 {
		t.Errorf("lynx power after turn = %d, want 100", got)
	}
	if e.Continuous().Len() >= effects {
		t.Error("expired record should be collected")
	}
}

// TestVigilantLynxIgnoresOwnCasts: casting on the lynx's own side does
// nothing.
func TestVigilantLynxIgnoresOwnCasts(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"mini"}, 20), makeDeck(nil, 20))
	lynx := place(t, e, 0, "vigi")
	advance(t, e)
	bear := findIn(t, e, 0, ZoneHand, "mini")

	act(t, e, 0, CastCardAction(bear.TimedID()))
	if got := lynx.Computed.CurrentPower(); got != 100 {
		t.Errorf("lynx power = %d, want 100", got)
	}
}

// TestEvergreenPropagate: the flamingo adds one to every shard generation
// while it stays on the field.
func TestEvergreenPropagate(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"ever"}, 20), makeDeck(nil, 20))
	advance(t, e)
	flamingo := findIn(t, e, 0, ZoneHand, "ever")

	act(t, e, 0, CastCardAction(flamingo.TimedID()))
	p0 := e.State().Players[0]
	if diff := cmp.Diff([]PlayerAbility{Propagate(1)}, p0.Abilities.Items()); diff != "" {
		t.Errorf("abilities (-want +got):\n%s", diff)
	}
	if p1 := e.State().Players[1]; p1.Abilities.Len() != 0 {
		t.Errorf("P2 abilities = %v", p1.Abilities.Items())
	}

	endTurn(t, e)
	endTurn(t, e)
	if got := p0.Shards.Get(ColorColorless); got != 2 {
		t.Errorf("colorless shards = %d, want 2", got)
	}
	if got := p0.Shards.Get(ColorGreen); got != 2 {
		t.Errorf("green shards = %d, want 2", got)
	}
}

// TestBinaryStarfishToken: casting from hand creates one token copy; the
// token's own cast does not copy again.
func TestBinaryStarfishToken(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"bina"}, 20), makeDeck(nil, 20), ignoreCost)
	advance(t, e)
	starfish := findIn(t, e, 0, ZoneHand, "bina")

	act(t, e, 0, CastCardAction(starfish.TimedID()))
	p0 := e.State().Players[0]
	var tokens int
	for _, c := range p0.Field {
		if c.Archetype.ID == "bina" && c.Token {
			tokens++
		}
	}
	if len(p0.Field) != 2 || tokens != 1 {
		t.Errorf("field %v with %d tokens, want original plus one token", zoneIDs(p0, ZoneField), tokens)
	}
}

// TestCinderBoltHex: a hex needs a target to be cast, resolves through
// the stack and then leaves the field.
func TestCinderBoltHex(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"cind"}, 20), makeDeck(nil, 20), ignoreCost)
	advance(t, e)
	bolt := findIn(t, e, 0, ZoneHand, "cind")

	cast, _ := e.AvailableActions().Get(ActionCastCard)
	for _, id := range cast.Cards {
		if id == bolt.TimedID() {
			t.Fatal("bolt castable without a target")
		}
	}

	e = newTestEnv(t, makeDeck([]string{"cind"}, 20), makeDeck(nil, 20), ignoreCost)
	bear := place(t, e, 1, "mini")
	place(t, e, 1, "tung")
	advance(t, e)
	bolt = findIn(t, e, 0, ZoneHand, "cind")

	choice := act(t, e, 0, CastCardAction(bolt.TimedID()))
	sel, ok := choice.Get(ActionSelectCard)
	if !ok {
		t.Fatalf("expected a target choice, got %+v", choice)
	}
	if diff := cmp.Diff([]TimedObjectID{bear.TimedID()}, sel.Cards); diff != "" {
		t.Errorf("targets (-want +got):\n%s", diff)
	}

	act(t, e, 0, SelectCardAction(bear.TimedID()))
	p0, p1 := e.State().Players[0], e.State().Players[1]
	if !hasIn(p1, ZoneGraveyard, "mini") || !hasIn(p1, ZoneField, "tung") {
		t.Errorf("P2 field %v graveyard %v", zoneIDs(p1, ZoneField), zoneIDs(p1, ZoneGraveyard))
	}
	if !hasIn(p0, ZoneGraveyard, "cind") {
		t.Errorf("bolt should leave the field, P1 field %v", zoneIDs(p0, ZoneField))
	}
}

// TestTargetLost: selecting a card whose stay has ended is refused.
func TestTargetLost(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	bear := place(t, e, 1, "mini")
	stale := bear.TimedID()
	bear.setZone(Zone{Player: 1, Kind: ZoneField})
	if _, err := e.State().FindTimed(stale); err != nil {
		t.Fatalf("field to field keeps the stay: %v", err)
	}
	p1 := e.State().Players[1]
	p1.remove(ZoneField, bear.ID)
	bear.setZone(Zone{Player: 1, Kind: ZoneHand})
	p1.push(bear)
	if _, err := e.State().FindTimed(stale); !errors.Is(err, ErrTargetLost) {
		t.Fatalf("err = %v, want ErrTargetLost", err)
	}
}

// TestCardTargetedLogged: answering a selection logs the target.
func TestCardTargetedLogged(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"mire"}, 20), makeDeck(nil, 20), ignoreCost)
	cobra := place(t, e, 0, "wast")
	advance(t, e)
	alligator := findIn(t, e, 0, ZoneHand, "mire")
	act(t, e, 0, CastCardAction(alligator.TimedID()))

	a := SelectCardAction(cobra.TimedID())
	r := e.Process(0, &a)
	var targeted []log.GameEvent
	for _, ev := range r.Logs {
		if ev.Type == log.EventCardTargeted {
			targeted = append(targeted, ev)
		}
	}
	if len(targeted) != 1 || targeted[0].Target == nil || targeted[0].Target.ID != cobra.ID {
		t.Errorf("targeted events = %v", targeted)
	}
}
