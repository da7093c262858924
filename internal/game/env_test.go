package game

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/peterkuimelis/shardx/internal/log"
)

// TestInitialization: the first decision is player 1's main phase with
// opening hands dealt and the standby shard granted.
func TestInitialization(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	actions := advance(t, e)

	s := e.State()
	if s.Turn != 1 || s.Phase != PhaseMain || s.Current != 0 {
		t.Fatalf("turn %d %s current P%d, want turn 1 main P1", s.Turn, s.Phase, s.Current+1)
	}
	if actions == nil || actions.Player != 0 {
		t.Fatalf("expected actions for P1, got %+v", actions)
	}
	p0, p1 := s.Players[0], s.Players[1]
	if len(p0.Hand) != 5 || len(p1.Hand) != 4 {
		t.Errorf("hands %d/%d, want 5/4", len(p0.Hand), len(p1.Hand))
	}
	if len(p0.Deck) != 15 || len(p1.Deck) != 16 {
		t.Errorf("decks %d/%d, want 15/16", len(p0.Deck), len(p1.Deck))
	}
	if p0.Life != 2000 || p1.Life != 2000 {
		t.Errorf("life %d/%d, want 2000/2000", p0.Life, p1.Life)
	}
	if got := p0.Shards.Get(ColorColorless); got != 1 {
		t.Errorf("P1 colorless shards = %d, want 1", got)
	}
	if _, ok := actions.Get(ActionEndTurn); !ok {
		t.Error("expected end_turn in main phase")
	}
}

// TestCastInsufficientShards: a card the player cannot pay for is not
// offered, and casting it anyway is rejected without changing anything.
func TestCastInsufficientShards(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"tung"}, 20), makeDeck(nil, 20))
	actions := advance(t, e)
	rhino := findIn(t, e, 0, ZoneHand, "tung")

	cast, _ := actions.Get(ActionCastCard)
	for _, id := range cast.Cards {
		if id == rhino.TimedID() {
			t.Fatal("Tungsten Rhino should not be castable with 1 shard")
		}
	}

	a := CastCardAction(rhino.TimedID())
	r := e.Process(0, &a)
	if r.AvailableActions != actions {
		t.Error("rejected action should return the same legal-action set")
	}
	if rhino.Zone.Kind != ZoneHand {
		t.Errorf("rhino moved to %s", rhino.Zone)
	}

	_, err := e.castCard(e.State().Players[0], &a)
	if !errors.Is(err, ErrInsufficientShards) {
		t.Errorf("castCard error = %v, want ErrInsufficientShards", err)
	}
}

// TestInvalidActionReturnsSameSet: an action from the wrong player changes
// nothing.
func TestInvalidActionReturnsSameSet(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	actions := advance(t, e)
	before := e.timestamp

	a := Action{Name: ActionEndTurn}
	r := e.Process(1, &a)
	if r.AvailableActions != actions {
		t.Error("expected the previous legal-action set")
	}
	if len(r.Logs) != 0 || e.timestamp != before {
		t.Error("rejected action must not tick the game")
	}
	if e.State().Phase != PhaseMain {
		t.Errorf("phase = %s", e.State().Phase)
	}
}

// TestUnblockedAttack: an unblocked creature damages the defender.
func TestUnblockedAttack(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"mini"}, 20), makeDeck(nil, 20))
	advance(t, e)
	bear := findIn(t, e, 0, ZoneHand, "mini")

	act(t, e, 0, CastCardAction(bear.TimedID()))
	if bear.Zone.Kind != ZoneField {
		t.Fatalf("bear in %s, want field", bear.Zone)
	}

	blockPhase := act(t, e, 0, AttackAction(bear.TimedID()))
	if blockPhase == nil || blockPhase.Player != 1 {
		t.Fatalf("expected block decision for P2, got %+v", blockPhase)
	}
	block, ok := blockPhase.Get(ActionBlock)
	if !ok {
		t.Fatal("no block action offered")
	}
	if diff := cmp.Diff([]TimedObjectID{bear.TimedID()}, block.Attackers); diff != "" {
		t.Errorf("attackers (-want +got):\n%s", diff)
	}

	act(t, e, 1, BlockAction())
	s := e.State()
	if s.Players[1].Life != 1900 {
		t.Errorf("P2 life = %d, want 1900", s.Players[1].Life)
	}
	if s.Turn != 2 || s.Current != 1 {
		t.Errorf("turn %d current P%d, want turn 2 P2", s.Turn, s.Current+1)
	}
	if bear.Field != FieldExhausted || bear.Battle.Kind != BattleNone {
		t.Errorf("bear field %s battle %s", bear.Field, bear.Battle.Kind)
	}
}

// TestBlockedCombat: the weaker blocker is destroyed and its owner earns a
// colorless shard.
func TestBlockedCombat(t *testing.T) {
	e := newTestEnv(t, makeDeck([]string{"host"}, 20), makeDeck([]string{"quag"}, 20), ignoreCost)
	advance(t, e)
	coyote := findIn(t, e, 0, ZoneHand, "host")
	act(t, e, 0, CastCardAction(coyote.TimedID()))
	endTurn(t, e)

	trilobite := findIn(t, e, 1, ZoneHand, "quag")
	act(t, e, 1, CastCardAction(trilobite.TimedID()))
	endTurn(t, e)

	act(t, e, 0, AttackAction(coyote.TimedID()))
	act(t, e, 1, BlockAction(BlockPair{Attacker: coyote.TimedID(), Blocker: trilobite.TimedID()}))

	p0, p1 := e.State().Players[0], e.State().Players[1]
	if !hasIn(p1, ZoneGraveyard, "quag") {
		t.Errorf("trilobite not destroyed, P2 field %v", zoneIDs(p1, ZoneField))
	}
	if !hasIn(p0, ZoneField, "host") {
		t.Error("coyote should survive")
	}
	if p1.Life != 2000 {
		t.Errorf("P2 life = %d, blocked damage must not go through", p1.Life)
	}
	// Two standby shards plus one for the destroyed trilobite.
	if got := p1.Shards.Get(ColorColorless); got != 3 {
		t.Errorf("P2 colorless shards = %d, want 3", got)
	}
}

// TestToxicBlockerTrades: a toxic blocker destroys a stronger attacker.
func TestToxicBlockerTrades(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	rhino := place(t, e, 0, "tung")
	droid := place(t, e, 1, "oill")
	advance(t, e)

	act(t, e, 0, AttackAction(rhino.TimedID()))
	act(t, e, 1, BlockAction(BlockPair{Attacker: rhino.TimedID(), Blocker: droid.TimedID()}))

	p0, p1 := e.State().Players[0], e.State().Players[1]
	if !hasIn(p0, ZoneGraveyard, "tung") || !hasIn(p1, ZoneGraveyard, "oill") {
		t.Errorf("graveyards P1 %v P2 %v, want both destroyed", zoneIDs(p0, ZoneGraveyard), zoneIDs(p1, ZoneGraveyard))
	}
}

// TestShieldAbsorbsDestroy: a shield is broken instead of the card.
func TestShieldAbsorbsDestroy(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	coyote := place(t, e, 0, "host")
	lynx := place(t, e, 1, "vigi")
	advance(t, e)

	act(t, e, 0, AttackAction(coyote.TimedID()))
	act(t, e, 1, BlockAction(BlockPair{Attacker: coyote.TimedID(), Blocker: lynx.TimedID()}))

	if lynx.Zone.Kind != ZoneField {
		t.Fatalf("lynx in %s, want field", lynx.Zone)
	}
	if got := lynx.Computed.CurrentShields(); got != 0 {
		t.Errorf("lynx shields = %d, want 0", got)
	}
}

// TestPiercingIgnoresShield: a piercing attacker destroys a shielded
// blocker outright.
func TestPiercingIgnoresShield(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	pecker := place(t, e, 0, "orep")
	lynx := place(t, e, 1, "vigi")
	advance(t, e)

	act(t, e, 0, AttackAction(pecker.TimedID()))
	act(t, e, 1, BlockAction(BlockPair{Attacker: pecker.TimedID(), Blocker: lynx.TimedID()}))

	p1 := e.State().Players[1]
	if !hasIn(p1, ZoneGraveyard, "vigi") {
		t.Errorf("lynx should be destroyed, P2 field %v", zoneIDs(p1, ZoneField))
	}
}

// TestConcede: conceding ends the game for the other player.
func TestConcede(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	advance(t, e)

	a := Action{Name: ActionConcede}
	r := e.Process(1, &a)
	want := EndgameState{Finished: true, Winner: ptr[uint8](0), Reason: EndgameConcede}
	if diff := cmp.Diff(want, r.Endgame); diff != "" {
		t.Errorf("endgame (-want +got):\n%s", diff)
	}
	if len(r.Logs) != 1 || r.Logs[0].Type != log.EventGameEnded {
		t.Errorf("expected one GameEnded event, got %v", r.Logs)
	}
	if r.AvailableActions != nil {
		t.Error("no actions after the game ends")
	}
}

// TestDeckOut: drawing from an empty deck loses.
func TestDeckOut(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 4), makeDeck(nil, 20))
	advance(t, e)

	want := EndgameState{Finished: true, Winner: ptr[uint8](1), Reason: EndgameDeckOut}
	if diff := cmp.Diff(want, e.Endgame()); diff != "" {
		t.Errorf("endgame (-want +got):\n%s", diff)
	}
}

// TestDebugDamageToZero: debug commands run immediately and zero life
// ends the game.
func TestDebugDamageToZero(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20), func(cfg *EnvironmentConfig) {
		cfg.Debug.DebugCommand = true
	})
	advance(t, e)

	a := Action{Name: ActionDebugCommand, Commands: []ActionCommand{{Name: CmdInflictDamage, Player: 1, Amount: 5000}}}
	r := e.Process(0, &a)
	if e.State().Players[1].Life != 0 {
		t.Errorf("P2 life = %d, want 0", e.State().Players[1].Life)
	}
	want := EndgameState{Finished: true, Winner: ptr[uint8](0), Reason: EndgameLifeZero}
	if diff := cmp.Diff(want, r.Endgame); diff != "" {
		t.Errorf("endgame (-want +got):\n%s", diff)
	}
}

// TestDebugCommandDisabled: without the debug flag the command is ignored.
func TestDebugCommandDisabled(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	advance(t, e)

	a := Action{Name: ActionDebugCommand, Commands: []ActionCommand{{Name: CmdInflictDamage, Player: 1, Amount: 5000}}}
	e.Process(0, &a)
	if e.State().Players[1].Life != 2000 {
		t.Errorf("P2 life = %d, want 2000", e.State().Players[1].Life)
	}
}

// TestEndPhaseDiscard: a player over the hand limit discards before the
// turn passes.
func TestEndPhaseDiscard(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20), func(cfg *EnvironmentConfig) {
		cfg.Regulation.MaxHandSize = 4
	})
	advance(t, e)

	discard := endTurn(t, e)
	if discard == nil || discard.Player != 0 {
		t.Fatalf("expected a discard decision for P1, got %+v", discard)
	}
	sel, ok := discard.Get(ActionSelectCard)
	if !ok || len(sel.Cards) != 5 {
		t.Fatalf("expected to choose among 5 cards, got %+v", discard)
	}
	if discard.Instructions != "Discard down to 4 cards" {
		t.Errorf("instructions = %q", discard.Instructions)
	}

	act(t, e, 0, SelectCardAction(sel.Cards[0]))
	p0 := e.State().Players[0]
	if len(p0.Hand) != 4 || len(p0.Graveyard) != 1 {
		t.Errorf("hand %d graveyard %d, want 4/1", len(p0.Hand), len(p0.Graveyard))
	}
	if e.State().Current != 1 {
		t.Error("turn should pass to P2")
	}
}

// TestNewEnvironmentErrors: bad configurations are rejected.
func TestNewEnvironmentErrors(t *testing.T) {
	c := testCatalog(t)
	if _, err := NewEnvironment(c, EnvironmentConfig{Players: []PlayerConfig{{}}}); err == nil {
		t.Error("expected an error for one player")
	}
	_, err := NewEnvironment(c, EnvironmentConfig{Players: []PlayerConfig{{Deck: []string{"nope"}}, {}}})
	if !errors.Is(err, ErrUnknownArchetype) {
		t.Errorf("err = %v, want ErrUnknownArchetype", err)
	}
}

func ptr[T any](v T) *T { return &v }
