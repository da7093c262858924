package game

import (
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"
)

// testCatalog loads the built-in catalog.
func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := DefaultCatalog()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return c
}

// makeDeck builds a deck whose first cards to be drawn are top, in order,
// over a filler of Turbofish. Decks list the top card last.
func makeDeck(top []string, size int) []string {
	deck := make([]string, 0, size)
	for len(deck)+len(top) < size {
		deck = append(deck, "turb")
	}
	for i := len(top) - 1; i >= 0; i-- {
		deck = append(deck, top[i])
	}
	return deck
}

// newTestEnv builds a deterministic two-player game: no shuffling,
// player 0 goes first.
func newTestEnv(t *testing.T, deck0, deck1 []string, tweak ...func(*EnvironmentConfig)) *Environment {
	t.Helper()
	cfg := EnvironmentConfig{
		Regulation: StandardRegulation,
		Debug:      DebugConfig{Seed: 1, NoDeckShuffle: true, NoPlayerShuffle: true},
		Players:    []PlayerConfig{{Deck: deck0}, {Deck: deck1}},
		Logger:     zaptest.NewLogger(t),
	}
	for _, f := range tweak {
		f(&cfg)
	}
	e, err := NewEnvironment(testCatalog(t), cfg)
	if err != nil {
		t.Fatalf("new environment: %v", err)
	}
	return e
}

func ignoreCost(cfg *EnvironmentConfig) { cfg.Debug.IgnoreCost = true }

// advance ticks with no action until someone has a decision to make or
// the game ends.
func advance(t *testing.T, e *Environment) *PlayerAvailableActions {
	t.Helper()
	for i := 0; i < 1000; i++ {
		r := e.Process(0, nil)
		if r.AvailableActions != nil || r.Endgame.Finished {
			return r.AvailableActions
		}
	}
	t.Fatal("game did not reach a decision in 1000 ticks")
	return nil
}

// act sends a legal action and advances to the next decision.
func act(t *testing.T, e *Environment, player uint8, a Action) *PlayerAvailableActions {
	t.Helper()
	last := e.AvailableActions()
	if last == nil || !last.Validate(player, a) {
		t.Fatalf("action %s by P%d is not legal in %+v", a.Name, player+1, last)
	}
	r := e.Process(player, &a)
	if r.AvailableActions != nil || r.Endgame.Finished {
		return r.AvailableActions
	}
	return advance(t, e)
}

// endTurn ends the current player's turn and advances to the next main
// phase decision.
func endTurn(t *testing.T, e *Environment) *PlayerAvailableActions {
	t.Helper()
	return act(t, e, e.State().Current, Action{Name: ActionEndTurn})
}

// findIn returns the first card of archetype id in the player's zone.
func findIn(t *testing.T, e *Environment, player uint8, k ZoneKind, id string) *Card {
	t.Helper()
	p, err := e.State().Player(player)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range p.Cards(k) {
		if c.Archetype.ID == id {
			return c
		}
	}
	t.Fatalf("no %s in P%d %s", id, player+1, k)
	return nil
}

func zoneIDs(p *Player, k ZoneKind) []string {
	var out []string
	for _, c := range p.Cards(k) {
		out = append(out, c.Archetype.ID)
	}
	return out
}

func hasIn(p *Player, k ZoneKind, id string) bool {
	return slices.Contains(zoneIDs(p, k), id)
}

// place puts a fresh card of archetype id straight onto a player's field.
func place(t *testing.T, e *Environment, player uint8, id string) *Card {
	t.Helper()
	a, err := e.Catalog().Get(id)
	if err != nil {
		t.Fatal(err)
	}
	c := newCard(e.State().NextID(), player, a)
	c.setZone(Zone{Player: player, Kind: ZoneField})
	e.State().Players[player].push(c)
	e.computeEffects()
	return c
}
