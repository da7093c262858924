package game

import (
	"testing"

	"github.com/peterkuimelis/shardx/internal/log"
)

// TestLocalHidesOpponentHand: a viewer sees its own hand but only ids of
// the opponent's.
func TestLocalHidesOpponentHand(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	place(t, e, 1, "tung")
	advance(t, e)

	view := e.Local(0)
	if view.AvailableActions == nil {
		t.Fatal("P1 should see its actions")
	}
	for _, c := range view.Players[0].Hand {
		if c.Name == "" || c.Computed == nil {
			t.Errorf("own card %d hidden", c.ID)
		}
	}
	for _, c := range view.Players[1].Hand {
		if c.Name != "" || c.Archetype != "" || c.Computed != nil {
			t.Errorf("opponent card %d revealed: %+v", c.ID, c)
		}
	}
	field := view.Players[1].Field
	if len(field) != 1 || field[0].Name != "Tungsten Rhino" || field[0].Field == nil {
		t.Errorf("opponent field = %+v", field)
	}
	if got, want := view.Players[1].Deck, len(e.State().Players[1].Deck); got != want {
		t.Errorf("deck count = %d, want %d", got, want)
	}

	if other := e.Local(1); other.AvailableActions != nil {
		t.Error("P2 must not see P1's actions")
	}
}

// TestLocalShardsCopied: the view does not alias engine state.
func TestLocalShardsCopied(t *testing.T) {
	e := newTestEnv(t, makeDeck(nil, 20), makeDeck(nil, 20))
	advance(t, e)
	view := e.Local(0)
	view.Players[0].Shards[ColorRed] = 9
	if e.State().Players[0].Shards.Get(ColorRed) != 0 {
		t.Error("snapshot shards alias the game state")
	}
}

// TestReportRedacted: reports strip hidden faces and other players'
// actions.
func TestReportRedacted(t *testing.T) {
	drawn := log.CardInfo{ID: 7, Timestamp: 2, Owner: 0, Archetype: "mini", Name: "Minimum Bear", Visible: 1}
	r := Report{
		AvailableActions: &PlayerAvailableActions{Player: 0, Actions: []AvailableAction{{Name: ActionEndTurn}}},
		Logs:             []log.GameEvent{log.NewCardMovedEvent(1, "draw", 0, drawn, "deck", "hand", "draw")},
	}

	own := r.Redacted(0)
	if own.AvailableActions == nil || own.Logs[0].Card.Name != "Minimum Bear" {
		t.Errorf("owner view = %+v", own)
	}

	other := r.Redacted(1)
	if other.AvailableActions != nil {
		t.Error("actions leaked")
	}
	if c := other.Logs[0].Card; c.Name != "" || c.Archetype != "" || c.ID != 7 {
		t.Errorf("card = %+v", c)
	}
	if r.Logs[0].Card.Name == "" {
		t.Error("Redacted modified the original report")
	}
}
