package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tid(id ObjectID, ts uint16) TimedObjectID { return TimedObjectID{ID: id, Timestamp: ts} }

func mainPhaseActions() *PlayerAvailableActions {
	return &PlayerAvailableActions{
		Player: 0,
		Actions: []AvailableAction{
			{Name: ActionAttack, Attackers: []TimedObjectID{tid(1, 1), tid(2, 1)}},
			{Name: ActionCastCard, Cards: []TimedObjectID{tid(5, 1)}},
			{Name: ActionEndTurn},
		},
	}
}

// TestValidate covers accepted and refused actions.
func TestValidate(t *testing.T) {
	avail := mainPhaseActions()
	block := &PlayerAvailableActions{
		Player: 1,
		Actions: []AvailableAction{{
			Name:      ActionBlock,
			Attackers: []TimedObjectID{tid(1, 1), tid(2, 1)},
			Blockers:  []TimedObjectID{tid(8, 1), tid(9, 1)},
		}},
	}
	tests := []struct {
		name   string
		avail  *PlayerAvailableActions
		player uint8
		action Action
		want   bool
	}{
		{"end turn", avail, 0, Action{Name: ActionEndTurn}, true},
		{"wrong player", avail, 1, Action{Name: ActionEndTurn}, false},
		{"not offered", avail, 0, Action{Name: ActionContinue}, false},
		{"cast listed card", avail, 0, CastCardAction(tid(5, 1)), true},
		{"cast stale card", avail, 0, CastCardAction(tid(5, 0)), false},
		{"cast without card", avail, 0, Action{Name: ActionCastCard}, false},
		{"attack subset", avail, 0, AttackAction(tid(2, 1)), true},
		{"attack with nobody", avail, 0, AttackAction(), true},
		{"attack twice", avail, 0, AttackAction(tid(1, 1), tid(1, 1)), false},
		{"attack unknown", avail, 0, AttackAction(tid(3, 1)), false},
		{"concede out of turn", avail, 1, Action{Name: ActionConcede}, true},
		{"debug out of turn", avail, 1, Action{Name: ActionDebugCommand}, true},
		{"block", block, 1, BlockAction(BlockPair{Attacker: tid(1, 1), Blocker: tid(8, 1)}), true},
		{"block same blocker twice", block, 1, BlockAction(
			BlockPair{Attacker: tid(1, 1), Blocker: tid(8, 1)},
			BlockPair{Attacker: tid(2, 1), Blocker: tid(8, 1)},
		), false},
		{"block unknown attacker", block, 1, BlockAction(BlockPair{Attacker: tid(3, 1), Blocker: tid(8, 1)}), false},
		{"block with attacker", block, 1, BlockAction(BlockPair{Attacker: tid(1, 1), Blocker: tid(2, 1)}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.avail.Validate(tt.player, tt.action); got != tt.want {
				t.Errorf("Validate = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestDefaultAction: the fallback never casts and picks the oldest card.
func TestDefaultAction(t *testing.T) {
	tests := []struct {
		name  string
		avail *PlayerAvailableActions
		want  Action
		ok    bool
	}{
		{"main phase attacks with nobody", mainPhaseActions(), AttackAction(), true},
		{"cast only", &PlayerAvailableActions{Actions: []AvailableAction{
			{Name: ActionCastCard, Cards: []TimedObjectID{tid(5, 1)}},
		}}, Action{}, false},
		{"select oldest", &PlayerAvailableActions{Actions: []AvailableAction{
			{Name: ActionSelectCard, Cards: []TimedObjectID{tid(7, 3), tid(4, 2), tid(9, 2)}},
		}}, SelectCardAction(tid(4, 2)), true},
		{"block with nobody", &PlayerAvailableActions{Actions: []AvailableAction{
			{Name: ActionBlock, Attackers: []TimedObjectID{tid(1, 1)}, Blockers: []TimedObjectID{tid(2, 1)}},
		}}, BlockAction(), true},
		{"continue", &PlayerAvailableActions{Actions: []AvailableAction{{Name: ActionContinue}}}, Action{Name: ActionContinue}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.avail.DefaultAction()
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("action (-want +got):\n%s", diff)
			}
			if ok && !tt.avail.Validate(tt.avail.Player, got) {
				t.Error("default action must be legal")
			}
		})
	}
}

// TestActionOrder: legal actions are listed in a fixed order.
func TestActionOrder(t *testing.T) {
	p := &PlayerAvailableActions{Actions: []AvailableAction{
		{Name: ActionEndTurn}, {Name: ActionCastCard}, {Name: ActionAttack},
	}}
	p.sort()
	var got []ActionKind
	for _, a := range p.Actions {
		got = append(got, a.Name)
	}
	want := []ActionKind{ActionAttack, ActionCastCard, ActionEndTurn}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
}
