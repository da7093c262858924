package net

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/peterkuimelis/shardx/internal/game"
	"github.com/peterkuimelis/shardx/internal/log"
)

// Message types for the JSON protocol over TCP. Each message is one JSON
// value; both sides decode them back to back.
const (
	MsgJoin   = "join"
	MsgAction = "action"

	MsgWelcome      = "welcome"
	MsgNotify       = "notify"
	MsgChooseAction = "choose_action"
	MsgError        = "error"
	MsgGameOver     = "game_over"
)

// --- Server → Client messages ---

// ServerMessage is the envelope for all server-to-client messages.
type ServerMessage struct {
	Type string `json:"type"`

	// For "welcome"
	GameID string `json:"game_id,omitempty"`
	Player uint8  `json:"player"`

	// For "notify"
	Events []log.GameEvent `json:"events,omitempty"`

	// For "choose_action" and "game_over"
	State   *game.LocalEnvironment       `json:"state,omitempty"`
	Actions *game.PlayerAvailableActions `json:"actions,omitempty"`
	Choices []Choice                     `json:"choices,omitempty"`

	// For "game_over"
	Result *game.EndgameState `json:"result,omitempty"`

	// For "error"
	Error string `json:"error,omitempty"`
}

// --- Client → Server messages ---

// ClientMessage is the envelope for all client-to-server messages.
type ClientMessage struct {
	Type string `json:"type"`

	// For "join" (initial handshake)
	DeckNumber int `json:"deck_number,omitempty"`

	// For "action"
	Action *game.Action `json:"action,omitempty"`
}

// Choice is one concrete action offered to a person or an agent.
type Choice struct {
	Index  int         `json:"index"`
	Desc   string      `json:"desc"`
	Action game.Action `json:"action"`
}

// Choices expands a legal-action set into numbered choices. Attacks and
// blocks are offered one creature at a time; Combine merges several.
func Choices(view game.LocalEnvironment, actions *game.PlayerAvailableActions) []Choice {
	if actions == nil {
		return nil
	}
	label := func(id game.TimedObjectID) string { return cardLabel(view, id) }
	var out []Choice
	add := func(desc string, a game.Action) {
		out = append(out, Choice{Index: len(out), Desc: desc, Action: a})
	}
	for _, a := range actions.Actions {
		switch a.Name {
		case game.ActionSelectCard:
			for _, id := range a.Cards {
				add("Select "+label(id), game.SelectCardAction(id))
			}
		case game.ActionCastCard:
			for _, id := range a.Cards {
				add("Cast "+label(id), game.CastCardAction(id))
			}
		case game.ActionAttack:
			for _, id := range a.Attackers {
				add("Attack with "+label(id), game.AttackAction(id))
			}
			add("Attack with nothing", game.AttackAction())
		case game.ActionBlock:
			for _, atk := range a.Attackers {
				for _, blk := range a.Blockers {
					add(fmt.Sprintf("Block %s with %s", label(atk), label(blk)),
						game.BlockAction(game.BlockPair{Attacker: atk, Blocker: blk}))
				}
			}
			add("Do not block", game.BlockAction())
		case game.ActionEndTurn:
			add("End turn", game.Action{Name: game.ActionEndTurn})
		case game.ActionContinue:
			add("Continue", game.Action{Name: game.ActionContinue})
		}
	}
	return out
}

// Combine turns picked choice indices into one action. Several attack
// choices merge into one attack, several block choices into one block.
func Combine(choices []Choice, indices []int) (game.Action, error) {
	if len(indices) == 0 {
		return game.Action{}, errors.New("no choice given")
	}
	var out game.Action
	for i, idx := range indices {
		if idx < 0 || idx >= len(choices) {
			return game.Action{}, fmt.Errorf("choice %d out of range 1-%d", idx+1, len(choices))
		}
		a := choices[idx].Action
		if i == 0 {
			out = a
			out.Attackers = slices.Clone(a.Attackers)
			out.Pairs = slices.Clone(a.Pairs)
			continue
		}
		if a.Name != out.Name || (a.Name != game.ActionAttack && a.Name != game.ActionBlock) {
			return game.Action{}, errors.New("only attacks or blocks can be combined")
		}
		out.Attackers = append(out.Attackers, a.Attackers...)
		out.Pairs = append(out.Pairs, a.Pairs...)
	}
	return out, nil
}

func cardLabel(view game.LocalEnvironment, id game.TimedObjectID) string {
	if c, ok := view.Find(id); ok {
		return c.Label()
	}
	return fmt.Sprintf("card #%d", id.ID)
}

// DescribeAction renders an action for logs and prompts.
func DescribeAction(view game.LocalEnvironment, a game.Action) string {
	name := func(id game.TimedObjectID) string { return cardLabel(view, id) }
	switch a.Name {
	case game.ActionCastCard, game.ActionSelectCard:
		if a.Card != nil {
			return fmt.Sprintf("%s %s", a.Name, name(*a.Card))
		}
	case game.ActionAttack:
		var parts []string
		for _, id := range a.Attackers {
			parts = append(parts, name(id))
		}
		return fmt.Sprintf("attack [%s]", strings.Join(parts, ", "))
	case game.ActionBlock:
		var parts []string
		for _, p := range a.Pairs {
			parts = append(parts, name(p.Blocker)+" → "+name(p.Attacker))
		}
		return fmt.Sprintf("block [%s]", strings.Join(parts, ", "))
	}
	return string(a.Name)
}
