package game

import (
	"context"
	"fmt"

	"github.com/peterkuimelis/shardx/internal/log"
)

// PlayerController is the interface that both remote (TCP) and AI (MCP) players implement.
type PlayerController interface {
	// ChooseAction presents the legal actions and waits for the player to pick one.
	ChooseAction(ctx context.Context, view LocalEnvironment, actions *PlayerAvailableActions) (Action, error)

	// Notify sends game events as the player may see them (no response needed).
	Notify(ctx context.Context, events []log.GameEvent) error
}

// MatchConfig holds configuration for running a match to completion.
type MatchConfig struct {
	Logger   log.EventLogger
	MaxTurns int // stop after this many turns (0 = 200)
}

// Match drives an Environment by asking each seat's controller for its
// actions until the game ends.
type Match struct {
	Env         *Environment
	Controllers []PlayerController
	Logger      log.EventLogger
	maxTurns    int
}

// NewMatch creates a match with one controller per seat.
func NewMatch(env *Environment, cfg MatchConfig, controllers ...PlayerController) (*Match, error) {
	if len(controllers) != len(env.State().Players) {
		return nil, fmt.Errorf("%d controllers for %d players", len(controllers), len(env.State().Players))
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewMemoryLogger()
	}
	maxTurns := cfg.MaxTurns
	if maxTurns == 0 {
		maxTurns = 200 // safety limit
	}
	return &Match{Env: env, Controllers: controllers, Logger: logger, maxTurns: maxTurns}, nil
}

// Run ticks the environment until the game ends. Reaching the turn limit
// ends the match in a draw.
func (m *Match) Run(ctx context.Context) (EndgameState, error) {
	var (
		action *Action
		actor  uint8
	)
	for {
		if err := ctx.Err(); err != nil {
			return m.Env.Endgame(), err
		}
		report := m.Env.Process(actor, action)
		action = nil
		m.log(ctx, report.Logs)

		if report.Endgame.Finished {
			return report.Endgame, nil
		}
		if int(m.Env.State().Turn) > m.maxTurns {
			return EndgameState{Finished: true, Reason: EndgameSimultaneousEnd}, nil
		}

		avail := report.AvailableActions
		if avail == nil {
			continue
		}
		chosen, err := m.Controllers[avail.Player].ChooseAction(ctx, m.Env.Local(avail.Player), avail)
		if err != nil {
			return m.Env.Endgame(), fmt.Errorf("player %d: %w", avail.Player, err)
		}
		action, actor = &chosen, avail.Player
	}
}

func (m *Match) log(ctx context.Context, events []log.GameEvent) {
	if len(events) == 0 {
		return
	}
	log.LogAll(m.Logger, events)
	// Notify controllers (ignore errors for notifications)
	for i, c := range m.Controllers {
		_ = c.Notify(ctx, RedactLogs(events, uint8(i)))
	}
}

// DefaultController answers every decision with DefaultAction. It backs
// bot seats and timed-out players.
type DefaultController struct{}

func (DefaultController) ChooseAction(_ context.Context, _ LocalEnvironment, actions *PlayerAvailableActions) (Action, error) {
	a, ok := actions.DefaultAction()
	if !ok {
		return Action{}, fmt.Errorf("no default among %d actions: %w", len(actions.Actions), ErrInvalidAction)
	}
	return a, nil
}

func (DefaultController) Notify(context.Context, []log.GameEvent) error { return nil }
