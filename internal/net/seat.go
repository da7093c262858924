package net

import (
	"context"
	"sync"

	"github.com/peterkuimelis/shardx/internal/game"
	"github.com/peterkuimelis/shardx/internal/log"
)

// Decision is a pending choice published by a Seat.
type Decision struct {
	View    game.LocalEnvironment
	Actions *game.PlayerAvailableActions
}

// Seat is a game.PlayerController driven through channels: the match
// goroutine publishes decisions and blocks until an action is submitted.
type Seat struct {
	player    uint8
	decisions chan Decision
	actions   chan game.Action

	mu     sync.Mutex
	events []log.GameEvent
}

func NewSeat(player uint8) *Seat {
	return &Seat{
		player:    player,
		decisions: make(chan Decision, 1),
		actions:   make(chan game.Action),
	}
}

func (s *Seat) Player() uint8 { return s.player }

// Decisions delivers each decision the seat must answer.
func (s *Seat) Decisions() <-chan Decision { return s.decisions }

// ChooseAction implements game.PlayerController.
func (s *Seat) ChooseAction(ctx context.Context, view game.LocalEnvironment, actions *game.PlayerAvailableActions) (game.Action, error) {
	select {
	case s.decisions <- Decision{View: view, Actions: actions}:
	case <-ctx.Done():
		return game.Action{}, ctx.Err()
	}
	select {
	case a := <-s.actions:
		return a, nil
	case <-ctx.Done():
		return game.Action{}, ctx.Err()
	}
}

// Submit answers the pending decision.
func (s *Seat) Submit(ctx context.Context, a game.Action) error {
	select {
	case s.actions <- a:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify implements game.PlayerController.
func (s *Seat) Notify(_ context.Context, events []log.GameEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
	return nil
}

// DrainEvents returns all accumulated events and clears the buffer.
func (s *Seat) DrainEvents() []log.GameEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := s.events
	s.events = nil
	return events
}
