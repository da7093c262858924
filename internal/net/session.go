package net

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
	"github.com/peterkuimelis/shardx/internal/log"
)

// Session hosts one game. Run owns the environment: every tick happens on
// the goroutine that calls it, and seats only talk to it through their
// controllers.
type Session struct {
	ID     uuid.UUID
	Events *log.MemoryLogger

	env    *game.Environment
	seats  []game.PlayerController
	match  *game.Match
	logger *zap.Logger
}

// SessionConfig configures NewSession.
type SessionConfig struct {
	Catalog  *game.Catalog
	Env      game.EnvironmentConfig // Players is filled from Decks
	Decks    []game.DeckEntry       // one per seat
	MaxTurns int
	// Logger is also passed to the environment when Env.Logger is nil.
	Logger *zap.Logger
}

// NewSession builds the game for the given seats.
func NewSession(cfg SessionConfig, seats ...game.PlayerController) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New()
	logger = logger.With(zap.String("game", id.String()))
	if cfg.Env.Logger == nil {
		cfg.Env.Logger = logger
	}

	env, err := game.NewGame(cfg.Catalog, cfg.Env, cfg.Decks...)
	if err != nil {
		return nil, err
	}
	events := log.NewMemoryLogger()
	match, err := game.NewMatch(env, game.MatchConfig{
		Logger:   log.Tee{events, log.NewZapLogger(logger)},
		MaxTurns: cfg.MaxTurns,
	}, seats...)
	if err != nil {
		return nil, err
	}
	return &Session{ID: id, Events: events, env: env, seats: seats, match: match, logger: logger}, nil
}

// Run plays the game to the end.
func (s *Session) Run(ctx context.Context) (game.EndgameState, error) {
	s.logger.Info("game started", zap.Int("players", len(s.seats)))
	result, err := s.match.Run(ctx)
	if err != nil {
		s.logger.Warn("game aborted", zap.Error(err))
		return result, fmt.Errorf("session %s: %w", s.ID, err)
	}
	fields := []zap.Field{zap.Stringer("reason", result.Reason), zap.Int("events", len(s.Events.Events()))}
	if result.Winner != nil {
		fields = append(fields, zap.Uint8("winner", *result.Winner))
	}
	s.logger.Info("game finished", fields...)
	return result, nil
}

// View returns the game as player sees it. It must not be called while Run
// is ticking; use it once Run has returned.
func (s *Session) View(player uint8) game.LocalEnvironment {
	return s.env.Local(player)
}
