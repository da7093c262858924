package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	stdnet "net"
	"sync"

	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
	"github.com/peterkuimelis/shardx/internal/log"
	shardxnet "github.com/peterkuimelis/shardx/internal/net"
)

// ToolResponse is the JSON envelope returned by all MCP tools.
type ToolResponse struct {
	GameID   string                 `json:"game_id,omitempty"`
	Events   []log.GameEvent        `json:"events"`
	State    *game.LocalEnvironment `json:"state,omitempty"`
	Pending  *PendingView           `json:"pending,omitempty"`
	GameOver bool                   `json:"game_over"`
	Result   *game.EndgameState     `json:"result,omitempty"`
	Port     string                 `json:"port,omitempty"`
}

// PendingView is the decision the agent must answer through take_action.
type PendingView struct {
	Instructions string             `json:"instructions,omitempty"`
	Choices      []shardxnet.Choice `json:"choices"`
}

// GameConfig is one start_game request.
type GameConfig struct {
	AgentDeck    int
	AgentPlayer  uint8
	OpponentDeck int
	// Human waits for the opponent to join over TCP on Port instead of
	// playing the built-in bot.
	Human bool
	Port  string
}

// GameSession holds the state of a single MCP game session. The game runs
// on its own goroutine; tools talk to it through the agent's seat.
type GameSession struct {
	sess   *shardxnet.Session
	seat   *shardxnet.Seat
	human  *shardxnet.NetworkController
	ln     stdnet.Listener
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	pending *shardxnet.Decision
	choices []shardxnet.Choice
	result  game.EndgameState
	err     error
}

// NewGameSession creates a new game session and starts it. With
// cfg.Human it first blocks until the human player joins.
func NewGameSession(ctx context.Context, h *Handler, cfg GameConfig) (*GameSession, error) {
	agentEntry, err := h.Decks.DeckByNumber(cfg.AgentDeck)
	if err != nil {
		return nil, fmt.Errorf("load agent deck: %w", err)
	}
	opponentPlayer := 1 - cfg.AgentPlayer

	gs := &GameSession{seat: shardxnet.NewSeat(cfg.AgentPlayer), done: make(chan struct{})}
	opponent, opponentDeck, err := gs.opponent(ctx, h, cfg, opponentPlayer)
	if err != nil {
		return nil, err
	}
	opponentEntry, err := h.Decks.DeckByNumber(opponentDeck)
	if err != nil {
		gs.close()
		return nil, fmt.Errorf("load opponent deck: %w", err)
	}

	seats := make([]game.PlayerController, 2)
	decks := make([]game.DeckEntry, 2)
	seats[cfg.AgentPlayer], decks[cfg.AgentPlayer] = gs.seat, agentEntry
	seats[opponentPlayer], decks[opponentPlayer] = opponent, opponentEntry

	gs.sess, err = shardxnet.NewSession(shardxnet.SessionConfig{
		Catalog: h.Catalog,
		Env:     h.Env,
		Decks:   decks,
		Logger:  h.Logger,
	}, seats...)
	if err != nil {
		gs.close()
		return nil, err
	}

	if err := gs.welcome(opponentPlayer); err != nil {
		gs.close()
		return nil, fmt.Errorf("send welcome: %w", err)
	}
	gs.logger(h).Info("mcp game started",
		zap.Uint8("agent", cfg.AgentPlayer), zap.String("agent_deck", agentEntry.Name),
		zap.String("opponent_deck", opponentEntry.Name), zap.Bool("human", cfg.Human))

	runCtx, cancel := context.WithCancel(context.Background())
	gs.cancel = cancel
	go gs.run(runCtx, opponentPlayer)
	return gs, nil
}

func (gs *GameSession) run(ctx context.Context, opponentPlayer uint8) {
	defer close(gs.done)
	result, err := gs.sess.Run(ctx)

	gs.mu.Lock()
	gs.result, gs.err = result, err
	gs.mu.Unlock()

	if gs.human != nil {
		_ = gs.human.SendGameOver(gs.sess.View(opponentPlayer), result)
	}
	gs.close()
}

func (gs *GameSession) close() {
	if gs.human != nil {
		gs.human.Close()
	}
	if gs.ln != nil {
		gs.ln.Close()
	}
}

// Stop abandons the game.
func (gs *GameSession) Stop() {
	if gs.cancel != nil {
		gs.cancel()
	}
	<-gs.done
}

// waitForPending blocks until the agent has a decision or the game ends,
// then builds a ToolResponse with the accumulated events.
func (gs *GameSession) waitForPending(ctx context.Context) (*ToolResponse, error) {
	select {
	case d := <-gs.seat.Decisions():
		gs.mu.Lock()
		gs.pending = &d
		gs.choices = shardxnet.Choices(d.View, d.Actions)
		gs.mu.Unlock()
	case <-gs.done:
		gs.mu.Lock()
		gs.pending, gs.choices = nil, nil
		gs.mu.Unlock()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return gs.snapshot(), nil
}

// snapshot reports the current pending decision without waiting.
func (gs *GameSession) snapshot() *ToolResponse {
	resp := &ToolResponse{GameID: gs.sess.ID.String(), Events: gs.seat.DrainEvents()}
	if resp.Events == nil {
		resp.Events = []log.GameEvent{}
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()
	switch {
	case gs.pending != nil:
		view := gs.pending.View
		resp.State = &view
		resp.Pending = &PendingView{Instructions: gs.pending.Actions.Instructions, Choices: gs.choices}
	case gs.finished():
		view := gs.sess.View(gs.seat.Player())
		result := gs.result
		resp.State, resp.Result, resp.GameOver = &view, &result, true
	}
	return resp
}

// Err reports why the game stopped early, if it did.
func (gs *GameSession) Err() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.err
}

func (gs *GameSession) finished() bool {
	select {
	case <-gs.done:
		return true
	default:
		return false
	}
}

// submit answers the pending decision with the picked choices.
func (gs *GameSession) submit(ctx context.Context, indices []int, concede bool) error {
	gs.mu.Lock()
	pending, choices := gs.pending, gs.choices
	gs.mu.Unlock()
	if pending == nil {
		return fmt.Errorf("no pending decision")
	}

	action := game.Action{Name: game.ActionConcede}
	if !concede {
		var err error
		if action, err = shardxnet.Combine(choices, indices); err != nil {
			return err
		}
	}
	gs.mu.Lock()
	gs.pending, gs.choices = nil, nil
	gs.mu.Unlock()
	return gs.seat.Submit(ctx, action)
}

// respondJSON marshals a ToolResponse to a JSON string.
func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}

func (gs *GameSession) logger(h *Handler) *zap.Logger {
	return h.Logger.With(zap.String("game", gs.sess.ID.String()))
}
