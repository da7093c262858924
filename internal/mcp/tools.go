package mcp

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
)

// Handler serves the game tools. One stdio process hosts at most one game
// at a time.
type Handler struct {
	Catalog *game.Catalog
	Decks   *game.DeckFile
	Env     game.EnvironmentConfig
	// Port is where a human opponent connects with "shardx-cli join".
	Port   string
	Logger *zap.Logger

	mu     sync.Mutex
	active *GameSession
}

// NewHandler returns a Handler with a no-op logger when logger is nil.
func NewHandler(catalog *game.Catalog, decks *game.DeckFile, env game.EnvironmentConfig, port string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Catalog: catalog, Decks: decks, Env: env, Port: port, Logger: logger}
}

// RegisterTools adds all game tools to the MCP server.
func (h *Handler) RegisterTools(s *server.MCPServer) {
	s.AddTool(startGameTool(), h.handleStartGame)
	s.AddTool(takeActionTool(), h.handleTakeAction)
	s.AddTool(getGameStateTool(), h.handleGetGameState)
	s.AddTool(listCardsTool(), h.handleListCards)
}

// Close stops the running game, if any.
func (h *Handler) Close() {
	h.mu.Lock()
	gs := h.active
	h.active = nil
	h.mu.Unlock()
	if gs != nil {
		gs.Stop()
	}
}

func (h *Handler) session() *GameSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

// --- Tool definitions ---

func startGameTool() mcp.Tool {
	return mcp.NewTool("start_game",
		mcp.WithDescription("Start a new Shardx game. Returns the initial game state and the first pending decision. "+
			"Against a human opponent this call blocks until they connect with `shardx-cli join --addr localhost:<port> --deck N`."),
		mcp.WithNumber("deck", mcp.Required(), mcp.Description("Your deck number (1-indexed, see the decks file)")),
		mcp.WithNumber("player", mcp.Description("Your seat: 0 plays first, 1 plays second"), mcp.DefaultNumber(0), mcp.Min(0), mcp.Max(1)),
		mcp.WithNumber("opponent_deck", mcp.Description("The bot's deck number (1-indexed); a human picks their own")),
		mcp.WithString("opponent", mcp.Description("Who plays the other seat"), mcp.Enum("bot", "human"), mcp.DefaultString("bot")),
	)
}

func takeActionTool() mcp.Tool {
	return mcp.NewTool("take_action",
		mcp.WithDescription("Answer the pending decision with choices from pending.choices. "+
			"Several attack or block choices may be combined into one action."),
		mcp.WithString("indices", mcp.Description("Space-separated 0-based choice indices (e.g. '0' or '1 3')")),
		mcp.WithBoolean("concede", mcp.Description("Concede the game instead of choosing")),
	)
}

func getGameStateTool() mcp.Tool {
	return mcp.NewTool("get_game_state",
		mcp.WithDescription("Get the current game state, accumulated events and pending decision without answering. Read-only."),
	)
}

func listCardsTool() mcp.Tool {
	return mcp.NewTool("list_cards",
		mcp.WithDescription("List the playable cards of the catalog with their cost, power and rules text."),
		mcp.WithString("color", mcp.Description("Only list cards of this color")),
	)
}

// --- Tool handlers ---

func (h *Handler) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deck := request.GetInt("deck", 0)
	if deck < 1 {
		return mcp.NewToolResultError("deck is required"), nil
	}
	player := request.GetInt("player", 0)
	if player != 0 && player != 1 {
		return mcp.NewToolResultErrorf("player must be 0 or 1, got %d", player), nil
	}
	opponent := request.GetString("opponent", "bot")
	if opponent != "bot" && opponent != "human" {
		return mcp.NewToolResultErrorf("unknown opponent %q", opponent), nil
	}
	opponentDeck := request.GetInt("opponent_deck", deck)

	// Only one game at a time.
	h.Close()

	gs, err := NewGameSession(ctx, h, GameConfig{
		AgentDeck:    deck,
		AgentPlayer:  uint8(player),
		OpponentDeck: opponentDeck,
		Human:        opponent == "human",
		Port:         h.Port,
	})
	if err != nil {
		return mcp.NewToolResultErrorFromErr("failed to start game", err), nil
	}
	h.mu.Lock()
	h.active = gs
	h.mu.Unlock()

	resp, err := gs.waitForPending(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("game error", err), nil
	}
	if opponent == "human" {
		resp.Port = h.Port
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (h *Handler) handleTakeAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gs := h.session()
	if gs == nil {
		return mcp.NewToolResultError("no active game, call start_game first"), nil
	}
	if gs.finished() {
		return mcp.NewToolResultError("game is over, call start_game to play again"), nil
	}

	concede := request.GetBool("concede", false)
	var indices []int
	if !concede {
		var err error
		if indices, err = parseIndices(request.GetString("indices", "")); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if len(indices) == 0 {
			return mcp.NewToolResultError("indices is required unless conceding"), nil
		}
	}

	if err := gs.submit(ctx, indices, concede); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := gs.waitForPending(ctx)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("game error", err), nil
	}
	if err := gs.Err(); err != nil {
		gs.logger(h).Warn("game stopped", zap.Error(err))
	}
	return mcp.NewToolResultText(respondJSON(resp)), nil
}

func (h *Handler) handleGetGameState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gs := h.session()
	if gs == nil {
		return mcp.NewToolResultError("no active game, call start_game first"), nil
	}
	return mcp.NewToolResultText(respondJSON(gs.snapshot())), nil
}

func (h *Handler) handleListCards(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	color := strings.ToLower(request.GetString("color", ""))
	var cards []*game.Archetype
	for _, a := range h.Catalog.Playable() {
		if color != "" && strings.ToLower(a.Color.String()) != color {
			continue
		}
		cards = append(cards, a)
	}
	data, err := json.Marshal(cards)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("marshal cards", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func parseIndices(s string) ([]int, error) {
	parts := strings.Fields(s)
	indices := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		indices = append(indices, n)
	}
	return indices, nil
}
