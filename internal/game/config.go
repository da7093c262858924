package game

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
)

// Regulation holds the rules constants of a game.
type Regulation struct {
	MinDeckSize     int           `env:"SHARDX_MIN_DECK_SIZE" envDefault:"20" json:"min_deck_size"`
	MaxDeckSize     int           `env:"SHARDX_MAX_DECK_SIZE" envDefault:"20" json:"max_deck_size"`
	MaxSameCards    int           `env:"SHARDX_MAX_SAME_CARDS" envDefault:"4" json:"max_same_cards"`
	InitialHandSize int           `env:"SHARDX_INITIAL_HAND_SIZE" envDefault:"4" json:"initial_hand_size"`
	InitialLife     uint32        `env:"SHARDX_INITIAL_LIFE" envDefault:"2000" json:"initial_life"`
	MaxHandSize     int           `env:"SHARDX_MAX_HAND_SIZE" envDefault:"6" json:"max_hand_size"`
	ActionTimeout   time.Duration `env:"SHARDX_ACTION_TIMEOUT" envDefault:"30s" json:"action_timeout"`
}

// StandardRegulation is the default rule set.
var StandardRegulation = Regulation{
	MinDeckSize:     20,
	MaxDeckSize:     20,
	MaxSameCards:    4,
	InitialHandSize: 4,
	InitialLife:     2000,
	MaxHandSize:     6,
	ActionTimeout:   30 * time.Second,
}

// DebugConfig switches off randomness and rules checks for tests and tools.
type DebugConfig struct {
	Seed            uint64 `env:"SHARDX_SEED" json:"seed,omitempty"` // 0 seeds from the clock
	NoDeckShuffle   bool   `env:"SHARDX_NO_DECK_SHUFFLE" json:"no_deck_shuffle,omitempty"`
	NoPlayerShuffle bool   `env:"SHARDX_NO_PLAYER_SHUFFLE" json:"no_player_shuffle,omitempty"`
	IgnoreCost      bool   `env:"SHARDX_IGNORE_COST" json:"ignore_cost,omitempty"`
	DebugCommand    bool   `env:"SHARDX_DEBUG_COMMAND" json:"debug_command,omitempty"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadConfig reads the regulation and debug switches from the environment.
func LoadConfig() (Regulation, DebugConfig, error) {
	var reg Regulation
	var debug DebugConfig
	if err := ParseEnv(&reg); err != nil {
		return reg, debug, err
	}
	if err := ParseEnv(&debug); err != nil {
		return reg, debug, err
	}
	return reg, debug, nil
}

// PlayerConfig is one seat: its deck as archetype ids, top card last.
type PlayerConfig struct {
	Deck []string `json:"deck"`
}

// EnvironmentConfig is everything NewEnvironment needs besides the catalog.
type EnvironmentConfig struct {
	Regulation Regulation
	Debug      DebugConfig
	Players    []PlayerConfig
	// Logger receives diagnostics; nil means zap.NewNop().
	Logger *zap.Logger
}

// NewLogger builds the diagnostic logger used by the commands.
func NewLogger(jsonOutput bool) (*zap.Logger, error) {
	if jsonOutput {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// Assets is what a command needs to host games.
type Assets struct {
	Catalog *Catalog
	Decks   *DeckFile
	Env     EnvironmentConfig
}

// LoadAssets reads the catalog and deck files, falling back to the built-in
// ones for empty paths, and the configuration from the environment.
func LoadAssets(catalogPath, decksPath string, logger *zap.Logger) (Assets, error) {
	var a Assets
	var err error
	if catalogPath == "" {
		a.Catalog, err = DefaultCatalog()
	} else {
		a.Catalog, err = LoadCatalogFile(catalogPath)
	}
	if err != nil {
		return a, fmt.Errorf("load catalog: %w", err)
	}
	if decksPath == "" {
		a.Decks = StarterDecks()
	} else if a.Decks, err = ParseDeckFile(decksPath); err != nil {
		return a, fmt.Errorf("load decks: %w", err)
	}
	reg, debug, err := LoadConfig()
	if err != nil {
		return a, err
	}
	a.Env = EnvironmentConfig{Regulation: reg, Debug: debug, Logger: logger}
	return a, nil
}
