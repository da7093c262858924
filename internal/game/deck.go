package game

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed decks.yaml
var starterDecksYAML []byte

// DeckFile represents the top-level YAML structure.
type DeckFile struct {
	Decks []DeckEntry `yaml:"decks" json:"decks"`
}

// DeckEntry represents a single deck in the YAML file.
type DeckEntry struct {
	Name  string      `yaml:"name" json:"name"`
	Cards []CardEntry `yaml:"cards" json:"cards"`
}

// CardEntry represents a card and its count in a deck. Name may be an
// archetype id or a card name.
type CardEntry struct {
	Name  string `yaml:"name" json:"name"`
	Count int    `yaml:"count" json:"count"`
}

// ParseDecks parses YAML deck data.
func ParseDecks(data []byte) (*DeckFile, error) {
	var df DeckFile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return nil, fmt.Errorf("parse deck YAML: %w", err)
	}
	return &df, nil
}

// ParseDeckFile reads and parses a YAML deck file.
func ParseDeckFile(path string) (*DeckFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDecks(data)
}

// StarterDecks returns the built-in decks.
func StarterDecks() *DeckFile {
	df, err := ParseDecks(starterDecksYAML)
	if err != nil {
		panic(err)
	}
	return df
}

// DeckByNumber returns the Nth deck (1-indexed).
func (df *DeckFile) DeckByNumber(n int) (DeckEntry, error) {
	if n < 1 || n > len(df.Decks) {
		return DeckEntry{}, fmt.Errorf("deck %d not found (have %d decks)", n, len(df.Decks))
	}
	return df.Decks[n-1], nil
}

// Resolve expands the deck into archetype ids against catalog.
func (d DeckEntry) Resolve(catalog *Catalog) ([]string, error) {
	var ids []string
	for _, entry := range d.Cards {
		a, err := catalog.Lookup(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("deck %q: %w", d.Name, err)
		}
		for i := 0; i < entry.Count; i++ {
			ids = append(ids, a.ID)
		}
	}
	return ids, nil
}

// Verify checks deck size bounds and copy limits. Tokens are never
// allowed in a deck.
func (r Regulation) Verify(deck []string, catalog *Catalog) error {
	if len(deck) < r.MinDeckSize || len(deck) > r.MaxDeckSize {
		return fmt.Errorf("%d cards, want %d to %d: %w", len(deck), r.MinDeckSize, r.MaxDeckSize, ErrInvalidDeck)
	}
	counts := make(map[string]int)
	for _, id := range deck {
		a, err := catalog.Get(id)
		if err != nil {
			return err
		}
		if a.Token {
			return fmt.Errorf("token %q in deck: %w", a.Name, ErrInvalidDeck)
		}
		counts[id]++
		if counts[id] > r.MaxSameCards {
			return fmt.Errorf("%d copies of %q, max %d: %w", counts[id], a.Name, r.MaxSameCards, ErrInvalidDeck)
		}
	}
	return nil
}

// NewGame resolves each seat's deck, checks it against the regulation and
// builds the environment. cfg.Players is replaced.
func NewGame(catalog *Catalog, cfg EnvironmentConfig, decks ...DeckEntry) (*Environment, error) {
	cfg.Players = make([]PlayerConfig, 0, len(decks))
	for i, d := range decks {
		ids, err := d.Resolve(catalog)
		if err != nil {
			return nil, err
		}
		if err := cfg.Regulation.Verify(ids, catalog); err != nil {
			return nil, fmt.Errorf("deck %q of player %d: %w", d.Name, i, err)
		}
		cfg.Players = append(cfg.Players, PlayerConfig{Deck: ids})
	}
	return NewEnvironment(catalog, cfg)
}
