package web

import (
	"github.com/peterkuimelis/shardx/internal/game"
)

// DeckInfo is the JSON representation of a deck for the /api/decks endpoint.
type DeckInfo struct {
	Number int            `json:"number"`
	Name   string         `json:"name"`
	Size   int            `json:"size"`
	Colors []string       `json:"colors"`
	Cards  []DeckCardInfo `json:"cards"`
}

// DeckCardInfo is one distinct card of a deck.
type DeckCardInfo struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Count int    `json:"count"`
	// Unknown is set when the catalog has no such card; the game server
	// will refuse the deck.
	Unknown bool `json:"unknown,omitempty"`
}

// deckInfos resolves every deck entry against the catalog.
func deckInfos(catalog *game.Catalog, df *game.DeckFile) []DeckInfo {
	decks := make([]DeckInfo, 0, len(df.Decks))
	for i, d := range df.Decks {
		di := DeckInfo{Number: i + 1, Name: d.Name, Cards: []DeckCardInfo{}}
		var colors game.Color
		index := make(map[string]int)
		for _, c := range d.Cards {
			di.Size += c.Count
			card := DeckCardInfo{Name: c.Name, Count: c.Count}
			if a, err := catalog.Lookup(c.Name); err == nil {
				card.ID, card.Name = a.ID, a.Name
				colors |= a.Color
			} else {
				card.Unknown = true
			}
			if j, ok := index[card.Name]; ok {
				di.Cards[j].Count += card.Count
				continue
			}
			index[card.Name] = len(di.Cards)
			di.Cards = append(di.Cards, card)
		}
		di.Colors = colorNames(colors)
		decks = append(decks, di)
	}
	return decks
}

func colorNames(c game.Color) []string {
	names := []string{}
	for _, base := range game.Colors {
		if c&base != 0 {
			names = append(names, base.String())
		}
	}
	return names
}
