package game

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/peterkuimelis/shardx/internal/script"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Archetype is the printed definition of a card.
type Archetype struct {
	ID            string             `yaml:"id" json:"id"`
	Name          string             `yaml:"name" json:"name"`
	Color         Color              `yaml:"color" json:"color"`
	Cost          uint8              `yaml:"cost" json:"cost"`
	CardType      CardType           `yaml:"type" json:"card_type"`
	CreatureType  string             `yaml:"creature_type" json:"creature_type,omitempty"`
	Power         *uint32            `yaml:"power" json:"power,omitempty"`
	Shields       *uint8             `yaml:"shields" json:"shields,omitempty"`
	Abilities     []KeywordAbility   `yaml:"abilities" json:"abilities,omitempty"`
	AnonAbilities []AnonymousAbility `yaml:"anon_abilities" json:"anon_abilities,omitempty"`
	Token         bool               `yaml:"token" json:"token,omitempty"`
	Text          string             `yaml:"text" json:"text,omitempty"`
	Script        string             `yaml:"script" json:"-"`

	module *script.Module
}

// NewEffect returns a fresh effect instance for one card.
func (a *Archetype) NewEffect() Effect {
	if a.module == nil {
		return NoEffect{}
	}
	return newScriptEffect(a.module)
}

// Scripted reports whether the archetype carries a script.
func (a *Archetype) Scripted() bool { return a.module != nil }

// Catalog maps archetype ids to archetypes. It is read-only after loading
// and safe to share between games.
type Catalog struct {
	byID   map[string]*Archetype
	byName map[string]*Archetype
	order  []string
}

type catalogFile struct {
	Cards []*Archetype `yaml:"cards"`
}

// LoadCatalog parses a YAML catalog and compiles every card script.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog YAML: %w", err)
	}
	c := &Catalog{byID: make(map[string]*Archetype), byName: make(map[string]*Archetype)}
	for _, a := range f.Cards {
		if err := c.add(a); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// LoadCatalogFile reads a catalog from disk.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadCatalog(data)
}

// DefaultCatalog returns the built-in starter catalog.
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultCatalogYAML)
}

func (c *Catalog) add(a *Archetype) error {
	if a.ID == "" {
		return fmt.Errorf("card %q has no id", a.Name)
	}
	if _, dup := c.byID[a.ID]; dup {
		return fmt.Errorf("duplicate card id %q", a.ID)
	}
	if a.CardType == CardTypeCreature && a.Power == nil {
		return fmt.Errorf("creature %q has no power", a.ID)
	}
	if strings.TrimSpace(a.Script) != "" {
		m, err := script.Compile(a.Script)
		if err != nil {
			return fmt.Errorf("compile script of %q: %w", a.ID, err)
		}
		a.module = m
	}
	c.byID[a.ID] = a
	c.byName[strings.ToLower(a.Name)] = a
	c.order = append(c.order, a.ID)
	return nil
}

// Get returns the archetype with the given id.
func (c *Catalog) Get(id string) (*Archetype, error) {
	a, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrUnknownArchetype)
	}
	return a, nil
}

// Lookup resolves an archetype by id or by case-insensitive name.
func (c *Catalog) Lookup(key string) (*Archetype, error) {
	if a, ok := c.byID[key]; ok {
		return a, nil
	}
	if a, ok := c.byName[strings.ToLower(strings.TrimSpace(key))]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("%q: %w", key, ErrUnknownArchetype)
}

// All returns every archetype in load order.
func (c *Catalog) All() []*Archetype {
	out := make([]*Archetype, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Playable returns the non-token archetypes sorted by color, cost and name.
func (c *Catalog) Playable() []*Archetype {
	var out []*Archetype
	for _, a := range c.All() {
		if !a.Token {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Color != out[j].Color {
			return out[i].Color < out[j].Color
		}
		if out[i].Cost != out[j].Cost {
			return out[i].Cost < out[j].Cost
		}
		return out[i].Name < out[j].Name
	})
	return out
}
