package game

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// PlayerCounters are per-turn tallies, reset on every turn change.
type PlayerCounters struct {
	Draw       uint32 `json:"draw"`
	Cast       uint32 `json:"cast"`
	FreeCasted uint32 `json:"free_casted"`
}

// Player represents one player's entire state.
type Player struct {
	ID        uint8
	Life      uint32
	Deck      []*Card // top of deck is last element (pop from end)
	Hand      []*Card
	Field     []*Card
	Graveyard []*Card
	Limbo     []*Card
	Shards    ShardList
	Abilities AbilityList[PlayerAbility]
	Endgame   *PlayerEndgame
	Counters  PlayerCounters
}

func newPlayer(id uint8, life uint32) *Player {
	return &Player{ID: id, Life: life, Shards: make(ShardList)}
}

func (p *Player) zone(k ZoneKind) *[]*Card {
	switch k {
	case ZoneDeck:
		return &p.Deck
	case ZoneHand:
		return &p.Hand
	case ZoneField:
		return &p.Field
	case ZoneGraveyard:
		return &p.Graveyard
	default:
		return &p.Limbo
	}
}

// Cards returns the cards in zone k.
func (p *Player) Cards(k ZoneKind) []*Card { return *p.zone(k) }

// remove takes the card out of zone k. It returns nil if it is not there.
func (p *Player) remove(k ZoneKind, id ObjectID) *Card {
	z := p.zone(k)
	for i, c := range *z {
		if c.ID == id {
			*z = append((*z)[:i], (*z)[i+1:]...)
			return c
		}
	}
	return nil
}

func (p *Player) push(c *Card) {
	z := p.zone(c.Zone.Kind)
	*z = append(*z, c)
}

// drawTop removes the top card of the deck, or returns nil if it is empty.
func (p *Player) drawTop() *Card {
	if len(p.Deck) == 0 {
		return nil
	}
	card := p.Deck[len(p.Deck)-1]
	p.Deck = p.Deck[:len(p.Deck)-1]
	return card
}

// shuffleDeck randomizes the deck order and hides every card face again.
func (p *Player) shuffleDeck(rng *rand.Rand) {
	rng.Shuffle(len(p.Deck), func(i, j int) {
		p.Deck[i], p.Deck[j] = p.Deck[j], p.Deck[i]
	})
	for _, c := range p.Deck {
		c.Revealed = 0
	}
}

// lose records a loss unless the player's outcome is already decided.
func (p *Player) lose(reason EndgameReason) {
	if p.Endgame == nil {
		p.Endgame = &PlayerEndgame{Reason: reason}
	}
}

func (p *Player) find(id ObjectID) *Card {
	for _, k := range []ZoneKind{ZoneField, ZoneHand, ZoneGraveyard, ZoneDeck, ZoneLimbo} {
		for _, c := range p.Cards(k) {
			if c.ID == id {
				return c
			}
		}
	}
	return nil
}

// --- GameState ---

// GameState holds the complete state of a game.
type GameState struct {
	Regulation Regulation
	Debug      DebugConfig
	Turn       uint16 // 1-based turn counter, 0 before initialization
	Phase      Phase
	Players    []*Player
	Current    uint8 // whose turn it is

	nextID ObjectID
	rng    *rand.Rand
}

func newGameState(reg Regulation, debug DebugConfig, players int) *GameState {
	seed := debug.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gs := &GameState{
		Regulation: reg,
		Debug:      debug,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for i := 0; i < players; i++ {
		gs.Players = append(gs.Players, newPlayer(uint8(i), reg.InitialLife))
	}
	return gs
}

// NextID generates a unique card instance ID.
func (gs *GameState) NextID() ObjectID {
	gs.nextID++
	return gs.nextID
}

// Player returns the player with the given seat.
func (gs *GameState) Player(id uint8) (*Player, error) {
	if int(id) >= len(gs.Players) {
		return nil, fmt.Errorf("player %d: %w", id, ErrPlayerNotFound)
	}
	return gs.Players[id], nil
}

// CurrentPlayer returns the Player struct for the turn player.
func (gs *GameState) CurrentPlayer() *Player {
	return gs.Players[gs.Current]
}

// NextPlayer returns the seat after p.
func (gs *GameState) NextPlayer(p uint8) uint8 {
	return uint8((int(p) + 1) % len(gs.Players))
}

// FindCard looks a card up by id in every zone of every player.
func (gs *GameState) FindCard(id ObjectID) (*Card, error) {
	for _, p := range gs.Players {
		if c := p.find(id); c != nil {
			return c, nil
		}
	}
	return nil, fmt.Errorf("card %d: %w", id, ErrCardNotFound)
}

// FindTimed resolves a timed reference. A card that changed zones since the
// reference was taken is reported as ErrTargetLost.
func (gs *GameState) FindTimed(t TimedObjectID) (*Card, error) {
	c, err := gs.FindCard(t.ID)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrTargetLost)
	}
	if c.Timestamp != t.Timestamp {
		return nil, fmt.Errorf("card %d moved (timestamp %d, want %d): %w", t.ID, c.Timestamp, t.Timestamp, ErrTargetLost)
	}
	return c, nil
}

// FieldCards returns every card on every field, in seat order.
func (gs *GameState) FieldCards() []*Card {
	var out []*Card
	for _, p := range gs.Players {
		out = append(out, p.Field...)
	}
	return out
}
