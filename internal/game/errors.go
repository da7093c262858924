package game

import "errors"

var (
	ErrCardNotFound       = errors.New("card not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrInsufficientShards = errors.New("insufficient shards")
	ErrTargetLost         = errors.New("target lost")
	ErrAlreadyCast        = errors.New("card already cast")
	ErrInvalidAction      = errors.New("invalid action")
	ErrUnknownArchetype   = errors.New("unknown archetype")
	ErrInvalidDeck        = errors.New("invalid deck")
)
