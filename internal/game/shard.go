package game

import (
	"fmt"
	"sort"
)

// ShardList is a player's shard pool, keyed by color.
type ShardList map[Color]uint32

func (s ShardList) Get(c Color) uint32 { return s[c] }

func (s ShardList) Add(c Color, n uint32) {
	if n > 0 {
		s[c] += n
	}
}

// Available is what a card of color c can spend: its own color plus colorless.
func (s ShardList) Available(c Color) uint32 {
	if c == ColorColorless {
		return s[ColorColorless]
	}
	return s[c] + s[ColorColorless]
}

// Consume pays n for a card of color c, drawing from c first and then from
// colorless. The pool is left untouched when it is short.
func (s ShardList) Consume(c Color, n uint32) error {
	if s.Available(c) < n {
		return fmt.Errorf("%d %s shard(s) needed, %d available: %w", n, c, s.Available(c), ErrInsufficientShards)
	}
	if c != ColorColorless {
		take := min(s[c], n)
		s[c] -= take
		n -= take
	}
	s[ColorColorless] -= n
	for k, v := range s {
		if v == 0 {
			delete(s, k)
		}
	}
	return nil
}

// Len is the total number of shards.
func (s ShardList) Len() uint32 {
	var total uint32
	for _, v := range s {
		total += v
	}
	return total
}

// Colors returns the colors present in a stable order.
func (s ShardList) Colors() []Color {
	out := make([]Color, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s ShardList) Clone() ShardList {
	out := make(ShardList, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
