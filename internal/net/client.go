package net

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/peterkuimelis/shardx/internal/game"
	"github.com/peterkuimelis/shardx/internal/log"
)

// Client connects to a game server and provides a terminal REPL.
type Client struct {
	conn net.Conn
	in   *bufio.Reader
	out  io.Writer
	seat uint8
}

func NewClient(conn net.Conn, in io.Reader, out io.Writer) *Client {
	return &Client{conn: conn, in: bufio.NewReader(in), out: out}
}

// Connect connects to a server, sends the deck choice, and runs the REPL.
func Connect(ctx context.Context, addr string, deckNumber int, in io.Reader, out io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	if err := json.NewEncoder(conn).Encode(ClientMessage{Type: MsgJoin, DeckNumber: deckNumber}); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	fmt.Fprintln(out, "Connected! Waiting for game to start...")
	return NewClient(conn, in, out).RunREPL(ctx)
}

// RunREPL reads server messages and handles them interactively.
func (c *Client) RunREPL(ctx context.Context) error {
	dec := json.NewDecoder(c.conn)
	enc := json.NewEncoder(c.conn)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var msg ServerMessage
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case MsgWelcome:
			c.seat = msg.Player
			fmt.Fprintf(c.out, "Game %s: you are P%d\n", msg.GameID, msg.Player+1)

		case MsgNotify:
			for _, ev := range msg.Events {
				fmt.Fprintln(c.out, log.FormatEvent(ev))
			}

		case MsgChooseAction:
			if msg.State == nil {
				return errors.New("choose_action without state")
			}
			c.renderState(*msg.State)
			choices := msg.Choices
			if len(choices) == 0 {
				choices = Choices(*msg.State, msg.Actions)
			}
			if msg.Actions != nil && msg.Actions.Instructions != "" {
				fmt.Fprintf(c.out, "\n%s\n", msg.Actions.Instructions)
			}
			c.renderChoices(choices)
			action, err := c.readAction(choices)
			if err != nil {
				return err
			}
			if err := enc.Encode(ClientMessage{Type: MsgAction, Action: &action}); err != nil {
				return fmt.Errorf("send action: %w", err)
			}

		case MsgError:
			fmt.Fprintf(c.out, "Server: %s\n", msg.Error)

		case MsgGameOver:
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			fmt.Fprintln(c.out, "          GAME OVER")
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			if msg.Result != nil {
				fmt.Fprintln(c.out, c.resultLine(*msg.Result))
			}
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			return nil
		}
	}
}

func (c *Client) resultLine(r game.EndgameState) string {
	switch {
	case r.Winner == nil:
		return fmt.Sprintf("Draw (%s)", r.Reason)
	case *r.Winner == c.seat:
		return fmt.Sprintf("You win! (%s)", r.Reason)
	default:
		return fmt.Sprintf("You lose. (%s)", r.Reason)
	}
}

func (c *Client) renderState(v game.LocalEnvironment) {
	if len(v.Players) < 2 {
		return
	}
	you := v.Players[v.Player]
	opp := v.Players[(int(v.Player)+1)%len(v.Players)]

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "╔══════════════════════════════════════════════════════╗")
	c.renderPlayer("OPPONENT", opp)
	fmt.Fprintf(c.out, "║  Field: %s\n", formatZone(opp.Field))
	fmt.Fprintln(c.out, "║──────────────────────────────────────────────────────")
	fmt.Fprintf(c.out, "║  Field: %s\n", formatZone(you.Field))
	c.renderPlayer("YOU", you)
	fmt.Fprintln(c.out, "╚══════════════════════════════════════════════════════╝")

	turnInfo := fmt.Sprintf("Turn %d | %s", v.Turn, v.Phase)
	if v.Current == v.Player {
		turnInfo += " | Your turn"
	} else {
		turnInfo += " | Opponent's turn"
	}
	fmt.Fprintln(c.out, turnInfo)

	if len(you.Hand) > 0 {
		fmt.Fprintf(c.out, "\nHand: ")
		for i, card := range you.Hand {
			fmt.Fprintf(c.out, "[%d] %s  ", i+1, card.Label())
		}
		fmt.Fprintln(c.out)
	}
}

func (c *Client) renderPlayer(who string, p game.PlayerSnapshot) {
	fmt.Fprintf(c.out, "║  %s (Life: %d)  Hand: %d  Deck: %d  Graveyard: %d  Shards: %s\n",
		who, p.Life, len(p.Hand), p.Deck, len(p.Graveyard), formatShards(p.Shards))
}

func formatZone(cards []game.CardSnapshot) string {
	if len(cards) == 0 {
		return "[ ]"
	}
	parts := make([]string, len(cards))
	for i, card := range cards {
		label := card.Label()
		if card.Field != nil && *card.Field == game.FieldExhausted {
			label += " exhausted"
		}
		parts[i] = "[" + label + "]"
	}
	return strings.Join(parts, " ")
}

func formatShards(s game.ShardList) string {
	if s.Len() == 0 {
		return "none"
	}
	var parts []string
	for _, color := range s.Colors() {
		parts = append(parts, fmt.Sprintf("%d %s", s.Get(color), color))
	}
	return strings.Join(parts, ", ")
}

func (c *Client) renderChoices(choices []Choice) {
	fmt.Fprintln(c.out, "\nActions:")
	for _, ch := range choices {
		fmt.Fprintf(c.out, "  %d) %s\n", ch.Index+1, ch.Desc)
	}
	fmt.Fprintln(c.out, "Several attacks or blocks can be combined: \"1 3\". Type \"concede\" to give up.")
}

// readAction reads choice numbers until they form one action.
func (c *Client) readAction(choices []Choice) (game.Action, error) {
	for {
		fmt.Fprint(c.out, "> ")
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			return game.Action{}, fmt.Errorf("read input: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "concede" {
			return game.Action{Name: game.ActionConcede}, nil
		}
		var indices []int
		valid := true
		for _, part := range strings.Fields(line) {
			n, err := strconv.Atoi(part)
			if err != nil {
				valid = false
				break
			}
			indices = append(indices, n-1) // convert to 0-indexed
		}
		if !valid {
			fmt.Fprintf(c.out, "Enter numbers between 1 and %d\n", len(choices))
			continue
		}
		action, err := Combine(choices, indices)
		if err != nil {
			fmt.Fprintln(c.out, err)
			continue
		}
		return action, nil
	}
}
