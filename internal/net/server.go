package net

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
)

// Server hosts a game between the local player and one TCP client.
type Server struct {
	Catalog  *game.Catalog
	Decks    *game.DeckFile
	Env      game.EnvironmentConfig
	Addr     string
	HostDeck int // host's deck number (1-indexed)
	Logger   *zap.Logger

	// In and Out are the host's terminal.
	In  io.Reader
	Out io.Writer
}

// Accept waits for one player to connect and send its join message. The
// deck number defaults to the seat's number.
func Accept(ctx context.Context, ln net.Listener, player uint8, timeout time.Duration, logger *zap.Logger) (*NetworkController, int, error) {
	conn, err := ln.Accept()
	if err != nil {
		return nil, 0, fmt.Errorf("accept: %w", err)
	}
	nc := NewNetworkController(conn, player, timeout, logger)
	msg, err := nc.Join(ctx)
	if err != nil {
		nc.Close()
		return nil, 0, err
	}
	deck := msg.DeckNumber
	if deck == 0 {
		deck = int(player) + 1
	}
	return nc, deck, nil
}

// Run starts the server, waits for a client to join, then runs the game.
func (s *Server) Run(ctx context.Context) error {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer ln.Close()

	fmt.Fprintf(s.Out, "Waiting for opponent on %s...\n", ln.Addr())

	joiner, joinerDeck, err := Accept(ctx, ln, 1, s.Env.Regulation.ActionTimeout, logger)
	if err != nil {
		return err
	}
	defer joiner.Close()
	fmt.Fprintf(s.Out, "Opponent connected from %s with deck %d\n", joiner.conn.RemoteAddr(), joinerDeck)

	hostEntry, err := s.Decks.DeckByNumber(s.HostDeck)
	if err != nil {
		return fmt.Errorf("load host deck: %w", err)
	}
	joinerEntry, err := s.Decks.DeckByNumber(joinerDeck)
	if err != nil {
		_ = joiner.Send(ServerMessage{Type: MsgError, Error: err.Error()})
		return fmt.Errorf("load joiner deck: %w", err)
	}

	// The host plays through the same protocol over an in-memory pipe.
	hostConn, hostServerConn := net.Pipe()
	host := NewNetworkController(hostServerConn, 0, 0, logger)
	defer host.Close()

	sess, err := NewSession(SessionConfig{
		Catalog: s.Catalog,
		Env:     s.Env,
		Decks:   []game.DeckEntry{hostEntry, joinerEntry},
		Logger:  logger,
	}, host, joiner)
	if err != nil {
		_ = joiner.Send(ServerMessage{Type: MsgError, Error: err.Error()})
		return err
	}
	fmt.Fprintf(s.Out, "Host: %s / Joiner: %s\n", hostEntry.Name, joinerEntry.Name)

	errCh := make(chan error, 2)
	go func() {
		client := NewClient(hostConn, s.In, s.Out)
		errCh <- client.RunREPL(ctx)
	}()
	if err := joiner.Send(ServerMessage{Type: MsgWelcome, GameID: sess.ID.String(), Player: 1}); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	if err := host.Send(ServerMessage{Type: MsgWelcome, GameID: sess.ID.String(), Player: 0}); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}

	go func() {
		result, err := sess.Run(ctx)
		if err != nil {
			errCh <- err
			return
		}
		_ = joiner.SendGameOver(sess.View(1), result)
		_ = host.SendGameOver(sess.View(0), result)
		errCh <- nil
	}()

	// Wait for either the game or the host's REPL to finish
	return <-errCh
}
