package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
	"github.com/peterkuimelis/shardx/internal/log"
)

// NetworkController implements game.PlayerController over a TCP connection.
// A reader goroutine decodes client messages so a slow player can be timed
// out without breaking the stream.
type NetworkController struct {
	conn    net.Conn
	enc     *json.Encoder
	player  uint8
	timeout time.Duration // 0 waits forever
	logger  *zap.Logger

	incoming chan ClientMessage
	done     chan struct{}
	readErr  error // set before incoming is closed
	mu       sync.Mutex
	once     sync.Once
}

// NewNetworkController creates a new controller for the given connection
// and starts reading from it.
func NewNetworkController(conn net.Conn, player uint8, timeout time.Duration, logger *zap.Logger) *NetworkController {
	if logger == nil {
		logger = zap.NewNop()
	}
	nc := &NetworkController{
		conn:     conn,
		enc:      json.NewEncoder(conn),
		player:   player,
		timeout:  timeout,
		logger:   logger.With(zap.Uint8("player", player)),
		incoming: make(chan ClientMessage),
		done:     make(chan struct{}),
	}
	go nc.readLoop()
	return nc
}

func (nc *NetworkController) readLoop() {
	defer close(nc.incoming)
	dec := json.NewDecoder(nc.conn)
	for {
		var msg ClientMessage
		if err := dec.Decode(&msg); err != nil {
			nc.readErr = err
			return
		}
		select {
		case nc.incoming <- msg:
		case <-nc.done:
			return
		}
	}
}

// recv waits for the next client message.
func (nc *NetworkController) recv(ctx context.Context, timeout <-chan time.Time) (ClientMessage, error) {
	select {
	case <-ctx.Done():
		return ClientMessage{}, ctx.Err()
	case <-timeout:
		return ClientMessage{}, errTimeout
	case msg, ok := <-nc.incoming:
		if !ok {
			return ClientMessage{}, fmt.Errorf("connection closed: %w", nc.readErr)
		}
		return msg, nil
	}
}

var errTimeout = errors.New("timed out")

// Join waits for the handshake message.
func (nc *NetworkController) Join(ctx context.Context) (ClientMessage, error) {
	msg, err := nc.recv(ctx, nil)
	if err != nil {
		return msg, fmt.Errorf("read join message: %w", err)
	}
	if msg.Type != MsgJoin {
		return msg, fmt.Errorf("expected %q, got %q", MsgJoin, msg.Type)
	}
	return msg, nil
}

// Send writes one server message.
func (nc *NetworkController) Send(msg ServerMessage) error {
	nc.mu.Lock()
	defer nc.mu.Unlock()
	return nc.enc.Encode(msg)
}

// ChooseAction implements game.PlayerController. Illegal answers are
// refused and asked again; a timeout plays the default action.
func (nc *NetworkController) ChooseAction(ctx context.Context, view game.LocalEnvironment, actions *game.PlayerAvailableActions) (game.Action, error) {
	prompt := ServerMessage{Type: MsgChooseAction, State: &view, Actions: actions, Choices: Choices(view, actions)}
	if err := nc.Send(prompt); err != nil {
		return game.Action{}, fmt.Errorf("send choose_action: %w", err)
	}

	var timeout <-chan time.Time
	if nc.timeout > 0 {
		t := time.NewTimer(nc.timeout)
		defer t.Stop()
		timeout = t.C
	}
	for {
		msg, err := nc.recv(ctx, timeout)
		switch {
		case errors.Is(err, errTimeout):
			a, ok := actions.DefaultAction()
			if !ok {
				a = game.Action{Name: game.ActionConcede}
			}
			nc.logger.Info("action timed out", zap.String("default", string(a.Name)))
			return a, nil
		case err != nil:
			return game.Action{}, fmt.Errorf("recv action: %w", err)
		}

		if msg.Type == MsgAction && msg.Action != nil && actions.Validate(nc.player, *msg.Action) {
			return *msg.Action, nil
		}
		nc.logger.Debug("illegal action", zap.String("type", msg.Type))
		if err := nc.Send(ServerMessage{Type: MsgError, Error: "illegal action"}); err != nil {
			return game.Action{}, err
		}
		if err := nc.Send(prompt); err != nil {
			return game.Action{}, fmt.Errorf("send choose_action: %w", err)
		}
	}
}

// Notify implements game.PlayerController.
func (nc *NetworkController) Notify(_ context.Context, events []log.GameEvent) error {
	return nc.Send(ServerMessage{Type: MsgNotify, Events: events})
}

// SendGameOver sends a game_over message to the client.
func (nc *NetworkController) SendGameOver(view game.LocalEnvironment, result game.EndgameState) error {
	return nc.Send(ServerMessage{Type: MsgGameOver, State: &view, Result: &result})
}

// Close stops the reader and closes the connection.
func (nc *NetworkController) Close() error {
	var err error
	nc.once.Do(func() {
		close(nc.done)
		err = nc.conn.Close()
	})
	return err
}
