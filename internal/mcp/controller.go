package mcp

import (
	"context"
	"fmt"
	stdnet "net"

	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
	shardxnet "github.com/peterkuimelis/shardx/internal/net"
)

// opponent builds the controller for the seat the agent does not play and
// returns the deck number it plays with. A human picks their own deck when
// joining.
func (gs *GameSession) opponent(ctx context.Context, h *Handler, cfg GameConfig, player uint8) (game.PlayerController, int, error) {
	if !cfg.Human {
		return game.DefaultController{}, cfg.OpponentDeck, nil
	}

	ln, err := stdnet.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		return nil, 0, fmt.Errorf("listen: %w", err)
	}
	gs.ln = ln
	h.Logger.Info("waiting for opponent", zap.Stringer("addr", ln.Addr()))

	// Accept does not watch ctx; closing the listener unblocks it.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	nc, deck, err := shardxnet.Accept(ctx, ln, player, h.Env.Regulation.ActionTimeout, h.Logger)
	if err != nil {
		gs.close()
		return nil, 0, err
	}
	gs.human = nc
	return nc, deck, nil
}

// welcome tells a human opponent the game has started.
func (gs *GameSession) welcome(player uint8) error {
	if gs.human == nil {
		return nil
	}
	return gs.human.Send(shardxnet.ServerMessage{Type: shardxnet.MsgWelcome, GameID: gs.sess.ID.String(), Player: player})
}
