package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// relay copies protocol messages between a browser and a game server until
// the game server side ends. Each TCP message becomes one websocket text
// message and back.
func relay(ctx context.Context, ws *websocket.Conn, conn net.Conn, logger *zap.Logger) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		toBrowser(ctx, ws, conn, logger)
	}()
	go func() {
		// A browser that goes away ends the game connection too.
		defer conn.Close()
		toServer(ctx, ws, conn, logger)
	}()
	<-done
}

func toBrowser(ctx context.Context, ws *websocket.Conn, conn net.Conn, logger *zap.Logger) {
	dec := json.NewDecoder(conn)
	for {
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.Warn("game server read", zap.Error(err))
			}
			return
		}
		if err := ws.Write(ctx, websocket.MessageText, msg); err != nil {
			logger.Debug("browser write", zap.Error(err))
			return
		}
	}
}

func toServer(ctx context.Context, ws *websocket.Conn, conn net.Conn, logger *zap.Logger) {
	for {
		typ, data, err := ws.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText || !json.Valid(data) {
			logger.Debug("dropping malformed browser message")
			continue
		}
		if _, err := conn.Write(append(data, '\n')); err != nil {
			logger.Warn("game server write", zap.Error(err))
			return
		}
	}
}
