package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/peterkuimelis/shardx/internal/game"
	shardxnet "github.com/peterkuimelis/shardx/internal/net"
)

//go:embed static
var staticFiles embed.FS

// CardInfo is the JSON representation of a card for the /api/cards endpoint.
type CardInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Text         string   `json:"text,omitempty"`
	CardType     string   `json:"cardType"`
	Color        string   `json:"color"`
	Cost         uint8    `json:"cost"`
	CreatureType string   `json:"creatureType,omitempty"`
	Power        *uint32  `json:"power,omitempty"`
	Shields      *uint8   `json:"shields,omitempty"`
	Abilities    []string `json:"abilities,omitempty"`
}

// Server is the shardx web UI server. Browsers reach a game server through
// the /ws relay.
type Server struct {
	catalog *game.Catalog
	decks   *game.DeckFile
	logger  *zap.Logger
	mux     *http.ServeMux
}

// NewServer creates a new web server.
func NewServer(catalog *game.Catalog, decks *game.DeckFile, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalog: catalog,
		decks:   decks,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	staticFS, _ := fs.Sub(staticFiles, "static")

	// Serve index.html at root
	s.mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		f, err := staticFS.Open("index.html")
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.Copy(w, f)
	})

	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	s.mux.HandleFunc("GET /api/cards", s.handleCards)
	s.mux.HandleFunc("GET /api/decks", s.handleDecks)

	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleCards(w http.ResponseWriter, r *http.Request) {
	cards := []CardInfo{}
	for _, a := range s.catalog.Playable() {
		ci := CardInfo{
			ID:           a.ID,
			Name:         a.Name,
			Text:         a.Text,
			CardType:     a.CardType.String(),
			Color:        a.Color.String(),
			Cost:         a.Cost,
			CreatureType: a.CreatureType,
			Power:        a.Power,
			Shields:      a.Shields,
		}
		for _, k := range a.Abilities {
			ci.Abilities = append(ci.Abilities, string(k))
		}
		cards = append(cards, ci)
	}
	writeJSON(w, cards)
}

func (s *Server) handleDecks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, deckInfos(s.catalog, s.decks))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// connectMessage is the first message a browser sends on /ws.
type connectMessage struct {
	Type       string `json:"type"`
	Addr       string `json:"addr"`
	DeckNumber int    `json:"deck_number"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow connections from any origin
	})
	if err != nil {
		s.logger.Warn("websocket accept", zap.Error(err))
		return
	}
	defer wsConn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	_, connectData, err := wsConn.Read(ctx)
	if err != nil {
		s.logger.Debug("websocket read connect", zap.Error(err))
		return
	}
	var connect connectMessage
	if err := json.Unmarshal(connectData, &connect); err != nil || connect.Type != "connect" {
		wsConn.Close(websocket.StatusPolicyViolation, "expected connect message")
		return
	}
	connect.Addr = normalizeAddr(connect.Addr)
	logger := s.logger.With(zap.String("addr", connect.Addr), zap.String("remote", r.RemoteAddr))

	var d net.Dialer
	tcpConn, err := d.DialContext(ctx, "tcp", connect.Addr)
	if err != nil {
		logger.Info("game server unreachable", zap.Error(err))
		msg, _ := json.Marshal(shardxnet.ServerMessage{
			Type:  shardxnet.MsgError,
			Error: fmt.Sprintf("could not connect to game server at %s: %v", connect.Addr, err),
		})
		wsConn.Write(ctx, websocket.MessageText, msg)
		wsConn.Close(websocket.StatusNormalClosure, "connection failed")
		return
	}
	defer tcpConn.Close()

	if err := json.NewEncoder(tcpConn).Encode(shardxnet.ClientMessage{Type: shardxnet.MsgJoin, DeckNumber: connect.DeckNumber}); err != nil {
		logger.Warn("send join", zap.Error(err))
		return
	}
	logger.Info("relay started", zap.Int("deck", connect.DeckNumber))

	relay(ctx, wsConn, tcpConn, logger)
	logger.Info("relay finished")
	wsConn.Close(websocket.StatusNormalClosure, "game ended")
}

// ListenAndServe starts the HTTP server and stops it when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	s.logger.Info("web UI listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// normalizeAddr turns a bare port into a local address.
func normalizeAddr(addr string) string {
	if addr != "" && !strings.Contains(addr, ":") {
		return "localhost:" + addr
	}
	return addr
}
