package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gamebattle/arena/internal/arena"
)

// upgrader accepts any origin: the arena sits behind a gateway that already
// enforces CORS/origin policy (out of scope per spec §1); re-checking it
// here would just duplicate that collaborator's job.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// clientFrame is one client->server WebSocket message (spec §6's frame
// grammar).
type clientFrame struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
	Rows int    `json:"rows,omitempty"`
	Cols int    `json:"cols,omitempty"`
}

// serverFrame is one server->client WebSocket message.
type serverFrame struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// gameWebSocket bridges a browser WebSocket to a Game's PTY stream (spec
// §6's WS grammar, §4.1's Attach contract, §5's cancellation rule). Unlike
// every other endpoint, auth here arrives as the connection's first text
// frame rather than a bearer header — the WebSocket handshake itself carries
// no Authorization header browsers can set without a plugin, so the token
// rides inside the channel instead (spec §6: "token as first text frame").
//
// Grounded on the teacher's gameio.go bidirectional-bridge shape
// (client<->server goroutines racing into a shared done channel, first one
// to finish wins), re-targeted from an SSH channel + gRPC stream pair to a
// *websocket.Conn + arena.Game's ReplayStream subscription.
func (s *Server) gameWebSocket(w http.ResponseWriter, r *http.Request) {
	id, index, err := parseSessionAndGameIndex(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	_, tokenBytes, err := conn.ReadMessage()
	if err != nil {
		return
	}
	claims, err := s.verifier.Verify(string(tokenBytes))
	if err != nil {
		s.sendBye(conn)
		return
	}

	game, err := s.sessions.GetGame(claims.Email, id, index)
	if err != nil {
		s.sendBye(conn)
		return
	}

	s.bridgeGameIO(conn, game)
}

// bridgeGameIO runs the reader (game->client) and writer (client->game)
// directions as independent goroutines and waits for the first to finish,
// then cancels the other and sends one final "bye" frame (spec §5).
func (s *Server) bridgeGameIO(conn *websocket.Conn, game *arena.Game) {
	if s.metrics != nil {
		s.metrics.WebsocketConns.Inc()
		defer s.metrics.WebsocketConns.Dec()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{}, 2)

	go func() {
		defer func() { done <- struct{}{} }()
		s.pumpGameToClient(ctx, conn, game)
	}()

	go func() {
		defer func() { done <- struct{}{} }()
		s.pumpClientToGame(ctx, conn, game)
	}()

	<-done
	cancel()
	s.sendBye(conn)
}

// pumpGameToClient streams the game's ReplayStream to the client until the
// stream closes or ctx is cancelled by the other direction finishing first.
func (s *Server) pumpGameToClient(ctx context.Context, conn *websocket.Conn, game *arena.Game) {
	sub := game.Receive()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		frame, ok := sub.Next()
		if !ok {
			return
		}
		payload := serverFrame{Type: "stdout", Data: base64.StdEncoding.EncodeToString(frame.Bytes)}
		if err := conn.WriteJSON(payload); err != nil {
			return
		}
	}
}

// pumpClientToGame reads client frames (stdin/resize) until the socket
// closes or ctx is cancelled.
func (s *Server) pumpClientToGame(ctx context.Context, conn *websocket.Conn, game *arena.Game) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Type {
		case "stdin":
			data, err := base64.StdEncoding.DecodeString(frame.Data)
			if err != nil {
				continue
			}
			_ = game.Send(data)
		case "resize":
			resizeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			_ = game.Resize(resizeCtx, frame.Cols, frame.Rows)
			cancel()
		}
	}
}

func (s *Server) sendBye(conn *websocket.Conn) {
	_ = conn.WriteJSON(serverFrame{Type: "bye"})
	_ = conn.Close()
}
