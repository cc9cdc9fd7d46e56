package server

import (
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"termchat/contract"
	"termchat/runtime"
)

const shutdownTimeout = 5 * time.Second

// Server accepts websocket connections and hands each one to a Session.
type Server struct {
	log              *slog.Logger
	addr             string
	registry         contract.IRegistry
	router           *runtime.Router
	connectionBuffer int
	upgrader         websocket.Upgrader
}

func NewServer(
	log *slog.Logger,
	host string,
	port int,
	registry contract.IRegistry,
	router *runtime.Router,
	connectionBuffer int,
) *Server {
	return &Server{
		log:              log,
		addr:             fmt.Sprintf("%s:%d", host, port),
		registry:         registry,
		router:           router,
		connectionBuffer: connectionBuffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Terminal clients connect without an Origin header.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("Forced shutdown", "error", err)
			_ = httpServer.Close()
		}
	}()

	s.log.Info("Chat server listening", "addr", s.addr, "path", "/ws")
	if err := httpServer.ListenAndServe(); err != nil && !goerrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleWS upgrades the HTTP request and runs the session on the handler
// goroutine, which lives as long as the connection does.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	session := NewSession(s.log, newWSConn(conn), s.registry, s.router, s.connectionBuffer)
	if err := session.Run(r.Context()); err != nil {
		s.log.Debug("Session rejected or failed", "remote", r.RemoteAddr, "error", err)
	}
}
