package api

import (
	"net/http"

	"nodal/internal/auth"
	"nodal/internal/websocket"

	"go.uber.org/zap"
)

// ServeWsHandler upgrades to a websocket that receives the caller's journal
// events as they are committed. Browsers cannot set headers on the upgrade,
// so the session token travels in ?token=.
func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		s.log.Debug("ws connection attempt without token", zap.String("remote_addr", r.RemoteAddr))
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := auth.VerifyJWT(tokenString, s.config.JWT.Secret)
	if err != nil {
		s.log.Debug("ws connection attempt with invalid token", zap.Error(err))
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade error", zap.Error(err))
		return
	}

	client := websocket.NewClient(s.wsHub, conn, claims.UserID())
	s.wsHub.Register <- client

	go client.ReadPump()
	go client.WritePump()
}
