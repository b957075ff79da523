package ws

import (
	"net/http"

	"nhooyr.io/websocket"
)

// TokenVerifier turns a bearer token into a user id. Satisfied by the auth
// service.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// Handler upgrades authenticated HTTP requests to hub clients.
//
// Browsers cannot set headers on websocket dials, so the token rides in
// the "token" query parameter instead of Authorization.
func Handler(hub *Hub, verifier TokenVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		userID, err := verifier.VerifyToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // cross-origin handled by the CORS layer
		})
		if err != nil {
			hub.logger.Debug("ws accept failed", "user", userID, "err", err)
			return
		}

		client := NewClient(hub, conn, userID)
		client.Register()
		go client.WritePump()
		client.ReadPump()
	}
}
