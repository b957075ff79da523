package ws

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Registrar exposes the websocket upgrade endpoint.
//
// The route sits on the public router because the token arrives as a query
// parameter, not an Authorization header; Handler does its own
// verification.
type Registrar struct {
	hub      *Hub
	verifier TokenVerifier
}

// NewRegistrar wires the hub and token verifier into a route registrar.
func NewRegistrar(hub *Hub, verifier TokenVerifier) *Registrar {
	return &Registrar{hub: hub, verifier: verifier}
}

// Register attaches the websocket route.
func (r *Registrar) Register(public, _ *mux.Router) {
	public.HandleFunc("/ws", Handler(r.hub, r.verifier)).Methods(http.MethodGet)
}
