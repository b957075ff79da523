package discover

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/server"
)

// Registrar ties the discovery endpoints into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar builds the discover service and its routes.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the discovery routes. All of them require auth.
func (r *Registrar) Register(_, protected *mux.Router) {
	protected.HandleFunc("/discover", r.handleLoad).Methods(http.MethodGet)
	protected.HandleFunc("/discover/session", r.handleResetSession).Methods(http.MethodDelete)
}

func (r *Registrar) handleLoad(w http.ResponseWriter, req *http.Request) {
	deck, err := r.svc.LoadCandidates(req.Context(), server.UserID(req.Context()))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"candidates": deck})
}

func (r *Registrar) handleResetSession(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.ResetSession(req.Context(), server.UserID(req.Context())); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "session cleared"})
}
