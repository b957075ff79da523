package chat

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/server"
)

// Registrar ties the chat endpoints into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar builds the chat service and its routes. notifier may be
// nil.
func NewRegistrar(appCtx *app.AppContext, notifier Notifier) *Registrar {
	return &Registrar{svc: NewService(appCtx, notifier)}
}

// Register attaches the chat routes. All of them require auth.
func (r *Registrar) Register(_, protected *mux.Router) {
	protected.HandleFunc("/chats", r.handleSummaries).Methods(http.MethodGet)
	protected.HandleFunc("/chats/{id}/messages", r.handleMessages).Methods(http.MethodGet)
	protected.HandleFunc("/chats/{id}/messages", r.handleSend).Methods(http.MethodPost)
}

func (r *Registrar) handleSummaries(w http.ResponseWriter, req *http.Request) {
	summaries, err := r.svc.ListSummaries(req.Context(), server.UserID(req.Context()))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"chats": summaries})
}

func (r *Registrar) handleMessages(w http.ResponseWriter, req *http.Request) {
	msgs, err := r.svc.ListMessages(req.Context(), server.UserID(req.Context()), mux.Vars(req)["id"])
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (r *Registrar) handleSend(w http.ResponseWriter, req *http.Request) {
	var input struct {
		Text      string `json:"text"`
		ImageURL  string `json:"imageUrl"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := server.DecodeJSON(req, &input); err != nil {
		server.WriteError(w, err)
		return
	}

	msg, err := r.svc.SendMessage(req.Context(), server.UserID(req.Context()), mux.Vars(req)["id"], input.Text, input.ImageURL, input.Timestamp)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, msg)
}
