package match

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/server"
)

// Registrar ties the swipe and match endpoints into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar builds the match service and its routes.
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{svc: NewService(appCtx)}
}

// Register attaches the match routes. All of them require auth.
func (r *Registrar) Register(_, protected *mux.Router) {
	protected.HandleFunc("/swipes/like/{id}", r.handleLike).Methods(http.MethodPost)
	protected.HandleFunc("/swipes/dislike/{id}", r.handleDislike).Methods(http.MethodPost)
	protected.HandleFunc("/swipes/remaining", r.handleRemaining).Methods(http.MethodGet)
	protected.HandleFunc("/swipes/history", r.handleHistory).Methods(http.MethodGet)
	protected.HandleFunc("/matches", r.handleList).Methods(http.MethodGet)
	protected.HandleFunc("/matches/{id}", r.handleUnmatch).Methods(http.MethodDelete)
	protected.HandleFunc("/likes/count", r.handleLikeCount).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}/block", r.handleBlock).Methods(http.MethodPost)
	protected.HandleFunc("/users/{id}/report", r.handleReport).Methods(http.MethodPost)
	protected.HandleFunc("/reports", r.handleReports).Methods(http.MethodGet)
}

func (r *Registrar) handleLike(w http.ResponseWriter, req *http.Request) {
	matched, err := r.svc.LikeUser(req.Context(), server.UserID(req.Context()), mux.Vars(req)["id"])
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]bool{"matched": matched})
}

func (r *Registrar) handleDislike(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.DislikeUser(req.Context(), server.UserID(req.Context()), mux.Vars(req)["id"]); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (r *Registrar) handleRemaining(w http.ResponseWriter, req *http.Request) {
	remaining, err := r.svc.DailySwipesRemaining(req.Context(), server.UserID(req.Context()))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"remaining": remaining})
}

func (r *Registrar) handleHistory(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	var token *string
	if t := q.Get("token"); t != "" {
		token = &t
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	swipes, next, err := r.svc.LikeHistory(req.Context(), server.UserID(req.Context()), token, limit)
	if err != nil {
		server.WriteError(w, err)
		return
	}

	resp := map[string]any{"swipes": swipes}
	if next != nil {
		resp["nextToken"] = *next
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

func (r *Registrar) handleList(w http.ResponseWriter, req *http.Request) {
	items, err := r.svc.ListMatches(req.Context(), server.UserID(req.Context()))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"matches": items})
}

func (r *Registrar) handleUnmatch(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Unmatch(req.Context(), server.UserID(req.Context()), mux.Vars(req)["id"]); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "unmatched"})
}

func (r *Registrar) handleLikeCount(w http.ResponseWriter, req *http.Request) {
	count, err := r.svc.CountLikedYou(req.Context(), server.UserID(req.Context()))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]int64{"count": count})
}

func (r *Registrar) handleBlock(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.BlockUser(req.Context(), server.UserID(req.Context()), mux.Vars(req)["id"]); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "blocked"})
}

func (r *Registrar) handleReports(w http.ResponseWriter, req *http.Request) {
	reports, err := r.svc.ListReports(req.Context(), server.UserID(req.Context()))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func (r *Registrar) handleReport(w http.ResponseWriter, req *http.Request) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := server.DecodeJSON(req, &input); err != nil {
		server.WriteError(w, err)
		return
	}
	if err := r.svc.ReportUser(req.Context(), server.UserID(req.Context()), mux.Vars(req)["id"], input.Reason); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, map[string]string{"status": "reported"})
}
