package auth

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/classmatch/classmatch/internal/server"
)

// Registrar ties the auth endpoints into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar wraps an existing Service; the same instance doubles as the
// server's token verifier.
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the auth routes.
func (r *Registrar) Register(public, protected *mux.Router) {
	public.HandleFunc("/auth/register", r.handleRegister).Methods(http.MethodPost)
	public.HandleFunc("/auth/login", r.handleLogin).Methods(http.MethodPost)
	protected.HandleFunc("/auth/logout", r.handleLogout).Methods(http.MethodPost)
}

func (r *Registrar) handleRegister(w http.ResponseWriter, req *http.Request) {
	var input RegisterInput
	if err := server.DecodeJSON(req, &input); err != nil {
		server.WriteError(w, err)
		return
	}

	resp, err := r.svc.Register(req.Context(), input)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, resp)
}

func (r *Registrar) handleLogin(w http.ResponseWriter, req *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := server.DecodeJSON(req, &input); err != nil {
		server.WriteError(w, err)
		return
	}

	resp, err := r.svc.Login(req.Context(), input.Email, input.Password)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, resp)
}

func (r *Registrar) handleLogout(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.Logout(req.Context(), server.UserID(req.Context())); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
