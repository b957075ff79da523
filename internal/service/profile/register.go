package profile

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/classmatch/classmatch/internal/app"
	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/server"
)

// maxImageBytes caps profile image uploads at 5 MiB.
const maxImageBytes = 5 << 20

// Registrar ties the profile endpoints into the HTTP server.
type Registrar struct {
	svc *Service
}

// NewRegistrar builds the profile service and its routes.
func NewRegistrar(appCtx *app.AppContext, images ImageStore) *Registrar {
	return &Registrar{svc: NewService(appCtx, images)}
}

// Register attaches the profile routes. All of them require auth.
func (r *Registrar) Register(_, protected *mux.Router) {
	protected.HandleFunc("/profile", r.handleGetOwn).Methods(http.MethodGet)
	protected.HandleFunc("/profile", r.handleUpdate).Methods(http.MethodPatch)
	protected.HandleFunc("/profile/image", r.handleSetImage).Methods(http.MethodPost)
	protected.HandleFunc("/profile/image/presign", r.handlePresignImage).Methods(http.MethodPost)
	protected.HandleFunc("/profile/image", r.handleRemoveImage).Methods(http.MethodDelete)
	protected.HandleFunc("/profiles/{id}", r.handleGetByID).Methods(http.MethodGet)
}

func (r *Registrar) handleGetOwn(w http.ResponseWriter, req *http.Request) {
	user, err := r.svc.Get(req.Context(), server.UserID(req.Context()))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, user)
}

func (r *Registrar) handleGetByID(w http.ResponseWriter, req *http.Request) {
	user, err := r.svc.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, user)
}

func (r *Registrar) handleUpdate(w http.ResponseWriter, req *http.Request) {
	var fields map[string]any
	if err := server.DecodeJSON(req, &fields); err != nil {
		server.WriteError(w, err)
		return
	}

	user, err := r.svc.UpdateFields(req.Context(), server.UserID(req.Context()), fields)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, user)
}

func (r *Registrar) handleSetImage(w http.ResponseWriter, req *http.Request) {
	data, err := io.ReadAll(io.LimitReader(req.Body, maxImageBytes+1))
	if err != nil {
		server.WriteError(w, svcErr.InvalidInput("failed to read image payload"))
		return
	}
	if len(data) > maxImageBytes {
		server.WriteError(w, svcErr.InvalidInput("image exceeds 5MB limit"))
		return
	}

	result, err := r.svc.SetImage(req.Context(), server.UserID(req.Context()), data, req.Header.Get("Content-Type"))
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, result)
}

func (r *Registrar) handlePresignImage(w http.ResponseWriter, req *http.Request) {
	var input struct {
		ContentType string `json:"contentType"`
	}
	if err := server.DecodeJSON(req, &input); err != nil {
		server.WriteError(w, err)
		return
	}

	grant, err := r.svc.PresignImage(req.Context(), server.UserID(req.Context()), input.ContentType)
	if err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusCreated, grant)
}

func (r *Registrar) handleRemoveImage(w http.ResponseWriter, req *http.Request) {
	if err := r.svc.RemoveImage(req.Context(), server.UserID(req.Context())); err != nil {
		server.WriteError(w, err)
		return
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
