// Package server boots the HTTP API and carries the shared handler
// plumbing (auth middleware, JSON responses).
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/classmatch/classmatch/internal/config"
	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/logger"
)

// Registrar is the common interface all API surfaces implement to attach
// their routes. public skips authentication; protected runs behind the
// bearer-token middleware.
type Registrar interface {
	Register(public, protected *mux.Router)
}

// TokenVerifier turns a bearer token into a user id.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// StartHTTPServer boots the API and blocks until it exits.
func StartHTTPServer(cfg *config.Config, verifier TokenVerifier, registrars ...Registrar) error {
	router := mux.NewRouter()
	router.Use(requestLogger)

	public := router.PathPrefix("/api/v1").Subrouter()
	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(Auth(verifier))

	for _, r := range registrars {
		r.Register(public, protected)
	}

	public.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	handler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}).Handler(router)

	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
	})
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", "err", err)
	}
}

// WriteError maps a classified error to its HTTP status with a JSON body.
// Internal errors never leak their message.
func WriteError(w http.ResponseWriter, err error) {
	status := svcErr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	WriteJSON(w, status, map[string]string{"error": msg})
}

// DecodeJSON reads the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return svcErr.InvalidInput("invalid request body")
	}
	return nil
}
