package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/server"
)

type fakeVerifier struct{}

func (fakeVerifier) VerifyToken(token string) (string, error) {
	if token == "good" {
		return "u1", nil
	}
	return "", svcErr.Unauthenticated("invalid or expired token")
}

func protectedRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(server.Auth(fakeVerifier{}))
	r.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		server.WriteJSON(w, http.StatusOK, map[string]string{"user": server.UserID(req.Context())})
	})
	return r
}

// TestAuthMiddleware covers missing, bad and valid bearer tokens.
func TestAuthMiddleware(t *testing.T) {
	router := protectedRouter()

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

// TestAuthMiddlewareInjectsUserID verifies handlers see the token subject.
func TestAuthMiddlewareInjectsUserID(t *testing.T) {
	router := protectedRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "u1", body["user"])
}

// TestWriteErrorStatusMapping checks classified errors land on their HTTP
// status and internals never leak details.
func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{svcErr.NotFound("user not found"), http.StatusNotFound},
		{svcErr.InvalidInput("bad input"), http.StatusBadRequest},
		{svcErr.Unauthenticated("nope"), http.StatusUnauthorized},
		{svcErr.Unavailable("redis down", nil), http.StatusServiceUnavailable},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		server.WriteError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		if tc.status == http.StatusInternalServerError {
			assert.Equal(t, "internal error", body["error"])
		} else {
			assert.NotEmpty(t, body["error"])
		}
	}
}

// TestDecodeJSONRejectsUnknownFields guards against silently dropped
// payload typos.
func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Body = http.NoBody
	var v struct{}
	require.Error(t, server.DecodeJSON(req, &v))

	req = httptest.NewRequest(http.MethodPost, "/",
		jsonBody(t, map[string]string{"unexpected": "field"}))
	var input struct {
		Email string `json:"email"`
	}
	err := server.DecodeJSON(req, &input)
	require.Error(t, err)
	assert.Equal(t, svcErr.KindInvalidInput, svcErr.KindOf(err))
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}
