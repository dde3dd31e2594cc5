package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
)

type contextKey string

const usernameKey contextKey = "username"

func usernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(usernameKey).(string)
	return username
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

func decodeCredentials(r *http.Request) (model.Credentials, error) {
	var c model.Credentials
	err := json.NewDecoder(r.Body).Decode(&c)
	return c, err
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCredentials(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, titleInvalidRequest, []string{"Invalid request body."})
		return
	}

	if err := s.auth.Register(r.Context(), c); err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{Message: "User registered successfully."})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c, err := decodeCredentials(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, titleInvalidRequest, []string{"Invalid request body."})
		return
	}

	token, err := s.auth.Login(r.Context(), c)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{Token: token, Message: "Login successful."})
}

// bearerAuthMiddleware rejects requests without a valid "Authorization: Bearer" token.
func (s *Server) bearerAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			w.Header().Set("WWW-Authenticate", "Bearer")
			respondJSON(w, http.StatusUnauthorized, messageResponse{Message: "Authorization required."})
			return
		}

		username, err := s.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
			s.respondServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), usernameKey, username)))
	})
}
