package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/parkerc/unoroom/internal/auth"
	"github.com/parkerc/unoroom/internal/database"
	"github.com/parkerc/unoroom/internal/models"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// RegisterHandler creates an account and returns a session token so the
// client can open a websocket immediately.
func RegisterHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if len(req.Username) < 3 {
			http.Error(w, "username must be at least 3 characters", http.StatusBadRequest)
			return
		}
		if len(req.Password) < 4 {
			http.Error(w, "password must be at least 4 characters", http.StatusBadRequest)
			return
		}

		user := models.User{Username: req.Username, Password: req.Password}
		if err := database.CreateUser(r.Context(), &user); err != nil {
			if errors.Is(err, database.ErrUsernameTaken) {
				http.Error(w, "username already exists", http.StatusConflict)
				return
			}
			logger.Errorf("failed to create user: %v", err)
			http.Error(w, "error creating user", http.StatusInternalServerError)
			return
		}

		token, err := auth.CreateJWT(user.ID.String())
		if err != nil {
			logger.Errorf("failed to create session token: %v", err)
			http.Error(w, "error creating session", http.StatusInternalServerError)
			return
		}
		setAuthCookie(w, token)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(sessionResponse{Token: token, Username: user.Username})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler verifies credentials and returns a session token. The token is
// also set as an auth_token cookie for browser clients.
func LoginHandler(logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request payload", http.StatusBadRequest)
			return
		}

		token, err := database.AuthenticateUser(r.Context(), req.Username, req.Password)
		if err != nil {
			logger.Warnf("failed login for %q: %v", req.Username, err)
			http.Error(w, "authentication failed", http.StatusForbidden)
			return
		}
		setAuthCookie(w, token)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(sessionResponse{Token: token, Username: req.Username})
	}
}

type meResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Wins     int       `json:"wins"`
}

// MeHandler returns the authenticated caller's profile.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	token := extractToken(r)
	if token == "" {
		http.Error(w, "missing auth token", http.StatusUnauthorized)
		return
	}
	sub, err := auth.AuthenticateJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusForbidden)
		return
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		http.Error(w, "invalid user id in token", http.StatusForbidden)
		return
	}

	u, err := database.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meResponse{ID: u.ID, Username: u.Username, Wins: u.Wins})
}

func setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   auth.TokenTTLSeconds(),
	})
}
