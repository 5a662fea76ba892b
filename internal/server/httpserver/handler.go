package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/scorekeeper/internal/common"
	"github.com/dmitrijs2005/scorekeeper/internal/server/models"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// loginRequest is not validated: a credential that cannot match is answered
// like any other mismatch.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

type healthResponse struct {
	Status string `json:"status"`
}

const (
	msgInvalidBody        = "invalid request body"
	msgEmailTaken         = "email already registered"
	msgSignupFailed       = "could not create user"
	msgLoginFailed        = "could not log in"
	msgInvalidCredentials = "Invalid email or password"
	msgInternal           = "internal server error"
)

// decodeJSON reads the request body into v, answering 400 when it is not
// valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

func (s *HTTPServer) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, token, err := s.users.Register(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorValidation):
			writeError(w, http.StatusBadRequest, msgInvalidBody)
		case errors.Is(err, common.ErrorAlreadyExists):
			writeError(w, http.StatusConflict, msgEmailTaken)
		default:
			s.logError(ctx, "signup failed", err)
			writeError(w, http.StatusUnauthorized, msgSignupFailed)
		}
		return
	}

	s.logger.Info(ctx, "Registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse{Email: user.Email, Token: token})
}

func (s *HTTPServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, token, err := s.users.Login(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, messageResponse{Message: msgInvalidCredentials})
			return
		}
		s.logError(ctx, "login failed", err)
		writeError(w, http.StatusUnauthorized, msgLoginFailed)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{Email: user.Email, Token: token})
}

func (s *HTTPServer) handleUpdateScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := UserIDFromContext(ctx)
	if !ok {
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	user, err := s.users.IncrementScore(ctx, userID)
	if err != nil {
		s.logError(ctx, "score update failed", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}

	s.metrics.scoreIncrements.Inc()
	writeJSON(w, http.StatusOK, user)
}

func (s *HTTPServer) handleHighest(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.TopScores(r.Context())
	s.writeUsers(w, r, list, err)
}

func (s *HTTPServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.ListUsers(r.Context())
	s.writeUsers(w, r, list, err)
}

func (s *HTTPServer) writeUsers(w http.ResponseWriter, r *http.Request, list []*models.User, err error) {
	if err != nil {
		s.logError(r.Context(), "listing users failed", err)
		writeError(w, http.StatusInternalServerError, msgInternal)
		return
	}
	if list == nil {
		list = []*models.User{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logError(ctx, "health check failed", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *HTTPServer) logError(ctx context.Context, msg string, err error) {
	s.logger.Error(ctx, msg, "error", err)
}
