package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
	"github.com/jrsteele09/seller-gateway/internal/respond"
	"github.com/jrsteele09/seller-gateway/selection"
	"github.com/jrsteele09/seller-gateway/sessions"
	"github.com/jrsteele09/seller-gateway/token"
	"github.com/rs/zerolog"
)

const maxLoginBodyBytes = 1 << 20

type LoginRequest struct {
	AccessToken string               `json:"accessToken"`
	AuthCenter  *sessions.AuthCenter `json:"authCenter"`
	Profile     json.RawMessage      `json:"profile,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type SessionResponse struct {
	User      *sessions.Session `json:"user"`
	Profile   json.RawMessage   `json:"profile,omitempty"`
	ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
}

// LoginHandler stores the tokens returned by the backend login in the session cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := zerolog.Ctx(r.Context())

		var req LoginRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes)).Decode(&req); err != nil {
			logger.Debug().Err(err).Msg("Invalid login body")
			respond.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.AccessToken == "" || req.AuthCenter == nil {
			respond.Error(w, http.StatusBadRequest, "Missing required fields")
			return
		}

		session := sessions.Session{AccessToken: req.AccessToken, AuthCenter: *req.AuthCenter}
		cookie, err := s.codec.Encode(session)
		if errors.Is(err, gwerrors.ErrInvalidSession) {
			respond.Error(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		if err != nil {
			logger.Err(err).Msg("Failed to encode session cookie")
			respond.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		if isPresent(req.Profile) {
			if err := s.selections.Upsert(r.Context(), session.Fingerprint(), selection.Selection{User: req.Profile}); err != nil {
				logger.Err(err).Msg("Failed to store login profile")
				respond.Error(w, http.StatusInternalServerError, "Internal server error")
				return
			}
		}

		w.Header().Add("Set-Cookie", cookie)
		respond.JSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// LogoutHandler always succeeds and tells the browser to drop the session cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session, ok := s.codec.Read(r); ok {
			if err := s.selections.Delete(r.Context(), session.Fingerprint()); err != nil {
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to clear selection on logout")
			}
		}
		s.codec.Remove(w)
		respond.JSON(w, http.StatusOK, successResponse{Success: true})
	}
}

// SessionHandler reports the current session, or 401 with a null user.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.codec.Read(r)
		if !ok {
			respond.JSON(w, http.StatusUnauthorized, SessionResponse{})
			return
		}

		resp := SessionResponse{User: &session}
		if info := token.Inspect(session.AuthCenter.AccessToken); info.ExpiresAt != nil {
			resp.ExpiresAt = info.ExpiresAt
		}

		sel, err := s.selections.Get(r.Context(), session.Fingerprint())
		switch {
		case err == nil:
			resp.Profile = sel.User
		case !errors.Is(err, gwerrors.ErrNotFound):
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to load profile for session")
		}

		respond.JSON(w, http.StatusOK, resp)
	}
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
