package server

import (
	"encoding/json"
	"errors"
	"net/http"

	gwerrors "github.com/jrsteele09/seller-gateway/internal/errors"
	"github.com/jrsteele09/seller-gateway/internal/respond"
	"github.com/jrsteele09/seller-gateway/selection"
	"github.com/rs/zerolog"
)

const maxSelectionBodyBytes = 64 << 10

// GetSelectionHandler returns the stored selection, or an empty one.
func (s *Server) GetSelectionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel, ok := s.loadSelection(w, r)
		if !ok {
			return
		}
		respond.JSON(w, http.StatusOK, sel)
	}
}

// PutMerchantHandler sets the current merchant; a null body clears it.
func (s *Server) PutMerchantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var merchant *selection.Merchant
		if !decodeSelectionBody(w, r, &merchant) {
			return
		}
		s.updateSelection(w, r, func(sel *selection.Selection) {
			sel.Merchant = merchant
		})
	}
}

// PutOrganizationHandler sets the current organization; a null body clears it.
func (s *Server) PutOrganizationHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var organization *selection.Organization
		if !decodeSelectionBody(w, r, &organization) {
			return
		}
		s.updateSelection(w, r, func(sel *selection.Selection) {
			sel.Organization = organization
		})
	}
}

// ClearSelectionHandler forgets the selection for the current session.
func (s *Server) ClearSelectionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := SessionFromContext(r.Context())
		if err := s.selections.Delete(r.Context(), session.Fingerprint()); err != nil {
			zerolog.Ctx(r.Context()).Err(err).Msg("Failed to clear selection")
			respond.Error(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) loadSelection(w http.ResponseWriter, r *http.Request) (selection.Selection, bool) {
	session, _ := SessionFromContext(r.Context())
	sel, err := s.selections.Get(r.Context(), session.Fingerprint())
	if errors.Is(err, gwerrors.ErrNotFound) {
		return selection.Selection{}, true
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Err(err).Msg("Failed to load selection")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return selection.Selection{}, false
	}
	return sel, true
}

func (s *Server) updateSelection(w http.ResponseWriter, r *http.Request, apply func(*selection.Selection)) {
	session, _ := SessionFromContext(r.Context())
	sel, err := s.selections.Update(r.Context(), session.Fingerprint(), apply)
	if err != nil {
		zerolog.Ctx(r.Context()).Err(err).Msg("Failed to store selection")
		respond.Error(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, sel)
}

func decodeSelectionBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSelectionBodyBytes)).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
