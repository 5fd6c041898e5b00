package server

import (
	"net/http"

	"github.com/jrsteele09/seller-gateway/internal/respond"
)

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ProxyHandler forwards /api/{service}/{path...} to the configured backend service.
func (s *Server) ProxyHandler() http.HandlerFunc {
	return s.proxy.ServeHTTP
}
