package server

import (
	"errors"
	"net/http"

	"github.com/damoa-dev/damoa/internal/models"
)

// handlePortfolioGet handles GET /api/portfolio: the last persisted
// consolidated table.
func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	p, err := s.app.PortfolioService.Load(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"no_data": true})
			return
		}
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, p)
}

// handlePortfolioSync handles POST /api/portfolio/sync. The call blocks for
// the whole multi-account collection and persist sequence.
// ?reconcile=true chains a note reconciliation against the fresh holdings.
func (s *Server) handlePortfolioSync(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	p, err := s.app.PortfolioService.Sync(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"no_data": true})
			return
		}
		WriteServiceError(w, err)
		return
	}

	resp := map[string]interface{}{"portfolio": p}

	if r.URL.Query().Get("reconcile") == "true" {
		res, err := s.app.ReconcileService.Reconcile(r.Context(), p.HeldCodes())
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		resp["reconcile"] = res
	}

	WriteJSON(w, http.StatusOK, resp)
}

// handleReconcile handles POST /api/reconcile: realigns note statuses with
// the last persisted consolidated table without collecting anything new.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	p, err := s.app.PortfolioService.Load(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"no_data": true})
			return
		}
		WriteServiceError(w, err)
		return
	}

	res, err := s.app.ReconcileService.Reconcile(r.Context(), p.HeldCodes())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, res)
}
