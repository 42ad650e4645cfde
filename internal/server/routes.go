package server

import (
	"net/http"
	"time"

	"github.com/damoa-dev/damoa/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/shutdown", s.handleShutdown)

	// Portfolio
	mux.HandleFunc("/api/portfolio/sync", s.handlePortfolioSync)
	mux.HandleFunc("/api/portfolio", s.handlePortfolioGet)

	// Notes
	mux.HandleFunc("/api/notes/missing", s.handleNotesMissing)
	mux.HandleFunc("/api/notes/migrate", s.handleNotesMigrate)
	mux.HandleFunc("/api/notes/", s.routeNotes)
	mux.HandleFunc("/api/notes", s.handleNotesRoot)

	// Reconciliation
	mux.HandleFunc("/api/reconcile", s.handleReconcile)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	accounts := make([]map[string]string, 0, len(s.app.Config.Accounts))
	for _, acc := range s.app.Config.Accounts {
		accounts = append(accounts, map[string]string{
			"name": acc.Name,
			"type": string(acc.Type),
			"cano": maskSecret(acc.CANO()),
		})
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment":     s.app.Config.Environment,
		"storage_backend": s.app.Config.Storage.Backend,
		"tables": map[string]string{
			"portfolio": s.app.Config.Tables.Portfolio,
			"rate_info": s.app.Config.Tables.RateInfo,
			"notes":     s.app.Config.Tables.Notes,
		},
		"accounts":      accounts,
		"logging_level": s.app.Config.Logging.Level,
		"uptime":        time.Since(s.app.StartupTime).Round(time.Second).String(),
	})
}

// handleShutdown handles POST /api/shutdown (dev mode only).
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() {
		WriteError(w, http.StatusForbidden, "Shutdown endpoint disabled in production")
		return
	}

	s.logger.Info().Msg("Shutdown requested via HTTP endpoint")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Shutting down gracefully...\n"))

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	if s.shutdownChan != nil {
		go func() {
			time.Sleep(100 * time.Millisecond)
			s.shutdownChan <- struct{}{}
		}()
	}
}

func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
