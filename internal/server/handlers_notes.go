package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/damoa-dev/damoa/internal/models"
)

// handleNotesRoot handles GET /api/notes (list, ?status= filters) and
// POST /api/notes (create).
func (s *Server) handleNotesRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleNoteList(w, r)
	case http.MethodPost:
		s.handleNoteCreate(w, r)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routeNotes dispatches /api/notes/{code} to the appropriate handler.
func (s *Server) routeNotes(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimPrefix(r.URL.Path, "/api/notes/")
	if code == "" || strings.Contains(code, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleNoteGet(w, r, code)
	case http.MethodPut:
		s.handleNoteUpdate(w, r, code)
	case http.MethodDelete:
		s.handleNoteDelete(w, r, code)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (s *Server) handleNoteList(w http.ResponseWriter, r *http.Request) {
	var (
		notes []models.NoteRecord
		err   error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		notes, err = s.app.NoteService.ListByStatus(r.Context(), status)
	} else {
		notes, err = s.app.NoteService.List(r.Context())
	}
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notes": notes,
		"count": len(notes),
	})
}

func (s *Server) handleNoteCreate(w http.ResponseWriter, r *http.Request) {
	var note models.NoteRecord
	if !DecodeJSON(w, r, &note) {
		return
	}
	if strings.TrimSpace(note.Code) == "" {
		WriteError(w, http.StatusBadRequest, "code is required")
		return
	}

	if err := s.app.NoteService.Add(r.Context(), note); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"code": note.Code})
}

func (s *Server) handleNoteGet(w http.ResponseWriter, r *http.Request, code string) {
	note, err := s.app.NoteService.Get(r.Context(), code)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, note)
}

func (s *Server) handleNoteUpdate(w http.ResponseWriter, r *http.Request, code string) {
	var note models.NoteRecord
	if !DecodeJSON(w, r, &note) {
		return
	}
	note.Code = code

	if err := s.app.NoteService.Update(r.Context(), note); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"code": code})
}

func (s *Server) handleNoteDelete(w http.ResponseWriter, r *http.Request, code string) {
	if err := s.app.NoteService.Delete(r.Context(), code); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"code": code})
}

// handleNotesMissing handles GET /api/notes/missing: held instruments from
// the last persisted portfolio that have no note yet.
func (s *Server) handleNotesMissing(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	p, err := s.app.PortfolioService.Load(r.Context())
	if err != nil {
		if errors.Is(err, models.ErrNoData) {
			WriteJSON(w, http.StatusOK, map[string]interface{}{"no_data": true, "missing": []string{}})
			return
		}
		WriteServiceError(w, err)
		return
	}

	missing, err := s.app.NoteService.Missing(r.Context(), p.HeldCodes())
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"missing": missing,
		"count":   len(missing),
	})
}

// handleNotesMigrate handles POST /api/notes/migrate: rewrites rows written
// under an older column set.
func (s *Server) handleNotesMigrate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	n, err := s.app.NoteService.Migrate(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"migrated": n})
}
