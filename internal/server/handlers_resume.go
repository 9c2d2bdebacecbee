package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/db"
	"github.com/jonathan/resume-tailor/internal/server/middleware"
	"github.com/jonathan/resume-tailor/internal/types"
)

// ResumeStore is the persistence surface for stored resumes
type ResumeStore interface {
	SaveResume(ctx context.Context, userID uuid.UUID, record *types.ResumeRecord) (*db.Resume, error)
	GetResumeByUser(ctx context.Context, userID uuid.UUID) (*db.Resume, error)
	DeleteResume(ctx context.Context, userID uuid.UUID) error
}

// handleGetMe returns the authenticated user's profile
func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := s.userService.GetProfile(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, user)
}

// handleGetResume returns the user's stored resume record
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	resume, err := s.resumes.GetResumeByUser(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resume == nil {
		s.errorResponse(w, http.StatusNotFound, "no resume stored")
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

// handlePutResume stores or replaces the user's resume record
func (s *Server) handlePutResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var record types.ResumeRecord
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if record.Name == "" {
		s.errorResponse(w, http.StatusBadRequest, "resume name is required")
		return
	}

	resume, err := s.resumes.SaveResume(r.Context(), userID, &record)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

// handleDeleteResume removes the user's stored resume
func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := s.resumes.DeleteResume(r.Context(), userID); err != nil {
		s.errorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
