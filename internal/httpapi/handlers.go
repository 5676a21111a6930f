package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/grabke213/proofpack/internal/extract"
	"github.com/grabke213/proofpack/internal/job"
	"github.com/grabke213/proofpack/internal/session"
	"github.com/grabke213/proofpack/internal/signature"
)

// maxUploadBytes bounds multipart photo uploads before decode.
const maxUploadBytes = 32 << 20

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.session.Job())
}

func (s *Server) handleNewJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.session.NewJob())
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}
	if err := s.session.Load(r.Context(), req.ID); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Job())
}

func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var edits []session.FieldEdit
	if err := json.NewDecoder(r.Body).Decode(&edits); err != nil {
		writeError(w, http.StatusBadRequest, "invalid edit list")
		return
	}
	for _, edit := range edits {
		if err := s.session.Apply(edit); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.session.Job())
}

func (s *Server) handleAppliances(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := s.session.AddAppliance()
	writeJSON(w, http.StatusOK, map[string]any{
		"id":  id,
		"job": s.session.Job(),
	})
}

// handleApplianceByID routes /api/session/appliances/{id}[/photo|/damage|/checklist].
func (s *Server) handleApplianceByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/session/appliances/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing appliance id")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		if err := s.session.RemoveAppliance(id); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.session.Job())
	case action == "photo" && r.Method == http.MethodPost:
		s.handleUpload(w, r, func() error {
			file, _, err := r.FormFile("photo")
			if err != nil {
				return err
			}
			defer file.Close()
			return s.session.AttachPlacementPhoto(id, file)
		})
	case action == "damage" && r.Method == http.MethodPost:
		s.handleUpload(w, r, func() error {
			file, _, err := r.FormFile("photo")
			if err != nil {
				return err
			}
			defer file.Close()
			return s.session.AttachDamagePhoto(id, file)
		})
	case action == "checklist" && r.Method == http.MethodPost:
		var req struct {
			Index int  `json:"index"`
			Done  bool `json:"done"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid checklist toggle")
			return
		}
		if err := s.session.SetChecklistDone(id, req.Index, req.Done); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.session.Job())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleIntake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleUpload(w, r, func() error {
		file, _, err := r.FormFile("photo")
		if err != nil {
			return err
		}
		defer file.Close()
		return s.session.AttachIntakeImage(file)
	})
}

// handleUpload runs one multipart attachment and answers with the
// updated job snapshot.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, attach func() error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}
	if err := attach(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Job())
}

func (s *Server) handleSignature(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			Points []signature.Point `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Points) == 0 {
			writeError(w, http.StatusBadRequest, "missing stroke points")
			return
		}
		s.session.SignatureStroke(req.Points)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case http.MethodDelete:
		s.session.ClearSignature()
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.session.Start(r.Context())
	writeJSON(w, http.StatusOK, s.session.Job())
}

func (s *Server) handleFinish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.session.Finish(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Job())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.session.Save(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Job())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	doc, err := s.session.Export(time.Now())
	if err != nil {
		if issues := session.IssuesOf(err); issues != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"issues": issues})
			return
		}
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Server) handleImportExtract(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid import text")
		return
	}
	writeJSON(w, http.StatusOK, extract.Extract(req.Text))
}

func (s *Server) handleImportApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var fields extract.Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid field map")
		return
	}
	s.session.ApplyImport(fields)
	writeJSON(w, http.StatusOK, s.session.Job())
}

// jobSummary is the jobs-list row: enough to pick a record, no images.
type jobSummary struct {
	ID          string    `json:"id"`
	Address     string    `json:"address"`
	ServiceType string    `json:"serviceType"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		all, err := s.session.Jobs(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		summaries := make([]jobSummary, 0, len(all))
		for _, j := range all {
			summaries = append(summaries, jobSummary{
				ID:          j.ID,
				Address:     j.Address,
				ServiceType: string(j.ServiceType),
				UpdatedAt:   j.UpdatedAt,
			})
		}
		writeJSON(w, http.StatusOK, summaries)
	case http.MethodDelete:
		if err := s.session.ClearJobs(r.Context()); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleJobByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing job id")
		return
	}
	if err := s.session.DeleteJob(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// writeDomainError maps session and job errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case session.IsErrorType(err, session.ErrNotFound),
		errors.Is(err, job.ErrApplianceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case session.IsErrorType(err, session.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  err.Error(),
			"issues": session.IssuesOf(err),
		})
	case session.IsErrorType(err, session.ErrCapture),
		errors.Is(err, job.ErrConditionLocked),
		errors.Is(err, job.ErrChecklistIndex),
		errors.Is(err, job.ErrUnknownField),
		errors.Is(err, job.ErrFinishBeforeStart):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
