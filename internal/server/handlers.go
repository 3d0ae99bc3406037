package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rehearse-dev/rehearse/internal/completion"
	"github.com/rehearse-dev/rehearse/internal/interview"
	"github.com/rehearse-dev/rehearse/internal/practice"
	"github.com/rehearse-dev/rehearse/internal/report"
)

// APIError is the error body of every failed request.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// ErrorResponse wraps APIError.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// SessionResponse carries the session plus an optional warning, set when a
// question was replaced by the fallback because of a credential problem.
type SessionResponse struct {
	Session interview.Snapshot `json:"session"`
	Warning *APIError          `json:"warning,omitempty"`
}

type answerRequest struct {
	Text string `json:"text"`
}

type codeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

type credentialRequest struct {
	Key string `json:"key"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) ErrorResponse {
	return ErrorResponse{
		Error: APIError{
			Code:      code,
			Message:   message,
			RequestID: chimiddleware.GetReqID(r.Context()),
		},
	}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// handleSessionError maps orchestrator and completion errors to responses.
// Credential errors are not failures: the session advanced with the
// fallback question, so the snapshot is returned with a warning.
func (s *Server) handleSessionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case completion.IsCredentialError(err):
		writeJSON(w, http.StatusOK, SessionResponse{
			Session: s.Session.Snapshot(),
			Warning: &APIError{Code: string(completion.KindOf(err)), Message: completion.Guidance(err)},
		})
	case errors.Is(err, interview.ErrBusy):
		writeJSON(w, http.StatusConflict, errorResp("busy", "A request for this session is already in progress.", r))
	case errors.Is(err, interview.ErrNotActive), errors.Is(err, interview.ErrInvalidTransition):
		writeJSON(w, http.StatusConflict, errorResp("invalid_state", err.Error(), r))
	case errors.Is(err, interview.ErrResponseDiscarded):
		writeJSON(w, http.StatusConflict, errorResp("discarded", err.Error(), r))
	case errors.Is(err, interview.ErrConfigRequired), errors.Is(err, practice.ErrNotConfigured):
		writeJSON(w, http.StatusBadRequest, errorResp("config_required", "Configure the practice session first.", r))
	default:
		s.Logger.Error("session request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResp("internal_error", err.Error(), r))
	}
}

func (s *Server) respondSession(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.handleSessionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Session: s.Session.Snapshot()})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SessionResponse{Session: s.Session.Snapshot()})
}

// start uses the request body as the practice config when given, otherwise
// the saved one. A supplied config is saved for later sessions.
func (s *Server) start(w http.ResponseWriter, r *http.Request) {
	var cfg practice.Config
	if err := decode(r, &cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid_body", err.Error(), r))
		return
	}

	if cfg.JobRole != "" || cfg.DifficultyLevel != "" {
		if err := practice.Save(r.Context(), s.Store, cfg); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("validation_error", err.Error(), r))
			return
		}
	}
	saved, err := practice.Load(r.Context(), s.Store)
	if err != nil {
		s.handleSessionError(w, r, err)
		return
	}

	s.respondSession(w, r, s.Session.Start(r.Context(), saved))
}

func (s *Server) question(w http.ResponseWriter, r *http.Request) {
	s.respondSession(w, r, s.Session.RequestQuestion(r.Context()))
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid_body", err.Error(), r))
		return
	}
	s.respondSession(w, r, s.Session.SubmitAnswer(r.Context(), req.Text))
}

func (s *Server) code(w http.ResponseWriter, r *http.Request) {
	var req codeRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid_body", err.Error(), r))
		return
	}
	s.respondSession(w, r, s.Session.SubmitCode(r.Context(), req.Code, req.Language))
}

func (s *Server) stop(w http.ResponseWriter, r *http.Request) {
	s.respondSession(w, r, s.Session.Stop())
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Session.RequestReport(r.Context())
	if err != nil {
		s.handleSessionError(w, r, err)
		return
	}
	if s.ReportsDir != "" {
		if _, err := report.WriteReport(s.ReportsDir, rep); err != nil {
			s.Logger.Warn("writing report file", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	s.Session.Reset()
	writeJSON(w, http.StatusOK, SessionResponse{Session: s.Session.Snapshot()})
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := practice.Load(r.Context(), s.Store)
	if err != nil {
		if errors.Is(err, practice.ErrNotConfigured) {
			writeJSON(w, http.StatusNotFound, errorResp("not_configured", err.Error(), r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("internal_error", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) putConfig(w http.ResponseWriter, r *http.Request) {
	var cfg practice.Config
	if err := decode(r, &cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid_body", err.Error(), r))
		return
	}
	if err := practice.Save(r.Context(), s.Store, cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("validation_error", err.Error(), r))
		return
	}
	saved, err := practice.Load(r.Context(), s.Store)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("internal_error", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	records, err := s.History.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("internal_error", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) credentialStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Resolver.Status(r.Context()))
}

func (s *Server) setCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid_body", err.Error(), r))
		return
	}
	if err := s.Resolver.Set(r.Context(), req.Key); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("validation_error", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, s.Resolver.Status(r.Context()))
}

func (s *Server) clearCredential(w http.ResponseWriter, r *http.Request) {
	if err := s.Resolver.Clear(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("internal_error", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, s.Resolver.Status(r.Context()))
}

// validateCredential probes the key in the body, or the active key.
func (s *Server) validateCredential(w http.ResponseWriter, r *http.Request) {
	var req credentialRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("invalid_body", err.Error(), r))
		return
	}
	key := req.Key
	if key == "" {
		key = s.Resolver.Resolve(r.Context())
	}
	writeJSON(w, http.StatusOK, s.Validator.Validate(r.Context(), key))
}
