package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keepdeck/keep/internal/archive"
	"github.com/keepdeck/keep/internal/httpserver/deps"
	"github.com/keepdeck/keep/internal/intake"
	"github.com/keepdeck/keep/internal/logger"
)

type sessionView struct {
	ID         string                `json:"id"`
	Mode       intake.Mode           `json:"mode"`
	Phase      intake.Phase          `json:"phase"`
	CanAdvance bool                  `json:"can_advance"`
	Progress   float64               `json:"progress"`
	Candidates []intake.Candidate    `json:"candidates"`
	Bulk       intake.BulkMetadata   `json:"bulk"`
	Plan       *archive.Plan         `json:"plan,omitempty"`
	LastBatch  *archive.BatchSummary `json:"last_batch,omitempty"`
}

func viewOf(s *intake.Session) sessionView {
	return sessionView{
		ID:         s.ID,
		Mode:       s.Mode,
		Phase:      s.CurrentPhase(),
		CanAdvance: s.CanAdvance(),
		Progress:   s.Progress(),
		Candidates: s.Candidates(),
		Bulk:       s.Bulk(),
		Plan:       s.PlanSnapshot(),
		LastBatch:  s.LastBatch(),
	}
}

type openSessionRequest struct {
	Mode intake.Mode `json:"mode"`
}

// OpenSession creates a new intake session in the requested mode.
func OpenSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req openSessionRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var s *intake.Session
		switch req.Mode {
		case intake.ModeFile:
			s = d.Manager.OpenFileSession()
		case intake.ModeURL:
			s = d.Manager.OpenURLSession()
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "mode must be \"file\" or \"url\""})
			return
		}

		d.Logger.Info("intake session opened",
			logger.String("session_id", s.ID),
			logger.String("mode", string(s.Mode)))
		writeJSON(w, http.StatusCreated, viewOf(s))
	}
}

// GetSession returns the live state of one session.
func GetSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Manager.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, viewOf(s))
	}
}

type selectCandidatesRequest struct {
	Paths []string `json:"paths"`
}

// SelectCandidates sets the file list of a file session.
func SelectCandidates(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(s *intake.Session, w http.ResponseWriter, r *http.Request) error {
		var req selectCandidatesRequest
		if !decodeBody(w, r, &req) {
			return errHandled
		}
		return s.SelectCandidates(req.Paths)
	})
}

type urlInputRequest struct {
	Text string `json:"text"`
}

// SetURLInput stores the raw URL textarea content of a URL session.
func SetURLInput(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(s *intake.Session, w http.ResponseWriter, r *http.Request) error {
		var req urlInputRequest
		if !decodeBody(w, r, &req) {
			return errHandled
		}
		return s.SetURLInput(req.Text)
	})
}

// SetBulkMetadata captures the session-wide metadata defaults.
func SetBulkMetadata(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(s *intake.Session, w http.ResponseWriter, r *http.Request) error {
		var req intake.BulkMetadata
		if !decodeBody(w, r, &req) {
			return errHandled
		}
		return s.SetBulkMetadata(req)
	})
}

type candidateMetadataRequest struct {
	Index       int    `json:"index"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SetCandidateMetadata overrides one candidate's title and description.
func SetCandidateMetadata(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(s *intake.Session, w http.ResponseWriter, r *http.Request) error {
		var req candidateMetadataRequest
		if !decodeBody(w, r, &req) {
			return errHandled
		}
		return s.SetCandidateMetadata(req.Index, req.Title, req.Description)
	})
}

type archivalRequest struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Toggle  *int   `json:"toggle,omitempty"`
	TagKey  string `json:"tag_key,omitempty"`
	TagVal  string `json:"tag_value,omitempty"`
}

// ConfigureArchival mutates the archival plan of a file session:
// enable/disable, toggle one candidate, or add one upload tag.
func ConfigureArchival(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(s *intake.Session, w http.ResponseWriter, r *http.Request) error {
		var req archivalRequest
		if !decodeBody(w, r, &req) {
			return errHandled
		}
		if req.Enabled != nil {
			if err := s.SetArchivalEnabled(*req.Enabled); err != nil {
				return err
			}
		}
		if req.Toggle != nil {
			if err := s.ToggleArchivalSelection(*req.Toggle); err != nil {
				return err
			}
		}
		if req.TagKey != "" {
			if err := s.AddUploadTag(req.TagKey, req.TagVal); err != nil {
				return err
			}
		}
		return nil
	})
}

// EstimateCosts computes upload cost estimates for the selected files.
func EstimateCosts(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(s *intake.Session, w http.ResponseWriter, r *http.Request) error {
		return s.EstimateCosts(r.Context())
	})
}

// AdvanceSession moves the session one phase forward. Blocks while the
// leaving phase's work (upload batch, URL processing) runs.
func AdvanceSession(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(s *intake.Session, w http.ResponseWriter, r *http.Request) error {
		return s.Advance(r.Context())
	})
}

// BackSession moves the session one phase backward, keeping its state.
func BackSession(d deps.Deps) http.HandlerFunc {
	return sessionAction(d, func(s *intake.Session, w http.ResponseWriter, r *http.Request) error {
		return s.Back()
	})
}

// CommitSession assembles the session's candidates into resources and
// destroys the session. Per-item failures are in the report, not errors.
func CommitSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		report, err := d.Manager.Commit(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		d.Logger.Info("intake session committed",
			logger.String("session_id", id),
			logger.Int("succeeded", report.Succeeded),
			logger.Int("failed", report.Failed))
		writeJSON(w, http.StatusOK, report)
	}
}

// CancelSession discards a session without committing anything.
func CancelSession(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Manager.Cancel(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// errHandled signals the action already wrote its own response.
var errHandled = &handledError{}

type handledError struct{}

func (*handledError) Error() string { return "response already written" }

// sessionAction wraps the lookup + mutate + respond-with-view pattern
// shared by every session mutation endpoint.
func sessionAction(d deps.Deps, fn func(s *intake.Session, w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := d.Manager.Get(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := fn(s, w, r); err != nil {
			if err != errHandled {
				writeError(w, err)
			}
			return
		}
		writeJSON(w, http.StatusOK, viewOf(s))
	}
}
