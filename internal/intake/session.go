package intake

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/keepdeck/keep/internal/archive"
	"github.com/keepdeck/keep/internal/extract"
	"github.com/keepdeck/keep/internal/logger"
)

// Mode selects which intake workflow a session runs. The two modes are
// mutually exclusive for the lifetime of the session.
type Mode string

const (
	// ModeFile is the local-file intake workflow.
	ModeFile Mode = "file"
	// ModeURL is the external-URL intake workflow.
	ModeURL Mode = "url"
)

// Phase is one step of a mode's linear phase sequence.
type Phase string

const (
	// File mode: selection → metadata → archival → review → commit.
	PhaseSelection Phase = "selection"
	PhaseMetadata  Phase = "metadata"
	PhaseArchival  Phase = "archival"

	// URL mode: input → processing → review → commit.
	PhaseInput      Phase = "input"
	PhaseProcessing Phase = "processing"

	// Shared terminal phases.
	PhaseReview Phase = "review"
	PhaseCommit Phase = "commit"
)

// ReasonCode classifies why an action was rejected before any state
// mutation happened.
type ReasonCode string

const (
	ReasonNoCandidates     ReasonCode = "no_candidates"
	ReasonEmptyURLList     ReasonCode = "empty_url_list"
	ReasonInvalidTag       ReasonCode = "invalid_tag"
	ReasonWrongPhase       ReasonCode = "wrong_phase"
	ReasonWrongMode        ReasonCode = "wrong_mode"
	ReasonBusy             ReasonCode = "busy"
	ReasonSessionDestroyed ReasonCode = "session_destroyed"
)

// ValidationError is a rejected action: session state is unchanged and
// the caller gets a reason code plus a human-readable message.
type ValidationError struct {
	Code    ReasonCode
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func reject(code ReasonCode, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Candidate is one item moving through intake: a file path or a URL,
// plus its per-candidate metadata overrides.
type Candidate struct {
	Value       string   `json:"value"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	// ProcessingError records a failed metadata extraction for URL
	// candidates; processing continues regardless.
	ProcessingError string `json:"processing_error,omitempty"`
}

// BulkMetadata is the session-wide metadata default applied to every
// candidate that carries no override.
type BulkMetadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Session is one ephemeral intake wizard instance. It is created when
// the wizard opens, mutated only through its phase-transition and
// mutation methods, and destroyed on commit or cancel. Never persisted.
//
// Execution is single-threaded cooperative: only one phase is live at a
// time, and the busy flag disables forward navigation while a blocking
// operation (archival batch, URL processing) runs.
type Session struct {
	mu sync.Mutex

	ID   string
	Mode Mode

	phase      Phase
	candidates []Candidate
	bulk       BulkMetadata
	rawInput   string // URL mode textarea content

	// Plan holds the archival state for file-mode sessions.
	Plan *archive.Plan

	busy      bool
	destroyed bool

	uploader  *archive.Uploader
	extractor extract.Extractor
	logger    logger.Logger

	// lastBatch holds the most recent archival batch summary for the
	// review phase.
	lastBatch *archive.BatchSummary
	// progress of the currently-running blocking operation, 0..100.
	progress float64
}

// NewFileSession opens a local-file intake session.
func NewFileSession(uploader *archive.Uploader, log logger.Logger) *Session {
	return &Session{
		ID:       uuid.NewString(),
		Mode:     ModeFile,
		phase:    PhaseSelection,
		Plan:     archive.NewPlan(),
		uploader: uploader,
		logger:   log,
	}
}

// NewURLSession opens an external-URL intake session.
func NewURLSession(extractor extract.Extractor, log logger.Logger) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Mode:      ModeURL,
		phase:     PhaseInput,
		extractor: extractor,
		logger:    log,
	}
}

// CurrentPhase returns the live phase.
func (s *Session) CurrentPhase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Candidates returns a copy of the candidate set.
func (s *Session) Candidates() []Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// Bulk returns the current bulk metadata defaults.
func (s *Session) Bulk() BulkMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulk
}

// PlanSnapshot returns a detached copy of the archival plan, safe to
// read or serialize while a batch is writing results. Nil for URL
// sessions.
func (s *Session) PlanSnapshot() *archive.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Plan == nil {
		return nil
	}
	return s.Plan.Clone()
}

// Progress returns the percentage of the in-flight blocking operation.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// LastBatch returns the most recent archival batch summary, nil if no
// batch ran.
func (s *Session) LastBatch() *archive.BatchSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBatch
}

// CanAdvance reports whether forward navigation is currently allowed.
func (s *Session) CanAdvance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed || s.busy {
		return false
	}
	switch s.phase {
	case PhaseSelection:
		return len(s.candidates) > 0
	case PhaseInput:
		return len(ParseURLInput(s.rawInput)) > 0
	case PhaseReview, PhaseCommit:
		return false
	default:
		return true
	}
}

// SelectCandidates sets the candidate file list. Only valid during the
// selection phase of a file session; re-entering the phase replaces the
// set rather than appending to it.
func (s *Session) SelectCandidates(paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(ModeFile, PhaseSelection); err != nil {
		return err
	}

	candidates := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		candidates = append(candidates, Candidate{Value: p})
	}
	s.candidates = candidates
	return nil
}

// SetURLInput stores the raw textarea content of the input phase.
func (s *Session) SetURLInput(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guard(ModeURL, PhaseInput); err != nil {
		return err
	}
	s.rawInput = text
	return nil
}

// SetBulkMetadata captures the session-wide defaults. Metadata is
// captured continuously while the metadata phase is active, not just
// on transition.
func (s *Session) SetBulkMetadata(meta BulkMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	s.bulk = meta
	return nil
}

// SetCandidateMetadata overrides one candidate's title/description.
func (s *Session) SetCandidateMetadata(index int, title, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	if index < 0 || index >= len(s.candidates) {
		return reject(ReasonNoCandidates, "candidate index %d out of range", index)
	}
	s.candidates[index].Title = title
	s.candidates[index].Description = description
	return nil
}

// SetArchivalEnabled toggles the archival plan. Disabling clears it.
func (s *Session) SetArchivalEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Mode != ModeFile {
		return reject(ReasonWrongMode, "archival only applies to file sessions")
	}
	if s.destroyed {
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	s.Plan.SetEnabled(enabled)
	return nil
}

// ToggleArchivalSelection flips one candidate in or out of the upload set.
func (s *Session) ToggleArchivalSelection(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Mode != ModeFile {
		return reject(ReasonWrongMode, "archival only applies to file sessions")
	}
	if s.destroyed {
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	if index < 0 || index >= len(s.candidates) {
		return reject(ReasonNoCandidates, "candidate index %d out of range", index)
	}
	s.Plan.ToggleSelection(index)
	return nil
}

// AddUploadTag sanitizes and adds one upload tag to the plan. A
// rejected key mutates nothing.
func (s *Session) AddUploadTag(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Mode != ModeFile {
		return reject(ReasonWrongMode, "upload tags only apply to file sessions")
	}
	if s.destroyed {
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	if err := s.Plan.AddTag(key, value); err != nil {
		return reject(ReasonInvalidTag, "upload tag %q rejected: %v", key, err)
	}
	return nil
}

// Advance moves the session one phase forward, running the leaving
// phase's blocking work when there is any. The call blocks until the
// work completes; forward navigation stays disabled meanwhile.
func (s *Session) Advance(ctx context.Context) error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	if s.busy {
		s.mu.Unlock()
		return reject(ReasonBusy, "a blocking operation is in progress")
	}

	switch {
	case s.Mode == ModeFile && s.phase == PhaseSelection:
		if len(s.candidates) == 0 {
			s.mu.Unlock()
			return reject(ReasonNoCandidates, "select at least one file")
		}
		s.phase = PhaseMetadata
		s.mu.Unlock()
		return nil

	case s.Mode == ModeFile && s.phase == PhaseMetadata:
		s.phase = PhaseArchival
		s.mu.Unlock()
		return nil

	case s.Mode == ModeFile && s.phase == PhaseArchival:
		return s.advanceArchivalLocked(ctx)

	case s.Mode == ModeURL && s.phase == PhaseInput:
		urls := ParseURLInput(s.rawInput)
		if len(urls) == 0 {
			s.mu.Unlock()
			return reject(ReasonEmptyURLList, "enter at least one URL")
		}
		return s.advanceProcessingLocked(ctx, urls)

	default:
		phase := s.phase
		s.mu.Unlock()
		return reject(ReasonWrongPhase, "cannot advance from phase %s", phase)
	}
}

// advanceArchivalLocked runs the upload batch (when enabled with
// selections) and lands on review. Called with s.mu held; releases it.
// The batch runs against a detached copy of the plan; each result
// flows back under the session lock, so concurrent plan snapshots
// never observe a map mid-write.
func (s *Session) advanceArchivalLocked(ctx context.Context) error {
	if !s.Plan.Enabled || !s.Plan.HasSelections() {
		// Explicit skip-archival path.
		s.phase = PhaseReview
		s.mu.Unlock()
		return nil
	}

	s.busy = true
	s.progress = 0
	files := candidateValues(s.candidates)
	work := s.Plan.Clone()
	s.mu.Unlock()

	summary := s.uploader.Run(ctx, work, files, archive.BatchHooks{
		OnProgress: func(p archive.Progress) {
			s.mu.Lock()
			s.progress = p.Percent
			s.mu.Unlock()
		},
		OnResult: func(index int, result archive.UploadResult) {
			s.mu.Lock()
			s.Plan.UploadResults[index] = result
			s.mu.Unlock()
		},
		Aborted: s.Destroyed,
	})

	s.mu.Lock()
	s.busy = false
	s.lastBatch = &summary
	s.phase = PhaseReview
	s.mu.Unlock()
	return nil
}

// advanceProcessingLocked queues the URLs, extracts metadata one URL at
// a time in input order, and lands on review automatically. Called with
// s.mu held; releases it.
func (s *Session) advanceProcessingLocked(ctx context.Context, urls []string) error {
	s.busy = true
	s.phase = PhaseProcessing
	s.progress = 0
	// Each line queues independently: duplicates are not collapsed.
	candidates := make([]Candidate, 0, len(urls))
	for _, u := range urls {
		candidates = append(candidates, Candidate{Value: u})
	}
	s.candidates = candidates
	s.mu.Unlock()

	total := len(urls)
	for i := range urls {
		if s.Destroyed() {
			break
		}
		processed := ProcessURL(ctx, s.extractor, urls[i])

		s.mu.Lock()
		s.candidates[i].Title = processed.Title
		s.candidates[i].Description = processed.Description
		s.candidates[i].ProcessingError = processed.Error
		s.progress = float64(i+1) / float64(total) * 100
		s.mu.Unlock()

		s.logger.Info("processed url",
			logger.String("url", urls[i]),
			logger.Int("index", i+1),
			logger.Int("total", total))
	}

	s.mu.Lock()
	s.busy = false
	s.phase = PhaseReview
	s.mu.Unlock()
	return nil
}

// Back moves one phase backward without discarding collected state.
// Returning from archival to metadata keeps already-computed cost
// estimates: cost depends only on file size, not metadata.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	if s.busy {
		return reject(ReasonBusy, "a blocking operation is in progress")
	}

	switch {
	case s.Mode == ModeFile && s.phase == PhaseMetadata:
		s.phase = PhaseSelection
	case s.Mode == ModeFile && s.phase == PhaseArchival:
		s.phase = PhaseMetadata
	case s.Mode == ModeFile && s.phase == PhaseReview:
		s.phase = PhaseArchival
	case s.Mode == ModeURL && s.phase == PhaseReview:
		s.phase = PhaseInput
	default:
		return reject(ReasonWrongPhase, "cannot go back from phase %s", s.phase)
	}
	return nil
}

// EstimateCosts computes cost estimates for the currently selected
// candidates. Valid during the archival phase; best-effort per file.
func (s *Session) EstimateCosts(ctx context.Context) error {
	s.mu.Lock()
	if err := s.guard(ModeFile, PhaseArchival); err != nil {
		s.mu.Unlock()
		return err
	}
	files := candidateValues(s.candidates)
	work := s.Plan.Clone()
	s.mu.Unlock()

	s.uploader.EstimateCosts(ctx, work, files)

	s.mu.Lock()
	for index, state := range work.CostEstimates {
		s.Plan.CostEstimates[index] = state
	}
	s.mu.Unlock()
	return nil
}

// Cancel discards the session. A running batch observes the flag
// before each file: the upload already dispatched finishes, no
// further ones start.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.destroyed = true
}

// Destroyed reports whether the session has been discarded.
func (s *Session) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// beginCommit validates the review → commit transition and marks the
// session committed. The assembler performs the actual record building.
func (s *Session) beginCommit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	if s.busy {
		return reject(ReasonBusy, "a blocking operation is in progress")
	}
	if s.phase != PhaseReview {
		return reject(ReasonWrongPhase, "commit only allowed from review, current phase %s", s.phase)
	}
	if len(s.candidates) == 0 {
		return reject(ReasonNoCandidates, "nothing to commit")
	}
	s.phase = PhaseCommit
	return nil
}

// guard validates mode and phase for a mutation.
func (s *Session) guard(mode Mode, phase Phase) error {
	if s.destroyed {
		return reject(ReasonSessionDestroyed, "session is destroyed")
	}
	if s.Mode != mode {
		return reject(ReasonWrongMode, "action requires %s mode", mode)
	}
	if s.phase != phase {
		return reject(ReasonWrongPhase, "action requires phase %s, current phase %s", phase, s.phase)
	}
	return nil
}

func candidateValues(candidates []Candidate) []string {
	values := make([]string, 0, len(candidates))
	for _, c := range candidates {
		values = append(values, c.Value)
	}
	return values
}
