package intake

import (
	"context"
	"errors"
	"sync"

	"github.com/keepdeck/keep/internal/archive"
	"github.com/keepdeck/keep/internal/extract"
	"github.com/keepdeck/keep/internal/logger"
)

// ErrSessionNotFound is returned for unknown or already-discarded
// session IDs.
var ErrSessionNotFound = errors.New("intake session not found")

// Manager tracks the open intake sessions and owns their collaborators.
// Sessions live only in memory; a restart discards them all.
type Manager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	uploader  *archive.Uploader
	extractor extract.Extractor
	assembler *Assembler
	logger    logger.Logger
}

// NewManager creates the session registry.
func NewManager(uploader *archive.Uploader, extractor extract.Extractor, assembler *Assembler, log logger.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		uploader:  uploader,
		extractor: extractor,
		assembler: assembler,
		logger:    log,
	}
}

// OpenFileSession starts a local-file intake session.
func (m *Manager) OpenFileSession() *Session {
	session := NewFileSession(m.uploader, m.logger)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("opened file intake session",
		logger.String("session", session.ID))
	return session
}

// OpenURLSession starts an external-URL intake session.
func (m *Manager) OpenURLSession() *Session {
	session := NewURLSession(m.extractor, m.logger)

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	m.logger.Info("opened url intake session",
		logger.String("session", session.ID))
	return session
}

// Get looks up an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Cancel discards a session: its state is dropped, in-flight uploads
// already dispatched are not chased down.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Cancel()
	m.logger.Info("cancelled intake session",
		logger.String("session", id))
	return nil
}

// Commit runs the assembler for a session in review and discards the
// session afterwards, whatever the per-item outcomes were.
func (m *Manager) Commit(ctx context.Context, id string) (*CommitReport, error) {
	session, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	report, err := m.assembler.Commit(ctx, session)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()

	return report, nil
}

// Open returns the number of live sessions.
func (m *Manager) Open() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
