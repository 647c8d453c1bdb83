// Package state implements the upload registry: the authoritative,
// concurrency-safe record of which chunks have arrived for every
// in-progress chunked upload.
package state

import (
	"sync"

	"filedrop/internal/filedrop/domain"
	"filedrop/pkg/logger"
)

// Registry maps upload ids to in-progress sessions. The registry lock only
// guards the map itself; each session carries its own lock, so operations
// on different upload ids never contend.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	logger   *logger.Logger
}

// entry pairs a session with its mutation lock. The lock serializes
// received-set updates and removal for one upload id; the removed flag
// lets a mutator that raced a concurrent complete observe a clean
// not-found instead of resurrecting the session.
type entry struct {
	mu      sync.Mutex
	removed bool
	session *domain.UploadSession
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		logger:   logger.WithField("component", "upload-registry"),
	}
}

// Create inserts a new session. Ids are generated fresh per init, so an
// existing id is an invariant violation, not a designed code path.
func (r *Registry) Create(session *domain.UploadSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return domain.Internal("upload id already registered: "+session.ID, nil)
	}

	r.sessions[session.ID] = &entry{session: session}
	r.logger.Debug("session registered", "uploadID", session.ID,
		"filename", session.TargetFilename, "totalChunks", session.TotalChunks,
		"active", len(r.sessions))
	return nil
}

func (r *Registry) lookup(id string) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Mutate runs fn on the session under its per-session lock. Returns a
// NotFound error if the id is unknown or the session was removed by a
// racing complete; fn never observes a partially-removed session.
func (r *Registry) Mutate(id string, fn func(*domain.UploadSession)) error {
	e := r.lookup(id)
	if e == nil {
		return domain.NotFound("upload not found: %s", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return domain.NotFound("upload not found: %s", id)
	}

	fn(e.session)
	return nil
}

// Snapshot returns an independent copy of the session's current state.
func (r *Registry) Snapshot(id string) (*domain.UploadSession, error) {
	e := r.lookup(id)
	if e == nil {
		return nil, domain.NotFound("upload not found: %s", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil, domain.NotFound("upload not found: %s", id)
	}

	return e.session.Clone(), nil
}

// RemoveIf atomically evaluates cond under the session's lock and, if cond
// returns nil, removes the session and returns its final state. A non-nil
// cond error leaves the session untouched and active. Exactly one of two
// racing removals can succeed; the loser observes NotFound.
func (r *Registry) RemoveIf(id string, cond func(*domain.UploadSession) error) (*domain.UploadSession, error) {
	e := r.lookup(id)
	if e == nil {
		return nil, domain.NotFound("upload not found: %s", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.removed {
		return nil, domain.NotFound("upload not found: %s", id)
	}

	if cond != nil {
		if err := cond(e.session); err != nil {
			return nil, err
		}
	}

	e.removed = true

	r.mu.Lock()
	delete(r.sessions, id)
	active := len(r.sessions)
	r.mu.Unlock()

	r.logger.Debug("session removed", "uploadID", id, "active", active)
	return e.session, nil
}

// Remove unconditionally removes and returns the session.
func (r *Registry) Remove(id string) (*domain.UploadSession, error) {
	return r.RemoveIf(id, nil)
}

// Len reports the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
