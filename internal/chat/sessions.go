package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopbot-labs/shopbot/internal/catalog"
	"github.com/shopbot-labs/shopbot/internal/llm"
)

// DefaultSessionID is used when a request carries no session header.
const DefaultSessionID = "default"

// Session owns one chat session's mutable state: its generated catalog
// and its provider conversation. The catalog is write-once per
// initialization; the conversation accumulates across turns. Turns are
// serialized through mu, so a session processes one message at a time.
// username and lastActive are also touched by the TTL sweeper and the
// registration path, which never hold mu, so they get their own lock.
type Session struct {
	ID      string
	Catalog *catalog.Catalog
	Conv    llm.Conversation

	mu sync.Mutex

	stateMu    sync.Mutex
	username   string
	lastActive time.Time
}

func (s *Session) touch() {
	s.stateMu.Lock()
	s.lastActive = time.Now()
	s.stateMu.Unlock()
}

// Username returns the name registered for this session.
func (s *Session) Username() string {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.username
}

func (s *Session) setUsername(name string) {
	s.stateMu.Lock()
	s.username = name
	s.stateMu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.lastActive
}

// SessionManager keeps active sessions keyed by session ID, so multiple
// independent chat widgets can run concurrently against one server.
type SessionManager struct {
	mu        sync.RWMutex
	sessions  map[string]*Session
	usernames map[string]string // registered before the session exists
	logger    *slog.Logger
}

// NewSessionManager creates an empty session manager.
func NewSessionManager(logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions:  make(map[string]*Session),
		usernames: make(map[string]string),
		logger:    logger,
	}
}

// SetUsername records the registered username for a session ID.
// Registration happens before initialization, so the name is held until
// Init attaches it.
func (m *SessionManager) SetUsername(sessionID, username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usernames[sessionID] = username
	if sess, ok := m.sessions[sessionID]; ok {
		sess.setUsername(username)
	}
}

// Init creates (or replaces) the session for sessionID with a fresh
// catalog and conversation. Re-initializing discards all prior state.
func (m *SessionManager) Init(sessionID string, cat *catalog.Catalog, conv llm.Conversation) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	username := m.usernames[sessionID]
	if username == "" {
		username = "anonymous"
	}

	sess := &Session{
		ID:         sessionID,
		username:   username,
		Catalog:    cat,
		Conv:       conv,
		lastActive: time.Now(),
	}
	m.sessions[sessionID] = sess
	m.logger.Info("session initialized", "session_id", sessionID, "username", username, "catalog_size", cat.Len())
	return sess
}

// Get returns the session for sessionID, or false when it has not been
// initialized.
func (m *SessionManager) Get(sessionID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	return sess, ok
}

// Sweep drops sessions idle longer than ttl and returns how many were
// removed.
func (m *SessionManager) Sweep(ttl time.Duration) int {
	threshold := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if sess.idleSince().Before(threshold) {
			delete(m.sessions, id)
			delete(m.usernames, id)
			removed++
			m.logger.Info("session expired", "session_id", id)
		}
	}
	return removed
}

const sweepInterval = 5 * time.Minute

// StartTTLSweeper runs a background goroutine that periodically drops
// idle sessions.
func (m *SessionManager) StartTTLSweeper(ctx context.Context, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		m.logger.Info("session TTL sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if removed := m.Sweep(ttl); removed > 0 {
					m.logger.Info("session TTL sweep completed", "removed", removed)
				}
			case <-ctx.Done():
				m.logger.Info("session TTL sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
