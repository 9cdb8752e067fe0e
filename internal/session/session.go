// Package session keeps the signed-in user's profile in memory and
// notifies subscribers when it changes.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hongminglow/horoscope-be/internal/logging"
	"github.com/hongminglow/horoscope-be/internal/metrics"
	"github.com/hongminglow/horoscope-be/internal/models"
	"github.com/hongminglow/horoscope-be/internal/profile"
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// ProfileStore is the persistence a session writes through to.
type ProfileStore interface {
	LoadOrDefault(ctx context.Context, userID string) (*models.UserProfile, error)
	Update(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.UserProfile, error)
	Delete(ctx context.Context, userID string) error
}

var _ ProfileStore = (*profile.Store)(nil)

// Session holds one user's profile. It is the only writer of that profile
// in this process; subscribers receive read-only snapshots.
type Session struct {
	user  models.User
	store ProfileStore

	mu      sync.Mutex
	profile *models.UserProfile
	subs    map[uint64]chan *models.UserProfile
	nextSub uint64
	closed  bool
}

func (s *Session) User() models.User { return s.user }

// Snapshot returns a copy of the current profile.
func (s *Session) Snapshot() *models.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Update applies upd, persists it, and publishes the new profile. Guest
// profiles are merged in memory only.
func (s *Session) Update(ctx context.Context, upd models.ProfileUpdate) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	var next *models.UserProfile
	if s.user.Guest {
		next = s.profile.Clone()
		profile.Merge(next, upd)
		next.LastUpdated = time.Now().UTC()
	} else {
		updated, err := s.store.Update(ctx, s.user.ID, upd)
		if err != nil {
			return nil, err
		}
		next = updated
	}
	s.setLocked(next)
	return next.Clone(), nil
}

// Replace swaps in a profile written elsewhere, e.g. by an admin
// subscription change, and publishes it.
func (s *Session) Replace(p *models.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || p == nil {
		return
	}
	s.setLocked(p.Clone())
}

// Reset deletes the stored profile and falls back to a fresh free-tier one.
func (s *Session) Reset(ctx context.Context) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if !s.user.Guest {
		if err := s.store.Delete(ctx, s.user.ID); err != nil {
			return nil, err
		}
	}
	next := models.NewDefaultProfile(s.user.ID, time.Now().UTC())
	s.setLocked(next)
	return next.Clone(), nil
}

// Subscribe returns a channel that receives every new snapshot and a
// func that stops delivery and closes the channel. Slow readers only see
// the latest snapshot. The channel is also closed when the session closes.
func (s *Session) Subscribe() (<-chan *models.UserProfile, func()) {
	ch := make(chan *models.UserProfile, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	metrics.ProfileSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
				metrics.ProfileSubscribers.Dec()
			}
		})
	}
}

func (s *Session) setLocked(p *models.UserProfile) {
	s.profile = p
	for _, ch := range s.subs {
		publish(ch, p.Clone())
	}
}

// publish never blocks: a pending, unread snapshot is replaced by the newer one.
func publish(ch chan *models.UserProfile, p *models.UserProfile) {
	select {
	case ch <- p:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- p:
	default:
	}
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
		metrics.ProfileSubscribers.Dec()
	}
}

// Manager owns the open sessions, keyed by user id.
type Manager struct {
	store ProfileStore

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store ProfileStore) *Manager {
	return &Manager{store: store, sessions: make(map[string]*Session)}
}

// Open returns the user's session, loading the profile on first use.
// Guests get an unsaved free-tier profile.
func (m *Manager) Open(ctx context.Context, user models.User) (*Session, error) {
	if s, ok := m.Get(user.ID); ok {
		return s, nil
	}

	var p *models.UserProfile
	if user.Guest {
		p = models.NewDefaultProfile(user.ID, time.Now().UTC())
	} else {
		loaded, err := m.store.LoadOrDefault(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		p = loaded
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[user.ID]; ok {
		return s, nil
	}
	s := &Session{
		user:    user,
		store:   m.store,
		profile: p,
		subs:    make(map[uint64]chan *models.UserProfile),
	}
	m.sessions[user.ID] = s
	metrics.ActiveSessions.Inc()
	logging.Ctx(ctx).Debug().Str("user_id", user.ID).Bool("guest", user.Guest).Msg("session opened")
	return s, nil
}

func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Close ends the user's session and disconnects its subscribers.
func (m *Manager) Close(userID string) {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	if ok {
		delete(m.sessions, userID)
		metrics.ActiveSessions.Dec()
	}
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// CloseAll ends every session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	metrics.ActiveSessions.Set(0)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}
