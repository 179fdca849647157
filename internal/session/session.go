// Package session keeps one live view session per open page. A session owns
// the server-side Tab for that page and the two observers bound to it; the
// observers are activated on Mount and released on every way a session ends.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaole5211314/portfolio/internal/browser"
	"github.com/xiaole5211314/portfolio/internal/observe"
	"github.com/xiaole5211314/portfolio/internal/view"
)

var ErrNotFound = errors.New("session not found")

// Signals are what the page reports about itself when it first loads.
type Signals struct {
	ScrollY float64
	// ReducedMotion is nil when the request carried no motion preference.
	ReducedMotion *bool
}

type Session struct {
	ID string

	mu       sync.Mutex
	tab      *browser.Tab
	motion   *observe.MotionPreference
	scroll   *observe.ScrollWatcher
	nav      *view.Navigator
	top      *view.BackToTop
	lastSeen time.Time
	closed   bool
}

// State is the observer output used to render the session's page.
func (s *Session) State() view.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return view.State{
		ReducedMotion: s.motion.Reduced(),
		ShowBackToTop: s.scroll.Visible(),
		SessionID:     s.ID,
	}
}

// ReportScroll records a scroll offset and returns whether the back-to-top
// control shows.
func (s *Session) ReportScroll(y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab.ReportScroll(y)
	return s.scroll.Visible()
}

// ReportMotion records a reduced-motion change and returns the published value.
func (s *Session) ReportMotion(reduced bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tab.ReportMedia(browser.ReducedMotionQuery, reduced)
	return s.motion.Reduced()
}

// ClickBackToTop returns the scroll requests produced by one click.
func (s *Session) ClickBackToTop() []browser.ScrollRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.top.Click()
	return s.tab.DrainScrollRequests()
}

// Navigate returns the scroll requests produced by activating a nav link.
func (s *Session) Navigate(target string) ([]browser.ScrollRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.nav.Activate(target); err != nil {
		return nil, err
	}
	return s.tab.DrainScrollRequests(), nil
}

// Listeners is the number of live event registrations on the session's tab.
func (s *Session) Listeners() int {
	return s.tab.ListenerCount()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.motion.Deactivate()
	s.scroll.Deactivate()
}

type Manager struct {
	ttl    time.Duration
	max    int
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Manager)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLimit caps the number of live sessions. Mounting past the cap evicts
// the session idle the longest. n <= 0 means no cap.
func WithLimit(n int) Option {
	return func(m *Manager) { m.max = n }
}

func NewManager(ttl time.Duration, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mount creates a session for a freshly loaded page and activates its observers.
func (m *Manager) Mount(sig Signals) *Session {
	media := map[string]bool{browser.ReducedMotionQuery: false}
	if sig.ReducedMotion != nil {
		media[browser.ReducedMotionQuery] = *sig.ReducedMotion
	}
	tab := browser.NewTab(sig.ScrollY, media)

	s := &Session{
		ID:       uuid.NewString(),
		tab:      tab,
		motion:   observe.NewMotionPreference(tab),
		scroll:   observe.NewScrollWatcher(tab),
		lastSeen: m.now(),
	}
	s.nav = view.NewNavigator(tab)
	s.top = view.NewBackToTop(tab, s.scroll)
	s.motion.Activate()
	s.scroll.Activate()

	m.mu.Lock()
	evicted := m.evictLocked(s.lastSeen)
	m.sessions[s.ID] = s
	m.mu.Unlock()

	for _, old := range evicted {
		old.release()
		m.logger.Debug("session evicted", zap.String("session", old.ID))
	}

	m.logger.Debug("session mounted",
		zap.String("session", s.ID),
		zap.Bool("reduced_motion", s.motion.Reduced()),
		zap.Bool("back_to_top", s.scroll.Visible()))
	return s
}

// evictLocked removes the longest-idle sessions until one more fits under
// the cap. The caller holds m.mu and releases the returned sessions.
func (m *Manager) evictLocked(now time.Time) []*Session {
	if m.max <= 0 {
		return nil
	}
	var evicted []*Session
	for len(m.sessions) >= m.max {
		var oldest *Session
		var oldestIdle time.Duration
		for _, s := range m.sessions {
			if idle := s.idleSince(now); oldest == nil || idle > oldestIdle {
				oldest, oldestIdle = s, idle
			}
		}
		delete(m.sessions, oldest.ID)
		evicted = append(evicted, oldest)
	}
	return evicted
}

// Get returns a live session and marks it as seen.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(m.now())
	return s, nil
}

// Unmount releases a session's observers and forgets it.
func (m *Manager) Unmount(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.release()
	m.logger.Debug("session unmounted", zap.String("session", id))
	return nil
}

// Sweep unmounts sessions idle for longer than the TTL and returns how many
// were removed. Pages that close without a beacon end here.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.release()
	}
	if len(expired) > 0 {
		m.logger.Info("expired view sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Close unmounts every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.release()
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
