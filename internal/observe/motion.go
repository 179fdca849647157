// Package observe turns browser signals into the two booleans the view needs:
// whether motion should be reduced and whether the back-to-top control shows.
// Both observers follow the same lifecycle: Activate reads the current value
// and subscribes, Deactivate releases the subscription.
package observe

import (
	"sync"
	"sync/atomic"

	"github.com/xiaole5211314/portfolio/internal/browser"
)

// MotionPreference publishes the reduced-motion accessibility setting. A
// window without the media feature reads as "not reduced".
type MotionPreference struct {
	win      browser.Window
	onChange func(reduced bool)

	mu     sync.Mutex
	handle browser.Handle

	reduced atomic.Bool
}

func NewMotionPreference(win browser.Window) *MotionPreference {
	return &MotionPreference{win: win}
}

// OnChange registers fn to run after every published update. Set it before
// Activate.
func (m *MotionPreference) OnChange(fn func(reduced bool)) {
	m.onChange = fn
}

func (m *MotionPreference) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle != nil {
		return
	}

	if m.win == nil {
		m.reduced.Store(false)
		return
	}
	mq, ok := m.win.MatchMedia(browser.ReducedMotionQuery)
	if !ok || mq == nil {
		m.reduced.Store(false)
		return
	}

	m.reduced.Store(mq.Matches())
	m.handle = mq.OnChange(m.publish)
}

func (m *MotionPreference) Deactivate() {
	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.mu.Unlock()

	if h != nil {
		h.Release()
	}
}

func (m *MotionPreference) Reduced() bool {
	return m.reduced.Load()
}

// Active reports whether a subscription is currently held.
func (m *MotionPreference) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

func (m *MotionPreference) publish(reduced bool) {
	m.reduced.Store(reduced)
	if m.onChange != nil {
		m.onChange(reduced)
	}
}
