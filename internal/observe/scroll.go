package observe

import (
	"sync"
	"sync/atomic"

	"github.com/xiaole5211314/portfolio/internal/browser"
)

// BackToTopThreshold is the scroll offset the viewport must pass, strictly,
// before the back-to-top control shows.
const BackToTopThreshold = 400

// ScrollWatcher publishes whether the viewport is scrolled past
// BackToTopThreshold. Every scroll notification is evaluated; there is no
// debouncing.
type ScrollWatcher struct {
	win      browser.Window
	onChange func(visible bool)

	mu     sync.Mutex
	handle browser.Handle

	visible atomic.Bool
}

func NewScrollWatcher(win browser.Window) *ScrollWatcher {
	return &ScrollWatcher{win: win}
}

// OnChange registers fn to run after every evaluation. Set it before Activate.
func (w *ScrollWatcher) OnChange(fn func(visible bool)) {
	w.onChange = fn
}

func (w *ScrollWatcher) Activate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.handle != nil || w.win == nil {
		return
	}

	w.visible.Store(pastThreshold(w.win.ScrollY()))
	w.handle = w.win.OnScroll(w.evaluate)
}

func (w *ScrollWatcher) Deactivate() {
	w.mu.Lock()
	h := w.handle
	w.handle = nil
	w.mu.Unlock()

	if h != nil {
		h.Release()
	}
}

func (w *ScrollWatcher) Visible() bool {
	return w.visible.Load()
}

func (w *ScrollWatcher) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.handle != nil
}

func (w *ScrollWatcher) evaluate() {
	v := pastThreshold(w.win.ScrollY())
	w.visible.Store(v)
	if w.onChange != nil {
		w.onChange(v)
	}
}

func pastThreshold(y float64) bool {
	return y > BackToTopThreshold
}
