package browser

import (
	"sync"
)

// Tab mirrors one open page. Signals arrive through ReportScroll and
// ReportMedia; listeners run synchronously on the reporting goroutine, after
// the tab lock is released so they may read the tab back.
type Tab struct {
	mu      sync.Mutex
	scrollY float64
	media   map[string]*mediaQuery
	scroll  registry[func()]
	pending []ScrollRequest
}

// NewTab creates a tab at the given scroll offset. Only the queries present in
// media are supported; each maps to its current match state.
func NewTab(scrollY float64, media map[string]bool) *Tab {
	t := &Tab{
		scrollY: scrollY,
		media:   make(map[string]*mediaQuery, len(media)),
	}
	for q, matches := range media {
		t.media[q] = &mediaQuery{tab: t, matches: matches}
	}
	return t
}

func (t *Tab) MatchMedia(query string) (MediaQueryList, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	mq, ok := t.media[query]
	if !ok {
		return nil, false
	}
	return mq, true
}

func (t *Tab) ScrollY() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scrollY
}

func (t *Tab) OnScroll(fn func()) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scroll.add(&t.mu, fn)
}

// ScrollTo queues the request for delivery to the page.
func (t *Tab) ScrollTo(req ScrollRequest) {
	if req.Behavior == "" {
		req.Behavior = BehaviorSmooth
	}
	req.DurationMs = req.Duration.Milliseconds()
	t.mu.Lock()
	t.pending = append(t.pending, req)
	t.mu.Unlock()
}

// DrainScrollRequests returns queued requests and clears the queue.
func (t *Tab) DrainScrollRequests() []ScrollRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pending
	t.pending = nil
	return out
}

// ReportScroll records a new scroll offset and notifies every scroll listener.
func (t *Tab) ReportScroll(y float64) {
	t.mu.Lock()
	t.scrollY = y
	fns := t.scroll.snapshot()
	t.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// ReportMedia records a media query change. It returns false for queries the
// tab does not support. Listeners are notified only when the value changes.
func (t *Tab) ReportMedia(query string, matches bool) bool {
	t.mu.Lock()
	mq, ok := t.media[query]
	if !ok {
		t.mu.Unlock()
		return false
	}
	changed := mq.matches != matches
	mq.matches = matches
	var fns []func(bool)
	if changed {
		fns = mq.listeners.snapshot()
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(matches)
	}
	return true
}

// ListenerCount is the number of live registrations across all event sources.
func (t *Tab) ListenerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := t.scroll.len()
	for _, mq := range t.media {
		n += mq.listeners.len()
	}
	return n
}

type mediaQuery struct {
	tab       *Tab
	matches   bool
	listeners registry[func(bool)]
}

func (m *mediaQuery) Matches() bool {
	m.tab.mu.Lock()
	defer m.tab.mu.Unlock()
	return m.matches
}

func (m *mediaQuery) OnChange(fn func(bool)) Handle {
	m.tab.mu.Lock()
	defer m.tab.mu.Unlock()
	return m.listeners.add(&m.tab.mu, fn)
}

// registry is a set of listeners keyed by registration order. Callers hold
// the owning lock for every method.
type registry[F any] struct {
	next int
	fns  map[int]F
}

func (r *registry[F]) add(mu *sync.Mutex, fn F) Handle {
	if r.fns == nil {
		r.fns = make(map[int]F)
	}
	id := r.next
	r.next++
	r.fns[id] = fn
	return &handle{release: func() {
		mu.Lock()
		delete(r.fns, id)
		mu.Unlock()
	}}
}

func (r *registry[F]) snapshot() []F {
	out := make([]F, 0, len(r.fns))
	for id := 0; id < r.next; id++ {
		if fn, ok := r.fns[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func (r *registry[F]) len() int { return len(r.fns) }

type handle struct {
	once    sync.Once
	release func()
}

func (h *handle) Release() { h.once.Do(h.release) }
