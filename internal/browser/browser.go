// Package browser describes the slice of a browser tab the portfolio depends
// on: media-feature queries, the viewport scroll offset, and scroll requests.
// Tab is the server-side implementation, fed by signals the page reports.
package browser

import "time"

// ReducedMotionQuery is the media feature for the OS-level reduce-motion setting.
const ReducedMotionQuery = "(prefers-reduced-motion: reduce)"

// Handle releases a listener registration. Release may be called more than once.
type Handle interface {
	Release()
}

type MediaQueryList interface {
	Matches() bool
	OnChange(fn func(matches bool)) Handle
}

type ScrollBehavior string

const (
	BehaviorSmooth  ScrollBehavior = "smooth"
	BehaviorInstant ScrollBehavior = "instant"
)

// ScrollRequest asks the tab to move its viewport. With an empty Target, Top is
// an absolute offset; otherwise Top is added to the target element's position.
type ScrollRequest struct {
	Target   string         `json:"target,omitempty"`
	Top      float64        `json:"top"`
	Behavior ScrollBehavior `json:"behavior"`
	Duration time.Duration  `json:"-"`
	// DurationMs mirrors Duration for the page script.
	DurationMs int64 `json:"durationMs,omitempty"`
}

type Window interface {
	// MatchMedia reports ok=false when the query is not supported.
	MatchMedia(query string) (MediaQueryList, bool)
	ScrollY() float64
	OnScroll(fn func()) Handle
	ScrollTo(req ScrollRequest)
}
