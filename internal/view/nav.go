package view

import (
	"errors"
	"fmt"
	"time"

	"github.com/xiaole5211314/portfolio/internal/browser"
	"github.com/xiaole5211314/portfolio/internal/observe"
)

var ErrUnknownSection = errors.New("unknown section")

const (
	SectionAbout      = "about"
	SectionExperience = "experience"
	SectionProjects   = "projects"
	SectionSkills     = "skills"
)

// HeaderOffset keeps section headings clear of the fixed navigation bar.
const HeaderOffset = -70

const navScrollDuration = 500 * time.Millisecond

type NavLink struct {
	Label  string
	Target string
}

// NavLinks lists the navigation targets in display order. Each target is also
// a section id.
func NavLinks() []NavLink {
	return []NavLink{
		{Label: "About", Target: SectionAbout},
		{Label: "Experience", Target: SectionExperience},
		{Label: "Projects", Target: SectionProjects},
		{Label: "Skills", Target: SectionSkills},
	}
}

func knownSection(id string) bool {
	switch id {
	case SectionAbout, SectionExperience, SectionProjects, SectionSkills:
		return true
	}
	return false
}

type Navigator struct {
	win browser.Window
}

func NewNavigator(win browser.Window) *Navigator {
	return &Navigator{win: win}
}

// Activate issues one smooth scroll to the target section.
func (n *Navigator) Activate(target string) error {
	if !knownSection(target) {
		return fmt.Errorf("%w: %q", ErrUnknownSection, target)
	}
	n.win.ScrollTo(browser.ScrollRequest{
		Target:   target,
		Top:      HeaderOffset,
		Behavior: browser.BehaviorSmooth,
		Duration: navScrollDuration,
	})
	return nil
}

// BackToTop is the floating control gated by a ScrollWatcher.
type BackToTop struct {
	win     browser.Window
	watcher *observe.ScrollWatcher
}

func NewBackToTop(win browser.Window, watcher *observe.ScrollWatcher) *BackToTop {
	return &BackToTop{win: win, watcher: watcher}
}

func (b *BackToTop) Visible() bool {
	return b.watcher.Visible()
}

// Click requests a smooth scroll to the top. An absent control cannot be
// clicked, so nothing is issued while the watcher reports it hidden.
func (b *BackToTop) Click() bool {
	if !b.Visible() {
		return false
	}
	b.win.ScrollTo(browser.ScrollRequest{Top: 0, Behavior: browser.BehaviorSmooth})
	return true
}
