package view

import (
	"time"

	"github.com/xiaole5211314/portfolio/internal/content"
)

// State is the observer output for one render pass.
type State struct {
	ReducedMotion bool
	ShowBackToTop bool
	// SessionID links the page to its live view session. Empty for static
	// exports, which then render without the signal bridge.
	SessionID string
}

type Section struct {
	ID       string
	Title    string
	Entrance Entrance
}

type ProjectCard struct {
	content.Project
	Hover Hover
}

type Footer struct {
	Year int
	Date string
	Name string
}

// Page is everything the page template needs.
type Page struct {
	Profile    content.Profile
	About      string
	Experience []content.ExperienceEntry
	Projects   []ProjectCard
	Skills     []content.Skill

	Nav       []NavLink
	Sections  map[string]Section
	Animation Animation
	BackToTop bool
	Footer    Footer
	SessionID string
}

// Build composes content and observer state into a Page. now is the render
// time used for the footer.
func Build(c *content.Content, st State, now time.Time) Page {
	anim := SelectAnimation(st.ReducedMotion)

	nav := NavLinks()
	sections := make(map[string]Section, len(nav))
	for i, l := range nav {
		sections[l.Target] = Section{ID: l.Target, Title: l.Label, Entrance: anim.Entrance(i)}
	}

	projects := c.Projects()
	cards := make([]ProjectCard, len(projects))
	for i, p := range projects {
		cards[i] = ProjectCard{Project: p, Hover: anim.Hover}
	}

	profile := c.Profile()
	return Page{
		Profile:    profile,
		About:      c.About(),
		Experience: c.Experience(),
		Projects:   cards,
		Skills:     c.Skills(),
		Nav:        nav,
		Sections:   sections,
		Animation:  anim,
		BackToTop:  st.ShowBackToTop,
		Footer: Footer{
			Year: now.Year(),
			Date: now.Format(time.DateOnly),
			Name: profile.Name,
		},
		SessionID: st.SessionID,
	}
}

// OrderedSections returns the sections in navigation order.
func (p Page) OrderedSections() []Section {
	out := make([]Section, 0, len(p.Nav))
	for _, l := range p.Nav {
		out = append(out, p.Sections[l.Target])
	}
	return out
}
