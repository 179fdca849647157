// Package content holds the portfolio's immutable content value: profile,
// experience, projects and skills. It is built once at startup and shared by
// pointer; accessors hand out copies so no caller can mutate it.
package content

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid content")

type SocialLink struct {
	Label string `json:"label" yaml:"label"`
	URL   string `json:"url" yaml:"url"`
}

type Profile struct {
	Name   string       `json:"name" yaml:"name"`
	Title  string       `json:"title" yaml:"title"`
	Email  string       `json:"email" yaml:"email"`
	Links  []SocialLink `json:"links" yaml:"links"`
	Avatar string       `json:"avatar" yaml:"avatar"`
}

// ExperienceEntry has no identity beyond its position in the list.
type ExperienceEntry struct {
	Organization string   `json:"organization" yaml:"organization"`
	Role         string   `json:"role" yaml:"role"`
	Period       string   `json:"period" yaml:"period"`
	Description  []string `json:"description" yaml:"description"`
}

type Project struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

type Skill string

// Content is read-only after construction.
type Content struct {
	profile    Profile
	about      string
	experience []ExperienceEntry
	projects   []Project
	skills     []Skill
}

// Document is the on-disk and wire shape of Content.
type Document struct {
	Profile    Profile           `json:"profile" yaml:"profile"`
	About      string            `json:"about" yaml:"about"`
	Experience []ExperienceEntry `json:"experience" yaml:"experience"`
	Projects   []Project         `json:"projects" yaml:"projects"`
	Skills     []Skill           `json:"skills" yaml:"skills"`
}

// New validates doc and copies it into a Content.
func New(doc Document) (*Content, error) {
	if err := doc.validate(); err != nil {
		return nil, err
	}
	c := &Content{
		profile:    cloneProfile(doc.Profile),
		about:      strings.TrimSpace(doc.About),
		experience: make([]ExperienceEntry, len(doc.Experience)),
		projects:   slices.Clone(doc.Projects),
		skills:     slices.Clone(doc.Skills),
	}
	for i, e := range doc.Experience {
		e.Description = slices.Clone(e.Description)
		c.experience[i] = e
	}
	return c, nil
}

// Load reads a YAML content file.
func Load(path string) (*Content, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML content. Unknown keys are rejected so typos surface at
// startup instead of as missing sections.
func Parse(raw []byte) (*Content, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	return New(doc)
}

func (d Document) validate() error {
	if strings.TrimSpace(d.Profile.Name) == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalid)
	}
	for i, l := range d.Profile.Links {
		if strings.TrimSpace(l.URL) == "" {
			return fmt.Errorf("%w: link %d (%q) has no url", ErrInvalid, i, l.Label)
		}
	}
	for i, e := range d.Experience {
		if e.Organization == "" && e.Role == "" {
			return fmt.Errorf("%w: experience %d has neither organization nor role", ErrInvalid, i)
		}
	}
	for i, p := range d.Projects {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: project %d has no name", ErrInvalid, i)
		}
	}
	seen := make(map[Skill]struct{}, len(d.Skills))
	for _, s := range d.Skills {
		if strings.TrimSpace(string(s)) == "" {
			return fmt.Errorf("%w: empty skill", ErrInvalid)
		}
		if _, dup := seen[s]; dup {
			return fmt.Errorf("%w: duplicate skill %q", ErrInvalid, s)
		}
		seen[s] = struct{}{}
	}
	return nil
}

func (c *Content) Profile() Profile { return cloneProfile(c.profile) }

func (c *Content) About() string { return c.about }

func (c *Content) Experience() []ExperienceEntry {
	out := make([]ExperienceEntry, len(c.experience))
	for i, e := range c.experience {
		e.Description = slices.Clone(e.Description)
		out[i] = e
	}
	return out
}

func (c *Content) Projects() []Project { return slices.Clone(c.projects) }

func (c *Content) Skills() []Skill { return slices.Clone(c.skills) }

// Snapshot returns a serialisable copy, used by the JSON API.
func (c *Content) Snapshot() Document {
	return Document{
		Profile:    c.Profile(),
		About:      c.about,
		Experience: c.Experience(),
		Projects:   c.Projects(),
		Skills:     c.Skills(),
	}
}

func cloneProfile(p Profile) Profile {
	p.Links = slices.Clone(p.Links)
	return p
}
