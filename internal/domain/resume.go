package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"maps"
	"slices"
	"strings"
)

// ExperienceItem is one position on a resume.
type ExperienceItem struct {
	Company      string   `json:"company" yaml:"company"`
	Location     string   `json:"location" yaml:"location"`
	Title        string   `json:"title" yaml:"title"`
	StartDate    string   `json:"startDate" yaml:"startDate"`
	EndDate      string   `json:"endDate" yaml:"endDate"`
	Current      bool     `json:"current" yaml:"current"`
	Description  string   `json:"description" yaml:"description"`
	Links        []string `json:"links,omitempty" yaml:"links,omitempty"`
	Highlights   []string `json:"highlights,omitempty" yaml:"highlights,omitempty"`
	Technologies []string `json:"technologies,omitempty" yaml:"technologies,omitempty"`
}

// EducationItem is one degree on a resume.
type EducationItem struct {
	Institution string `json:"institution" yaml:"institution"`
	Degree      string `json:"degree" yaml:"degree"`
	Date        string `json:"date" yaml:"date"`
}

// SideProject is a personal project with named links.
type SideProject struct {
	Title   string            `json:"title" yaml:"title"`
	Summary string            `json:"summary" yaml:"summary"`
	Links   map[string]string `json:"links,omitempty" yaml:"links,omitempty"`
}

// SideProjects accepts either a single project object or an array of them.
// It always encodes as an array.
type SideProjects []SideProject

// UnmarshalJSON implements json.Unmarshaler.
func (s *SideProjects) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var one SideProject
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = SideProjects{one}
		return nil
	}
	var many []SideProject
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Resume is the portfolio owner's resume record.
type Resume struct {
	ID              string              `json:"id" yaml:"id"`
	Slug            string              `json:"slug" yaml:"slug"`
	Name            string              `json:"name" yaml:"name"`
	Summary         string              `json:"summary" yaml:"summary"`
	Experience      []ExperienceItem    `json:"experience" yaml:"experience"`
	Education       []EducationItem     `json:"education" yaml:"education"`
	Skills          map[string][]string `json:"skills" yaml:"skills"`
	SideProjects    SideProjects        `json:"side_projects,omitempty" yaml:"side_projects,omitempty"`
	Photo           string              `json:"photo,omitempty" yaml:"photo,omitempty"`
	TagLine         string              `json:"tag_line,omitempty" yaml:"tag_line,omitempty"`
	CurrentLocation string              `json:"current_location,omitempty" yaml:"current_location,omitempty"`
	CreatedAt       string              `json:"created_at" yaml:"created_at"`
	UpdatedAt       string              `json:"updated_at" yaml:"updated_at"`
}

// FirstName returns the first word of the resume owner's name.
func (r *Resume) FirstName() string {
	if r == nil {
		return ""
	}
	fields := strings.Fields(r.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Clone returns a deep copy of r.
func (r *Resume) Clone() *Resume {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Experience != nil {
		cp.Experience = make([]ExperienceItem, len(r.Experience))
		for i, e := range r.Experience {
			e.Links = slices.Clone(e.Links)
			e.Highlights = slices.Clone(e.Highlights)
			e.Technologies = slices.Clone(e.Technologies)
			cp.Experience[i] = e
		}
	}
	cp.Education = slices.Clone(r.Education)
	if r.Skills != nil {
		cp.Skills = make(map[string][]string, len(r.Skills))
		for k, v := range r.Skills {
			cp.Skills[k] = slices.Clone(v)
		}
	}
	if r.SideProjects != nil {
		cp.SideProjects = make(SideProjects, len(r.SideProjects))
		for i, p := range r.SideProjects {
			p.Links = maps.Clone(p.Links)
			cp.SideProjects[i] = p
		}
	}
	return &cp
}

// redactedResume drops the identity fields from the prompt snapshot.
type redactedResume struct {
	ID              string              `json:"id"`
	Summary         string              `json:"summary"`
	Experience      []ExperienceItem    `json:"experience"`
	Education       []EducationItem     `json:"education"`
	Skills          map[string][]string `json:"skills"`
	SideProjects    SideProjects        `json:"side_projects,omitempty"`
	Photo           string              `json:"photo,omitempty"`
	TagLine         string              `json:"tag_line,omitempty"`
	CurrentLocation string              `json:"current_location,omitempty"`
	CreatedAt       string              `json:"created_at"`
	UpdatedAt       string              `json:"updated_at"`
}

// PromptContext serialises the resume for the system prompt, without name
// and slug. A nil resume yields an empty string.
func (r *Resume) PromptContext() string {
	if r == nil {
		return ""
	}
	data, err := json.MarshalIndent(redactedResume{
		ID:              r.ID,
		Summary:         r.Summary,
		Experience:      r.Experience,
		Education:       r.Education,
		Skills:          r.Skills,
		SideProjects:    r.SideProjects,
		Photo:           r.Photo,
		TagLine:         r.TagLine,
		CurrentLocation: r.CurrentLocation,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}, "", "  ")
	if err != nil {
		return ""
	}
	return "\n\nFull Resume Data:\n" + string(data)
}

// ResumeStore reads resume records.
type ResumeStore interface {
	// DefaultResume returns the primary resume shown on the site.
	DefaultResume(ctx context.Context) (*Resume, error)
	// ResumeBySlug returns ErrResumeNotFound when no record has the slug.
	ResumeBySlug(ctx context.Context, slug string) (*Resume, error)
}
