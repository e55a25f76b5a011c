package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"portfolio-ai/internal/domain"
)

// Seed is the content of a seed file: the chatbot record and any number of
// resumes. Exactly one resume may be marked default.
type Seed struct {
	Chatbot *domain.ChatbotConfig
	Resumes []SeedResume
}

// SeedResume is a resume plus its default flag.
type SeedResume struct {
	Default bool
	Resume  domain.Resume
}

type seedFile struct {
	Chatbot *domain.ChatbotConfig `yaml:"chatbot"`
	Resumes []yaml.Node           `yaml:"resumes"`
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data. Resumes go through their JSON decoding so
// that side_projects may be a single mapping or a list.
func ParseSeed(data []byte) (*Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, domain.NewDomainError("ParseSeed", domain.ErrInvalidInput, err.Error())
	}

	seed := &Seed{Chatbot: f.Chatbot}
	defaults := 0
	for i, node := range f.Resumes {
		var raw map[string]any
		if err := node.Decode(&raw); err != nil {
			return nil, domain.NewDomainError("ParseSeed", domain.ErrInvalidInput, fmt.Sprintf("resumes[%d]: %v", i, err))
		}
		isDefault, _ := raw["default"].(bool)
		delete(raw, "default")

		js, err := json.Marshal(raw)
		if err != nil {
			return nil, domain.NewDomainError("ParseSeed", domain.ErrInvalidInput, fmt.Sprintf("resumes[%d]: %v", i, err))
		}
		var r domain.Resume
		if err := json.Unmarshal(js, &r); err != nil {
			return nil, domain.NewDomainError("ParseSeed", domain.ErrInvalidInput, fmt.Sprintf("resumes[%d]: %v", i, err))
		}
		if r.ID == "" || r.Slug == "" {
			return nil, domain.NewDomainError("ParseSeed", domain.ErrInvalidInput, fmt.Sprintf("resumes[%d]: id and slug are required", i))
		}
		if isDefault {
			defaults++
		}
		seed.Resumes = append(seed.Resumes, SeedResume{Default: isDefault, Resume: r})
	}
	if defaults > 1 {
		return nil, domain.NewDomainError("ParseSeed", domain.ErrInvalidInput, "more than one default resume")
	}
	return seed, nil
}

// Writer is the write side of the store used by seeding.
type Writer interface {
	SetChatbot(ctx context.Context, cfg domain.ChatbotConfig) error
	SaveResume(ctx context.Context, r *domain.Resume, isDefault bool) error
}

// Apply writes the seed into w. The chatbot record is validated first so an
// unusable configuration never reaches the store.
func (s *Seed) Apply(ctx context.Context, w Writer) error {
	if s.Chatbot != nil {
		if err := s.Chatbot.Validate(); err != nil {
			return err
		}
		if err := w.SetChatbot(ctx, *s.Chatbot); err != nil {
			return err
		}
	}
	for i := range s.Resumes {
		if err := w.SaveResume(ctx, &s.Resumes[i].Resume, s.Resumes[i].Default); err != nil {
			return fmt.Errorf("resume %q: %w", s.Resumes[i].Resume.Slug, err)
		}
	}
	return nil
}
