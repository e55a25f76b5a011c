package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideProjects_UnmarshalObjectOrArray(t *testing.T) {
	var one Resume
	require.NoError(t, json.Unmarshal([]byte(`{"side_projects":{"title":"cli","summary":"a tool","links":{"github":"https://x"}}}`), &one))
	require.Len(t, one.SideProjects, 1)
	assert.Equal(t, "cli", one.SideProjects[0].Title)
	assert.Equal(t, "https://x", one.SideProjects[0].Links["github"])

	var many Resume
	require.NoError(t, json.Unmarshal([]byte(`{"side_projects":[{"title":"a"},{"title":"b"}]}`), &many))
	require.Len(t, many.SideProjects, 2)
	assert.Equal(t, "b", many.SideProjects[1].Title)

	var none Resume
	require.NoError(t, json.Unmarshal([]byte(`{"side_projects":null}`), &none))
	assert.Nil(t, none.SideProjects)

	var bad Resume
	assert.Error(t, json.Unmarshal([]byte(`{"side_projects":"nope"}`), &bad))
}

func TestResume_FirstName(t *testing.T) {
	assert.Equal(t, "Jane", (&Resume{Name: "Jane Q. Doe"}).FirstName())
	assert.Equal(t, "", (&Resume{Name: "   "}).FirstName())
	var nilResume *Resume
	assert.Equal(t, "", nilResume.FirstName())
}

func TestResume_PromptContextRedactsIdentity(t *testing.T) {
	r := &Resume{
		ID:      "1",
		Slug:    "jane-doe",
		Name:    "Jane Doe",
		Summary: "Backend engineer",
		Skills:  map[string][]string{"languages": {"Go", "SQL"}},
	}

	got := r.PromptContext()

	require.True(t, strings.HasPrefix(got, "\n\nFull Resume Data:\n{\n  \"id\": \"1\""))
	assert.Contains(t, got, `"summary": "Backend engineer"`)
	assert.Contains(t, got, `"Go"`)
	assert.NotContains(t, got, "Jane Doe")
	assert.NotContains(t, got, "jane-doe")
	assert.NotContains(t, got, `"name"`)
	assert.NotContains(t, got, `"slug"`)
}

func TestResume_PromptContextNil(t *testing.T) {
	var r *Resume
	assert.Equal(t, "", r.PromptContext())
}

func TestResume_Clone(t *testing.T) {
	assert.Nil(t, (*Resume)(nil).Clone())

	r := &Resume{
		Name:         "Jane Doe",
		Education:    []EducationItem{{Institution: "MIT"}},
		SideProjects: SideProjects{{Title: "p", Links: map[string]string{"github": "x"}}},
	}
	cp := r.Clone()
	require.Equal(t, r, cp)

	cp.Education[0].Institution = "Other"
	cp.SideProjects[0].Links["github"] = "y"
	assert.Equal(t, "MIT", r.Education[0].Institution)
	assert.Equal(t, "x", r.SideProjects[0].Links["github"])
}

func TestChatbotConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  *ChatbotConfig
		ok   bool
	}{
		{"nil", nil, false},
		{"blank bio", &ChatbotConfig{Bio: " ", Prompt: "p"}, false},
		{"blank prompt", &ChatbotConfig{Bio: "b", Prompt: "\t"}, false},
		{"usable", &ChatbotConfig{Bio: "b", Prompt: "p"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrChatbotUnusable)
		})
	}
}
