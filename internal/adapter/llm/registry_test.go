package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-ai/internal/domain"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(okProvider("groq", "")))
	require.NoError(t, r.Register(okProvider("bedrock", "")))

	err := r.Register(okProvider("groq", ""))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput), "duplicate names are rejected")

	p, err := r.Get("groq")
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())

	_, err = r.Get("missing")
	assert.True(t, errors.Is(err, domain.ErrProviderNotFound))

	assert.Equal(t, []string{"groq", "bedrock"}, r.List())
}

func TestRegistry_Resolve(t *testing.T) {
	logger := newTestLogger()

	t.Run("missing primary", func(t *testing.T) {
		r := NewRegistry()
		_, _, err := r.Resolve("groq", nil, logger)
		assert.True(t, errors.Is(err, domain.ErrProviderNotFound))
	})

	t.Run("primary only", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(okProvider("groq", "")))

		p, used, err := r.Resolve("groq", []string{"groq", "missing"}, logger)
		require.NoError(t, err)
		assert.Empty(t, used)
		assert.Equal(t, "groq", p.Name())
		_, isFailover := p.(*FailoverProvider)
		assert.False(t, isFailover)
	})

	t.Run("with fallbacks", func(t *testing.T) {
		r := NewRegistry()
		require.NoError(t, r.Register(okProvider("groq", "")))
		require.NoError(t, r.Register(okProvider("bedrock", "")))

		p, used, err := r.Resolve("groq", []string{"bedrock", "bedrock", "missing"}, logger)
		require.NoError(t, err)
		assert.Equal(t, []string{"bedrock"}, used)
		_, isFailover := p.(*FailoverProvider)
		assert.True(t, isFailover)
	})
}
