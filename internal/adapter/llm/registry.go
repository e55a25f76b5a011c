package llm

import (
	"log/slog"
	"slices"
	"sync"

	"portfolio-ai/internal/domain"
)

// Registry holds the providers that are usable at startup, keyed by name and
// kept in registration order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]domain.LLMProvider
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]domain.LLMProvider)}
}

// Register adds a provider. A second provider with the same name is
// rejected with ErrInvalidInput.
func (r *Registry) Register(provider domain.LLMProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return domain.NewDomainError("Registry.Register", domain.ErrInvalidInput, "duplicate provider "+name)
	}
	r.providers[name] = provider
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (domain.LLMProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, domain.NewDomainError("Registry.Get", domain.ErrProviderNotFound, name)
	}
	return p, nil
}

// List returns the provider names in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Resolve returns the provider the gateway should call: primary alone, or
// primary wrapped in a FailoverProvider when any fallback is registered.
// Unknown fallbacks, duplicates and the primary itself are skipped; the
// names actually used are returned.
func (r *Registry) Resolve(primary string, fallbacks []string, logger *slog.Logger) (domain.LLMProvider, []string, error) {
	p, err := r.Get(primary)
	if err != nil {
		return nil, nil, err
	}

	var chain []domain.LLMProvider
	var used []string
	for _, name := range fallbacks {
		if name == primary || slices.Contains(used, name) {
			continue
		}
		fb, err := r.Get(name)
		if err != nil {
			logger.Warn("failover provider skipped", "provider", name, "error", err)
			continue
		}
		chain = append(chain, fb)
		used = append(used, name)
	}
	if len(chain) == 0 {
		return p, nil, nil
	}
	return NewFailoverProvider(p, chain, logger), used, nil
}
