package brain

import (
	"fmt"
	"strings"
	"sync"

	"github.com/reusee/minion/provider"
)

// ProviderSpec is a user- or config-declared model alias, generalized from
// the teacher's generators.GeneratorArgs/GetGeneratorSpecs pair
// (generators/generator.go, generators/generator_args.go): a name, an
// api_type naming which Provider constructor handles it, and the
// constructor's own free-form parameters.
type ProviderSpec struct {
	Name    string         `json:"name"`
	APIType string         `json:"api_type"`
	Model   string         `json:"model"`
	BaseURL string         `json:"base_url"`
	APIKey  string         `json:"api_key"`
	Extra   map[string]any `json:"extra"`
}

// NewProvider builds a provider.Provider from a ProviderSpec. Each api_type
// registers exactly one of these, mirroring the teacher's per-vendor
// New<Vendor> constructors (generators/gemini.go, generators/open_ai.go,
// etc.) but through one generalized injection point instead of a fixed
// switch statement naming every vendor.
type NewProvider func(spec ProviderSpec) (provider.Provider, error)

// ModelRegistry resolves a model alias (a short name like "flash" or a
// fully-specified ProviderSpec) to a provider.Provider, generalizing
// generators.GetGenerator's switch-on-vendor-type dispatch
// (generators/generator.go) into an injectable per-api_type registry so
// this package never names a vendor.
type ModelRegistry struct {
	mu        sync.RWMutex
	ctors     map[string]NewProvider // api_type (lowercased) -> constructor
	aliases   map[string]ProviderSpec
	providers map[string]provider.Provider // memoized instances, by alias
}

// NewModelRegistry builds an empty ModelRegistry.
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		ctors:     make(map[string]NewProvider),
		aliases:   make(map[string]ProviderSpec),
		providers: make(map[string]provider.Provider),
	}
}

// RegisterAPIType wires a provider constructor to an api_type name (e.g.
// "openai", "ollama", "open-router") analogous to one arm of
// generators.GetGenerator's switch.
func (m *ModelRegistry) RegisterAPIType(apiType string, ctor NewProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctors[strings.ToLower(apiType)] = ctor
}

// RegisterAlias declares a named model, mirroring a user-config entry the
// teacher's GetGeneratorSpecs would have surfaced.
func (m *ModelRegistry) RegisterAlias(spec ProviderSpec) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliases[spec.Name] = spec
}

// Resolve returns the provider.Provider for a model alias, constructing and
// memoizing it on first use.
func (m *ModelRegistry) Resolve(alias string) (provider.Provider, error) {
	m.mu.RLock()
	if p, ok := m.providers[alias]; ok {
		m.mu.RUnlock()
		return p, nil
	}
	spec, ok := m.aliases[alias]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("brain: unknown model alias %q", alias)
	}
	return m.ResolveSpec(spec)
}

// ResolveSpec builds (or returns the memoized) provider.Provider for a
// fully-specified ProviderSpec, bypassing alias lookup.
func (m *ModelRegistry) ResolveSpec(spec ProviderSpec) (provider.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.providers[spec.Name]; ok {
		return p, nil
	}
	ctor, ok := m.ctors[strings.ToLower(spec.APIType)]
	if !ok {
		return nil, fmt.Errorf("brain: unknown api_type %q for model %q", spec.APIType, spec.Name)
	}
	p, err := ctor(spec)
	if err != nil {
		return nil, fmt.Errorf("brain: constructing provider for %q: %w", spec.Name, err)
	}
	if spec.Name != "" {
		m.providers[spec.Name] = p
	}
	return p, nil
}

// Aliases returns every registered alias name.
func (m *ModelRegistry) Aliases() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.aliases))
	for name := range m.aliases {
		names = append(names, name)
	}
	return names
}
