package tool

import (
	"fmt"
	"sort"
	"sync"
)

// Factory lazily builds a Descriptor the first time its tool is loaded,
// mirroring the teacher's sync.OnceValues memoization idiom used throughout
// (configs.GetGeneratorSpecs, generators.GetGeminiClient's client cache).
type Factory func() (Descriptor, error)

// ToolInfo is the lightweight, pre-build summary a Registry can return
// without instantiating the tool — enough to search, list, and categorize
// without paying a factory's setup cost.
type ToolInfo struct {
	Name        string
	Description string
	Params      []string
	Category    string
}

type entry struct {
	once    sync.Once
	loaded  *Descriptor
	buildErr error
	factory Factory
	info    ToolInfo
	built   bool
}

// Registry is the process-wide (or per-Agent) collection of known tools.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register adds an already-built Descriptor under its own name.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(d.Name, &entry{
		loaded: &d,
		built:  true,
		info:   infoFromDescriptor(d),
	})
}

// RegisterMany registers every Descriptor in ds.
func (r *Registry) RegisterMany(ds ...Descriptor) {
	for _, d := range ds {
		r.Register(d)
	}
}

// RegisterFactory registers a tool that is only built the first time it is
// loaded, keyed by the ToolInfo summary so Search/List can see it before
// that.
func (r *Registry) RegisterFactory(info ToolInfo, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(info.Name, &entry{
		factory: factory,
		info:    info,
	})
}

func (r *Registry) put(name string, e *entry) {
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = e
}

// LoadTool returns the built Descriptor for name, running its factory
// exactly once if it has one.
func (r *Registry) LoadTool(name string) (Descriptor, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return Descriptor{}, fmt.Errorf("tool: unknown tool %q", name)
	}

	if e.built {
		return *e.loaded, nil
	}

	e.once.Do(func() {
		d, err := e.factory()
		if err != nil {
			e.buildErr = err
			return
		}
		e.loaded = &d
		e.built = true
	})
	if e.buildErr != nil {
		return Descriptor{}, e.buildErr
	}
	return *e.loaded, nil
}

// GetAllToolNames returns every registered tool name in registration order.
func (r *Registry) GetAllToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.order...)
}

// GetCategories returns the distinct, sorted set of categories among
// registered tools.
func (r *Registry) GetCategories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	for _, name := range r.order {
		cat := r.entries[name].info.Category
		if cat != "" && !seen[cat] {
			seen[cat] = true
		}
	}
	cats := make([]string, 0, len(seen))
	for cat := range seen {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return cats
}

// GetToolsByCategory returns the ToolInfo of every tool in category, name
// ascending.
func (r *Registry) GetToolsByCategory(category string) []ToolInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var infos []ToolInfo
	for _, name := range r.order {
		info := r.entries[name].info
		if info.Category == category {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Stats summarizes a Registry's contents.
type Stats struct {
	Total    int
	Built    int
	Deferred int
}

// GetStats reports how many tools are registered, already built, and still
// deferred behind a factory.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := Stats{Total: len(r.entries)}
	for _, e := range r.entries {
		if e.built {
			stats.Built++
		} else {
			stats.Deferred++
		}
	}
	return stats
}

func infoFromDescriptor(d Descriptor) ToolInfo {
	params := make([]string, 0, len(d.Inputs))
	for name := range d.Inputs {
		params = append(params, name)
	}
	sort.Strings(params)
	return ToolInfo{
		Name:        d.Name,
		Description: d.Description,
		Params:      params,
		Category:    d.Category,
	}
}
