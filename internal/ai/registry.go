package ai

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry maps a selectable model identifier to the provider that knows how
// to call it. Adding a model is a Register call; callers never branch on
// model names.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

func (r *Registry) Register(name string, p Provider) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

func (r *Registry) Get(name string) (Provider, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	p, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return p, nil
}

// Models returns the registered model identifiers, sorted.
func (r *Registry) Models() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// NewDefaultRegistry wires the fixed model set against one upstream base URL.
func NewDefaultRegistry(baseURL string) *Registry {
	client := &http.Client{Timeout: 60 * time.Second}
	r := NewRegistry()
	r.Register("gpt4", NewChatProvider(baseURL, "gpt-4", client))
	r.Register("gpt3", NewChatProvider(baseURL, "gpt-3.5-turbo", client))
	r.Register("sur", NewPromptProvider(baseURL, "sur-mistral", client))
	r.Register("salis", NewPromptProvider(baseURL, "", client))
	return r
}
