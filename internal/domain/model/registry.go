// Package model maps short embedding model aliases to full model identifiers.
package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/reteval/internal/domain"
)

// Entry is one registered model.
type Entry struct {
	Alias string
	ID    string
}

// Registry resolves model aliases. The zero value is empty; use Default or NewRegistry.
type Registry struct {
	byAlias map[string]string
	byID    map[string]struct{}
}

var defaultModels = map[string]string{
	// Sentence Transformers
	"all-MiniLM-L6-v2":  "sentence-transformers/all-MiniLM-L6-v2",
	"all-MiniLM-L12-v2": "sentence-transformers/all-MiniLM-L12-v2",
	"all-mpnet-base-v2": "sentence-transformers/all-mpnet-base-v2",
	"sentence-t5-base":  "sentence-transformers/sentence-t5-base",

	"ConTeXT-Skill-Extraction-base":  "TechWolf/ConTeXT-Skill-Extraction-base",
	"nomic-embed-text-v1.5":          "nomic-ai/nomic-embed-text-v1.5",
	"granite-embedding-30m-english":  "ibm-granite/granite-embedding-30m-english",
	"stella_en_400M_v5":              "NovaSearch/stella_en_400M_v5",
	"stella_en_1.5B_v5":              "NovaSearch/stella_en_1.5B_v5",
	"jasper_en_vision_language_v1":   "NovaSearch/jasper_en_vision_language_v1",
	"multilingual-e5-large-instruct": "intfloat/multilingual-e5-large-instruct",
	"e5-large-v2":                    "intfloat/e5-large-v2",
	"bge-m3":                         "BAAI/bge-m3",
	"bge-large-en-v1.5":              "BAAI/bge-large-en-v1.5",
	"instructor-large":               "hkunlp/instructor-large",
	"NV-Embed-v2":                    "nvidia/NV-Embed-v2",
	"Jina-embeddings-v3":             "jinaai/jina-embeddings-v3",
}

// Default returns a registry preloaded with the known embedding models.
func Default() *Registry {
	return NewRegistry(defaultModels)
}

// NewRegistry creates a registry from an alias -> ID map.
func NewRegistry(models map[string]string) *Registry {
	r := &Registry{
		byAlias: make(map[string]string, len(models)),
		byID:    make(map[string]struct{}, len(models)),
	}
	for alias, id := range models {
		r.byAlias[alias] = id
		r.byID[id] = struct{}{}
	}
	return r
}

// With returns a copy of the registry extended with extra aliases.
// Extra entries override built-in aliases of the same name.
func (r *Registry) With(extra map[string]string) *Registry {
	merged := make(map[string]string, len(r.byAlias)+len(extra))
	for a, id := range r.byAlias {
		merged[a] = id
	}
	for a, id := range extra {
		merged[a] = id
	}
	return NewRegistry(merged)
}

// Resolve returns the full model ID for an alias. A full ID passes through unchanged.
func (r *Registry) Resolve(name string) (string, error) {
	if id, ok := r.byAlias[name]; ok {
		return id, nil
	}
	if _, ok := r.byID[name]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: %q (available: %s)", domain.ErrUnknownModel, name, strings.Join(r.aliases(), ", "))
}

// List returns all entries sorted by alias.
func (r *Registry) List() []Entry {
	out := make([]Entry, 0, len(r.byAlias))
	for _, a := range r.aliases() {
		out = append(out, Entry{Alias: a, ID: r.byAlias[a]})
	}
	return out
}

func (r *Registry) aliases() []string {
	out := make([]string, 0, len(r.byAlias))
	for a := range r.byAlias {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
