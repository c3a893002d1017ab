package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

// BuilderFunc builds a stage from its config table.
type BuilderFunc func(cfg map[string]any) (driven.ChunkStage, error)

// Stage names a processor and its config within a pipeline.
type Stage struct {
	Name   string
	Config map[string]any
}

// Registry maps processor names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new processor registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a processor builder to the registry.
// Name should match the processor's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a processor by name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.ChunkStage, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor: %s", name)
	}
	return builder(cfg)
}

// BuildPipeline builds each stage in order.
func (r *Registry) BuildPipeline(stages ...Stage) (*Pipeline, error) {
	p := NewPipeline()
	for _, stage := range stages {
		proc, err := r.Build(stage.Name, stage.Config)
		if err != nil {
			return nil, err
		}
		p.Add(proc)
	}
	return p, nil
}

// Has returns true if a processor with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
