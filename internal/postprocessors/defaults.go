package postprocessors

import (
	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/postprocessors/chunker"
	"github.com/custodia-labs/triage/internal/postprocessors/cleaner"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("cleaner", func(map[string]any) (driven.ChunkStage, error) {
		return cleaner.New(), nil
	})
}

// NewIngestionPipeline builds the chunk-then-clean pipeline used for uploads.
func NewIngestionPipeline(settings domain.ChunkingSettings) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)
	return r.BuildPipeline(
		Stage{Name: "chunker", Config: map[string]any{
			"chunk_size": settings.Size,
			"overlap":    settings.Overlap,
		}},
		Stage{Name: "cleaner"},
	)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.ChunkStage, error) {
	var opts []chunker.Option

	if size, ok := getIntFromConfig(cfg, "chunk_size"); ok && size > 0 {
		opts = append(opts, chunker.WithChunkSize(size))
	}
	if overlap, ok := getIntFromConfig(cfg, "overlap"); ok && overlap >= 0 {
		opts = append(opts, chunker.WithOverlap(overlap))
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig extracts an int from generic config, reporting whether
// the key held a number. TOML yields int64, JSON yields float64.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
