package driven

import "time"

// ConfigStore holds settings under flat dot-separated keys such as
// "llm.provider". Typed getters return the zero value when a key is missing
// or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int

	// GetDuration accepts ParseDuration strings ("2s") and whole seconds.
	GetDuration(key string) time.Duration

	// Set stores and persists a single value.
	Set(key string, value any) error

	// Save persists every value.
	Save() error
}
