package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGroq is Groq cloud API (OpenAI-compatible).
	AIProviderGroq AIProvider = "groq"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGroq:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic || p == AIProviderGroq
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGroq:
		return "Groq (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for Groq/OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// WebBackend selects the web search implementation.
type WebBackend string

// Available web backends.
const (
	// WebBackendSerpAPI queries Google through SerpAPI (requires an API key).
	WebBackendSerpAPI WebBackend = "serpapi"

	// WebBackendDuckDuckGo scrapes the DuckDuckGo HTML endpoint (no key).
	WebBackendDuckDuckGo WebBackend = "duckduckgo"
)

// IsValid returns true if the backend is recognised.
func (b WebBackend) IsValid() bool {
	return b == WebBackendSerpAPI || b == WebBackendDuckDuckGo
}

// String returns the string representation.
func (b WebBackend) String() string {
	return string(b)
}

// WebSettings holds web search configuration.
type WebSettings struct {
	Backend    WebBackend
	SerpAPIKey string
}

// IsConfigured returns true if the selected backend can run.
func (w WebSettings) IsConfigured() bool {
	switch w.Backend {
	case WebBackendDuckDuckGo:
		return true
	case WebBackendSerpAPI:
		return w.SerpAPIKey != ""
	default:
		return false
	}
}

// PaperSettings holds academic search configuration.
type PaperSettings struct {
	// MaxResults is how many papers are kept after filtering.
	MaxResults int

	// RecentWindow is the recency cutoff applied to "recent"/"latest" queries.
	RecentWindow time.Duration
}

// ChunkingSettings controls how extracted text is split.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// RetrievalSettings controls document retrieval.
type RetrievalSettings struct {
	// TopK is the number of chunks passed to the model.
	TopK int

	// FilterMultiplier scales TopK when a document filter is applied,
	// compensating for post-filtering.
	FilterMultiplier int
}

// RetrySettings bounds retries of outbound calls. Zero fields fall back to
// the defaults; a negative Delay retries without pausing.
type RetrySettings struct {
	Attempts int
	Delay    time.Duration
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr        string
	UploadDir   string
	MaxUploadMB int
}

// LogSettings locates the decision log files.
type LogSettings struct {
	// File is the JSONL decision log.
	File string

	// RawFile is the JSONL audit trail of model-based routing calls.
	RawFile string
}

// StatusBackend selects where ingestion status records live.
type StatusBackend string

// Available status backends.
const (
	StatusBackendMemory StatusBackend = "memory"
	StatusBackendSQLite StatusBackend = "sqlite"
)

// IngestionSettings configures background ingestion.
type IngestionSettings struct {
	Workers       int
	QueueSize     int
	StatusBackend StatusBackend
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Web       WebSettings
	Paper     PaperSettings
	Chunking  ChunkingSettings
	Retrieval RetrievalSettings
	Retry     RetrySettings
	Server    ServerSettings
	Log       LogSettings
	Ingestion IngestionSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Cloud providers stay unconfigured until an API key is supplied.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderOllama,
			Model:    DefaultEmbeddingModels()[AIProviderOllama],
		},
		LLM: LLMSettings{
			Provider: AIProviderGroq,
			Model:    DefaultLLMModels()[AIProviderGroq],
		},
		Web: WebSettings{
			Backend: WebBackendSerpAPI,
		},
		Paper: PaperSettings{
			MaxResults:   8,
			RecentWindow: 540 * 24 * time.Hour, // 18 months
		},
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		Retrieval: RetrievalSettings{
			TopK:             5,
			FilterMultiplier: 4,
		},
		Retry: RetrySettings{
			Attempts: 3,
			Delay:    2 * time.Second,
		},
		Server: ServerSettings{
			Addr:        ":8000",
			UploadDir:   "data/uploads",
			MaxUploadMB: 10,
		},
		Log: LogSettings{
			File:    "logs/decision_logs.jsonl",
			RawFile: "logs/decision_raw.jsonl",
		},
		Ingestion: IngestionSettings{
			Workers:       2,
			QueueSize:     16,
			StatusBackend: StatusBackendMemory,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderGroq,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGroq:      "llama-3.3-70b-versatile",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
