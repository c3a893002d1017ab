package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider      = "embedding.provider"
	keyEmbedModel         = "embedding.model"
	keyEmbedBaseURL       = "embedding.base_url"
	keyEmbedAPIKey        = "embedding.api_key"
	keyLLMProvider        = "llm.provider"
	keyLLMModel           = "llm.model"
	keyLLMBaseURL         = "llm.base_url"
	keyLLMAPIKey          = "llm.api_key"
	keyWebBackend         = "web.backend"
	keyWebSerpAPIKey      = "web.serpapi_key"
	keyPaperMaxResults    = "paper.max_results"
	keyPaperRecentWindow  = "paper.recent_window"
	keyChunkSize          = "chunking.size"
	keyChunkOverlap       = "chunking.overlap"
	keyRetrievalTopK      = "retrieval.top_k"
	keyRetrievalMultipler = "retrieval.filter_multiplier"
	keyRetryAttempts      = "retry.attempts"
	keyRetryDelay         = "retry.delay"
	keyServerAddr         = "server.addr"
	keyServerUploadDir    = "server.upload_dir"
	keyServerMaxUploadMB  = "server.max_upload_mb"
	keyLogFile            = "log.file"
	keyLogRawFile         = "log.raw_file"
	keyIngestWorkers      = "ingestion.workers"
	keyIngestQueueSize    = "ingestion.queue_size"
	keyIngestStatus       = "ingestion.status_backend"
)

// Environment variables that override stored settings.
//
//nolint:gosec // G101: These are variable names, not credentials.
const (
	EnvGroqAPIKey      = "GROQ_API_KEY"
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvSerpAPIKey      = "SERPAPI_API_KEY"
	EnvLogFile         = "LOG_FILE"
	EnvMaxUploadMB     = "MAX_UPLOAD_MB"
	EnvUploadDir       = "TRIAGE_UPLOAD_DIR"
)

const defaultOllamaURL = "http://localhost:11434"

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.ProviderValidator
	getenv      func(string) string
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, validator driven.ProviderValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
		getenv:      os.Getenv,
	}
}

// SetEnvLookup replaces the environment lookup used for overrides.
func (s *SettingsService) SetEnvLookup(fn func(string) string) {
	if fn == nil {
		fn = func(string) string { return "" }
	}
	s.getenv = fn
}

// Get retrieves current application settings with environment overrides applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.stored()
	s.applyEnv(settings)
	return settings, nil
}

// stored reads settings from the config store only.
func (s *SettingsService) stored() *domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider: s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:    s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.configStore.GetString(keyLLMAPIKey),
		},
		Web: domain.WebSettings{
			Backend:    s.getWebBackend(defaults.Web.Backend),
			SerpAPIKey: s.configStore.GetString(keyWebSerpAPIKey),
		},
		Paper: domain.PaperSettings{
			MaxResults:   s.getInt(keyPaperMaxResults, defaults.Paper.MaxResults),
			RecentWindow: s.getDuration(keyPaperRecentWindow, defaults.Paper.RecentWindow),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, defaults.Chunking.Size),
			Overlap: s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:             s.getInt(keyRetrievalTopK, defaults.Retrieval.TopK),
			FilterMultiplier: s.getInt(keyRetrievalMultipler, defaults.Retrieval.FilterMultiplier),
		},
		Retry: domain.RetrySettings{
			Attempts: s.getInt(keyRetryAttempts, defaults.Retry.Attempts),
			Delay:    s.getDuration(keyRetryDelay, defaults.Retry.Delay),
		},
		Server: domain.ServerSettings{
			Addr:        s.getString(keyServerAddr, defaults.Server.Addr),
			UploadDir:   s.getString(keyServerUploadDir, defaults.Server.UploadDir),
			MaxUploadMB: s.getInt(keyServerMaxUploadMB, defaults.Server.MaxUploadMB),
		},
		Log: domain.LogSettings{
			File:    s.getString(keyLogFile, defaults.Log.File),
			RawFile: s.getString(keyLogRawFile, defaults.Log.RawFile),
		},
		Ingestion: domain.IngestionSettings{
			Workers:       s.getInt(keyIngestWorkers, defaults.Ingestion.Workers),
			QueueSize:     s.getInt(keyIngestQueueSize, defaults.Ingestion.QueueSize),
			StatusBackend: s.getStatusBackend(defaults.Ingestion.StatusBackend),
		},
	}
}

// applyEnv overlays environment variables. API keys from the environment
// only fill keys that are not stored.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if settings.LLM.APIKey == "" {
		settings.LLM.APIKey = s.providerKey(settings.LLM.Provider)
	}
	if settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = s.providerKey(settings.Embedding.Provider)
	}
	if v := s.getenv(EnvSerpAPIKey); v != "" && settings.Web.SerpAPIKey == "" {
		settings.Web.SerpAPIKey = v
	}
	if v := s.getenv(EnvLogFile); v != "" {
		settings.Log.File = v
	}
	if v := s.getenv(EnvUploadDir); v != "" {
		settings.Server.UploadDir = v
	}
	if v := s.getenv(EnvMaxUploadMB); v != "" {
		if mb, err := strconv.Atoi(v); err == nil && mb > 0 {
			settings.Server.MaxUploadMB = mb
		}
	}
}

func (s *SettingsService) providerKey(provider domain.AIProvider) string {
	switch provider {
	case domain.AIProviderGroq:
		return s.getenv(EnvGroqAPIKey)
	case domain.AIProviderOpenAI:
		return s.getenv(EnvOpenAIAPIKey)
	case domain.AIProviderAnthropic:
		return s.getenv(EnvAnthropicAPIKey)
	default:
		return ""
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyWebBackend, settings.Web.Backend.String()},
		{keyPaperMaxResults, settings.Paper.MaxResults},
		{keyPaperRecentWindow, settings.Paper.RecentWindow.String()},
		{keyChunkSize, settings.Chunking.Size},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyRetrievalTopK, settings.Retrieval.TopK},
		{keyRetrievalMultipler, settings.Retrieval.FilterMultiplier},
		{keyRetryAttempts, settings.Retry.Attempts},
		{keyRetryDelay, settings.Retry.Delay.String()},
		{keyServerAddr, settings.Server.Addr},
		{keyServerUploadDir, settings.Server.UploadDir},
		{keyServerMaxUploadMB, settings.Server.MaxUploadMB},
		{keyLogFile, settings.Log.File},
		{keyLogRawFile, settings.Log.RawFile},
		{keyIngestWorkers, settings.Ingestion.Workers},
		{keyIngestQueueSize, settings.Ingestion.QueueSize},
		{keyIngestStatus, string(settings.Ingestion.StatusBackend)},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	// API keys are only written when set, so a blank form never erases a stored key.
	secrets := map[string]string{
		keyEmbedAPIKey:   settings.Embedding.APIKey,
		keyLLMAPIKey:     settings.LLM.APIKey,
		keyWebSerpAPIKey: settings.Web.SerpAPIKey,
	}
	for key, value := range secrets {
		if value == "" {
			continue
		}
		if err := s.configStore.Set(key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid embedding provider: %s", domain.ErrInvalidInput, provider)
	}

	valid := false
	for _, p := range domain.AllEmbeddingProviders() {
		if p == provider {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: provider %s does not support embeddings", domain.ErrInvalidInput, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, provider)
	}

	settings := s.stored()
	settings.Embedding.Provider = provider

	if model != "" {
		settings.Embedding.Model = model
	} else if defaultModel, ok := domain.DefaultEmbeddingModels()[provider]; ok {
		settings.Embedding.Model = defaultModel
	}

	if provider.IsLocal() {
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = defaultOllamaURL
		}
	} else {
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("%w: invalid LLM provider: %s", domain.ErrInvalidInput, provider)
	}

	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, provider)
	}

	settings := s.stored()
	settings.LLM.Provider = provider

	if model != "" {
		settings.LLM.Model = model
	} else if defaultModel, ok := domain.DefaultLLMModels()[provider]; ok {
		settings.LLM.Model = defaultModel
	}

	switch {
	case provider.IsLocal():
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = defaultOllamaURL
		}
	case provider == domain.AIProviderGroq:
		settings.LLM.BaseURL = domain.GroqBaseURL
	default:
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetWebBackend selects the web search backend.
func (s *SettingsService) SetWebBackend(backend domain.WebBackend, apiKey string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: invalid web backend: %s", domain.ErrInvalidInput, backend)
	}

	settings := s.stored()
	settings.Web.Backend = backend
	if apiKey != "" {
		settings.Web.SerpAPIKey = apiKey
	}

	if backend == domain.WebBackendSerpAPI && settings.Web.SerpAPIKey == "" && s.getenv(EnvSerpAPIKey) == "" {
		return fmt.Errorf("%w: API key required for %s", domain.ErrConfiguration, backend)
	}

	return s.Save(settings)
}

// Validate checks that the current settings are internally consistent.
// A missing LLM is not an error here: routing degrades to WEB without one.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %q is not configured", domain.ErrConfiguration, settings.Embedding.Provider)
	}
	if !settings.Web.Backend.IsValid() {
		return fmt.Errorf("%w: invalid web backend: %s", domain.ErrConfiguration, settings.Web.Backend)
	}
	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive", domain.ErrConfiguration)
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be in [0, chunking.size)", domain.ErrConfiguration)
	}
	if settings.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive", domain.ErrConfiguration)
	}
	if settings.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("%w: server.max_upload_mb must be positive", domain.ErrConfiguration)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the stored embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig(ctx context.Context) error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateEmbedding(ctx, &settings.Embedding)
}

// ValidateLLMConfig pings the stored LLM provider.
func (s *SettingsService) ValidateLLMConfig(ctx context.Context) error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateLLM(ctx, &settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetDuration(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getWebBackend(defaultVal domain.WebBackend) domain.WebBackend {
	backend := domain.WebBackend(s.configStore.GetString(keyWebBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getStatusBackend(defaultVal domain.StatusBackend) domain.StatusBackend {
	switch backend := domain.StatusBackend(s.configStore.GetString(keyIngestStatus)); backend {
	case domain.StatusBackendMemory, domain.StatusBackendSQLite:
		return backend
	default:
		return defaultVal
	}
}
