package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/custodia-labs/triage/internal/adapters/driven/ai"
	"github.com/custodia-labs/triage/internal/adapters/driven/config/file"
	"github.com/custodia-labs/triage/internal/adapters/driven/decisionlog/jsonl"
	"github.com/custodia-labs/triage/internal/adapters/driven/papers/arxiv"
	"github.com/custodia-labs/triage/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/triage/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/triage/internal/adapters/driven/websearch/duckduckgo"
	"github.com/custodia-labs/triage/internal/adapters/driven/websearch/serpapi"
	"github.com/custodia-labs/triage/internal/adapters/driving/cli"
	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/services"
	"github.com/custodia-labs/triage/internal/logger"
	"github.com/custodia-labs/triage/internal/normalisers/pdf"
	"github.com/custodia-labs/triage/internal/postprocessors"
	"github.com/custodia-labs/triage/internal/ratelimit"
	"github.com/custodia-labs/triage/internal/retry"
)

// app holds the assembled services and the resources to release on exit.
type app struct {
	settings  *domain.AppSettings
	settingsS *services.SettingsService
	ask       *services.AskService
	ingestion *services.IngestionService
	documents *services.DocumentService
	logs      *services.DecisionLogService
	agents    []string
	closers   []io.Closer
}

func newApp(_ context.Context) (*app, error) {
	dir, err := file.DefaultDir()
	if err != nil {
		return nil, fmt.Errorf("locating config directory: %w", err)
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewValidator())
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	a := &app{settings: settings, settingsS: settingsSvc}

	statuses, err := a.newStatusStore(settings.Ingestion.StatusBackend, dir)
	if err != nil {
		return nil, err
	}

	pipeline, err := postprocessors.NewIngestionPipeline(settings.Chunking)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("building ingestion pipeline: %w", err)
	}

	decisionLog := jsonl.New(settings.Log.File, settings.Log.RawFile)
	index := memory.NewDocumentIndex(0)
	llm := newLLM(&settings.LLM)

	embeddingSettings := settings.Embedding
	embedder := services.NewLazyEmbedder(func(ctx context.Context) (driven.EmbeddingService, error) {
		return ai.CreateAndValidateEmbeddingService(ctx, &embeddingSettings)
	})
	a.closers = append(a.closers, embedder)
	if llm != nil {
		a.closers = append(a.closers, llm)
	}

	a.ingestion = services.NewIngestionService(pdf.New(), pipeline, embedder, index, statuses, services.IngestionConfig{
		Workers:   settings.Ingestion.Workers,
		QueueSize: settings.Ingestion.QueueSize,
		Retry:     settings.Retry,
	})
	// Workers drain before the embedder they use is closed.
	a.closers = append([]io.Closer{a.ingestion}, a.closers...)

	engine := services.NewDecisionEngine(llm, prompts, decisionLog)
	engine.SetRetryPolicy(retry.FromSettings("route", settings.Retry))

	retrieval := services.NewRetrievalAnswerer(embedder, index, llm, prompts, settings.Retrieval)
	retrieval.SetRetryPolicy(retry.FromSettings("retrieval", settings.Retry))

	searcher := newWebSearcher(settings.Web)
	web := services.NewWebAnswerer(searcher, llm, prompts)
	web.SetRetryPolicy(retry.FromSettings("web", settings.Retry))

	paper := services.NewPaperAnswerer(
		arxiv.New(arxiv.Config{Limiter: ratelimit.New(ratelimit.ServiceArxiv)}),
		llm, prompts, settings.Paper,
	)
	paper.SetRetryPolicy(retry.FromSettings("paper", settings.Retry))

	a.ask = services.NewAskService(engine, decisionLog, retrieval, web, paper)
	a.documents = services.NewDocumentService(index, statuses)
	a.logs = services.NewDecisionLogService(decisionLog)

	a.agents = []string{domain.AgentRetrieval.String()}
	if searcher != nil {
		a.agents = append(a.agents, domain.AgentWeb.String())
	}
	a.agents = append(a.agents, domain.AgentPaper.String())

	return a, nil
}

func (a *app) newStatusStore(backend domain.StatusBackend, dir string) (driven.StatusStore, error) {
	switch backend {
	case domain.StatusBackendSQLite:
		store, err := sqlite.NewStore(filepath.Join(dir, "data"))
		if err != nil {
			return nil, fmt.Errorf("opening status database: %w", err)
		}
		a.closers = append(a.closers, store)
		if n, err := store.FailInterrupted(context.Background()); err != nil {
			logger.Warn("status store: %v", err)
		} else if n > 0 {
			logger.Info("status store: marked %d interrupted uploads as failed", n)
		}
		return store.StatusStore(), nil
	default:
		return memory.NewStatusStore(), nil
	}
}

// newLLM returns nil when no model is configured; routing then uses
// rules only and answerers fall back to raw results.
func newLLM(settings *domain.LLMSettings) driven.LLMService {
	llm, err := ai.CreateLLMService(settings)
	if err != nil {
		logger.Warn("LLM unavailable: %v", err)
		return nil
	}
	return llm
}

func newWebSearcher(settings domain.WebSettings) driven.WebSearcher {
	switch settings.Backend {
	case domain.WebBackendSerpAPI:
		if settings.SerpAPIKey == "" {
			return nil
		}
		s, err := serpapi.New(serpapi.Config{
			APIKey:  settings.SerpAPIKey,
			Limiter: ratelimit.New(ratelimit.ServiceSerpAPI),
		})
		if err != nil {
			logger.Warn("SerpAPI unavailable: %v", err)
			return nil
		}
		return s
	case domain.WebBackendDuckDuckGo:
		return duckduckgo.New(duckduckgo.Config{Limiter: ratelimit.New(ratelimit.ServiceDuckDuckGo)})
	default:
		return nil
	}
}

func (a *app) services() cli.Services {
	return cli.Services{
		Ask:       a.ask,
		Ingestion: a.ingestion,
		Documents: a.documents,
		Logs:      a.logs,
		Settings:  a.settingsS,
	}
}

func (a *app) serveConfig() cli.ServeConfig {
	return cli.ServeConfig{
		Addr:        a.settings.Server.Addr,
		UploadDir:   a.settings.Server.UploadDir,
		MaxUploadMB: a.settings.Server.MaxUploadMB,
		Agents:      a.agents,
	}
}

// Close releases resources in registration order.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
