// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - DocumentIndex: In-memory vector storage for uploaded document chunks
//   - TextExtractor: PDF text extraction (pdftotext)
//   - DecisionLog: Append-only JSONL record of routing decisions
//   - StatusStore: Ingestion progress (memory or SQLite)
//   - ConfigStore: Application configuration
//   - PromptStore: Customisable prompt templates
//
// # Optional Interfaces
//
// These can be nil - the affected agent answers with a configuration message:
//
//   - EmbeddingService: Without it, documents cannot be ingested or retrieved.
//   - LLMService: Without it, the router falls back to WEB and answerers cannot synthesise.
//   - WebSearcher: Without it, WEB queries report that search is not configured.
//   - PaperSearcher: arXiv search.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
