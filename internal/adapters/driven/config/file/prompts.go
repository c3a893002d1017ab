package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/triage/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store initialises lazily: the directory and default files are only
// written on the first Load, never in the constructor.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptRouterFallback: `You are an agent router. The options are:
- RETRIEVAL: answer from the user's uploaded PDF documents
- WEB: live web search for current events, facts and general information
- PAPER: academic paper search on arXiv

Decide which agent fits the user input best.
Reply with exactly one word: RETRIEVAL, WEB or PAPER.

Input: """%s"""`,

	driven.PromptRetrievalAnswer: `Use only the following pieces of context from the user's documents to answer the question.
If the answer is not in the context, say that you don't know. Do not make up an answer.

Context:
%s

Question: %s
Answer:`,

	driven.PromptWebAnswer: `You are a helpful AI assistant providing comprehensive, accurate answers based on current web search results.

User Query: %s

Search Results:
%s

Instructions:
1. Provide a comprehensive, well-structured answer to the user's query
2. Synthesize information from multiple sources
3. Include specific details, dates, facts, and figures when available
4. Organize information with clear sections using markdown headers (##, ###)
5. Use bullet points for lists and key information
6. Mention source titles when referencing specific information
7. If the query asks for "latest" or "recent" information, prioritize the most current details
8. Be factual and objective

Provide your detailed answer:`,

	driven.PromptPaperAnswer: `You are an AI research assistant analyzing recent academic papers from arXiv.

User Query: %s

%s

Please provide a well-structured analysis with the following sections:

## Overview
A 2-3 sentence summary of the current research landscape based on these papers.

## Key Papers and Contributions
For each significant paper (top 3-5): **title** in bold, key contribution, methodology, authors, arXiv ID.

## Research Trends
Common patterns, methodologies or emerging directions across the papers.

## Notable Researchers
Authors who appear across multiple papers or stand out.

## Recommended Reading Order
Which papers to read first and why.

## Access Links
Direct arXiv links to the most relevant papers.

Use markdown headers, bold paper titles, bullet points, and arXiv IDs in the form [2510.05102].

Provide your detailed analysis:`,
}

// DefaultPrompt returns the embedded default for a prompt name.
func DefaultPrompt(name string) (string, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.triage/prompts/.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(dir, "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// Unknown names are an error. Known names fall back to the embedded default
// when the file is missing, unreadable or blank.
func (s *PromptStore) Load(name string) (string, error) {
	fallback, known := defaultPrompts[name]
	if !known {
		return "", fmt.Errorf("unknown prompt %q", name)
	}

	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		return fallback, nil
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil || prompt == "" {
		return fallback, nil
	}

	// Double-check so concurrent loads agree on one value.
	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files that don't exist yet.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# Triage Prompts

Customisable prompts used when triage calls a language model.

- ` + "`router_fallback.txt`" + ` - picks RETRIEVAL, WEB or PAPER when no keyword rule matches (%s: query)
- ` + "`retrieval_answer.txt`" + ` - answers from uploaded PDFs (%s: context, %s: question)
- ` + "`web_answer.txt`" + ` - synthesises web results (%s: question, %s: results)
- ` + "`paper_answer.txt`" + ` - reviews arXiv papers (%s: question, %s: papers)

Keep the %s placeholders in the same order. Changes apply after a restart.
Delete a file to restore its default.
`
	return os.WriteFile(path, []byte(content), 0600)
}
