package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error; known names fall back to the built-in default
	// when no override exists on disk.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names. Every template uses fmt verbs in the documented order.
const (
	// PromptRouterFallback asks the model to pick one agent for a query.
	// Placeholder: %s (raw query).
	PromptRouterFallback = "router_fallback"

	// PromptRetrievalAnswer answers strictly from retrieved document context.
	// Placeholders: %s (context), %s (question).
	PromptRetrievalAnswer = "retrieval_answer"

	// PromptWebAnswer synthesises an answer from web search results.
	// Placeholders: %s (question), %s (formatted results).
	PromptWebAnswer = "web_answer"

	// PromptPaperAnswer writes a literature overview from arXiv results.
	// Placeholders: %s (question), %s (formatted papers).
	PromptPaperAnswer = "paper_answer"
)

// PromptNames lists every well-known prompt.
func PromptNames() []string {
	return []string{
		PromptRouterFallback,
		PromptRetrievalAnswer,
		PromptWebAnswer,
		PromptPaperAnswer,
	}
}
