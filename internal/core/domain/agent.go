package domain

import "strings"

// AgentKind identifies one of the answering strategies a query can be routed to.
type AgentKind string

// Available agents.
const (
	// AgentRetrieval answers from uploaded PDF documents.
	AgentRetrieval AgentKind = "RETRIEVAL"

	// AgentWeb answers from live web search results.
	AgentWeb AgentKind = "WEB"

	// AgentPaper answers from academic preprint search results.
	AgentPaper AgentKind = "PAPER"
)

// agentAliases maps every recognised token to its agent.
// The legacy names are still emitted by older prompts and clients.
var agentAliases = map[string]AgentKind{
	"RETRIEVAL":  AgentRetrieval,
	"PDF_RAG":    AgentRetrieval,
	"WEB":        AgentWeb,
	"WEB_SEARCH": AgentWeb,
	"PAPER":      AgentPaper,
	"ARXIV":      AgentPaper,
}

// IsValid returns true if the agent is one of the known strategies.
func (k AgentKind) IsValid() bool {
	switch k {
	case AgentRetrieval, AgentWeb, AgentPaper:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k AgentKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the agent.
func (k AgentKind) Description() string {
	switch k {
	case AgentRetrieval:
		return "Retrieval (uploaded documents)"
	case AgentWeb:
		return "Web (live search)"
	case AgentPaper:
		return "Paper (arXiv preprints)"
	default:
		return unknownDescription
	}
}

// AllAgentKinds returns all known agents in routing order.
func AllAgentKinds() []AgentKind {
	return []AgentKind{AgentRetrieval, AgentWeb, AgentPaper}
}

// ParseAgentKind maps a single token to an agent.
// Matching is case-insensitive and ignores surrounding whitespace,
// quotes and trailing punctuation. Unknown tokens return false.
func ParseAgentKind(s string) (AgentKind, bool) {
	token := strings.ToUpper(strings.Trim(strings.TrimSpace(s), "\"'`.,;:!"))
	kind, ok := agentAliases[token]
	return kind, ok
}

// NormaliseAgentKind uppercases and trims an override.
// Unrecognised values are passed through as-is rather than corrected.
func NormaliseAgentKind(s string) AgentKind {
	token := strings.ToUpper(strings.TrimSpace(s))
	if kind, ok := agentAliases[token]; ok {
		return kind
	}
	return AgentKind(token)
}

// DecisionOrigin records which stage of the router produced a decision.
type DecisionOrigin string

// Decision origins.
const (
	OriginOverride DecisionOrigin = "override"
	OriginRule     DecisionOrigin = "rule"
	OriginModel    DecisionOrigin = "model"
	OriginDefault  DecisionOrigin = "default"
)

// Decision is the routing outcome for one query.
type Decision struct {
	// Agent is the selected strategy.
	Agent AgentKind

	// Rationale is the human-readable justification.
	Rationale string

	// Origin is the router stage that produced the decision.
	Origin DecisionOrigin
}

// Query is a free-text question received from a caller.
type Query struct {
	// Text is the question as typed.
	Text string `json:"text"`

	// DocumentID optionally scopes retrieval to one uploaded document.
	DocumentID string `json:"document_id,omitempty"`

	// ForcedAgent bypasses routing when set.
	ForcedAgent string `json:"forced_agent,omitempty"`
}

// AskResult is the response to a routed query.
type AskResult struct {
	Answer    string    `json:"answer"`
	AgentUsed AgentKind `json:"agent_used"`
	Rationale string    `json:"rationale"`
	Trace     Trace     `json:"trace"`
}
