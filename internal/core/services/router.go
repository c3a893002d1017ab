package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/triage/internal/core/domain"
	"github.com/custodia-labs/triage/internal/core/ports/driven"
	"github.com/custodia-labs/triage/internal/core/ports/driving"
	"github.com/custodia-labs/triage/internal/logger"
	"github.com/custodia-labs/triage/internal/retry"
)

// Ensure DecisionEngine implements the interface.
var _ driving.DecisionEngine = (*DecisionEngine)(nil)

// Rationales attached to decisions.
const (
	RationaleOverride = "explicit override"
	RationaleDocument = "Rule: contains PDF reference or document id supplied"
	RationalePaper    = "Rule: user asked specifically about papers or arXiv"
	RationaleWeb      = "Rule: general web query indicators"
	RationaleNoLLM    = "No LLM configured; defaulting to WEB"
)

const (
	routerMaxTokens    = 16
	routerModelTimeout = 30 * time.Second

	routerSystem = "You are a query router. Reply with exactly one word: RETRIEVAL, WEB or PAPER."
)

// Keyword lists for the lexical rules, checked in order.
var (
	documentKeywords = []string{"pdf", "document", "analyze this document", "summarize", "summarise"}
	paperKeywords    = []string{"arxiv", "paper on", "papers on", "recent paper", "latest research"}
	webKeywords      = []string{"who", "what", "when", "where", "news", "search", "current", "recent"}
)

// modelTokens are the names the model may reply with, canonical and legacy.
var modelTokens = []string{"RETRIEVAL", "PDF_RAG", "WEB_SEARCH", "WEB", "PAPER", "ARXIV"}

// DecisionEngine picks one answerer per query.
//
// An explicit override wins, then keyword rules, then a single-token
// classification by the LLM. Decide never fails: every error becomes a WEB
// decision whose rationale names the cause.
type DecisionEngine struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	log     driven.DecisionLog
	policy  retry.Policy
	now     func() time.Time
}

// NewDecisionEngine creates a decision engine. llm may be nil, in which case
// queries that match no rule go to WEB.
func NewDecisionEngine(llm driven.LLMService, prompts driven.PromptStore, log driven.DecisionLog) *DecisionEngine {
	return &DecisionEngine{
		llm:     llm,
		prompts: prompts,
		log:     log,
		policy:  retry.DefaultPolicy("router"),
		now:     time.Now,
	}
}

// SetRetryPolicy overrides the retry policy for the model fallback.
func (e *DecisionEngine) SetRetryPolicy(p retry.Policy) {
	p.Name = "router"
	e.policy = p
}

// Decide selects the agent for q.
func (e *DecisionEngine) Decide(ctx context.Context, q domain.Query) domain.Decision {
	if forced := strings.TrimSpace(q.ForcedAgent); forced != "" {
		d := domain.Decision{
			Agent:     domain.NormaliseAgentKind(forced),
			Rationale: RationaleOverride,
			Origin:    domain.OriginOverride,
		}
		logger.Debug("router: override -> %s", d.Agent)
		return d
	}

	if d, ok := decideByRules(q); ok {
		logger.Debug("router: %s -> %s", d.Rationale, d.Agent)
		return d
	}

	d, raw := e.decideByModel(ctx, q.Text)
	logger.Debug("router: model fallback -> %s (%s)", d.Agent, d.Rationale)
	e.audit(ctx, q.Text, d, raw)
	return d
}

func decideByRules(q domain.Query) (domain.Decision, bool) {
	text := strings.ToLower(strings.TrimSpace(q.Text))

	switch {
	case q.DocumentID != "" || containsAny(text, documentKeywords):
		return domain.Decision{Agent: domain.AgentRetrieval, Rationale: RationaleDocument, Origin: domain.OriginRule}, true
	case containsAny(text, paperKeywords):
		return domain.Decision{Agent: domain.AgentPaper, Rationale: RationalePaper, Origin: domain.OriginRule}, true
	case containsAny(text, webKeywords):
		return domain.Decision{Agent: domain.AgentWeb, Rationale: RationaleWeb, Origin: domain.OriginRule}, true
	}
	return domain.Decision{}, false
}

// decideByModel asks the LLM to classify the query. The raw reply is
// returned for the audit trail.
func (e *DecisionEngine) decideByModel(ctx context.Context, text string) (domain.Decision, string) {
	if e.llm == nil {
		return domain.Decision{Agent: domain.AgentWeb, Rationale: RationaleNoLLM, Origin: domain.OriginDefault}, ""
	}

	template, err := e.prompts.Load(driven.PromptRouterFallback)
	if err != nil {
		return webDefault(fmt.Errorf("%w: load router prompt: %w", domain.ErrConfiguration, err)), ""
	}
	prompt := fmt.Sprintf(template, text)

	callCtx, cancel := context.WithTimeout(ctx, routerModelTimeout)
	defer cancel()

	reply, err := retry.Do(callCtx, e.policy, func(ctx context.Context) (string, error) {
		return e.llm.Complete(ctx, driven.Completion{
			System:    routerSystem,
			Prompt:    prompt,
			MaxTokens: routerMaxTokens,
		})
	})
	if err != nil {
		return webDefault(err), ""
	}

	if kind, ok := ParseModelReply(reply); ok {
		return domain.Decision{
			Agent:     kind,
			Rationale: fmt.Sprintf("LLM fallback selected %s", kind),
			Origin:    domain.OriginModel,
		}, reply
	}

	return domain.Decision{
		Agent:     domain.AgentWeb,
		Rationale: "LLM reply named no known agent; fallback to WEB",
		Origin:    domain.OriginDefault,
	}, reply
}

// ParseModelReply reads an agent name out of a model reply. The whole reply
// is tried as a strict token first, then the earliest known name anywhere in
// the reply is used.
func ParseModelReply(reply string) (domain.AgentKind, bool) {
	if kind, ok := domain.ParseAgentKind(reply); ok {
		return kind, true
	}

	upper := strings.ToUpper(reply)
	best := -1
	var found domain.AgentKind
	for _, token := range modelTokens {
		idx := strings.Index(upper, token)
		if idx < 0 {
			continue
		}
		if best == -1 || idx < best {
			best = idx
			found, _ = domain.ParseAgentKind(token)
		}
	}
	return found, best >= 0
}

func (e *DecisionEngine) audit(ctx context.Context, text string, d domain.Decision, raw string) {
	if e.log == nil {
		return
	}
	err := e.log.AppendRaw(ctx, domain.RawDecision{
		Ts:       e.now().Unix(),
		Input:    text,
		Decision: d.Agent,
		Reason:   d.Rationale,
		LLMRaw:   raw,
	})
	if err != nil {
		logger.Warn("router: audit trail write failed: %v", err)
	}
}

func webDefault(cause error) domain.Decision {
	return domain.Decision{
		Agent:     domain.AgentWeb,
		Rationale: fmt.Sprintf("LLM fallback failed (%v); defaulting to WEB", cause),
		Origin:    domain.OriginDefault,
	}
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
