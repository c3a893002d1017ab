package domain

// LogEntry is one persisted routing decision.
// Entries are append-only; nothing in the core edits or removes them.
type LogEntry struct {
	// Timestamp is the decision time in epoch seconds.
	Timestamp int64     `json:"timestamp"`
	Decision  AgentKind `json:"decision"`
	Rationale string    `json:"rationale"`
	Input     string    `json:"input"`
	Trace     Trace     `json:"trace"`
}

// RawDecision captures a model-based routing call verbatim,
// for mining new lexical rules later.
type RawDecision struct {
	Ts       int64     `json:"ts"`
	Input    string    `json:"input"`
	Decision AgentKind `json:"decision"`
	Reason   string    `json:"reason"`
	LLMRaw   string    `json:"llm_raw"`
}
