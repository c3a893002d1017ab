// Package services implements the driving port interfaces.
//
// A query flows through the DecisionEngine, which picks an agent, and then to
// the matching Answerer (retrieval, web or paper). AskService ties the two
// together and appends each outcome to the decision log. IngestionService
// turns uploaded PDFs into embedded chunks in the DocumentIndex.
//
// Services depend only on ports; adapters are injected by the caller.
package services
