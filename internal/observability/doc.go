// Package observability provides logging, metrics, and context helpers for
// the research desk.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithComponent(logger, "search_dispatcher")
//
// # Metrics
//
//	metrics := observability.NewMetrics("research_desk")
//	metrics.RecordSearch("crossref", observability.StatusOK, elapsed, 12)
//
// Metrics also satisfies retrievers.QueryRecorder, so adapters report each
// provider query through it.
//
// # Standard Fields
//
//   - request_id: HTTP request identifier
//   - retriever: retriever slug (arxiv, crossref, ...)
//   - agent: agent slug (openai, claude, gemini)
//   - query: literal query string sent to a provider
//   - component: emitting subsystem
//
// All components are safe for concurrent use from multiple goroutines.
package observability
