// Package observability provides pluggable event emission for the
// interceptor's loop lifecycle: logging, tracing, and in-memory capture for
// tests.
package observability

// Event describes one lifecycle transition of a tool-search loop.
type Event struct {
	// SessionID identifies the loop this event belongs to.
	SessionID string

	// Turn is the 1-indexed LLM turn within the loop. Zero for loop-level
	// events (initializeLoop, finalizeLoop).
	Turn int

	// Phase names the interceptor phase that emitted this event:
	// "initializeLoop", "before", "after", or "finalizeLoop"; events from
	// the search tool itself (e.g. a failed audit write) use "searchTool".
	Phase string

	// Msg is a short, stable event name, e.g. "loop initialized",
	// "request rewritten".
	Msg string

	// Meta carries event-specific structured data, e.g. discovered tool
	// names, token counts, or error details.
	Meta map[string]interface{}
}
