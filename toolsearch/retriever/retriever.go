// Package retriever defines the uniform, session-scoped retrieval contract
// that every tool-index back-end (keyword, semantic, pattern) implements.
package retriever

import "context"

// SearchType advisory-tags a Retriever implementation.
type SearchType string

const (
	Keyword  SearchType = "KEYWORD"
	Semantic SearchType = "SEMANTIC"
	Regex    SearchType = "REGEX"
)

// ToolRef is one indexable or returned tool reference.
type ToolRef struct {
	ToolName       string
	Summary        string
	RelevanceScore float64
}

// FindRequest parameterizes a FindTools query.
type FindRequest struct {
	SessionID      string
	Query          string
	MaxResults     int
	CategoryFilter string
}

// FindResponse is the result of a FindTools query.
type FindResponse struct {
	ToolReferences []ToolRef
	TotalMatches   int
	Metadata       map[string]interface{}
}

// Retriever holds a per-session structure of (toolName, description) pairs
// and answers scored queries against it. Implementations must restrict
// results to the requesting sessionId; cross-session leakage is forbidden.
//
// IndexTool must tolerate duplicate names for the same session by
// replacing the prior entry. It fails only on back-end I/O errors, never
// on domain errors (e.g. an empty description is valid).
//
// FindTools truncates ToolReferences to at most
// ClampMaxResults(req.MaxResults) entries (so an unset or non-positive
// MaxResults yields at most one), sorted by descending RelevanceScore, omitting anything below the
// back-end's configured minimum score. An empty result is not an error.
//
// ClearIndex removes every entry for sessionID and is idempotent: calling
// it twice in a row is equivalent to calling it once, and it must never
// touch another session's entries.
type Retriever interface {
	IndexTool(ctx context.Context, sessionID string, ref ToolRef) error
	FindTools(ctx context.Context, req FindRequest) (FindResponse, error)
	ClearIndex(ctx context.Context, sessionID string) error
	SearchType() SearchType
}

// ClampMaxResults bounds a requested result count to [1, 10]: zero or
// negative is clamped to 1, anything above 10 is clamped to 10.
func ClampMaxResults(maxResults int) int {
	if maxResults <= 0 {
		return 1
	}
	if maxResults > 10 {
		return 10
	}
	return maxResults
}
