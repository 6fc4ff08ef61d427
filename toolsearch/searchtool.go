package toolsearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kestrelai/toolsearch/observability"
	"github.com/kestrelai/toolsearch/toolsearch/audit"
	"github.com/kestrelai/toolsearch/toolsearch/retriever"
)

// searchToolDefinition builds the ToolDefinition advertised under name,
// with the fixed three-parameter schema every back-end shares.
func searchToolDefinition(name string) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: "Search for tools relevant to the current task. Returns the names of the best-matching tools; a matched tool becomes callable on the next turn.",
		Schema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "What the tool should help accomplish.",
				},
				"maxResults": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of tool names to return.",
					"default":     DefaultMaxResults,
					"minimum":     1,
					"maximum":     10,
				},
				"categoryFilter": map[string]interface{}{
					"type":        "string",
					"description": "Optional category to restrict the search to.",
				},
			},
			"required": []string{"query"},
		},
	}
}

// searchTool is the Tool implementation behind toolSearchTool: it is
// stateless and thread-safe, bound at construction to the session it
// serves and the retriever it searches. Never exposed to user code —
// only placed in the per-turn callback map that the interceptor's
// before() builds; it is not stored among the session's callbacks.
type searchTool struct {
	name       string
	sessionID  string
	retriever  retriever.Retriever
	maxResults int

	auditStore audit.Store
	metrics    *Metrics
	emitter    observability.Emitter
	currentTurn func() int
}

func (t *searchTool) Name() string { return t.name }

func (t *searchTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	query, _ := input["query"].(string)

	maxResults := t.maxResults
	if raw, ok := input["maxResults"]; ok {
		if n, ok := asInt(raw); ok {
			maxResults = n
		}
	}
	maxResults = retriever.ClampMaxResults(maxResults)

	var categoryFilter string
	if raw, ok := input["categoryFilter"].(string); ok {
		categoryFilter = raw
	}

	start := time.Now()
	resp, err := t.retriever.FindTools(ctx, retriever.FindRequest{
		SessionID:      t.sessionID,
		Query:          query,
		MaxResults:     maxResults,
		CategoryFilter: categoryFilter,
	})
	latency := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	if t.metrics != nil {
		t.metrics.RecordSearchLatency(string(t.retriever.SearchType()), latency, status)
		t.metrics.IncrementSearches(string(t.retriever.SearchType()))
	}
	if err != nil {
		return nil, newError(KindBackendUnavailable, "findTools failed", err)
	}

	names := make([]string, 0, len(resp.ToolReferences))
	for _, ref := range resp.ToolReferences {
		names = append(names, ref.ToolName)
	}

	if t.auditStore != nil {
		turn := 0
		if t.currentTurn != nil {
			turn = t.currentTurn()
		}
		event := audit.Event{
			SessionID:    t.sessionID,
			Turn:         turn,
			Query:        query,
			MaxResults:   maxResults,
			ToolNames:    names,
			TotalMatches: resp.TotalMatches,
			SearchType:   string(t.retriever.SearchType()),
			Timestamp:    start,
		}
		if err := t.auditStore.Record(ctx, event); err != nil {
			if t.emitter != nil {
				t.emitter.Emit(observability.Event{
					SessionID: t.sessionID,
					Turn:      turn,
					Phase:     "searchTool",
					Msg:       "audit write failed",
					Meta:      map[string]interface{}{"kind": string(KindAuditWriteFailed), "error": err.Error()},
				})
			}
		}
	}

	return map[string]interface{}{"names": names}, nil
}

func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float32:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// namesToJSON renders a tool-result message content: a bare JSON array of
// names, score-descending, not wrapped in an object. Empty input renders
// "[]", never an error.
func namesToJSON(names []string) string {
	out := "["
	for i, n := range names {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%q", n)
	}
	out += "]"
	return out
}
