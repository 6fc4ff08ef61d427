package pattern

import (
	"context"
	"testing"

	"github.com/kestrelai/toolsearch/toolsearch/retriever"
)

func indexNames(t *testing.T, r *Retriever, sessionID string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := r.IndexTool(context.Background(), sessionID, retriever.ToolRef{ToolName: n, Summary: "summary for " + n}); err != nil {
			t.Fatalf("IndexTool(%s): %v", n, err)
		}
	}
}

func TestPatternRetriever_MatchesByRegex(t *testing.T) {
	r := New()
	indexNames(t, r, "sess-1", "getWeather", "getCurrentTime", "setAlarm")

	resp, err := r.FindTools(context.Background(), retriever.FindRequest{SessionID: "sess-1", Query: "^get", MaxResults: 10})
	if err != nil {
		t.Fatalf("FindTools: %v", err)
	}
	if len(resp.ToolReferences) != 2 {
		t.Fatalf("expected 2 matches for ^get, got %v", resp.ToolReferences)
	}
	for _, ref := range resp.ToolReferences {
		if ref.RelevanceScore != 1.0 {
			t.Fatalf("expected a fixed relevance score of 1.0, got %v", ref.RelevanceScore)
		}
	}
}

func TestPatternRetriever_ResultsSortedByName(t *testing.T) {
	r := New()
	indexNames(t, r, "sess-1", "zebra", "alpha", "mango")

	resp, err := r.FindTools(context.Background(), retriever.FindRequest{SessionID: "sess-1", Query: ".*", MaxResults: 10})
	if err != nil {
		t.Fatalf("FindTools: %v", err)
	}
	if len(resp.ToolReferences) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(resp.ToolReferences))
	}
	want := []string{"alpha", "mango", "zebra"}
	for i, name := range want {
		if resp.ToolReferences[i].ToolName != name {
			t.Fatalf("expected sorted order %v, got %v", want, resp.ToolReferences)
		}
	}
}

func TestPatternRetriever_EmptyQueryReturnsNoMatches(t *testing.T) {
	r := New()
	indexNames(t, r, "sess-1", "getWeather")

	resp, err := r.FindTools(context.Background(), retriever.FindRequest{SessionID: "sess-1", Query: ""})
	if err != nil {
		t.Fatalf("FindTools: %v", err)
	}
	if len(resp.ToolReferences) != 0 {
		t.Fatalf("expected no matches for empty query, got %v", resp.ToolReferences)
	}
}

func TestPatternRetriever_InvalidRegexDegradesToEmptyResult(t *testing.T) {
	r := New()
	indexNames(t, r, "sess-1", "getWeather")

	resp, err := r.FindTools(context.Background(), retriever.FindRequest{SessionID: "sess-1", Query: "(unterminated["})
	if err != nil {
		t.Fatalf("expected an invalid pattern to degrade gracefully rather than error, got %v", err)
	}
	if len(resp.ToolReferences) != 0 {
		t.Fatalf("expected no matches for an invalid pattern, got %v", resp.ToolReferences)
	}
	if resp.Metadata["warning"] == nil {
		t.Fatalf("expected a warning to be set in metadata for an invalid pattern")
	}
}

func TestPatternRetriever_SessionIsolation(t *testing.T) {
	r := New()
	indexNames(t, r, "sess-a", "alpha")
	indexNames(t, r, "sess-b", "alphaTwin")

	resp, err := r.FindTools(context.Background(), retriever.FindRequest{SessionID: "sess-a", Query: "Twin"})
	if err != nil {
		t.Fatalf("FindTools: %v", err)
	}
	if len(resp.ToolReferences) != 0 {
		t.Fatalf("expected sess-a to see nothing from sess-b's index, got %v", resp.ToolReferences)
	}
}

func TestPatternRetriever_ClearIndexIsSessionScopedAndIdempotent(t *testing.T) {
	r := New()
	indexNames(t, r, "sess-a", "alpha")
	indexNames(t, r, "sess-b", "beta")

	ctx := context.Background()
	if err := r.ClearIndex(ctx, "sess-a"); err != nil {
		t.Fatalf("ClearIndex: %v", err)
	}
	if err := r.ClearIndex(ctx, "sess-a"); err != nil {
		t.Fatalf("ClearIndex (second call): %v", err)
	}

	resp, err := r.FindTools(ctx, retriever.FindRequest{SessionID: "sess-a", Query: "alpha"})
	if err != nil {
		t.Fatalf("FindTools: %v", err)
	}
	if len(resp.ToolReferences) != 0 {
		t.Fatalf("expected sess-a cleared, got %v", resp.ToolReferences)
	}

	resp, err = r.FindTools(ctx, retriever.FindRequest{SessionID: "sess-b", Query: "beta"})
	if err != nil {
		t.Fatalf("FindTools: %v", err)
	}
	if len(resp.ToolReferences) != 1 {
		t.Fatalf("expected sess-b untouched, got %v", resp.ToolReferences)
	}
}

func TestPatternRetriever_ResultsTruncatedToMaxResults(t *testing.T) {
	r := New()
	indexNames(t, r, "sess-1", "a1", "a2", "a3", "a4")

	resp, err := r.FindTools(context.Background(), retriever.FindRequest{SessionID: "sess-1", Query: "^a", MaxResults: 2})
	if err != nil {
		t.Fatalf("FindTools: %v", err)
	}
	if len(resp.ToolReferences) != 2 {
		t.Fatalf("expected results truncated to 2, got %d", len(resp.ToolReferences))
	}
}

func TestPatternRetriever_SearchType(t *testing.T) {
	r := New()
	if r.SearchType() != retriever.Regex {
		t.Fatalf("expected SearchType() == Regex, got %v", r.SearchType())
	}
}
