// Package semantic implements a vector-similarity Retriever: tool
// descriptions are embedded via a pluggable Embedder and matched against
// the query embedding by cosine similarity.
package semantic

import (
	"context"
	"sort"
	"sync"

	"github.com/kestrelai/toolsearch/toolsearch/retriever"
)

// DefaultMinScore is the minimum cosine similarity a reference must reach
// to be returned.
const DefaultMinScore = 0.25

// TextMode controls what text is embedded at index time.
type TextMode int

const (
	// DescriptionOnly embeds ref.Summary alone.
	DescriptionOnly TextMode = iota
	// NameAndDescription embeds "name: description".
	NameAndDescription
)

// Retriever is an in-memory vector store keyed by (sessionId, toolName).
type Retriever struct {
	embedder Embedder
	minScore float64
	textMode TextMode

	mu       sync.RWMutex
	sessions map[string]map[string]entry // sessionID -> toolName -> entry
}

type entry struct {
	summary string
	vector  []float32
}

// New creates a semantic Retriever over the given Embedder.
func New(embedder Embedder, minScore float64, textMode TextMode) *Retriever {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Retriever{
		embedder: embedder,
		minScore: minScore,
		textMode: textMode,
		sessions: make(map[string]map[string]entry),
	}
}

func (r *Retriever) SearchType() retriever.SearchType { return retriever.Semantic }

func (r *Retriever) indexText(name, summary string) string {
	if r.textMode == NameAndDescription {
		return name + ": " + summary
	}
	return summary
}

func (r *Retriever) IndexTool(ctx context.Context, sessionID string, ref retriever.ToolRef) error {
	vec, err := r.embedder.Embed(ctx, r.indexText(ref.ToolName, ref.Summary))
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		session = make(map[string]entry)
		r.sessions[sessionID] = session
	}
	session[ref.ToolName] = entry{summary: ref.Summary, vector: vec}
	return nil
}

func (r *Retriever) FindTools(ctx context.Context, req retriever.FindRequest) (retriever.FindResponse, error) {
	maxResults := retriever.ClampMaxResults(req.MaxResults)
	meta := map[string]interface{}{"searchType": string(retriever.Semantic), "query": req.Query}

	r.mu.RLock()
	session, ok := r.sessions[req.SessionID]
	r.mu.RUnlock()

	if !ok || req.Query == "" {
		return retriever.FindResponse{ToolReferences: []retriever.ToolRef{}, TotalMatches: 0, Metadata: meta}, nil
	}

	queryVec, err := r.embedder.Embed(ctx, req.Query)
	if err != nil {
		meta["warning"] = "embedding failed: " + err.Error()
		return retriever.FindResponse{ToolReferences: []retriever.ToolRef{}, TotalMatches: 0, Metadata: meta}, nil
	}

	r.mu.RLock()
	refs := make([]retriever.ToolRef, 0, len(session))
	for name, e := range session {
		score := cosineSimilarity(queryVec, e.vector)
		if score < r.minScore {
			continue
		}
		refs = append(refs, retriever.ToolRef{ToolName: name, Summary: e.summary, RelevanceScore: score})
	}
	r.mu.RUnlock()

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].RelevanceScore != refs[j].RelevanceScore {
			return refs[i].RelevanceScore > refs[j].RelevanceScore
		}
		return refs[i].ToolName < refs[j].ToolName
	})
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
