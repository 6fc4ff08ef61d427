// Package keyword implements an in-memory inverted-index Retriever,
// grounded on the phrase-query-OR-boolean-query strategy of the Lucene
// tool retriever this system's keyword back-end replaces: a query is
// split into (a) a phrase match over the whole description and (b) a
// boolean match over individual terms, and the two are OR-combined.
//
// There is no packaged full-text search library in the dependency
// surface available to this module (no Bleve, no Lucene-for-Go
// equivalent), so the analyzer and scorer here are hand-rolled rather
// than delegated to a third-party engine.
package keyword

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/kestrelai/toolsearch/toolsearch/retriever"
)

// DefaultMinScore is the minimum relevance score a reference must reach to
// be returned, matching the Lucene-based retriever this back-end replaces.
const DefaultMinScore = 0.25

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// Retriever is an in-memory, per-session inverted index over tool
// descriptions.
type Retriever struct {
	minScore float64

	mu       sync.RWMutex
	sessions map[string]*sessionIndex
}

// sessionIndex is one logical sub-index per sessionId: postings never
// cross this boundary, so ClearIndex(sessionID) only ever drops this
// struct rather than scanning a single shared index for matching rows.
type sessionIndex struct {
	docs     map[string]document       // toolName -> document
	postings map[string]map[string]int // token -> toolName -> term frequency
}

type document struct {
	description string
	tokens      []string
	tokenCount  map[string]int
}

// New creates a keyword Retriever. minScore <= 0 uses DefaultMinScore.
func New(minScore float64) *Retriever {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Retriever{minScore: minScore, sessions: make(map[string]*sessionIndex)}
}

func (r *Retriever) SearchType() retriever.SearchType { return retriever.Keyword }

func (r *Retriever) IndexTool(ctx context.Context, sessionID string, ref retriever.ToolRef) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.sessions[sessionID]
	if !ok {
		idx = &sessionIndex{docs: make(map[string]document), postings: make(map[string]map[string]int)}
		r.sessions[sessionID] = idx
	}

	// Replace any prior entry for this tool name (duplicate tolerance).
	if _, exists := idx.docs[ref.ToolName]; exists {
		removeDocument(idx, ref.ToolName)
	}

	tokens := tokenize(ref.Summary)
	tokenCount := make(map[string]int, len(tokens))
	for _, t := range tokens {
		tokenCount[t]++
	}
	idx.docs[ref.ToolName] = document{description: ref.Summary, tokens: tokens, tokenCount: tokenCount}

	for token := range tokenCount {
		postings, ok := idx.postings[token]
		if !ok {
			postings = make(map[string]int)
			idx.postings[token] = postings
		}
		postings[ref.ToolName] = tokenCount[token]
	}

	return nil
}

func removeDocument(idx *sessionIndex, toolName string) {
	doc, ok := idx.docs[toolName]
	if !ok {
		return
	}
	for token := range doc.tokenCount {
		if postings, ok := idx.postings[token]; ok {
			delete(postings, toolName)
			if len(postings) == 0 {
				delete(idx.postings, token)
			}
		}
	}
	delete(idx.docs, toolName)
}

func (r *Retriever) FindTools(ctx context.Context, req retriever.FindRequest) (retriever.FindResponse, error) {
	if ctx.Err() != nil {
		return retriever.FindResponse{}, ctx.Err()
	}

	maxResults := retriever.ClampMaxResults(req.MaxResults)

	r.mu.RLock()
	idx, ok := r.sessions[req.SessionID]
	r.mu.RUnlock()

	meta := map[string]interface{}{"searchType": string(retriever.Keyword), "query": req.Query}

	if !ok || strings.TrimSpace(req.Query) == "" {
		return retriever.FindResponse{ToolReferences: []retriever.ToolRef{}, TotalMatches: 0, Metadata: meta}, nil
	}

	queryTokens := tokenize(req.Query)
	if len(queryTokens) == 0 {
		return retriever.FindResponse{ToolReferences: []retriever.ToolRef{}, TotalMatches: 0, Metadata: meta}, nil
	}

	r.mu.RLock()
	scores := r.scoreAll(idx, queryTokens, req.Query)
	r.mu.RUnlock()

	matched := 0
	refs := make([]retriever.ToolRef, 0, len(scores))
	for name, score := range scores {
		if score < r.minScore {
			continue
		}
		matched++
		refs = append(refs, retriever.ToolRef{
			ToolName:       name,
			Summary:        idx.docs[name].description,
			RelevanceScore: score,
		})
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].RelevanceScore != refs[j].RelevanceScore {
			return refs[i].RelevanceScore > refs[j].RelevanceScore
		}
		return refs[i].ToolName < refs[j].ToolName
	})

	if len(refs) > maxResults {
		refs = refs[:maxResults]
	}

	return retriever.FindResponse{
		ToolReferences: refs,
		TotalMatches:   len(refs),
		Metadata:       meta,
	}, nil
}

// scoreAll computes an OR-combination of a phrase-match bonus and a
// boolean TF-IDF term overlap score for every document in idx.
func (r *Retriever) scoreAll(idx *sessionIndex, queryTokens []string, rawQuery string) map[string]float64 {
	n := float64(len(idx.docs))
	scores := make(map[string]float64)

	for _, token := range queryTokens {
		postings := idx.postings[token]
		if len(postings) == 0 {
			continue
		}
		idf := math.Log(1 + n/float64(len(postings)))
		for name, tf := range postings {
			doc := idx.docs[name]
			norm := math.Sqrt(float64(len(doc.tokens)) + 1)
			scores[name] += (float64(tf) * idf) / norm
		}
	}

	phrase := strings.ToLower(strings.TrimSpace(rawQuery))
	if phrase != "" {
		for name, doc := range idx.docs {
			if strings.Contains(strings.ToLower(doc.description), phrase) {
				scores[name] += 1.0
			}
		}
	}

	return scores
}

func (r *Retriever) ClearIndex(ctx context.Context, sessionID string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

func tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}
