// Package toolsearch implements a tool-search interceptor: middleware
// that sits between a chat application and an LLM with function/tool
// calling, hiding a large tool catalog behind a single bootstrapping
// search tool plus whatever tools the model has already discovered in
// the current conversation.
package toolsearch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kestrelai/toolsearch/llm"
	"github.com/kestrelai/toolsearch/observability"
	"github.com/kestrelai/toolsearch/toolsearch/retriever"
)

const defaultSystemMessageSuffix = `You have access to a tool named "toolSearchTool". Whenever you need a capability not currently available to you, call it with {query, maxResults?, categoryFilter?}. It returns only the names of the best-matching tools; any tool it names becomes directly callable on your next turn.`

// Request is one top-level user turn driven through the interceptor.
// SessionID, if empty, is generated for the duration of this loop.
type Request struct {
	SessionID string
	Messages  []llm.Message
	Tools     []ToolCallback
}

// Response is the interceptor's final answer for one Request: the
// terminal assistant message, how many LLM turns it took, and whether
// the loop was cut short by its turn budget.
type Response struct {
	Message            llm.Message
	Turns              int
	LoopBudgetExceeded bool
}

// Interceptor drives the before/after loop described by the package
// documentation, wiring a ChatModel, a Retriever, and the ambient
// observability/cost/audit pieces into one recursion driver.
type Interceptor struct {
	cfg       config
	chatModel llm.ChatModel

	sessions *SessionStore
	gate     *SessionGate
}

// New builds an Interceptor. chatModel and WithRetriever are required;
// New returns a ConfigurationConflict error if either is missing, or if
// toolSearchToolName is empty. A request tool whose name collides with
// toolSearchToolName is rejected later, by Run.
func New(chatModel llm.ChatModel, opts ...Option) (*Interceptor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if chatModel == nil {
		return nil, newError(KindConfigurationConflict, "chat model is required", nil)
	}
	if cfg.retriever == nil {
		return nil, newError(KindConfigurationConflict, "retriever (toolSearcher) is required", nil)
	}
	if cfg.toolSearchToolName == "" {
		return nil, newError(KindConfigurationConflict, "toolSearchToolName must not be empty", nil)
	}

	return &Interceptor{
		cfg:       cfg,
		chatModel: chatModel,
		sessions:  NewSessionStore(),
		gate:      NewSessionGate(),
	}, nil
}

// Run executes one top-level user turn end to end: initializeLoop, then
// before/LLM-call/after repeated until the model stops requesting tools
// or maxTurns is exceeded, then finalizeLoop.
func (ic *Interceptor) Run(ctx context.Context, req Request) (Response, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	release := ic.gate.Lock(sessionID)
	defer release()

	if ic.cfg.wallClockBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ic.cfg.wallClockBudget)
		defer cancel()
	}

	state, err := ic.initializeLoop(ctx, sessionID, req.Tools)
	if err != nil {
		return Response{}, err
	}
	defer ic.finalizeLoop(sessionID)

	messages := ic.augmentSystemMessage(req.Messages)
	ic.emit(sessionID, 0, "initializeLoop", "loop initialized", nil)

	if ic.cfg.metrics != nil {
		ic.cfg.metrics.SetActiveSessions(ic.activeSessionCount())
	}

	for turn := 1; ; turn++ {
		state.turn = turn

		if turn > ic.cfg.maxTurns {
			if ic.cfg.metrics != nil {
				ic.cfg.metrics.IncrementLoopBudgetExceeded()
			}
			ic.emit(sessionID, 0, "finalizeLoop", "loop budget exceeded", map[string]interface{}{"maxTurns": ic.cfg.maxTurns})
			return Response{
				Message:            lastMessage(messages),
				Turns:              turn - 1,
				LoopBudgetExceeded: true,
			}, newError(KindLoopBudgetExceeded, "maxTurns reached", nil)
		}

		toolSpecs, callbackMap := ic.before(sessionID, state, messages)
		ic.emit(sessionID, turn, "before", "request rewritten", map[string]interface{}{"advertisedTools": len(toolSpecs)})

		turnStart := time.Now()
		chatOut, err := runWithTimeout(ctx, ic.cfg.turnTimeout, KindBackendUnavailable, func(ctx context.Context) (llm.ChatOut, error) {
			return ic.chatModel.Chat(ctx, messages, toolSpecs)
		})
		turnLatency := time.Since(turnStart)

		status := "ok"
		if err != nil {
			status = "error"
		}
		if ic.cfg.metrics != nil {
			ic.cfg.metrics.RecordTurnLatency(turnLatency, status)
		}
		if err != nil {
			if te, ok := err.(*Error); ok {
				return Response{}, te
			}
			return Response{}, newError(KindCancelled, "chat call failed", err)
		}

		if ic.cfg.costTracker != nil {
			ic.cfg.costTracker.RecordTurn(sessionID, turn, chatModelName(ic.chatModel), TurnUsage{
				InputTokens:  chatOut.Usage.InputTokens,
				OutputTokens: chatOut.Usage.OutputTokens,
			})
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: chatOut.Text})

		if !ic.after(chatOut) {
			ic.emit(sessionID, turn, "after", "loop terminated", nil)
			return Response{Message: lastMessage(messages), Turns: turn}, nil
		}

		ic.emit(sessionID, turn, "after", "tool calls pending", map[string]interface{}{"count": len(chatOut.ToolCalls)})
		messages = ic.executeToolCalls(ctx, sessionID, state, callbackMap, chatOut.ToolCalls, messages)

		if ic.cfg.metrics != nil {
			ic.cfg.metrics.SetDiscoveredTools(sessionID, len(state.discovered.names()))
		}
	}
}

// initializeLoop derives no new sessionID (Run already did) and leaves the
// system message to Run's augmentSystemMessage; it performs the remaining
// initialization steps: index every configured tool, reserve the
// search-tool name, and seed the session's bookkeeping.
func (ic *Interceptor) initializeLoop(ctx context.Context, sessionID string, tools []ToolCallback) (*sessionState, error) {
	for _, t := range tools {
		if t.Definition.Name == ic.cfg.toolSearchToolName {
			return nil, newError(KindConfigurationConflict, "tool name collides with reserved search tool name: "+ic.cfg.toolSearchToolName, nil)
		}
	}

	state := ic.sessions.create(sessionID, ic.cfg.accumulateToolNames)

	for _, t := range tools {
		state.callbacks[t.Definition.Name] = t

		err := ic.indexWithRetry(ctx, sessionID, retriever.ToolRef{
			ToolName: t.Definition.Name,
			Summary:  t.Definition.Description,
		})
		if err != nil {
			ic.emit(sessionID, 0, "initializeLoop", "indexTool failed, skipping", map[string]interface{}{
				"tool": t.Definition.Name, "error": err.Error(),
			})
		}
	}

	return state, nil
}

// indexWithRetry applies cfg.retryPolicy to a single indexTool call, per
// the BackendUnavailable policy in §7: one retry with backoff, then the
// entry is skipped.
func (ic *Interceptor) indexWithRetry(ctx context.Context, sessionID string, ref retriever.ToolRef) error {
	var lastErr error
	for attempt := 0; attempt < ic.cfg.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 0 {
			if ic.cfg.metrics != nil {
				ic.cfg.metrics.IncrementRetries("backend_unavailable")
			}
			delay := computeBackoff(attempt, ic.cfg.retryPolicy.BaseDelay, ic.cfg.retryPolicy.MaxDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ic.cfg.retriever.IndexTool(ctx, sessionID, ref); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return newError(KindBackendUnavailable, "indexTool failed after retries", lastErr)
}

// before implements §4.3's before(request): parse any toolSearchTool
// responses appended since the last call, update the discovered set,
// and compute the advertised tool set for this turn.
func (ic *Interceptor) before(sessionID string, state *sessionState, messages []llm.Message) ([]llm.ToolSpec, map[string]ToolCallback) {
	var newlyNamed []string
	sawSearchResponse := false
	for _, m := range messages[state.processedUpTo:] {
		if m.Role != llm.RoleTool || !state.searchCallIDs[m.ToolCallID] {
			continue
		}
		names, ok := parseNameArray(m.Content)
		if !ok {
			ic.emit(sessionID, state.turn, "before", "malformed search response, dropped", map[string]interface{}{"content": m.Content})
			continue
		}
		sawSearchResponse = true
		newlyNamed = append(newlyNamed, names...)
	}
	state.processedUpTo = len(messages)
	state.searchCallIDs = make(map[string]bool)

	// Only touch the discovered set when a search actually resolved this
	// turn. In non-accumulating mode "replaced every turn by the last
	// search's results" means the last search's results persist across
	// turns with no new search, not that they're cleared.
	if sawSearchResponse {
		state.discovered.update(newlyNamed)
	}

	searchDef := searchToolDefinition(ic.cfg.toolSearchToolName)
	toolSpecs := []llm.ToolSpec{{Name: searchDef.Name, Description: searchDef.Description, Schema: searchDef.Schema}}
	callbackMap := map[string]ToolCallback{
		ic.cfg.toolSearchToolName: {
			Definition: searchDef,
			Impl: &searchTool{
				name:        ic.cfg.toolSearchToolName,
				sessionID:   sessionID,
				retriever:   ic.cfg.retriever,
				maxResults:  ic.cfg.maxResults,
				auditStore:  ic.cfg.auditStore,
				metrics:     ic.cfg.metrics,
				emitter:     ic.cfg.emitter,
				currentTurn: func() int { return state.turn },
			},
		},
	}

	for _, name := range state.discovered.names() {
		cb, ok := state.callbacks[name]
		if !ok {
			// Name has no registered callback; drop it silently.
			continue
		}
		callbackMap[name] = cb
		toolSpecs = append(toolSpecs, llm.ToolSpec{Name: cb.Definition.Name, Description: cb.Definition.Description, Schema: cb.Definition.Schema})
	}

	return toolSpecs, callbackMap
}

// after implements §4.3's after(response): the loop continues exactly
// when the model asked for tool calls.
func (ic *Interceptor) after(out llm.ChatOut) bool {
	return len(out.ToolCalls) > 0
}

// executeToolCalls stands in for the outer chat framework this package
// assumes as a collaborator (§1): it invokes each requested tool and
// appends its result as a tool-role message, exactly the back-channel
// before() reads from on the following turn.
func (ic *Interceptor) executeToolCalls(ctx context.Context, sessionID string, state *sessionState, callbacks map[string]ToolCallback, calls []llm.ToolCall, messages []llm.Message) []llm.Message {
	for _, call := range calls {
		if call.Name == ic.cfg.toolSearchToolName {
			state.searchCallIDs[call.ID] = true
		}

		cb, ok := callbacks[call.Name]
		if !ok {
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    `{"error":"tool not available: ` + call.Name + `"}`,
			})
			continue
		}

		result, err := cb.Impl.Call(ctx, call.Input)
		var content string
		switch {
		case err != nil:
			content = mapToJSON(map[string]interface{}{"error": err.Error()})
		case call.Name == ic.cfg.toolSearchToolName:
			names, _ := result["names"].([]string)
			content = namesToJSON(names)
		default:
			content = mapToJSON(result)
		}

		messages = append(messages, llm.Message{Role: llm.RoleTool, ToolCallID: call.ID, Content: content})
	}
	return messages
}

// finalizeLoop implements §4.3's finalization: clear the retriever's
// session index and release cached callbacks/discovered set.
func (ic *Interceptor) finalizeLoop(sessionID string) {
	_ = ic.cfg.retriever.ClearIndex(context.Background(), sessionID)
	ic.sessions.remove(sessionID)
	ic.emit(sessionID, 0, "finalizeLoop", "loop finalized", nil)
	if ic.cfg.metrics != nil {
		ic.cfg.metrics.DeleteSession(sessionID)
		ic.cfg.metrics.SetActiveSessions(ic.activeSessionCount())
	}
}

func (ic *Interceptor) activeSessionCount() int {
	count := 0
	ic.sessions.sessions.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

// augmentSystemMessage implements §4.3 step 4: append the configured
// suffix to an existing system message, or prepend a new one.
func (ic *Interceptor) augmentSystemMessage(messages []llm.Message) []llm.Message {
	suffix := ic.cfg.systemMessageSuffix
	if suffix == "" {
		suffix = defaultSystemMessageSuffix
	}

	out := make([]llm.Message, len(messages))
	copy(out, messages)

	for i, m := range out {
		if m.Role == llm.RoleSystem {
			out[i].Content = m.Content + "\n\n" + suffix
			return out
		}
	}

	return append([]llm.Message{{Role: llm.RoleSystem, Content: suffix}}, out...)
}

func (ic *Interceptor) emit(sessionID string, turn int, phase, msg string, meta map[string]interface{}) {
	if ic.cfg.emitter == nil {
		return
	}
	ic.cfg.emitter.Emit(observability.Event{SessionID: sessionID, Turn: turn, Phase: phase, Msg: msg, Meta: meta})
}

// parseNameArray parses content as a JSON array of strings. Anything
// else (an object, a bare string, invalid JSON) is MalformedSearchResponse
// and yields ok=false.
func parseNameArray(content string) ([]string, bool) {
	result := gjson.Parse(content)
	if !result.IsArray() {
		return nil, false
	}

	var names []string
	ok := true
	result.ForEach(func(_, value gjson.Result) bool {
		if value.Type != gjson.String {
			ok = false
			return false
		}
		names = append(names, value.String())
		return true
	})
	if !ok {
		return nil, false
	}
	return names, true
}

func lastMessage(messages []llm.Message) llm.Message {
	if len(messages) == 0 {
		return llm.Message{}
	}
	return messages[len(messages)-1]
}

func chatModelName(model llm.ChatModel) string {
	type named interface{ ModelName() string }
	if n, ok := model.(named); ok {
		return n.ModelName()
	}
	return "unknown"
}

func mapToJSON(m map[string]interface{}) string {
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}
