package tool

import (
	"context"
	"sync"
)

// MockTool is a scripted Tool for tests. Call returns the next entry in
// Responses, repeating the last once exhausted; Err, if set, is returned
// instead.
type MockTool struct {
	ToolName  string
	Responses []map[string]interface{}
	Err       error
	Calls     []MockToolCall

	mu        sync.Mutex
	callIndex int
}

// MockToolCall records one invocation for later assertions.
type MockToolCall struct {
	Input map[string]interface{}
}

func (m *MockTool) Name() string { return m.ToolName }

func (m *MockTool) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, MockToolCall{Input: input})

	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return map[string]interface{}{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	} else {
		m.callIndex++
	}
	return m.Responses[idx], nil
}

// Reset clears call history and rewinds the response cursor.
func (m *MockTool) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns how many times Call has been invoked.
func (m *MockTool) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
