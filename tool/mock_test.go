package tool

import (
	"context"
	"errors"
	"testing"
)

func TestMockTool_Name(t *testing.T) {
	m := &MockTool{ToolName: "search_web"}
	if m.Name() != "search_web" {
		t.Fatalf("Name() = %q, want %q", m.Name(), "search_web")
	}
}

func TestMockTool_ReturnsResponsesInOrderThenRepeatsLast(t *testing.T) {
	m := &MockTool{
		ToolName: "weather",
		Responses: []map[string]interface{}{
			{"forecast": "sunny"},
			{"forecast": "rainy"},
		},
	}
	ctx := context.Background()

	out1, err := m.Call(ctx, nil)
	if err != nil {
		t.Fatalf("Call 1: %v", err)
	}
	if out1["forecast"] != "sunny" {
		t.Fatalf("expected sunny, got %v", out1)
	}

	out2, err := m.Call(ctx, nil)
	if err != nil {
		t.Fatalf("Call 2: %v", err)
	}
	if out2["forecast"] != "rainy" {
		t.Fatalf("expected rainy, got %v", out2)
	}

	out3, err := m.Call(ctx, nil)
	if err != nil {
		t.Fatalf("Call 3: %v", err)
	}
	if out3["forecast"] != "rainy" {
		t.Fatalf("expected the last response to repeat, got %v", out3)
	}
}

func TestMockTool_ErrInjection(t *testing.T) {
	wantErr := errors.New("boom")
	m := &MockTool{ToolName: "broken", Err: wantErr}

	_, err := m.Call(context.Background(), nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected injected error, got %v", err)
	}
}

func TestMockTool_RecordsCallHistory(t *testing.T) {
	m := &MockTool{ToolName: "search", Responses: []map[string]interface{}{{"ok": true}}}
	ctx := context.Background()

	_, _ = m.Call(ctx, map[string]interface{}{"query": "a"})
	_, _ = m.Call(ctx, map[string]interface{}{"query": "b"})

	if m.CallCount() != 2 {
		t.Fatalf("expected 2 recorded calls, got %d", m.CallCount())
	}
	if m.Calls[0].Input["query"] != "a" || m.Calls[1].Input["query"] != "b" {
		t.Fatalf("unexpected call history: %+v", m.Calls)
	}
}

func TestMockTool_Reset(t *testing.T) {
	m := &MockTool{ToolName: "x", Responses: []map[string]interface{}{{"a": 1}, {"a": 2}}}
	ctx := context.Background()

	_, _ = m.Call(ctx, nil)
	m.Reset()

	if m.CallCount() != 0 {
		t.Fatalf("expected call history cleared, got %d", m.CallCount())
	}

	out, err := m.Call(ctx, nil)
	if err != nil {
		t.Fatalf("Call after Reset: %v", err)
	}
	if out["a"] != 1 {
		t.Fatalf("expected response cursor rewound to the first entry, got %v", out)
	}
}

func TestMockTool_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &MockTool{ToolName: "x", Responses: []map[string]interface{}{{"a": 1}}}
	_, err := m.Call(ctx, nil)
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
