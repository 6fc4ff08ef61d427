package toolsearch

import "testing"

func TestCostTracker_RecordTurn(t *testing.T) {
	ct := NewCostTracker("USD")
	ct.RecordTurn("sess-1", 1, "gpt-4o", TurnUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000})

	want := 2.50 + 10.00
	if got := ct.TotalCost(); got != want {
		t.Fatalf("expected total cost %v, got %v", want, got)
	}

	history := ct.History()
	if len(history) != 1 {
		t.Fatalf("expected 1 call recorded, got %d", len(history))
	}
	if history[0].SessionID != "sess-1" || history[0].Turn != 1 || history[0].Model != "gpt-4o" {
		t.Fatalf("unexpected recorded call: %+v", history[0])
	}
}

func TestCostTracker_UnknownModelCostsZero(t *testing.T) {
	ct := NewCostTracker("USD")
	ct.RecordTurn("sess-1", 1, "some-future-model", TurnUsage{InputTokens: 1000, OutputTokens: 1000})

	if got := ct.TotalCost(); got != 0 {
		t.Fatalf("expected zero cost for unpriced model, got %v", got)
	}
	if len(ct.History()) != 1 {
		t.Fatalf("expected the call to still be recorded")
	}
}

func TestCostTracker_CostByModel(t *testing.T) {
	ct := NewCostTracker("USD")
	ct.RecordTurn("sess-1", 1, "gpt-4o-mini", TurnUsage{InputTokens: 1_000_000, OutputTokens: 0})
	ct.RecordTurn("sess-1", 2, "gpt-4o-mini", TurnUsage{InputTokens: 1_000_000, OutputTokens: 0})
	ct.RecordTurn("sess-2", 1, "claude-3-haiku", TurnUsage{InputTokens: 1_000_000, OutputTokens: 0})

	byModel := ct.CostByModel()
	if byModel["gpt-4o-mini"] != 0.30 {
		t.Fatalf("expected gpt-4o-mini cost 0.30, got %v", byModel["gpt-4o-mini"])
	}
	if byModel["claude-3-haiku"] != 0.25 {
		t.Fatalf("expected claude-3-haiku cost 0.25, got %v", byModel["claude-3-haiku"])
	}
}

func TestCostTracker_SetCustomPricing(t *testing.T) {
	ct := NewCostTracker("USD")
	ct.SetCustomPricing("local-model", 1.0, 2.0)
	ct.RecordTurn("sess-1", 1, "local-model", TurnUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000})

	if got := ct.TotalCost(); got != 3.0 {
		t.Fatalf("expected custom-priced cost 3.0, got %v", got)
	}
}

func TestCostTracker_CostByModelIsDefensiveCopy(t *testing.T) {
	ct := NewCostTracker("USD")
	ct.RecordTurn("sess-1", 1, "gpt-4o", TurnUsage{InputTokens: 1000})

	byModel := ct.CostByModel()
	byModel["gpt-4o"] = 999

	again := ct.CostByModel()
	if again["gpt-4o"] == 999 {
		t.Fatalf("CostByModel did not return a defensive copy")
	}
}

func TestCostTracker_String(t *testing.T) {
	ct := NewCostTracker("USD")
	ct.RecordTurn("sess-1", 1, "gpt-4o", TurnUsage{InputTokens: 1000, OutputTokens: 1000})
	if s := ct.String(); s == "" {
		t.Fatal("expected a non-empty summary string")
	}
}
