package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestEvidenceLedgerDiffDecision(t *testing.T) {
	var evidence, trace bytes.Buffer
	var tick int64
	l := NewEvidenceLedger(&evidence, &trace, 42, func() int64 { tick++; return tick })

	d := Decision{Strategy: StrategyDirtyRows, GuardReason: GuardNone}
	if err := l.LogDiffDecision(HashKey("alt", 80, 24, 42), d); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded DiffDecisionEvent
	if err := json.Unmarshal(evidence.Bytes(), &decoded); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Type != "diff_decision" {
		t.Errorf("expected type diff_decision, got %q", decoded.Type)
	}
	if decoded.RunID != l.RunID() {
		t.Error("expected run_id to match the ledger's")
	}
	if decoded.HashKey != "alt-80x24-seed42" {
		t.Errorf("expected hash_key alt-80x24-seed42, got %q", decoded.HashKey)
	}
	if decoded.EventIdx != 1 {
		t.Errorf("expected first event_idx to be 1, got %d", decoded.EventIdx)
	}
}

func TestEvidenceLedgerMonotonicEventIdx(t *testing.T) {
	var evidence, trace bytes.Buffer
	l := NewEvidenceLedger(&evidence, &trace, 1, nil)

	l.LogHUDToggle(true)
	l.LogHUDToggle(false)
	l.LogBOCPD(0.1, false)

	lines := strings.Split(strings.TrimSpace(evidence.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 records, got %d", len(lines))
	}
	var last uint64
	for i, line := range lines {
		var probe struct {
			EventIdx uint64 `json:"event_idx"`
		}
		if err := json.Unmarshal([]byte(line), &probe); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if probe.EventIdx <= last {
			t.Errorf("expected strictly increasing event_idx at line %d, got %d after %d", i, probe.EventIdx, last)
		}
		last = probe.EventIdx
	}
}

func TestEvidenceLedgerRenderTrace(t *testing.T) {
	var evidence, trace bytes.Buffer
	l := NewEvidenceLedger(&evidence, &trace, 1, nil)

	l.LogDiffDecision("m-1x1-seed1", Decision{Strategy: StrategyFull})
	if err := l.LogRenderTrace(StrategyFull, 128, "deadbeef", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded RenderTraceEvent
	if err := json.Unmarshal(trace.Bytes(), &decoded); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Strategy != "full" || decoded.BytesWritten != 128 {
		t.Errorf("unexpected render trace record: %+v", decoded)
	}
}
