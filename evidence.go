package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

// EventHeader is embedded in every Evidence JSONL record (§4.8/§6): the
// fields shared across all event types. The hash key is not part of it;
// assertion records such as DiffDecisionEvent carry it alongside.
type EventHeader struct {
	SchemaVersion int    `json:"schema_version"`
	Type          string `json:"type"`
	Timestamp     int64  `json:"ts"`
	RunID         string `json:"run_id"`
	Seed          int64  `json:"seed"`
	EventIdx      uint64 `json:"event_idx"`
}

// HashKey formats the "<mode>-<cols>x<rows>-seed<seed>" assertion key
// (§6) used by golden-trace replay to confirm two runs are comparable.
func HashKey(mode string, cols, rows int, seed int64) string {
	return fmt.Sprintf("%s-%dx%d-seed%d", mode, cols, rows, seed)
}

// DiffDecisionEvent wraps a Decision as the diff_decision evidence
// record.
type DiffDecisionEvent struct {
	EventHeader
	HashKey  string   `json:"hash_key"`
	Decision Decision `json:"decision"`
}

// BOCPDEvent records a single BOCPD observation.
type BOCPDEvent struct {
	EventHeader
	RunLengthZeroMass float64 `json:"run_length_zero_mass"`
	ChangePoint       bool    `json:"change_point"`
}

// BudgetDecisionEvent records one Scheduler tick's budget accounting.
type BudgetDecisionEvent struct {
	EventHeader
	Tick ScheduleTick `json:"tick"`
}

// FairnessConfigEvent records the active fairness policy.
type FairnessConfigEvent struct {
	EventHeader
	Floor    float64 `json:"floor"`
	MaxSkips int     `json:"max_skips"`
}

// FairnessDecisionEvent records one tick's fairness outcome.
type FairnessDecisionEvent struct {
	EventHeader
	JainIndex float64 `json:"jain_index"`
	Refreshed []int   `json:"refreshed"`
	Skipped   []int   `json:"skipped"`
}

// WidgetRefreshEvent records one tick's widget_refresh accounting.
type WidgetRefreshEvent struct {
	EventHeader
	SkippedCount int   `json:"skipped_count"`
	Refreshed    []int `json:"refreshed"`
	Skipped      []int `json:"skipped"`
}

// HUDToggleEvent records a HUD visibility change.
type HUDToggleEvent struct {
	EventHeader
	Visible bool `json:"visible"`
}

// RenderTraceEvent is one record of the render trace JSONL stream (§4.8):
// one per emitted frame, enough to replay and verify byte-identical
// output from the recorded Decision and buffer contents.
type RenderTraceEvent struct {
	EventIdx     uint64 `json:"event_idx"`
	Strategy     string `json:"strategy"`
	BytesWritten int    `json:"bytes_written"`
	Checksum     string `json:"checksum"`
	DecisionRef  uint64 `json:"decision_ref"`
}

// EvidenceLedger is the single-writer, append-only JSONL sink for both
// the Evidence stream and the Render trace stream (§4.8, §5's
// single-writer-per-Program discipline). encoding/json is used here
// deliberately: no third-party JSON codec appears anywhere in the
// retrieval pack, so there is nothing to ground a replacement on.
type EvidenceLedger struct {
	mu sync.Mutex

	evidence io.Writer
	trace    io.Writer

	runID         string
	seed          int64
	schemaVersion int
	nowFn         func() int64

	eventIdx uint64
}

// NewEvidenceLedger creates a ledger writing Evidence records to evidence
// and Render trace records to trace. nowFn supplies the `ts` field (inject
// a fixed/stepped function for deterministic mode); pass nil to use a
// monotonically increasing counter instead of wall-clock time.
func NewEvidenceLedger(evidence, trace io.Writer, seed int64, nowFn func() int64) *EvidenceLedger {
	if nowFn == nil {
		var counter int64
		nowFn = func() int64 {
			counter++
			return counter
		}
	}
	return &EvidenceLedger{
		evidence:      evidence,
		trace:         trace,
		runID:         uuid.NewString(),
		seed:          seed,
		schemaVersion: 1,
		nowFn:         nowFn,
	}
}

// RunID returns the ledger's run_id, shared by every record it emits.
func (l *EvidenceLedger) RunID() string { return l.runID }

func (l *EvidenceLedger) header(eventType string) EventHeader {
	l.eventIdx++
	return EventHeader{
		SchemaVersion: l.schemaVersion,
		Type:          eventType,
		Timestamp:     l.nowFn(),
		RunID:         l.runID,
		Seed:          l.seed,
		EventIdx:      l.eventIdx,
	}
}

func (l *EvidenceLedger) writeEvidence(v any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	enc := json.NewEncoder(l.evidence)
	return enc.Encode(v)
}

// LogDiffDecision appends a diff_decision record.
func (l *EvidenceLedger) LogDiffDecision(hashKey string, d Decision) error {
	return l.writeEvidence(DiffDecisionEvent{EventHeader: l.header("diff_decision"), HashKey: hashKey, Decision: d})
}

// LogBOCPD appends a bocpd record.
func (l *EvidenceLedger) LogBOCPD(runLengthZeroMass float64, changePoint bool) error {
	return l.writeEvidence(BOCPDEvent{EventHeader: l.header("bocpd"), RunLengthZeroMass: runLengthZeroMass, ChangePoint: changePoint})
}

// LogBudgetDecision appends a budget_decision record.
func (l *EvidenceLedger) LogBudgetDecision(tick ScheduleTick) error {
	return l.writeEvidence(BudgetDecisionEvent{EventHeader: l.header("budget_decision"), Tick: tick})
}

// LogFairnessConfig appends a fairness_config record.
func (l *EvidenceLedger) LogFairnessConfig(cfg FairnessConfig) error {
	return l.writeEvidence(FairnessConfigEvent{EventHeader: l.header("fairness_config"), Floor: cfg.Floor, MaxSkips: cfg.MaxSkips})
}

// LogFairnessDecision appends a fairness_decision record.
func (l *EvidenceLedger) LogFairnessDecision(d FairnessDecision) error {
	return l.writeEvidence(FairnessDecisionEvent{EventHeader: l.header("fairness_decision"), JainIndex: d.JainIndex, Refreshed: d.Refreshed, Skipped: d.Skipped})
}

// LogWidgetRefresh appends a widget_refresh record.
func (l *EvidenceLedger) LogWidgetRefresh(ev WidgetRefreshEvidence) error {
	return l.writeEvidence(WidgetRefreshEvent{
		EventHeader:  l.header("widget_refresh"),
		SkippedCount: ev.Tick.SkippedCount,
		Refreshed:    ev.Refreshed,
		Skipped:      ev.Skipped,
	})
}

// LogHUDToggle appends a hud_toggle record.
func (l *EvidenceLedger) LogHUDToggle(visible bool) error {
	return l.writeEvidence(HUDToggleEvent{EventHeader: l.header("hud_toggle"), Visible: visible})
}

// LogRenderTrace appends one render-trace record for an emitted frame.
func (l *EvidenceLedger) LogRenderTrace(strategy Strategy, bytesWritten int, checksum string, decisionRef uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	enc := json.NewEncoder(l.trace)
	return enc.Encode(RenderTraceEvent{
		EventIdx:     l.eventIdx,
		Strategy:     strategy.String(),
		BytesWritten: bytesWritten,
		Checksum:     checksum,
		DecisionRef:  decisionRef,
	})
}
