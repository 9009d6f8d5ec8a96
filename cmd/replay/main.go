// Command replay validates a captured evidence/render-trace pair: it
// joins each render-trace record to its diff_decision by event_idx,
// checks strict event_idx ordering, and reports any decision a trace
// entry references but the evidence stream never recorded.
//
// Byte-for-byte re-emission (Replayer.Verify) additionally needs the
// actual front/back Buffer pair a run saw at that event, which the JSONL
// streams deliberately don't carry (§4.8 keeps them small); golden-trace
// fixtures that also snapshot buffers can call render.Replayer directly.
// This binary validates the structural half of that contract: that a
// trace and its evidence log agree on what happened and in what order.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/frankentui/frankentui"
)

func main() {
	evidencePath := flag.String("evidence", "", "path to evidence.jsonl")
	tracePath := flag.String("trace", "", "path to render_trace.jsonl")
	flag.Parse()

	if *evidencePath == "" || *tracePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -evidence evidence.jsonl -trace render_trace.jsonl")
		os.Exit(2)
	}

	if err := run(*evidencePath, *tracePath); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}

func run(evidencePath, tracePath string) error {
	evidenceF, err := os.Open(evidencePath)
	if err != nil {
		return fmt.Errorf("opening evidence: %w", err)
	}
	defer evidenceF.Close()

	traceF, err := os.Open(tracePath)
	if err != nil {
		return fmt.Errorf("opening trace: %w", err)
	}
	defer traceF.Close()

	decisions, err := render.ReadDiffDecisions(evidenceF)
	if err != nil {
		return fmt.Errorf("reading evidence: %w", err)
	}

	events, err := render.ReadRenderTrace(traceF)
	if err != nil {
		return fmt.Errorf("reading trace: %w", err)
	}

	var lastIdx uint64
	var missing, outOfOrder int
	for i, ev := range events {
		if i > 0 && ev.EventIdx <= lastIdx {
			outOfOrder++
			fmt.Printf("event_idx out of order: %d after %d\n", ev.EventIdx, lastIdx)
		}
		lastIdx = ev.EventIdx

		d, ok := decisions[ev.DecisionRef]
		if !ok {
			missing++
			fmt.Printf("event_idx=%d strategy=%s: no diff_decision for decision_ref=%d\n", ev.EventIdx, ev.Strategy, ev.DecisionRef)
			continue
		}
		if d.Strategy.String() != ev.Strategy {
			fmt.Printf("event_idx=%d: trace strategy %q disagrees with decision strategy %q\n", ev.EventIdx, ev.Strategy, d.Strategy.String())
		}
	}

	fmt.Printf("checked %d trace events: %d missing decisions, %d out-of-order event_idx\n", len(events), missing, outOfOrder)
	if missing > 0 || outOfOrder > 0 {
		return fmt.Errorf("replay validation failed")
	}
	return nil
}
