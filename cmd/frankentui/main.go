//go:build unix

// Command frankentui is a minimal host loop over the render core: it
// draws a one-line clock widget into the back buffer on a fixed tick,
// lets Program pick a diff strategy and present it, and writes its
// evidence/trace streams next to the binary's working directory.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/frankentui/frankentui"
)

func main() {
	cfg, err := render.LoadConfig(os.Getenv("FRANKENTUI_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "frankentui:", err)
		os.Exit(1)
	}

	evidenceF, err := os.Create("evidence.jsonl")
	if err != nil {
		fmt.Fprintln(os.Stderr, "frankentui:", err)
		os.Exit(1)
	}
	defer evidenceF.Close()

	traceF, err := os.Create("render_trace.jsonl")
	if err != nil {
		fmt.Fprintln(os.Stderr, "frankentui:", err)
		os.Exit(1)
	}
	defer traceF.Close()

	profile := render.DetectCapabilityProfile()
	cols, rows := 80, 24
	if c, r, ok := render.TerminalSize(int(os.Stdout.Fd())); ok {
		cols, rows = c, r
	}

	selCfg := render.DefaultSelectorConfig()
	selCfg.BayesianEnabled = cfg.BayesianEnabled
	selCfg.BOCPDEnabled = cfg.BOCPDEnabled
	selCfg.ConformalEnabled = cfg.ConformalEnabled

	p := render.NewProgram(render.ProgramConfig{
		Cols: cols, Rows: rows,
		Profile:       profile,
		Mode:          render.ModeAltScreen,
		Selector:      selCfg,
		Scheduler:     render.DefaultSchedulerConfig(),
		Seed:          cfg.Seed,
		Deterministic: cfg.Deterministic,
	}, os.Stdout, evidenceF, traceF)

	if err := p.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "frankentui:", err)
		os.Exit(1)
	}
	defer p.Stop()

	clockWidget := p.Arena().Register()

	resize := render.NewResizeWatcher(int(os.Stdout.Fd()))
	defer resize.Stop()

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	var ticks int64
	for {
		select {
		case dims := <-resize.Events():
			p.Resize(dims[0], dims[1])
		case <-ticker.C:
			p.Arena().MarkDirty(clockWidget)
			err := p.Tick(func(back *render.Buffer, refreshed []int) {
				now := time.Now().Format("15:04:05")
				back.WriteText(0, 0, now, render.DefaultStyle())
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "frankentui:", err)
				return
			}
			ticks++
			if cfg.ExitAfterTicks > 0 && ticks >= cfg.ExitAfterTicks {
				return
			}
		}
	}
}
