package render

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config bundles every environment input the core consumes in
// deterministic mode (§6): the seed, tick cadence, budgets, the inline UI
// strip height, and the Bayesian/BOCPD/conformal feature toggles.
type Config struct {
	Seed           int64 `toml:"seed"`
	TickMs         int64 `toml:"tick_ms"`
	ExitAfterTicks int64 `toml:"exit_after_ticks"`

	FrameBudgetUs int64 `toml:"frame_budget_us"`
	RenderBudgetUs int64 `toml:"render_budget_us"`

	UIHeight int `toml:"ui_height"`

	BayesianEnabled  bool `toml:"bayesian"`
	BOCPDEnabled     bool `toml:"bocpd"`
	ConformalEnabled bool `toml:"conformal"`

	Deterministic bool `toml:"deterministic"`
}

// DefaultConfig returns the spec's Full-tier defaults.
func DefaultConfig() Config {
	return Config{
		Seed:             0,
		TickMs:           16,
		ExitAfterTicks:   0,
		FrameBudgetUs:    16_666,
		RenderBudgetUs:   8_000,
		UIHeight:         6,
		BayesianEnabled:  true,
		BOCPDEnabled:     true,
		ConformalEnabled: true,
		Deterministic:    false,
	}
}

// LoadConfig reads a TOML config file at path (if non-empty), applies it
// over DefaultConfig, then applies environment-variable overrides —
// matching the teacher's os.Getenv-based override convention, extended
// to every field §6 lists as an environment input.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("render: loading config %s: %w", path, err)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := envInt64("FRANKENTUI_SEED"); ok {
		cfg.Seed = v
	}
	if v, ok := envInt64("FRANKENTUI_TICK_MS"); ok {
		cfg.TickMs = v
	}
	if v, ok := envInt64("FRANKENTUI_EXIT_AFTER_TICKS"); ok {
		cfg.ExitAfterTicks = v
	}
	if v, ok := envInt64("FRANKENTUI_FRAME_BUDGET_US"); ok {
		cfg.FrameBudgetUs = v
	}
	if v, ok := envInt64("FRANKENTUI_RENDER_BUDGET_US"); ok {
		cfg.RenderBudgetUs = v
	}
	if v, ok := envInt64("FRANKENTUI_UI_HEIGHT"); ok {
		cfg.UIHeight = int(v)
	}
	if v, ok := envBool("FRANKENTUI_BAYESIAN"); ok {
		cfg.BayesianEnabled = v
	}
	if v, ok := envBool("FRANKENTUI_BOCPD"); ok {
		cfg.BOCPDEnabled = v
	}
	if v, ok := envBool("FRANKENTUI_CONFORMAL"); ok {
		cfg.ConformalEnabled = v
	}
	if v, ok := envBool("FRANKENTUI_DETERMINISTIC"); ok {
		cfg.Deterministic = v
	}
}

func envInt64(name string) (int64, bool) {
	s := os.Getenv(name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envBool(name string) (bool, bool) {
	s := os.Getenv(name)
	if s == "" {
		return false, false
	}
	return s != "0" && s != "false", true
}

// FrameBudget returns the configured frame budget as a time.Duration.
func (c Config) FrameBudget() time.Duration { return time.Duration(c.FrameBudgetUs) * time.Microsecond }

// RenderBudget returns the configured render budget as a time.Duration.
func (c Config) RenderBudget() time.Duration { return time.Duration(c.RenderBudgetUs) * time.Microsecond }

// TickInterval returns the configured tick cadence as a time.Duration.
func (c Config) TickInterval() time.Duration { return time.Duration(c.TickMs) * time.Millisecond }
