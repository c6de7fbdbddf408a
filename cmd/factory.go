package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/sustainabot/ecopolicy/internal/config"
	"github.com/sustainabot/ecopolicy/internal/datalog"
	"github.com/sustainabot/ecopolicy/internal/engine"
	"github.com/sustainabot/ecopolicy/internal/knowledge"
	"github.com/sustainabot/ecopolicy/internal/metrics"
	"github.com/sustainabot/ecopolicy/internal/praxis"
	"github.com/sustainabot/ecopolicy/internal/predictor"
)

// runtime bundles the engine with the resources that need closing when a
// command finishes.
type runtime struct {
	engine    *engine.Engine
	predictor *predictor.Predictor
	graph     *knowledge.SQLiteGraph
	store     *praxis.Store
	watcher   *datalog.Watcher
}

func (r *runtime) Close() {
	if r.watcher != nil {
		_ = r.watcher.Stop()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
	if r.graph != nil {
		_ = r.graph.Close()
	}
}

// buildRuntime wires the engine from resolved configuration. A missing model
// file falls back to the stock model rather than failing: first runs should
// work before anyone has trained anything.
func buildRuntime(cfg *config.AppConfig) (*runtime, error) {
	pred, err := predictor.New(cfg.Model.Path)
	if err != nil {
		if _, statErr := os.Stat(cfg.Model.Path); os.IsNotExist(statErr) {
			pred, err = predictor.NewWithModel(predictor.DefaultModel())
		}
		if err != nil {
			return nil, fmt.Errorf("initialize predictor: %w", err)
		}
	}

	evaluator, err := datalog.NewEvaluator(datalog.Config{
		RulesDir:    cfg.Rules.Dir,
		RulePackage: cfg.Rules.Package,
	})
	if err != nil {
		// Degraded mode: the engine runs probabilistic-only.
		evaluator = nil
	}

	var watcher *datalog.Watcher
	if evaluator != nil && cfg.Rules.Watch {
		watcher, err = datalog.NewWatcher(evaluator)
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			slog.Warn("rules watcher disabled", "error", err)
			watcher = nil
		}
	}

	graph, err := knowledge.NewSQLiteGraph(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("open knowledge graph: %w", err)
	}

	store, err := praxis.NewStore(cfg.Data.Dir)
	if err != nil {
		_ = graph.Close()
		return nil, fmt.Errorf("open praxis store: %w", err)
	}
	log, err := praxis.NewLog(store)
	if err != nil {
		_ = store.Close()
		_ = graph.Close()
		return nil, fmt.Errorf("open observation log: %w", err)
	}
	loop, err := praxis.NewLoop(praxis.LoopConfig{
		Log:             log,
		Graph:           graph,
		Trainer:         pred,
		UpdateThreshold: cfg.Praxis.UpdateThreshold,
	})
	if err != nil {
		_ = store.Close()
		_ = graph.Close()
		return nil, fmt.Errorf("build praxis loop: %w", err)
	}

	tiers := make([]engine.Policy, 0, len(cfg.Policy.Tiers))
	for _, t := range cfg.Policy.Tiers {
		tiers = append(tiers, engine.Policy(t))
	}

	eng, err := engine.New(engine.Config{
		Evaluator:    evaluator,
		Predictor:    pred,
		Graph:        graph,
		Loop:         loop,
		EnabledTiers: tiers,
	})
	if err != nil {
		_ = store.Close()
		_ = graph.Close()
		return nil, fmt.Errorf("build engine: %w", err)
	}

	return &runtime{engine: eng, predictor: pred, graph: graph, store: store, watcher: watcher}, nil
}

// loadMetricsFile reads a JSON array of metric records.
func loadMetricsFile(path string) ([]metrics.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metrics file: %w", err)
	}
	var records []metrics.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse metrics file: %w", err)
	}
	if err := metrics.ValidateBatch(records); err != nil {
		return nil, err
	}
	return records, nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
