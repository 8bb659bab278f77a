// Command scoreboard analyzes post-match scoreboard screenshots and prints
// per-player stats, heroes, the calibrated win probability and role grades.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"scoreboard-analyzer/internal/analyzer"
	"scoreboard-analyzer/internal/config"
	"scoreboard-analyzer/internal/hero/dnn"
	"scoreboard-analyzer/internal/metrics"
	"scoreboard-analyzer/internal/ocr"
	"scoreboard-analyzer/internal/predict"
	"scoreboard-analyzer/internal/scoreboard"
	"scoreboard-analyzer/internal/version"
	"scoreboard-analyzer/internal/workpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	heroModel := flag.String("hero-model", cfg.HeroModelPath, "Path to the ONNX hero classifier")
	probaModel := flag.String("proba-model", cfg.ProbaModelPath, "Path to the JSON win probability model")
	workers := flag.Int("workers", cfg.OCRWorkers, "Maximum concurrent OCR tasks")
	ownOnly := flag.Bool("own-only", cfg.OwnTeamOnly, "Classify only the own team's heroes")
	jsonOut := flag.String("json", "", "Write reports as JSON to this file (- for stdout)")
	metricsOut := flag.String("metrics-out", "", "Write Prometheus metrics to this file on exit")
	verbose := flag.Bool("v", false, "Verbose (development) logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if flag.NArg() == 0 {
		fmt.Println("Usage: scoreboard [-hero-model p] [-proba-model p] [-workers n] [-own-only] [-json out] [-metrics-out file] <screenshot>...")
		os.Exit(1)
	}
	cfg.OCRWorkers = *workers
	cfg.OwnTeamOnly = *ownOnly
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid flags: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *heroModel, *probaModel, *jsonOut, *metricsOut, flag.Args()); err != nil {
		logger.Error("scoreboard failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, heroModel, probaModel, jsonOut, metricsOut string, paths []string) error {
	m := metrics.New()

	engine, err := ocr.NewEngine(ocr.Config{
		Language:       cfg.OCRLanguage,
		TessdataPrefix: cfg.TessdataPrefix,
		Clients:        cfg.OCRWorkers,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start OCR: %w", err)
	}
	defer engine.Close()

	classifier := dnn.LoadOrUnavailable(heroModel, logger)
	if c, ok := classifier.(*dnn.Classifier); ok {
		defer c.Close()
	}

	deps := analyzer.Deps{
		Reader:     engine,
		Classifier: classifier,
		Pool:       workpool.New(workpool.Config{Size: cfg.OCRWorkers, Logger: logger}),
		Metrics:    m,
		Logger:     logger,
	}
	if probaModel != "" {
		model, err := predict.LoadModel(probaModel)
		if err != nil {
			return err
		}
		deps.Model = model
	} else {
		logger.Warn("no probability model configured; win probability disabled")
	}

	a, err := analyzer.New(deps, analyzer.Options{
		OwnTeamOnly: cfg.OwnTeamOnly,
		CallTimeout: cfg.CallTimeout,
	})
	if err != nil {
		return err
	}

	var reports []*analyzer.Report
	for _, path := range paths {
		r, err := a.AnalyzeFile(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			continue
		}
		printReport(os.Stdout, r)
		reports = append(reports, r)
	}

	if jsonOut != "" {
		if err := writeJSON(jsonOut, reports); err != nil {
			return err
		}
	}
	if metricsOut != "" {
		if err := m.WriteFile(metricsOut); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func printReport(w io.Writer, r *analyzer.Report) {
	ext := r.Extraction
	fmt.Fprintf(w, "\n%s (%s)\n", r.Source, r.AnalysisID)
	if ext.Duration != nil {
		fmt.Fprintf(w, "Duration: %.2f min\n", *ext.Duration)
	} else {
		fmt.Fprintf(w, "Duration: unknown\n")
	}

	heroes := ext.Heroes.All()
	fmt.Fprintf(w, "%-4s %-5s %-8s %-14s %6s %6s %6s %8s %8s %8s\n",
		"Slot", "Team", "Role", "Hero", "K", "A", "D", "Damage", "H", "MIT")
	fmt.Fprintln(w, strings.Repeat("-", 83))
	for i, s := range ext.Stats {
		name := "-"
		if i < len(heroes) {
			name = string(heroes[i])
		}
		team := "enemy"
		if scoreboard.IsOwnTeam(i) {
			team = "own"
		}
		fmt.Fprintf(w, "%-4d %-5s %-8s %-14s %6d %6d %6d %8d %8d %8d\n",
			i, team, scoreboard.SlotRole(i), name, s.Kills, s.Assists, s.Deaths, s.Damage, s.Healing, s.Mitigated)
	}

	if r.Probability != nil {
		fmt.Fprintf(w, "Win probability: %.1f%%\n", *r.Probability*100)
	} else {
		fmt.Fprintf(w, "Win probability: not enough data\n")
	}
	fmt.Fprintf(w, "Tank: %s  Damage: %s  Support: %s  Outcome: %d\n",
		r.Roles.Tank, r.Roles.Damage, r.Roles.Support, r.OutcomeBucket)
	if ext.AnyRowMissing {
		fmt.Fprintf(w, "Warning: at least one player row is unreadable\n")
	}
}

func writeJSON(path string, reports []*analyzer.Report) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
