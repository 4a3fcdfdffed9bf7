// Package pipeline runs one deduplication batch over a directory: decode the
// catalog, remove duplicates, rename the survivors, then repair any name that
// still breaks the convention.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"imagededupe/config"
	"imagededupe/dedupe"
	"imagededupe/imageprocessor"
	"imagededupe/logging"
	"imagededupe/naming"
	"imagededupe/renamer"
	"imagededupe/scanner"
	"imagededupe/types"
)

// ErrSetup wraps every error that stops a run before anything is touched
var ErrSetup = errors.New("setup failed")

// Phase names used in phase_start/phase_done events
const (
	PhaseCatalog = "catalog"
	PhaseDedupe  = "dedupe"
	PhaseRename  = renamer.PhaseRename
	PhaseSanity  = renamer.PhaseSanity
)

// Deps are the collaborators of a run. Zero values get defaults.
type Deps struct {
	Loader   scanner.Loader
	Scorer   dedupe.Scorer
	Reporter logging.Reporter
	Now      func() time.Time
	Progress io.Writer // decode progress line, nil for none
}

func (d Deps) withDefaults(cfg *config.Config) Deps {
	if d.Loader == nil {
		d.Loader = imageprocessor.NewImageLoaderRegistry()
	}
	if d.Scorer == nil {
		d.Scorer = imageprocessor.NewComparator(cfg.CompareSize)
	}
	if d.Reporter == nil {
		d.Reporter = logging.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// Run processes cfg.Directory once. Only setup problems are returned as
// errors; per-file failures are logged, counted and skipped.
func Run(cfg *config.Config, deps Deps) (*types.RunSummary, error) {
	deps = deps.withDefaults(cfg)
	rep := deps.Reporter
	dir := cfg.Directory
	exts := cfg.ExtensionSet()

	summary := &types.RunSummary{Directory: dir, StartedAt: deps.Now()}
	paths, err := setup(dir, exts, rep)
	if err != nil {
		return nil, err
	}

	rep.Record(logging.EventBatchStart,
		zap.String("dir", dir),
		zap.Float64("threshold", cfg.SimilarityThreshold),
		zap.Strings("extensions", cfg.Extensions),
		zap.Int("compare_size", cfg.CompareSize))
	summary.Found = len(paths)
	rep.Record(logging.EventImagesFound, zap.String("dir", dir), zap.Int("count", len(paths)))

	phaseStart(rep, PhaseCatalog)
	catalog := scanner.BuildCatalog(paths, deps.Loader, rep, scanner.NewProgressTracker(deps.Progress, len(paths)))
	summary.Decoded = len(catalog.Records)
	summary.DecodeFailures = catalog.Failures
	phaseDone(rep, PhaseCatalog, zap.Int("decoded", summary.Decoded), zap.Int("failed", summary.DecodeFailures))

	phaseStart(rep, PhaseDedupe)
	resolver := dedupe.NewResolver(deps.Scorer, cfg.SimilarityThreshold, rep)
	survivors := resolver.Resolve(catalog.Records)
	stats := resolver.Stats()
	summary.Removed = stats.Removed
	summary.DeleteFailures = stats.DeleteFailures
	phaseDone(rep, PhaseDedupe,
		zap.Int("compared", stats.Compared),
		zap.Int("removed", stats.Removed),
		zap.Int("failed", stats.DeleteFailures))

	// one generator for both naming phases keeps every handed-out name unique
	gen := naming.NewGenerator(deps.Now, cfg.MaxNameAttempts)

	phaseStart(rep, PhaseRename)
	engine := renamer.NewEngine(gen, rep)
	engine.RenameAll(dir, survivors)
	summary.Renamed, summary.RenameFailures = engine.Counts()
	phaseDone(rep, PhaseRename, zap.Int("renamed", summary.Renamed), zap.Int("failed", summary.RenameFailures))

	if err := enforce(dir, exts, gen, rep, summary); err != nil {
		summary.FinishedAt = deps.Now()
		return summary, err
	}

	summary.FinishedAt = deps.Now()
	rep.Record(logging.EventBatchDone, summaryFields(summary)...)
	return summary, nil
}

// Check runs only the naming repair pass over cfg.Directory
func Check(cfg *config.Config, deps Deps) (*types.RunSummary, error) {
	deps = deps.withDefaults(cfg)
	rep := deps.Reporter
	dir := cfg.Directory
	exts := cfg.ExtensionSet()

	summary := &types.RunSummary{Directory: dir, StartedAt: deps.Now()}
	paths, err := setup(dir, exts, rep)
	if err != nil {
		return nil, err
	}
	summary.Found = len(paths)
	rep.Record(logging.EventImagesFound, zap.String("dir", dir), zap.Int("count", len(paths)))

	gen := naming.NewGenerator(deps.Now, cfg.MaxNameAttempts)
	if err := enforce(dir, exts, gen, rep, summary); err != nil {
		summary.FinishedAt = deps.Now()
		return summary, err
	}

	summary.FinishedAt = deps.Now()
	rep.Record(logging.EventBatchDone, summaryFields(summary)...)
	return summary, nil
}

// setup verifies dir is a listable directory and returns its recognized files
func setup(dir string, exts map[string]struct{}, rep logging.Reporter) ([]string, error) {
	fail := func(err error) ([]string, error) {
		rep.Record(logging.EventSetupFailed, zap.String("path", dir), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}

	if dir == "" {
		return fail(errors.New("no directory given"))
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fail(err)
	}
	if !info.IsDir() {
		return fail(fmt.Errorf("%s is not a directory", dir))
	}
	paths, err := scanner.ListImages(dir, exts)
	if err != nil {
		return fail(err)
	}
	return paths, nil
}

func enforce(dir string, exts map[string]struct{}, gen *naming.Generator, rep logging.Reporter, summary *types.RunSummary) error {
	phaseStart(rep, PhaseSanity)
	checker := renamer.NewChecker(gen, exts, rep)
	repaired, err := checker.Enforce(dir)
	summary.Repaired = repaired
	summary.RepairFailures = checker.Failures()
	if err != nil {
		rep.Record(logging.EventPhaseDone, zap.String("phase", PhaseSanity), zap.Error(err))
		return fmt.Errorf("naming check of %s: %w", dir, err)
	}
	phaseDone(rep, PhaseSanity, zap.Int("repaired", repaired), zap.Int("failed", summary.RepairFailures))
	return nil
}

func phaseStart(rep logging.Reporter, phase string) {
	rep.Record(logging.EventPhaseStart, zap.String("phase", phase))
}

func phaseDone(rep logging.Reporter, phase string, fields ...zap.Field) {
	rep.Record(logging.EventPhaseDone, append([]zap.Field{zap.String("phase", phase)}, fields...)...)
}

func summaryFields(s *types.RunSummary) []zap.Field {
	return []zap.Field{
		zap.String("dir", s.Directory),
		zap.Int("found", s.Found),
		zap.Int("decoded", s.Decoded),
		zap.Int("decode_failures", s.DecodeFailures),
		zap.Int("removed", s.Removed),
		zap.Int("delete_failures", s.DeleteFailures),
		zap.Int("renamed", s.Renamed),
		zap.Int("rename_failures", s.RenameFailures),
		zap.Int("repaired", s.Repaired),
		zap.Int("repair_failures", s.RepairFailures),
		zap.Duration("elapsed", s.FinishedAt.Sub(s.StartedAt)),
	}
}
