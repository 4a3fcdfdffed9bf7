package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"imagededupe/config"
	"imagededupe/database"
	"imagededupe/imageprocessor"
	"imagededupe/logging"
	"imagededupe/pipeline"
	"imagededupe/signalhandler"
	"imagededupe/types"
	"imagededupe/utils"
)

func main() {
	// Parse command line arguments into a map
	args := utils.ParseArguments(os.Args[1:])

	command, hasCommand := args["command"]
	if !hasCommand {
		utils.PrintUsage(os.Stderr)
		os.Exit(1)
	}

	switch command {
	case "run", "check":
		os.Exit(handleBatchCommand(command, args))
	case "history":
		os.Exit(handleHistoryCommand(args))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		utils.PrintUsage(os.Stderr)
		os.Exit(1)
	}
}

// buildConfig layers the config file, then the flags, over the defaults
func buildConfig(args map[string]string) (*config.Config, error) {
	cfg := config.Default()
	if path, ok := args["config"]; ok && path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dir, ok := args["dir"]; ok {
		cfg.Directory = dir
	}
	if v, ok := args["threshold"]; ok {
		threshold, err := utils.ParseThreshold(v)
		if err != nil {
			return nil, err
		}
		cfg.SimilarityThreshold = threshold
	}
	if v, ok := args["extensions"]; ok {
		exts, err := utils.ParseExtensions(v)
		if err != nil {
			return nil, err
		}
		cfg.Extensions = exts
	}
	if v, ok := args["compare-size"]; ok {
		size, err := utils.ParseNonNegative("compare-size", v)
		if err != nil {
			return nil, err
		}
		cfg.CompareSize = size
	}
	if v, ok := args["logfile"]; ok && v != "" {
		cfg.Log.File = v
	}
	if v, ok := args["journal"]; ok {
		if v == "true" || v == "" {
			v = utils.GetDefaultJournalPath()
		}
		cfg.Journal = v
	}
	if _, ok := args["debug"]; ok {
		cfg.Log.Debug = true
	}
	if cfg.Log.File == "" {
		cfg.Log.File = utils.GetDefaultLogPath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func handleBatchCommand(command string, args map[string]string) int {
	cfg, err := buildConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if cfg.Directory == "" {
		fmt.Fprintln(os.Stderr, "Error: Missing directory (use --dir=PATH)")
		utils.PrintUsage(os.Stderr)
		return 1
	}

	logger, err := logging.SetupLogger(logging.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Debug:      cfg.Log.Debug,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot set up logging: %v\n", err)
		return 1
	}
	defer logger.Close()
	logger.Debug("configuration", zap.Any("config", cfg))
	for _, ext := range cfg.Extensions {
		if !imageprocessor.IsImageFile("." + ext) {
			logger.Warn("no decoder for extension, such files are only renamed", zap.String("extension", ext))
		}
	}

	reporters := []logging.Reporter{logger}
	var journal *database.Journal
	if cfg.Journal != "" {
		journal, err = database.InitJournal(cfg.Journal)
		if err != nil {
			logger.Error("cannot open journal", zap.String("path", cfg.Journal), zap.Error(err))
			return 1
		}
		defer journal.Close()
		if _, err := journal.BeginRun(cfg.Directory); err != nil {
			logger.Error("cannot start journal run", zap.Error(err))
			return 1
		}
		reporters = append(reporters, journal)
	}
	reporter := logging.Multi(reporters...)

	stop := signalhandler.SetupHandler(func() {
		_ = reporter.Sync()
		if journal != nil {
			journal.Close()
		}
		logger.Close()
	})
	defer stop()

	deps := pipeline.Deps{Reporter: reporter, Progress: os.Stdout}
	startTime := time.Now()

	var summary *types.RunSummary
	if command == "check" {
		summary, err = pipeline.Check(cfg, deps)
	} else {
		summary, err = pipeline.Run(cfg, deps)
	}

	if errors.Is(err, pipeline.ErrSetup) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	exitCode := 0
	if err != nil {
		logger.Error("run aborted", zap.Error(err))
		exitCode = 1
	}
	if journal != nil {
		if err := journal.FinishRun(summary); err != nil {
			logger.Warn("cannot finish journal run", zap.Error(err))
		}
		if err := journal.Sync(); err != nil {
			logger.Warn("journal write failed", zap.Error(err))
		}
	}

	printSummary(summary, time.Since(startTime))
	return exitCode
}

func printSummary(s *types.RunSummary, elapsed time.Duration) {
	fmt.Printf("\nDirectory: %s\n", s.Directory)
	fmt.Printf("- Images found: %d\n", s.Found)
	if s.Decoded > 0 || s.DecodeFailures > 0 {
		fmt.Printf("- Decoded: %d (failed: %d)\n", s.Decoded, s.DecodeFailures)
		fmt.Printf("- Duplicates removed: %d (failed: %d)\n", s.Removed, s.DeleteFailures)
		fmt.Printf("- Renamed: %d (failed: %d)\n", s.Renamed, s.RenameFailures)
	}
	fmt.Printf("- Names repaired: %d (failed: %d)\n", s.Repaired, s.RepairFailures)
	fmt.Printf("Total execution time: %v\n", elapsed)
}

func handleHistoryCommand(args map[string]string) int {
	dbPath := utils.GetDefaultJournalPath()
	if v, ok := args["journal"]; ok && v != "" && v != "true" {
		dbPath = v
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Journal does not exist: %s. Run with --journal first.\n", dbPath)
		return 1
	}

	journal, err := database.InitJournal(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
		return 1
	}
	defer journal.Close()

	if v, ok := args["run"]; ok {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid run id '%s'\n", v)
			return 1
		}
		return printRunEvents(journal, id)
	}

	limit := 10
	if v, ok := args["limit"]; ok {
		limit, err = utils.ParseNonNegative("limit", v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	runs, err := journal.RecentRuns(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
		return 1
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return 0
	}
	for _, r := range runs {
		finished := "unfinished"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Printf("#%d %s %s (%s)\n", r.ID, r.StartedAt.Format(time.DateTime), r.Directory, finished)
		fmt.Printf("   found %d, removed %d, renamed %d, repaired %d, failures %d\n",
			r.Found, r.Removed, r.Renamed, r.Repaired,
			r.DecodeFailures+r.DeleteFailures+r.RenameFailures+r.RepairFailures)
	}
	return 0
}

func printRunEvents(journal *database.Journal, runID int64) int {
	events, err := journal.RunEvents(runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading journal: %v\n", err)
		return 1
	}
	if len(events) == 0 {
		fmt.Printf("No events recorded for run %d.\n", runID)
		return 0
	}
	for _, e := range events {
		line := fmt.Sprintf("%s %-5s %-18s %s", e.RecordedAt, e.Level, e.Event, e.Path)
		if to, ok := e.Fields["to"].(string); ok {
			line += " -> " + to
		}
		if msg, ok := e.Fields["error"].(string); ok {
			line += " (" + msg + ")"
		}
		fmt.Println(line)
	}
	return 0
}
