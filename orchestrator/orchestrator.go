// Package orchestrator drives one run end to end: it reads
// the files an extractor.Manifest names, dispatches them to the lexer and
// parser over a bounded worker pool, hands the aggregate to the analyzer,
// and persists the result as a single run. It owns run_id allocation,
// fail-soft aggregation across files, and the run's terminal status.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/donseok/pbtm-project/analyzer"
	"github.com/donseok/pbtm-project/config"
	"github.com/donseok/pbtm-project/descriptor"
	"github.com/donseok/pbtm-project/extractor"
	"github.com/donseok/pbtm-project/ir"
	"github.com/donseok/pbtm-project/lexer"
	"github.com/donseok/pbtm-project/parser"
	"github.com/donseok/pbtm-project/store"
)

// MojibakeDiagnostic surfaces a file whose decoded text still looks like a
// meaningful fraction of it failed to map to a real character after
// codepage fallback decoding: diagnostic only, never gates analysis.
type MojibakeDiagnostic struct {
	Path  string
	Ratio float64
}

// FileFailure is a file that contributes no complete result to the run: one
// the orchestrator could not read, one the parser abandoned after too many
// parse errors, or one the extractor reported in the Manifest's Failures.
// A recovered parse error below the cap is not a FileFailure.
type FileFailure struct {
	Path   string
	Reason string
}

// Outcome is everything the caller (the CLI) needs to report a run and pick
// an exit code.
type Outcome struct {
	RunID            ir.RunID
	Status           ir.RunStatus
	ObjectCount      int
	RelationCount    int
	FilesParsed      int
	FilesAbandoned   int
	FileFailures     []FileFailure
	Unresolved       []analyzer.UnresolvedCallee
	MojibakeWarnings []MojibakeDiagnostic
}

// mojibakeWarnThreshold is the ratio above which a decoded file is surfaced
// as a diagnostic; chosen generously since this never changes analysis
// outcomes (lexer.MojibakeRatio's doc comment), only what gets reported.
const mojibakeWarnThreshold = 0.02

type fileOutcome struct {
	path       string
	parsed     *parser.ParsedFile
	descriptor *descriptor.ParsedDataWindow
	failure    *FileFailure
	mojibake   float64
}

// Run executes one complete pipeline pass over manifest's files and
// persists the result to st under a freshly allocated run_id.
func Run(ctx context.Context, cfg config.Config, sourceVersion string, manifest extractor.Manifest, st *store.Store) (Outcome, error) {
	runID := ir.RunID(uuid.NewString())
	startedAt := nowUnixNano()

	slog.Info("run starting", "run_id", runID, "files", len(manifest.Files))

	outcomes, err := mapConcurrent(manifest.Files, cfg.Concurrency, func(path string) (fileOutcome, error) {
		if err := ctx.Err(); err != nil {
			return fileOutcome{}, err
		}
		return processFile(filepath.Join(manifest.OutDir, path), path, cfg.MaxErrorsPerFile)
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("orchestrator: run %s cancelled: %w", runID, err)
	}

	var (
		files       []parser.ParsedFile
		dws         []descriptor.ParsedDataWindow
		failures    []FileFailure
		abandoned   int
		mojibake    []MojibakeDiagnostic
		filesParsed int
	)
	for _, fo := range outcomes {
		if fo.failure != nil {
			failures = append(failures, *fo.failure)
			continue
		}
		if fo.mojibake > mojibakeWarnThreshold {
			mojibake = append(mojibake, MojibakeDiagnostic{Path: fo.path, Ratio: fo.mojibake})
		}
		if fo.descriptor != nil {
			dws = append(dws, *fo.descriptor)
			filesParsed++
			continue
		}
		if fo.parsed != nil {
			files = append(files, *fo.parsed)
			filesParsed++
			if fo.parsed.Abandoned {
				abandoned++
				failures = append(failures, FileFailure{Path: fo.path, Reason: "abandoned: max parse errors exceeded"})
			}
		}
	}
	for _, mf := range manifest.Failures {
		failures = append(failures, FileFailure{Path: mf.Path, Reason: mf.Reason})
	}

	result := analyzer.Analyze(cfg, files, dws)

	status := determineStatus(len(manifest.Files), filesParsed, abandoned, len(failures))

	run := ir.Run{
		RunID:         runID,
		StartedAt:     startedAt,
		FinishedAt:    nowUnixNano(),
		Status:        status,
		SourceVersion: sourceVersion,
	}

	if err := st.Persist(ctx, run, result); err != nil {
		return Outcome{}, fmt.Errorf("orchestrator: persisting run %s: %w", runID, err)
	}

	slog.Info("run finished", "run_id", runID, "status", status, "objects", len(result.Objects), "relations", len(result.Relations))

	return Outcome{
		RunID:            runID,
		Status:           status,
		ObjectCount:      len(result.Objects),
		RelationCount:    len(result.Relations),
		FilesParsed:      filesParsed,
		FilesAbandoned:   abandoned,
		FileFailures:     failures,
		Unresolved:       result.Unresolved,
		MojibakeWarnings: mojibake,
	}, nil
}

// determineStatus derives a run's terminal status: a run with
// no successfully parsed file at all has failed outright; a run where every
// file parsed cleanly is ok; anything in between — some abandoned files or
// unreadable files, but at least partial coverage — is partial.
func determineStatus(totalFiles, filesParsed, abandoned, ioFailures int) ir.RunStatus {
	if totalFiles > 0 && filesParsed == 0 {
		return ir.RunFailed
	}
	if abandoned > 0 || ioFailures > 0 {
		return ir.RunPartial
	}
	return ir.RunOK
}

func processFile(fullPath, relPath string, maxErrorsPerFile int) (fileOutcome, error) {
	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return fileOutcome{path: relPath, failure: &FileFailure{Path: relPath, Reason: err.Error()}}, nil
	}

	text, _ := lexer.Decode(raw)
	mojibake := lexer.MojibakeRatio(text)

	if isDescriptorPath(relPath) && descriptor.IsDescriptor(text) {
		pdw := descriptor.Parse(relPath, text)
		return fileOutcome{path: relPath, descriptor: &pdw, mojibake: mojibake}, nil
	}

	pf := parser.ParseFile(relPath, text, maxErrorsPerFile)
	return fileOutcome{path: relPath, parsed: &pf, mojibake: mojibake}, nil
}

func isDescriptorPath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".dw") || strings.EqualFold(filepath.Ext(path), ".srd")
}

// nowUnixNano is the only place this package touches wall-clock time, kept
// as a single indirection so tests can observe Run without racing on it.
var nowUnixNano = func() int64 { return time.Now().UnixNano() }
