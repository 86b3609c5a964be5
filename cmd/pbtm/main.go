// Command pbtm runs the static-analysis pipeline over one extracted source
// tree and persists the result, then optionally prints one read-only report
// for that run or for an earlier run named by --run-id.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/donseok/pbtm-project/config"
	"github.com/donseok/pbtm-project/extractor"
	"github.com/donseok/pbtm-project/ir"
	"github.com/donseok/pbtm-project/orchestrator"
	"github.com/donseok/pbtm-project/store"
	"github.com/donseok/pbtm-project/util"
)

var version string

const (
	exitOK      = 0
	exitFailed  = 1
	exitPartial = 2
)

type options struct {
	Input         string `long:"input" description:"directory of extracted source files to analyze" value-name:"path"`
	Out           string `long:"out" description:"directory the extractor writes plain-text sources to (when --input is a packaged export)" value-name:"path"`
	DB            string `long:"db" description:"sqlite database path" value-name:"path" default:"pbtm.db"`
	Extractor     string `long:"extractor" description:"auto|text|binary" default:"text"`
	ExtractorCmd  string `long:"extractor-cmd" description:"external extractor command for --extractor=binary; not run: binary mode reports an error"`
	Report        string `long:"report" description:"csv|json|html report for a read query, omit to only run analysis"`
	Query         string `long:"query" description:"list_objects|event_function_map|table_impact|screen_call_graph|unused_object_candidates|data_windows|runs|diff" default:"list_objects"`
	QueryArg      string `long:"query-arg" description:"argument for the selected query (table name, object name, object type, or the older run_id for --query=diff), when it takes one"`
	RunID         string `long:"run-id" description:"run_id to query; defaults to the run just produced"`
	SourceVersion string `long:"source-version" description:"free-text label stamped on the run" default:""`
	Config        string `long:"config" description:"YAML configuration file"`
	Help          bool   `long:"help" description:"show this help"`
	Version       bool   `long:"version" description:"show this version"`
}

func main() {
	util.InitSlog()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options]"
	if _, err := parser.ParseArgs(args); err != nil {
		log.Print(err)
		parser.WriteHelp(os.Stdout)
		return exitFailed
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		return exitOK
	}
	if opts.Version {
		fmt.Println(version)
		return exitOK
	}

	if opts.Input == "" {
		fmt.Fprintln(os.Stderr, "[ERROR] --input is required")
		return exitFailed
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		return exitFailed
	}

	st, err := store.Open(opts.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		return exitFailed
	}
	defer st.Close()

	lease, err := store.AcquireLease(opts.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] another run already holds %s\n", opts.DB)
		return exitFailed
	}
	defer lease.Release()

	manifest, err := buildManifest(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		return exitFailed
	}

	outcome, err := orchestrator.Run(context.Background(), cfg, opts.SourceVersion, manifest, st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		return exitFailed
	}

	printOutcome(outcome)

	if opts.Report != "" {
		runID := outcome.RunID
		if opts.RunID != "" {
			runID = ir.RunID(opts.RunID)
		}
		if err := printReport(st, cfg, runID, opts); err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
			return exitFailed
		}
	}

	switch outcome.Status {
	case "ok":
		return exitOK
	case "partial":
		return exitPartial
	default:
		return exitFailed
	}
}

func buildManifest(opts options) (extractor.Manifest, error) {
	switch opts.Extractor {
	case "binary":
		return extractor.Manifest{}, fmt.Errorf("extractor mode %q requires an external extractor wired by the caller's environment; --extractor-cmd=%q was not invoked (no in-tree binary extractor is implemented)", opts.Extractor, opts.ExtractorCmd)
	case "auto", "text", "":
		return scanTextDirectory(opts.Input)
	default:
		return extractor.Manifest{}, fmt.Errorf("unknown --extractor mode %q", opts.Extractor)
	}
}

func printOutcome(o orchestrator.Outcome) {
	tag := "[OK]"
	switch o.Status {
	case "partial":
		tag = "[WARN]"
	case "failed":
		tag = "[ERROR]"
	}
	slog.Info("run complete", "run_id", o.RunID, "status", o.Status)
	fmt.Printf("%s run_id=%s status=%s objects=%d relations=%d files_parsed=%d files_abandoned=%d file_failures=%d unresolved_callees=%d\n",
		tag, o.RunID, o.Status, o.ObjectCount, o.RelationCount, o.FilesParsed, o.FilesAbandoned, len(o.FileFailures), len(o.Unresolved))
	for _, f := range o.FileFailures {
		fmt.Printf("[WARN] failed file %s: %s\n", f.Path, f.Reason)
	}
	for _, w := range o.MojibakeWarnings {
		fmt.Printf("[WARN] possible mojibake in %s (ratio=%.3f)\n", w.Path, w.Ratio)
	}
	for _, u := range o.Unresolved {
		fmt.Printf("[WARN] unresolved %s callee %q from %s\n", u.Kind, u.CalleeName, u.CallerObject)
	}
}
