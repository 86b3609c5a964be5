package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"os"

	"github.com/donseok/pbtm-project/config"
	"github.com/donseok/pbtm-project/differ"
	"github.com/donseok/pbtm-project/ir"
	"github.com/donseok/pbtm-project/query"
	"github.com/donseok/pbtm-project/store"
	"github.com/donseok/pbtm-project/util"
)

// printReport runs the --query report against st and renders it to stdout
// in the --report format. Rows are flattened to string slices first so csv,
// json, and html share one rendering path per format, the way a report
// command with several named queries naturally factors.
func printReport(st *store.Store, cfg config.Config, runID ir.RunID, opts options) error {
	surface := query.New(st.DB(), cfg)
	ctx := context.Background()

	header, rows, err := runQuery(ctx, surface, runID, opts)
	if err != nil {
		return err
	}

	switch opts.Report {
	case "csv":
		return writeCSV(header, rows)
	case "json":
		return writeJSON(header, rows)
	case "html":
		return writeHTML(header, rows)
	default:
		return fmt.Errorf("unknown --report format %q", opts.Report)
	}
}

func runQuery(ctx context.Context, s *query.Surface, runID ir.RunID, opts options) ([]string, [][]string, error) {
	switch opts.Query {
	case "list_objects":
		out, err := s.ListObjects(ctx, runID, opts.QueryArg, 0)
		if err != nil {
			return nil, nil, err
		}
		header := []string{"id", "type", "name", "source_path"}
		rows := util.TransformSlice(out, func(r query.ObjectRow) []string {
			return []string{fmt.Sprint(r.ID), string(r.Type), r.Name, r.SourcePath}
		})
		return header, rows, nil

	case "event_function_map":
		out, err := s.EventFunctionMap(ctx, runID, 0)
		if err != nil {
			return nil, nil, err
		}
		header := []string{"object_name", "kind", "name"}
		rows := util.TransformSlice(out, func(r query.EventFunctionRow) []string {
			return []string{r.ObjectName, r.Kind, r.Name}
		})
		return header, rows, nil

	case "table_impact":
		out, err := s.TableImpact(ctx, runID, opts.QueryArg, 0)
		if err != nil {
			return nil, nil, err
		}
		header := []string{"object_name", "rw_type", "confidence"}
		rows := util.TransformSlice(out, func(r query.TableImpactRow) []string {
			return []string{r.ObjectName, string(r.RWType), fmt.Sprintf("%.3f", r.Confidence)}
		})
		return header, rows, nil

	case "screen_call_graph":
		out, err := s.ScreenCallGraph(ctx, runID, opts.QueryArg, 0)
		if err != nil {
			return nil, nil, err
		}
		header := []string{"src_name", "dst_name", "relation_type", "confidence"}
		rows := util.TransformSlice(out, func(r query.CallGraphEdge) []string {
			return []string{r.SrcName, r.DstName, string(r.RelationType), fmt.Sprintf("%.3f", r.Confidence)}
		})
		return header, rows, nil

	case "unused_object_candidates":
		out, err := s.UnusedObjectCandidates(ctx, runID, 0)
		if err != nil {
			return nil, nil, err
		}
		header := []string{"object_name", "object_type"}
		rows := util.TransformSlice(out, func(r query.UnusedObjectCandidate) []string {
			return []string{r.ObjectName, string(r.ObjectType)}
		})
		return header, rows, nil

	case "data_windows":
		out, err := s.DataWindows(ctx, runID, 0)
		if err != nil {
			return nil, nil, err
		}
		header := []string{"object_name", "dw_name", "base_table", "sql_select"}
		rows := util.TransformSlice(out, func(r query.DataWindowRow) []string {
			return []string{r.ObjectName, r.DWName, r.BaseTable, r.SqlSelect}
		})
		return header, rows, nil

	case "runs":
		out, err := s.Runs(ctx, 0)
		if err != nil {
			return nil, nil, err
		}
		header := []string{"run_id", "started_at", "finished_at", "status", "source_version"}
		rows := util.TransformSlice(out, func(r query.RunRow) []string {
			return []string{string(r.RunID), fmt.Sprint(r.StartedAt), fmt.Sprint(r.FinishedAt), string(r.Status), r.SourceVersion}
		})
		return header, rows, nil

	case "diff":
		if opts.QueryArg == "" {
			return nil, nil, fmt.Errorf("--query=diff requires --query-arg=<older run_id> to compare against --run-id (or the run just produced)")
		}
		older, err := s.Snapshot(ctx, ir.RunID(opts.QueryArg))
		if err != nil {
			return nil, nil, err
		}
		newer, err := s.Snapshot(ctx, runID)
		if err != nil {
			return nil, nil, err
		}
		summary := differ.Summarize(differ.Diff(older, newer))
		header := []string{
			"objects_added", "objects_removed", "objects_changed",
			"relations_added", "relations_removed", "relations_changed",
			"sql_statements_added", "sql_statements_removed",
			"data_windows_added", "data_windows_removed", "data_windows_changed",
		}
		rows := [][]string{{
			fmt.Sprint(summary.ObjectsAdded), fmt.Sprint(summary.ObjectsRemoved), fmt.Sprint(summary.ObjectsChanged),
			fmt.Sprint(summary.RelationsAdded), fmt.Sprint(summary.RelationsRemoved), fmt.Sprint(summary.RelationsChanged),
			fmt.Sprint(summary.SqlStatementsAdded), fmt.Sprint(summary.SqlStatementsRemoved),
			fmt.Sprint(summary.DataWindowsAdded), fmt.Sprint(summary.DataWindowsRemoved), fmt.Sprint(summary.DataWindowsChanged),
		}}
		return header, rows, nil

	default:
		return nil, nil, fmt.Errorf("unknown --query %q", opts.Query)
	}
}

func writeCSV(header []string, rows [][]string) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeJSON(header []string, rows [][]string) error {
	out := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		rec := make(map[string]string, len(header))
		for i, col := range header {
			rec[col] = row[i]
		}
		out = append(out, rec)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeHTML(header []string, rows [][]string) error {
	fmt.Println("<table>")
	fmt.Print("<tr>")
	for _, h := range header {
		fmt.Printf("<th>%s</th>", html.EscapeString(h))
	}
	fmt.Println("</tr>")
	for _, row := range rows {
		fmt.Print("<tr>")
		for _, col := range row {
			fmt.Printf("<td>%s</td>", html.EscapeString(col))
		}
		fmt.Println("</tr>")
	}
	fmt.Println("</table>")
	return nil
}
