package differ

import "fmt"

// Summary is the per-collection count of a RunDiff; the CLI's --query=diff
// report prints these fields as one table row.
type Summary struct {
	ObjectsAdded, ObjectsRemoved, ObjectsChanged             int
	RelationsAdded, RelationsRemoved, RelationsChanged       int
	SqlStatementsAdded, SqlStatementsRemoved                 int
	DataWindowsAdded, DataWindowsRemoved, DataWindowsChanged int
}

// Summarize reduces a RunDiff to its counts.
func Summarize(d RunDiff) Summary {
	return Summary{
		ObjectsAdded:       len(d.Objects.Added),
		ObjectsRemoved:     len(d.Objects.Removed),
		ObjectsChanged:     len(d.Objects.Changed),
		RelationsAdded:     len(d.Relations.Added),
		RelationsRemoved:   len(d.Relations.Removed),
		RelationsChanged:   len(d.Relations.Changed),
		SqlStatementsAdded: len(d.SqlStatements.Added),
		SqlStatementsRemoved: len(d.SqlStatements.Removed),
		DataWindowsAdded:     len(d.DataWindows.Added),
		DataWindowsRemoved:   len(d.DataWindows.Removed),
		DataWindowsChanged:   len(d.DataWindows.Changed),
	}
}

// String renders the summary as a single line.
func (s Summary) String() string {
	return fmt.Sprintf(
		"objects +%d/-%d~%d relations +%d/-%d~%d sql +%d/-%d data_windows +%d/-%d~%d",
		s.ObjectsAdded, s.ObjectsRemoved, s.ObjectsChanged,
		s.RelationsAdded, s.RelationsRemoved, s.RelationsChanged,
		s.SqlStatementsAdded, s.SqlStatementsRemoved,
		s.DataWindowsAdded, s.DataWindowsRemoved, s.DataWindowsChanged,
	)
}
