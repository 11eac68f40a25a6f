// internal/adapters/output/table.go
package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/pterm/pterm"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
)

const maxTitle = 40

// TableExporter imprime los top N endpoints puntuados.
type TableExporter struct {
	w    io.Writer
	topN int
}

var _ ports.Exporter = (*TableExporter)(nil)

// NewTableExporter crea un exporter de tabla; w nil usa stdout.
func NewTableExporter(w io.Writer, topN int) *TableExporter {
	if w == nil {
		w = os.Stdout
	}
	if topN <= 0 {
		topN = 20
	}
	return &TableExporter{w: w, topN: topN}
}

// Name implementa ports.Exporter.
func (e *TableExporter) Name() string { return "table" }

// Export implementa ports.Exporter. results ya viene ordenado.
func (e *TableExporter) Export(scan *domain.Scan, results []domain.ScoredResult) error {
	fmt.Fprintf(e.w, "\nTop endpoints for %s (%d scored)\n\n", scan.Domain, len(results))
	if len(results) == 0 {
		fmt.Fprintln(e.w, "No scored endpoints.")
		return nil
	}

	rows := results
	if len(rows) > e.topN {
		rows = rows[:e.topN]
	}

	data := pterm.TableData{{"#", "Score", "Status", "URL", "Title", "Screenshot"}}
	for i, r := range rows {
		status := "-"
		if r.StatusCode > 0 {
			status = strconv.Itoa(r.StatusCode)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.ROIScore),
			status,
			r.URL,
			truncate(r.Title, maxTitle),
			r.Screenshot,
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Fprintln(e.w, out)
	if len(results) > len(rows) {
		fmt.Fprintf(e.w, "... %d more in scored_results.json\n", len(results)-len(rows))
	}
	return nil
}

// ToolStatusTable imprime {status, count} por herramienta.
func ToolStatusTable(w io.Writer, states map[string]domain.ToolState) error {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	data := pterm.TableData{{"Tool", "Status", "Results"}}
	for _, name := range names {
		st := states[name]
		data = append(data, []string{name, st.Status.String(), strconv.Itoa(st.Count)})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	fmt.Fprintln(w, out)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
