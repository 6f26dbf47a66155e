package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
)

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteText writes the report as plain-text tables, one per section.
func WriteText(w io.Writer, r *Report) error {
	ew := &errWriter{w: w}

	ew.printf("%s\n", r.Title)
	ew.printf("Generated on: %s\n\n", r.GeneratedAt.Format("2006-01-02 at 15:04:05"))

	for _, s := range r.Sections {
		ew.printf("== %s (%s artifacts, %s comparisons, %s, threshold %s)\n",
			s.Name,
			humanize.Comma(int64(s.Artifacts)),
			humanize.Comma(int64(s.Comparisons)),
			s.Mode,
			humanizeThreshold(s.Threshold))

		if len(s.Rows) == 0 {
			ew.printf("No similar artifacts found.\n\n")
			continue
		}
		if ew.err != nil {
			return ew.err
		}

		table := tablewriter.NewWriter(ew)
		table.SetHeader([]string{"Artifact 1", "Artifact 2", "Similarity", "Status", "Action Needed"})
		table.SetAutoWrapText(false)
		for _, row := range s.Rows {
			table.Append([]string{row.First, row.Second, row.Percent, row.Status, row.Action})
		}
		table.Render()
		ew.printf("\n")
	}

	ew.printf("Summary\n")
	ew.printf("Total comparisons reported: %s\n", humanize.Comma(int64(r.Summary.Total)))
	ew.printf("High similarity cases (>80%%): %s\n", humanize.Comma(int64(r.Summary.High)))
	ew.printf("Medium similarity cases (50-80%%): %s\n", humanize.Comma(int64(r.Summary.Medium)))
	ew.printf("Low similarity cases (<=50%%): %s\n", humanize.Comma(int64(r.Summary.Low)))
	return ew.err
}

func humanizeThreshold(t float64) string {
	return humanize.Ftoa(t*100) + "%"
}

// errWriter remembers the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}

func (ew *errWriter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(ew, format, args...)
}
