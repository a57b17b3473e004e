package domain

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// DepsRow is one line of the dependency report: a package at a concrete
// version for one Blender release, with the platforms it was selected
// for and the summed wheel size across them.
type DepsRow struct {
	Name      string
	Version   string
	Blender   string
	Platforms []string
	Size      int64
}

// DepsReport is a read-only projection of a set of resolutions for
// human consumption. It never feeds back into resolution.
type DepsReport struct {
	Rows []DepsRow
}

// NewDepsReport merges per-triple resolutions into report rows, ordered
// by package name, then Blender version, then platform.
func NewDepsReport(resolutions []Resolution) DepsReport {
	type key struct {
		name    string
		version string
		blender string
	}
	merged := map[key]*DepsRow{}
	sizes := map[key]map[string]int64{}

	for _, res := range resolutions {
		for _, pkg := range res.Packages {
			k := key{name: pkg.Name, version: pkg.Version, blender: res.Blender.Version}
			row, ok := merged[k]
			if !ok {
				row = &DepsRow{Name: pkg.Name, Version: pkg.Version, Blender: k.blender}
				merged[k] = row
				sizes[k] = map[string]int64{}
			}
			platform := res.Platform.Key()
			if _, seen := sizes[k][platform]; !seen {
				row.Platforms = append(row.Platforms, platform)
				sizes[k][platform] = pkg.Wheel.Size
				row.Size += pkg.Wheel.Size
			}
		}
	}

	report := DepsReport{Rows: make([]DepsRow, 0, len(merged))}
	for _, row := range merged {
		sort.Strings(row.Platforms)
		report.Rows = append(report.Rows, *row)
	}
	sort.Slice(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Blender < b.Blender
	})
	return report
}

// TotalSize sums the reported wheel bytes across all rows.
func (r DepsReport) TotalSize() int64 {
	var total int64
	for _, row := range r.Rows {
		total += row.Size
	}
	return total
}

// Render writes the report as an aligned table.
func (r DepsReport) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tVERSION\tBLENDER\tPLATFORMS\tSIZE")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.Name, row.Version, row.Blender,
			strings.Join(row.Platforms, ","), FormatBytes(row.Size))
	}
	fmt.Fprintf(tw, "\t\t\ttotal\t%s\n", FormatBytes(r.TotalSize()))
	return tw.Flush()
}

// FormatBytes renders a byte count in a compact human form.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
