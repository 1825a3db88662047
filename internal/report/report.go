// Package report renders an HTML chart of a repository's maintainability
// index over its commit history, mirroring the teacher's */plot.go files
// (a themed go-echarts line chart) in a single, self-contained form sized
// to this CLI's one-chart scope rather than the teacher's full themed
// multi-page report builder.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/basalt-metrics/pyquality/internal/store"
)

// RevisionPoint is one plotted sample: a revision's root-level MI at the
// time it was recorded.
type RevisionPoint struct {
	Key  string
	Date int64
	MI   float64
}

// MIHistory collects the root-row MI of every revision in sess, oldest
// first. Revisions whose root row is missing (no file contributed rows) or
// carries no MI (maintainability excluded from the operator mask) are
// omitted.
func MIHistory(sess *store.Session) ([]RevisionPoint, error) {
	rows, err := sess.RowsFor(string(""))
	if err != nil {
		return nil, fmt.Errorf("report: read root rows: %w", err)
	}

	points := make([]RevisionPoint, 0, len(rows))

	for _, r := range rows {
		if r.PathType != string(store.PathTypeRoot) || r.MI == nil {
			continue
		}

		points = append(points, RevisionPoint{Key: r.Revision, Date: r.RevisionDate, MI: *r.MI})
	}

	return points, nil
}

// RenderMIHistory writes a standalone HTML line chart of points to w. Each
// x-axis label is the revision's short hash and commit date.
func RenderMIHistory(w io.Writer, points []RevisionPoint) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Maintainability Index Over Time", Left: "center"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Revision"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MI", Min: 0, Max: 100}),
	)

	labels := make([]string, len(points))
	data := make([]opts.LineData, len(points))

	for i, p := range points {
		labels[i] = shortLabel(p)
		data[i] = opts.LineData{Value: p.MI}
	}

	line.SetXAxis(labels).AddSeries("MI", data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)

	return line.Render(w)
}

func shortLabel(p RevisionPoint) string {
	key := p.Key
	if len(key) > 8 {
		key = key[:8]
	}

	return key + " " + time.Unix(p.Date, 0).Format("2006-01-02")
}
