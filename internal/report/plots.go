// Package report renders consensus score tables into charts: interactive
// HTML documents via go-echarts and a static PNG via gonum/plot.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/annolab-data/consensus.report/internal/consensus"
)

// rootLabel stands in for the project root folder (empty folder name) in
// chart axes and legends.
const rootLabel = "(root)"

// WritePlots renders the full plot set for a score table into dir:
// score_box_by_creator.html, score_box_by_folder.html,
// score_scatter.html and score_vs_area.png.
func WritePlots(dir string, rows []consensus.ScoreRow) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	htmlPlots := []struct {
		name   string
		render func(io.Writer, []consensus.ScoreRow) error
	}{
		{"score_box_by_creator.html", RenderScoreBoxByCreator},
		{"score_box_by_folder.html", RenderScoreBoxByFolder},
		{"score_scatter.html", RenderScoreScatter},
	}
	for _, p := range htmlPlots {
		f, err := os.Create(filepath.Join(dir, p.name))
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
		err = p.render(f, rows)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", p.name, err)
		}
	}

	if err := SaveScoreAreaPNG(filepath.Join(dir, "score_vs_area.png"), rows); err != nil {
		return err
	}
	return nil
}

// RenderScoreBoxByCreator writes a box plot of score per creator email.
func RenderScoreBoxByCreator(w io.Writer, rows []consensus.ScoreRow) error {
	return renderBox(w, rows, "Consensus score by annotator", func(r consensus.ScoreRow) string {
		return r.CreatorEmail
	})
}

// RenderScoreBoxByFolder writes a box plot of score per folder.
func RenderScoreBoxByFolder(w io.Writer, rows []consensus.ScoreRow) error {
	return renderBox(w, rows, "Consensus score by folder", func(r consensus.ScoreRow) string {
		return folderLabel(r.FolderName)
	})
}

func renderBox(w io.Writer, rows []consensus.ScoreRow, title string, keyOf func(consensus.ScoreRow) string) error {
	groups := make(map[string][]float64)
	var keys []string
	for _, r := range rows {
		k := keyOf(r)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r.Score)
	}
	sort.Strings(keys)

	data := make([]opts.BoxPlotData, 0, len(keys))
	for _, k := range keys {
		data = append(data, opts.BoxPlotData{Name: k, Value: fiveNumber(groups[k])})
	}

	box := charts.NewBoxPlot()
	box.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "score"}),
	)
	box.SetXAxis(keys).AddSeries("score", data)
	return box.Render(w)
}

// RenderScoreScatter writes a page with one score-vs-area scatter per
// folder, one series per class.
func RenderScoreScatter(w io.Writer, rows []consensus.ScoreRow) error {
	byFolder := make(map[string][]consensus.ScoreRow)
	var folders []string
	for _, r := range rows {
		if _, ok := byFolder[r.FolderName]; !ok {
			folders = append(folders, r.FolderName)
		}
		byFolder[r.FolderName] = append(byFolder[r.FolderName], r)
	}
	sort.Strings(folders)

	page := components.NewPage()
	for _, folder := range folders {
		sc := charts.NewScatter()
		sc.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "500px"}),
			charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Score vs area: %s", folderLabel(folder))}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithXAxisOpts(opts.XAxis{Name: "area"}),
			charts.WithYAxisOpts(opts.YAxis{Name: "score"}),
		)

		byClass := make(map[string][]opts.ScatterData)
		var classes []string
		for _, r := range byFolder[folder] {
			if _, ok := byClass[r.ClassName]; !ok {
				classes = append(classes, r.ClassName)
			}
			byClass[r.ClassName] = append(byClass[r.ClassName], opts.ScatterData{
				Name:  r.ImageName,
				Value: []interface{}{r.Area, r.Score},
			})
		}
		sort.Strings(classes)
		for _, class := range classes {
			sc.AddSeries(class, byClass[class])
		}
		page.AddCharts(sc)
	}
	return page.Render(w)
}

// SaveScoreAreaPNG writes a static score-vs-area scatter to path.
func SaveScoreAreaPNG(path string, rows []consensus.ScoreRow) error {
	pts := scatterXYs(rows)
	p := newScorePlot()
	s, err := newScatter(pts)
	if err != nil {
		return fmt.Errorf("failed to build scatter: %w", err)
	}
	p.Add(s)
	if err := savePlot(p, path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// fiveNumber computes the min/Q1/median/Q3/max summary echarts box plots
// expect.
func fiveNumber(values []float64) []float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	return []float64{
		s[0],
		stat.Quantile(0.25, stat.Empirical, s, nil),
		stat.Quantile(0.5, stat.Empirical, s, nil),
		stat.Quantile(0.75, stat.Empirical, s, nil),
		s[len(s)-1],
	}
}

func folderLabel(name string) string {
	if name == "" {
		return rootLabel
	}
	return name
}
