package report

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/annolab-data/consensus.report/internal/consensus"
)

func scatterXYs(rows []consensus.ScoreRow) plotter.XYs {
	pts := make(plotter.XYs, 0, len(rows))
	for _, r := range rows {
		pts = append(pts, plotter.XY{X: r.Area, Y: r.Score})
	}
	return pts
}

func newScorePlot() *plot.Plot {
	p := plot.New()
	p.Title.Text = "Consensus score vs instance area"
	p.X.Label.Text = "area"
	p.Y.Label.Text = "score"
	p.Add(plotter.NewGrid())
	return p
}

func newScatter(pts plotter.XYs) (*plotter.Scatter, error) {
	return plotter.NewScatter(pts)
}

func savePlot(p *plot.Plot, path string) error {
	return p.Save(8*vg.Inch, 6*vg.Inch, path)
}
