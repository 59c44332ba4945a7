package stats

import (
	"errors"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const FitnessPlotFile = "fitness.png"

// WriteFitnessPlot draws best (and, when given, mean) fitness against the
// generation index. The image format follows the file extension.
func WriteFitnessPlot(path, title string, best, mean []float64) error {
	bestPts := seriesXYs(best)
	if len(bestPts) == 0 {
		return errors.New("fitness series has no finite values")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Generation"
	p.Y.Label.Text = "Fitness"

	bestLine, err := plotter.NewLine(bestPts)
	if err != nil {
		return err
	}
	bestLine.Color = color.RGBA{R: 200, A: 255}
	p.Add(bestLine)
	p.Legend.Add("best", bestLine)

	if meanPts := seriesXYs(mean); len(meanPts) > 0 {
		meanLine, err := plotter.NewLine(meanPts)
		if err != nil {
			return err
		}
		meanLine.Color = color.RGBA{B: 200, A: 255}
		meanLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(meanLine)
		p.Legend.Add("mean", meanLine)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// Non-finite points would make plotter reject the whole series.
func seriesXYs(series []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(series))
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(i), Y: v})
	}
	return pts
}
