package segments

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// plotColumns is the number of charts per row of the PNG grid.
const plotColumns = 4

// WritePNG draws one bar chart per chromosome in a grid and saves it as a
// PNG image.
func (h *Histogram) WritePNG(path, title string) error {
	rows := (len(h.chroms)-1)/plotColumns + 1
	if len(h.chroms) == 0 {
		rows = 1
	}

	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, plotColumns)
		for i := range plots[j] {
			k := j*plotColumns + i
			if k >= len(h.chroms) {
				p := plot.New()
				p.HideAxes()
				plots[j][i] = p
				continue
			}
			p, err := h.chromPlot(h.chroms[k])
			if err != nil {
				return err
			}
			if i == 0 {
				p.Y.Label.Text = "matches"
			}
			if k == 0 && title != "" {
				p.Title.Text = title + ": " + p.Title.Text
			}
			plots[j][i] = p
		}
	}

	width := vg.Length(plotColumns) * 4 * vg.Inch
	height := vg.Length(rows) * 2.5 * vg.Inch
	img := vgimg.New(width, height)
	dc := draw.New(img)

	t := draw.Tiles{
		Rows:      rows,
		Cols:      plotColumns,
		PadX:      vg.Millimeter,
		PadY:      3 * vg.Millimeter,
		PadTop:    2 * vg.Millimeter,
		PadBottom: 2 * vg.Millimeter,
		PadLeft:   2 * vg.Millimeter,
		PadRight:  2 * vg.Millimeter,
	}
	canvases := plot.Align(plots, t, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (h *Histogram) chromPlot(chrom string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "chr." + Label(chrom)

	counts := h.counts[chrom]
	vals := make(plotter.Values, len(counts))
	labels := make([]string, len(counts))
	for i, n := range counts {
		vals[i] = float64(n)
		labels[i] = fmt.Sprintf("%.0fm", float64(h.BinStart(chrom, i))/1e6)
	}

	bars, err := plotter.NewBarChart(vals, vg.Points(3))
	if err != nil {
		return nil, fmt.Errorf("bar chart for chr.%s: %w", Label(chrom), err)
	}
	bars.LineStyle.Width = 0
	bars.Color = plotutil.Color(0)
	p.Add(bars)

	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.Font.Size = vg.Points(5)
	p.Y.Min = 0
	return p, nil
}
