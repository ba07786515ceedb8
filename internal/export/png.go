package export

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/motorstart/internal/metrics"
	"github.com/san-kum/motorstart/internal/viz"
)

const (
	gridRows = 3
	gridCols = 2
	chartDPI = 150
)

type trace struct {
	name string
	ys   []float64
}

var (
	primary   = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	secondary = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
)

func panel(title, ylabel string, xs []float64, traces ...trace) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for i, tr := range traces {
		pts := make(plotter.XYs, min(len(xs), len(tr.ys)))
		for j := range pts {
			pts[j].X = xs[j]
			pts[j].Y = tr.ys[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", title, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.Color = primary
		if i > 0 {
			line.Color = secondary
			line.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		}
		p.Add(line)
		if len(traces) > 1 {
			p.Legend.Add(tr.name, line)
		}
	}
	if len(traces) > 1 {
		p.Legend.Top = true
	}
	return p, nil
}

func gridPlots(s *metrics.Series) ([][]*plot.Plot, error) {
	specs := []struct {
		title, ylabel string
		traces        []trace
	}{
		{"Motor Speed", "Speed (RPM)", []trace{{"speed", s.SpeedRPM}}},
		{"Motor Current", "Current (A)", []trace{{"current", s.Current}}},
		{"Torque", "Torque (N·m)", []trace{{"motor", s.Torque}, {"load", s.LoadTorque}}},
		{"Power", "Power (kW)", []trace{{"in", s.PowerIn}, {"out", s.PowerOut}}},
		{"Efficiency", "Efficiency (%)", []trace{{"efficiency", s.Efficiency}}},
		{"Supply", "Frequency (Hz)", []trace{{"frequency", s.Frequency}}},
	}

	plots := make([][]*plot.Plot, gridRows)
	for r := range plots {
		plots[r] = make([]*plot.Plot, gridCols)
	}
	for i, sp := range specs {
		p, err := panel(sp.title, sp.ylabel, s.Time, sp.traces...)
		if err != nil {
			return nil, err
		}
		plots[i/gridCols][i%gridCols] = p
	}
	return plots, nil
}

// WriteChartGrid renders speed, current, torque, power, efficiency and
// supply frequency panels of a run as one PNG.
func WriteChartGrid(w io.Writer, s *metrics.Series) error {
	if s.Len() < 2 {
		return fmt.Errorf("chart grid: need at least two samples, got %d", s.Len())
	}
	plots, err := gridPlots(s)
	if err != nil {
		return err
	}

	img := vgimg.NewWith(
		vgimg.UseWH(14*vg.Inch, 12*vg.Inch),
		vgimg.UseDPI(chartDPI),
	)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      gridRows,
		Cols:      gridCols,
		PadX:      vg.Millimeter * 4,
		PadY:      vg.Millimeter * 4,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}

	canvases := plot.Align(plots, tiles, dc)
	for r := range plots {
		for c := range plots[r] {
			plots[r][c].Draw(canvases[r][c])
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	_, err = png.WriteTo(w)
	return err
}

// WriteComparison overlays one column of several runs on a single PNG.
func WriteComparison(w io.Writer, names []string, series []*metrics.Series, column string) error {
	col, err := viz.LookupColumn(column)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = col.Label
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = col.Label
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	for i, s := range series {
		ys := col.Get(s)
		pts := make(plotter.XYs, min(s.Len(), len(ys)))
		for j := range pts {
			pts[j].X = s.Time[j]
			pts[j].Y = ys[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("%s: %w", names[i], err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}

	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}

func ExportChartGrid(path string, s *metrics.Series) error {
	return writeFile(path, func(w io.Writer) error { return WriteChartGrid(w, s) })
}

func ExportComparison(path string, names []string, series []*metrics.Series, column string) error {
	return writeFile(path, func(w io.Writer) error { return WriteComparison(w, names, series, column) })
}
