package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/viktsys/varbreach/risk"
	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	DefaultDPI      = 150
	DefaultHistBins = 60
	defaultWidth    = 8 * vg.Inch
	defaultHeight   = 5 * vg.Inch
	dateTickFormat  = "2006-01"
)

var (
	priceColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	varColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	returnColor = color.RGBA{R: 127, G: 127, B: 127, A: 255}
	breachColor = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Renderer writes the backtest charts as PNG files into Dir.
type Renderer struct {
	Dir      string
	DPI      int
	HistBins int
	logger   *zap.Logger
}

func NewRenderer(dir string, logger *zap.Logger) *Renderer {
	return &Renderer{Dir: dir, DPI: DefaultDPI, HistBins: DefaultHistBins, logger: logger}
}

// RenderAll draws every chart that has data and returns the written paths.
func (r *Renderer) RenderAll(res *risk.Result) ([]string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}

	steps := []struct {
		name string
		draw func(*risk.Result) (*plot.Plot, error)
	}{
		{"01_close_price.png", r.closePrice},
		{"02_returns_hist.png", r.returnsHistogram},
		{fmt.Sprintf("03_rolling_vol_%dd.png", res.Params.VolWindow), r.rollingVolatility},
		{fmt.Sprintf("04_var_breaches_%dd.png", res.Params.Window), r.varBreaches},
	}

	var written []string
	for _, step := range steps {
		p, err := step.draw(res)
		if err != nil {
			return written, fmt.Errorf("draw %s: %w", step.name, err)
		}
		if p == nil {
			r.logger.Warn("no data for chart, skipping", zap.String("chart", step.name))
			continue
		}

		path := filepath.Join(r.Dir, step.name)
		if err := r.save(p, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	c := vgimg.NewWith(vgimg.UseWH(defaultWidth, defaultHeight), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func newTimePlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Trade Date"
	p.Y.Label.Text = ylabel
	p.X.Tick.Marker = plot.TimeTicks{Format: dateTickFormat}
	p.Add(plotter.NewGrid())
	return p
}

func xy(t time.Time, v float64) plotter.XY {
	return plotter.XY{X: float64(t.Unix()), Y: v}
}

func (r *Renderer) closePrice(res *risk.Result) (*plot.Plot, error) {
	if len(res.Prices) == 0 {
		return nil, nil
	}

	pts := make(plotter.XYs, len(res.Prices))
	for i, o := range res.Prices {
		pts[i] = xy(o.Date, o.Price)
	}

	p := newTimePlot("Close Price", "Close Price")
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = priceColor
	p.Add(line)
	return p, nil
}

func (r *Renderer) returnsHistogram(res *risk.Result) (*plot.Plot, error) {
	if len(res.Returns) == 0 {
		return nil, nil
	}

	values := make(plotter.Values, len(res.Returns))
	for i, o := range res.Returns {
		values[i] = o.Return
	}

	bins := r.HistBins
	if bins <= 0 {
		bins = DefaultHistBins
	}
	if allEqual(values) {
		// a single value has no range to split
		bins = 1
	}

	p := plot.New()
	p.Title.Text = "Daily Returns Histogram"
	p.X.Label.Text = "Daily Return"
	p.Y.Label.Text = "Frequency"

	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, err
	}
	hist.FillColor = priceColor
	p.Add(hist)
	return p, nil
}

func (r *Renderer) rollingVolatility(res *risk.Result) (*plot.Plot, error) {
	if len(res.Volatility) == 0 {
		return nil, nil
	}

	pts := make(plotter.XYs, len(res.Volatility))
	for i, o := range res.Volatility {
		pts[i] = xy(o.Date, o.Value)
	}

	p := newTimePlot(fmt.Sprintf("Rolling Volatility (%dd)", res.Params.VolWindow), "Volatility")
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = priceColor
	p.Add(line)
	return p, nil
}

func (r *Renderer) varBreaches(res *risk.Result) (*plot.Plot, error) {
	if len(res.Flags) == 0 {
		return nil, nil
	}

	s := res.Summary
	p := newTimePlot(
		fmt.Sprintf("VaR vs Returns | Breach%%=%.2f%% (Expected~%.0f%%)", s.BreachPct, s.ExpectedBreachPct),
		"Return")

	varPts := make(plotter.XYs, len(res.Flags))
	retPts := make(plotter.XYs, len(res.Flags))
	var breachPts plotter.XYs
	for i, f := range res.Flags {
		varPts[i] = xy(f.Date, f.Threshold)
		retPts[i] = xy(f.Date, f.Return)
		if f.Breached {
			breachPts = append(breachPts, xy(f.Date, f.Return))
		}
	}

	varLine, err := plotter.NewLine(varPts)
	if err != nil {
		return nil, err
	}
	varLine.Color = varColor
	varLine.Width = vg.Points(1.2)

	retLine, err := plotter.NewLine(retPts)
	if err != nil {
		return nil, err
	}
	retLine.Color = returnColor
	retLine.Width = vg.Points(0.8)

	p.Add(retLine, varLine)
	p.Legend.Add(fmt.Sprintf("VaR %d%% (%dd)", int(math.Round(res.Params.Confidence*100)), res.Params.Window), varLine)
	p.Legend.Add("Daily Return", retLine)

	if len(breachPts) > 0 {
		scatter, err := plotter.NewScatter(breachPts)
		if err != nil {
			return nil, err
		}
		scatter.GlyphStyle.Shape = draw.CrossGlyph{}
		scatter.GlyphStyle.Color = breachColor
		scatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(scatter)
		p.Legend.Add("Breaches", scatter)
	}
	p.Legend.Top = true
	return p, nil
}

func allEqual(values plotter.Values) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}
