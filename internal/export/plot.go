// Package export renders stored sweeps as images.
package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/tctsim/internal/storage"
)

var ErrNoWaveforms = errors.New("export: no waveforms")

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// Label names a waveform by its grid coordinates.
func Label(w storage.Waveform) string {
	return fmt.Sprintf("%g V, y=%g, z=%g", w.Voltage, w.Lateral, w.Depth)
}

// Waveforms plots current against time in ns. At most limit waveforms are
// drawn, evenly picked across waves; limit <= 0 draws all of them.
func Waveforms(title string, dt float64, waves []storage.Waveform, limit int) (*plot.Plot, error) {
	if len(waves) == 0 {
		return nil, ErrNoWaveforms
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t (ns)"
	p.Y.Label.Text = "I (a.u.)"
	p.Add(plotter.NewGrid())

	for i, w := range pick(waves, limit) {
		pts := make(plotter.XYs, len(w.Current))
		for j, v := range w.Current {
			pts[j].X = float64(j) * dt * 1e9
			pts[j].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", Label(w), err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(Label(w), line)
	}
	p.Legend.Top = true
	return p, nil
}

func pick(waves []storage.Waveform, limit int) []storage.Waveform {
	if limit <= 0 || len(waves) <= limit {
		return waves
	}
	out := make([]storage.Waveform, limit)
	for i := range out {
		out[i] = waves[i*len(waves)/limit]
	}
	return out
}

// Save writes the plot to path; the extension picks the format (png, svg,
// pdf, ...).
func Save(p *plot.Plot, path string) error {
	return p.Save(DefaultWidth, DefaultHeight, path)
}

// Write encodes the plot in format to w.
func Write(p *plot.Plot, w io.Writer, format string) error {
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, strings.TrimPrefix(format, "."))
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// Run plots a stored run into path.
func Run(store *storage.Store, runID, path string, limit int) error {
	meta, err := store.Load(runID)
	if err != nil {
		return err
	}
	waves, err := store.LoadWaveforms(runID)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s (%s)", meta.ID, meta.Scan)
	p, err := Waveforms(title, meta.Dt, waves, limit)
	if err != nil {
		return err
	}
	if filepath.Ext(path) == "" {
		path += ".png"
	}
	return Save(p, path)
}
