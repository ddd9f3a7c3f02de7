package ensemble

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/tctsim/internal/physics"
)

// Distribution is the charge-weighted histogram of initial positions of
// one carrier kind, shifted by (shiftX, shiftY), over the detector bounds.
// Rows run along y, columns along x. Carriers outside the bounds are not
// counted.
func (e *Ensemble) Distribution(kind physics.Kind, nx, ny int, shiftX, shiftY float64) (*mat.Dense, error) {
	if nx < 1 || ny < 1 {
		return nil, fmt.Errorf("ensemble: histogram needs positive bins, got %dx%d", nx, ny)
	}
	if e.env.Detector == nil {
		return nil, errors.New("ensemble: no detector")
	}

	b := e.env.Detector.Bounds()
	h := mat.NewDense(ny, nx, nil)
	wx := b.Width() / float64(nx)
	wy := b.Depth() / float64(ny)

	for _, c := range e.carriers {
		if c.Kind != kind {
			continue
		}
		p := c.Init.Add(physics.Vec2{X: shiftX, Y: shiftY})
		if !b.Contains(p) {
			continue
		}
		col := min(int((p.X-b.XMin)/wx), nx-1)
		row := min(int((p.Y-b.YMin)/wy), ny-1)
		h.Set(row, col, h.At(row, col)+c.Charge)
	}
	return h, nil
}
