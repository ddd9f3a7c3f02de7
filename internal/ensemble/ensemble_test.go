package ensemble

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/tctsim/internal/carrier"
	"github.com/san-kum/tctsim/internal/detector"
	"github.com/san-kum/tctsim/internal/physics"
)

func uniform(field float64) *detector.Uniform {
	return &detector.Uniform{
		Field:     physics.Vec2{Y: field},
		Weighting: physics.Vec2{Y: 1.0 / 300},
		Depleted:  300,
		Region:    detector.Bounds{XMin: -500, XMax: 500, YMin: -1, YMax: 300},
		Temp:      253,
	}
}

func load(t *testing.T, e *Ensemble, records string) {
	t.Helper()
	if err := e.Load(strings.NewReader(records)); err != nil {
		t.Fatalf("Load: %v", err)
	}
}

func TestZeroFieldPair(t *testing.T) {
	e := New(uniform(0), detector.NewFieldGuard())
	load(t, e, "e 1 0 0 0\nh 1 0 0 0\n")

	cur, err := e.SimulateDrift(1, 3, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(cur.Electron) != 3 || len(cur.Hole) != 3 {
		t.Fatalf("lengths = %d, %d, want 3", len(cur.Electron), len(cur.Hole))
	}
	for i := 0; i < 3; i++ {
		if cur.Electron[i] != 0 || cur.Hole[i] != 0 {
			t.Errorf("sample %d: e=%g h=%g, want 0", i, cur.Electron[i], cur.Hole[i])
		}
	}
	if cur.Crossings != 0 {
		t.Errorf("crossings = %d, want 0", cur.Crossings)
	}
}

func TestCentroidAndCounts(t *testing.T) {
	e := New(uniform(0), nil)
	load(t, e, "e 1 0 10 0\nh 1 4 20 0\nh 1 2 30 0\n")

	if c := e.Centroid(); c != (physics.Vec2{X: 2, Y: 20}) {
		t.Errorf("Centroid() = %v", c)
	}
	el, ho := e.Counts()
	if el != 1 || ho != 2 || e.Len() != 3 {
		t.Errorf("counts = %d electrons, %d holes, len %d", el, ho, e.Len())
	}
}

func TestLoadFailureLeavesEnsembleUnchanged(t *testing.T) {
	e := New(uniform(0), nil)
	load(t, e, "e 1 0 10 0\n")

	if err := e.Load(strings.NewReader("h 1 0 0 0\nbad\n")); err == nil {
		t.Fatal("expected parse error")
	}
	if e.Len() != 1 || e.Centroid() != (physics.Vec2{X: 0, Y: 10}) {
		t.Errorf("ensemble modified by failed load: len %d centroid %v", e.Len(), e.Centroid())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "carriers.txt")
	if err := os.WriteFile(path, []byte("h 1 1 1 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	e := New(uniform(0), nil)
	if err := e.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if e.Len() != 1 {
		t.Errorf("Len() = %d", e.Len())
	}
	if err := e.LoadFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSuperposition(t *testing.T) {
	det := uniform(0.05)
	one := New(det, nil)
	load(t, one, "h 1 0 100 0\n")
	two := New(det, nil)
	load(t, two, "h 1 0 100 0\nh 1 0 100 0\n")

	a, err := one.SimulateDrift(1e-11, 1e-9, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := two.SimulateDrift(1e-11, 1e-9, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Hole {
		if math.Abs(b.Hole[i]-2*a.Hole[i]) > 1e-12*math.Abs(a.Hole[i]) {
			t.Fatalf("sample %d: two carriers %g, one carrier %g", i, b.Hole[i], a.Hole[i])
		}
	}
}

func TestTrappingDecay(t *testing.T) {
	free := uniform(0.05)
	trapped := uniform(0.05)
	trapped.Trapping = 2e-10
	records := "e 1 0 200 0\nh 1 0 100 0\n"

	a := New(free, nil)
	load(t, a, records)
	b := New(trapped, nil)
	load(t, b, records)

	ca, err := a.SimulateDrift(1e-11, 5e-10, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	cb, err := b.SimulateDrift(1e-11, 5e-10, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	for i := range ca.Electron {
		f := math.Exp(-float64(i) * 1e-11 / 2e-10)
		if math.Abs(cb.Electron[i]-ca.Electron[i]*f) > 1e-12*math.Abs(ca.Electron[i]) {
			t.Errorf("electron sample %d: %g, want %g", i, cb.Electron[i], ca.Electron[i]*f)
		}
		if math.Abs(cb.Hole[i]-ca.Hole[i]*f) > 1e-12*math.Abs(ca.Hole[i]) {
			t.Errorf("hole sample %d: %g, want %g", i, cb.Hole[i], ca.Hole[i]*f)
		}
	}
	if ca.Electron[0] != cb.Electron[0] {
		t.Error("decay must leave the first sample untouched")
	}
}

func TestDecayInfiniteTau(t *testing.T) {
	for i, f := range Decay(5, 1, math.Inf(1)) {
		if f != 1 {
			t.Errorf("Decay[%d] = %g, want 1", i, f)
		}
	}
}

func TestTotal(t *testing.T) {
	c := Currents{Electron: []float64{1, 2}, Hole: []float64{0.5, -2}}
	got := c.Total()
	if got[0] != 1.5 || got[1] != 0 {
		t.Errorf("Total() = %v", got)
	}
	if c.Electron[0] != 1 {
		t.Error("Total modified the electron accumulator")
	}
}

type constantNormal float64

func (c constantNormal) NormFloat64() float64 { return float64(c) }

func TestCrossingsBounded(t *testing.T) {
	det := uniform(0.05)
	det.Depleted = 100
	det.Diffusion = true

	var records strings.Builder
	for i := 0; i < 10; i++ {
		records.WriteString("e 1 0 101 0\n")
	}
	records.WriteString("h 1 0 50 0\n")

	tests := []struct {
		name string
		draw float64
		want int
	}{
		{"toward junction", -1, 10},
		{"away from junction", 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(det, detector.NewFieldGuard(), WithRand(func(int64) carrier.Normal { return constantNormal(tt.draw) }))
			load(t, e, records.String())

			cur, err := e.SimulateDrift(1e-11, 1e-9, 0, 0)
			if err != nil {
				t.Fatal(err)
			}
			if cur.Crossings != tt.want {
				t.Errorf("crossings = %d, want %d", cur.Crossings, tt.want)
			}
			if cur.Crossings < 0 || cur.Crossings > e.Len() {
				t.Errorf("crossings %d outside [0, %d]", cur.Crossings, e.Len())
			}
		})
	}
}

func TestDeterministicWithDiffusion(t *testing.T) {
	det := uniform(0.02)
	det.Depleted = 100
	det.Diffusion = true
	records := "e 1 0 102 0\ne 1 5 103 0\nh 1 0 50 0\n"

	run := func() Currents {
		e := New(det, detector.NewFieldGuard(), WithSeed(42))
		load(t, e, records)
		cur, err := e.SimulateDrift(1e-11, 1e-9, 3, 0)
		if err != nil {
			t.Fatal(err)
		}
		return cur
	}

	a, b := run(), run()
	for i := range a.Electron {
		if a.Electron[i] != b.Electron[i] || a.Hole[i] != b.Hole[i] {
			t.Fatalf("sample %d differs between runs", i)
		}
	}
	if a.Crossings != b.Crossings {
		t.Errorf("crossings differ: %d vs %d", a.Crossings, b.Crossings)
	}
}

func BenchmarkSimulateDrift(b *testing.B) {
	e := New(uniform(0.05), detector.NewFieldGuard())
	var records strings.Builder
	for i := 0; i < 100; i++ {
		records.WriteString("e 1 0 150 0\nh 1 0 150 0\n")
	}
	if err := e.Load(strings.NewReader(records.String())); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.SimulateDrift(5e-11, 10e-9, 0, 0); err != nil {
			b.Fatal(err)
		}
	}
}
