package detector

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/san-kum/tctsim/internal/physics"
)

func testDiode(t *testing.T) *PadDiode {
	t.Helper()
	d, err := NewPadDiode(DiodeConfig{
		Thickness:   300,
		Width:       1000,
		Doping:      1e12,
		Temperature: 253,
		Dt:          50e-12,
	})
	if err != nil {
		t.Fatalf("NewPadDiode: %v", err)
	}
	return d
}

func TestNewPadDiodeRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		cfg  DiodeConfig
	}{
		{"zero thickness", DiodeConfig{Width: 1, Doping: 1, Temperature: 300, Dt: 1}},
		{"negative width", DiodeConfig{Thickness: 1, Width: -1, Doping: 1, Temperature: 300, Dt: 1}},
		{"no doping", DiodeConfig{Thickness: 1, Width: 1, Temperature: 300, Dt: 1}},
		{"no temperature", DiodeConfig{Thickness: 1, Width: 1, Doping: 1, Dt: 1}},
		{"no dt", DiodeConfig{Thickness: 1, Width: 1, Doping: 1, Temperature: 300}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPadDiode(tt.cfg)
			if !errors.Is(err, ErrInvalidGeometry) {
				t.Errorf("err = %v, want ErrInvalidGeometry", err)
			}
		})
	}
}

func TestDepletionWidth(t *testing.T) {
	d := testDiode(t)
	vfd := d.FullDepletionVoltage()
	if vfd < 60 || vfd > 80 {
		t.Fatalf("full depletion voltage = %g V, expected about 68 V", vfd)
	}

	tests := []struct {
		name string
		bias float64
		want float64
	}{
		{"zero bias", 0, 0},
		{"quarter", vfd / 4, 150},
		{"full", vfd, 300},
		{"over", 2 * vfd, 300},
		{"reverse sign", -vfd / 4, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d.SetBias(tt.bias)
			if err := d.CalculateFields(); err != nil {
				t.Fatal(err)
			}
			if math.Abs(d.DepletionWidth()-tt.want) > 1e-6 {
				t.Errorf("DepletionWidth() = %g, want %g", d.DepletionWidth(), tt.want)
			}
		})
	}
}

func TestFieldProfile(t *testing.T) {
	d := testDiode(t)
	d.SetBias(d.FullDepletionVoltage() / 4)
	if err := d.CalculateFields(); err != nil {
		t.Fatal(err)
	}

	e0, w := d.Evaluate(physics.Vec2{X: 500, Y: 0})
	e1, _ := d.Evaluate(physics.Vec2{X: 500, Y: 100})
	eOut, _ := d.Evaluate(physics.Vec2{X: 500, Y: 200})

	if e0.X != 0 || e0.Y <= e1.Y || e1.Y <= 0 {
		t.Errorf("field not decreasing along depth: E(0)=%v E(100)=%v", e0, e1)
	}
	if eOut != (physics.Vec2{}) {
		t.Errorf("field outside depletion = %v, want zero", eOut)
	}
	if math.Abs(w.Y-1.0/300) > 1e-15 || w.X != 0 {
		t.Errorf("weighting field = %v", w)
	}
}

func TestFieldsRequireCalculation(t *testing.T) {
	d := testDiode(t)
	d.SetBias(100)
	if d.Ready() {
		t.Fatal("fields reported ready before CalculateFields")
	}
	e, _ := d.Evaluate(physics.Vec2{X: 1, Y: 1})
	if e != (physics.Vec2{}) {
		t.Errorf("stale evaluation returned %v", e)
	}
}

func TestTrappingDisabled(t *testing.T) {
	d := testDiode(t)
	if !math.IsInf(d.TrappingTime(), 1) {
		t.Errorf("TrappingTime() = %g, want +Inf", d.TrappingTime())
	}
	d.Trapping = 3e-9
	if d.TrappingTime() != 3e-9 {
		t.Errorf("TrappingTime() = %g", d.TrappingTime())
	}
}

func TestBoundsContains(t *testing.T) {
	b := Bounds{XMin: 0, XMax: 10, YMin: 0, YMax: 5}
	tests := []struct {
		p    physics.Vec2
		want bool
	}{
		{physics.Vec2{X: 5, Y: 2}, true},
		{physics.Vec2{X: 0, Y: 0}, true},
		{physics.Vec2{X: 10, Y: 5}, true},
		{physics.Vec2{X: -0.1, Y: 2}, false},
		{physics.Vec2{X: 5, Y: 5.1}, false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

// countingProbe records the peak number of concurrent Evaluate calls.
type countingProbe struct {
	mu        sync.Mutex
	active    int
	peak      int
	reentrant bool
}

func (p *countingProbe) Evaluate(pos physics.Vec2) (physics.Vec2, physics.Vec2) {
	p.mu.Lock()
	p.active++
	if p.active > p.peak {
		p.peak = p.active
	}
	p.mu.Unlock()

	for i := 0; i < 1000; i++ {
		_ = math.Sqrt(float64(i))
	}

	p.mu.Lock()
	p.active--
	p.mu.Unlock()
	return physics.Vec2{}, physics.Vec2{}
}

func (p *countingProbe) ReentrantReads() bool { return p.reentrant }

func TestGuardSerializesNonReentrantProbes(t *testing.T) {
	g := NewFieldGuard()
	p := &countingProbe{}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				g.Evaluate(p, physics.Vec2{})
			}
		}()
	}
	wg.Wait()

	if p.peak != 1 {
		t.Errorf("peak concurrent evaluations = %d, want 1", p.peak)
	}
}

func TestGuardRecompute(t *testing.T) {
	g := NewFieldGuard()
	d := testDiode(t)

	if err := g.Recompute(d, 50); err != nil {
		t.Fatal(err)
	}
	if d.Bias() != 50 || !d.Ready() {
		t.Errorf("bias=%g ready=%v after Recompute", d.Bias(), d.Ready())
	}
	e, _ := g.Evaluate(d, physics.Vec2{X: 1, Y: 1})
	if e.Y <= 0 {
		t.Errorf("guarded evaluation = %v", e)
	}
}
