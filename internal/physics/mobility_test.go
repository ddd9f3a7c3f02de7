package physics

import (
	"math"
	"testing"
)

func TestMobilityLowField(t *testing.T) {
	tests := []struct {
		kind Kind
		want float64
	}{
		{Electron, 1530 * Centimeter * Centimeter},
		{Hole, 464 * Centimeter * Centimeter},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			m := NewMobility(tt.kind, 300)
			if got := m.At(0); math.Abs(got-tt.want)/tt.want > 1e-12 {
				t.Errorf("At(0) = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestMobilityMonotoneAndFinite(t *testing.T) {
	for _, kind := range []Kind{Electron, Hole} {
		for _, temp := range []float64{77, 253, 300, 400} {
			m := NewMobility(kind, temp)
			prevMu := math.Inf(1)
			prevV := 0.0
			for e := 0.0; e <= 100; e += 0.05 {
				mu := m.At(e)
				if mu < 0 || math.IsNaN(mu) || math.IsInf(mu, 0) {
					t.Fatalf("%s T=%g: At(%g) = %g", kind, temp, e, mu)
				}
				if mu > prevMu {
					t.Fatalf("%s T=%g: mobility increased at E=%g", kind, temp, e)
				}
				v := m.Velocity(e)
				if v < prevV-1e-9*prevV {
					t.Fatalf("%s T=%g: velocity decreased at E=%g", kind, temp, e)
				}
				prevMu, prevV = mu, v
			}
		}
	}
}

func TestMobilitySaturates(t *testing.T) {
	m := NewMobility(Electron, 300)
	v := m.Velocity(1e3)
	if math.Abs(v-m.Saturation())/m.Saturation() > 0.05 {
		t.Errorf("velocity at high field = %g, want close to vsat %g", v, m.Saturation())
	}

	huge := m.At(math.MaxFloat64)
	if huge < 0 || math.IsNaN(huge) || math.IsInf(huge, 0) {
		t.Errorf("At(MaxFloat64) = %g", huge)
	}
}

func TestDiffusionConstantEinstein(t *testing.T) {
	for _, kind := range []Kind{Electron, Hole} {
		m := NewMobility(kind, 300)
		for _, e := range []float64{0, 0.5, 5} {
			want := m.At(e) * ThermalVoltage(300)
			if got := m.DiffusionConstant(e); got != want {
				t.Errorf("%s: D(%g) = %g, want %g", kind, e, got, want)
			}
		}
		if m.DiffusionConstant(5) >= m.DiffusionConstant(0) {
			t.Errorf("%s: diffusion should shrink at high field", kind)
		}
	}
}

func TestMobilityNegativeField(t *testing.T) {
	m := NewMobility(Hole, 253)
	if m.At(-2) != m.At(2) {
		t.Error("mobility should depend on field magnitude only")
	}
}

func TestKind(t *testing.T) {
	if Electron.Sign() != -1 || Hole.Sign() != 1 {
		t.Error("unexpected carrier signs")
	}
	k, err := ParseKind("h")
	if err != nil || k != Hole {
		t.Errorf("ParseKind(h) = %v, %v", k, err)
	}
	if _, err := ParseKind("x"); err == nil {
		t.Error("expected error for unknown carrier type")
	}
}

func TestVec2(t *testing.T) {
	v := Vec2{3, 4}
	if v.Norm() != 5 {
		t.Errorf("Norm = %g", v.Norm())
	}
	if v.Dot(Vec2{1, 1}) != 7 {
		t.Errorf("Dot = %g", v.Dot(Vec2{1, 1}))
	}
	if (Vec2{math.NaN(), 0}).IsFinite() {
		t.Error("NaN vector reported finite")
	}
	if !(Vec2{1, -1}).IsFinite() {
		t.Error("finite vector reported non-finite")
	}
}
