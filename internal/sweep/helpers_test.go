package sweep_test

import (
	"math"

	"github.com/san-kum/tctsim/internal/physics"
)

func nanField() physics.Vec2 {
	return physics.Vec2{Y: math.NaN()}
}
