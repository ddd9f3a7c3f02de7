package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Waveform plots a current pulse. Flat inputs render as a single labeled
// line since asciigraph has no range to scale.
func Waveform(wave []float64, height, width int, caption string) string {
	if len(wave) == 0 {
		return Subtle.Render("(no samples)")
	}
	flat := true
	for _, v := range wave[1:] {
		if v != wave[0] {
			flat = false
			break
		}
	}
	if flat {
		return fmt.Sprintf("%s\n%s %g", strings.Repeat("─", width), caption, wave[0])
	}
	return asciigraph.Plot(wave,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
