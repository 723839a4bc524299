package gifpress

import "fmt"

// The progressive compression levels swept by the search. Quality grows in
// aggressiveness (0 is lossless-equivalent), colors and scale shrink, so the
// gentlest combinations are always attempted first.
var (
	qualityLevels = []int{0, 30, 60, 90, 120, 150, 200}
	colorLevels   = []int{256, 192, 128, 96, 64, 32}
	scaleLevels   = []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4}

	// The more aggressive quality subset used by the scale sweep pass.
	scalePassQualities = []int{60, 120, 200}
)

// EncodeSettings is one candidate parameter combination handed to the
// encoder. Two settings are only ever compared through the byte size of the
// artifact they produce, never field by field.
type EncodeSettings struct {
	Quality int
	Colors  int
	Scale   float64
}

// String describes the settings the way they are reported on an improvement.
func (s EncodeSettings) String() string {
	return fmt.Sprintf("Lossy: %d, Colors: %d, Scale: %g", s.Quality, s.Colors, s.Scale)
}

// buildColorLevels filters the fixed color list down to the values above the
// caller floor. An over-restrictive floor degenerates to the floor itself so
// the search space never ends up empty.
func buildColorLevels(minColors int) []int {
	levels := make([]int, 0, len(colorLevels))
	for _, c := range colorLevels {
		if c >= minColors {
			levels = append(levels, c)
		}
	}
	if len(levels) == 0 {
		levels = []int{minColors}
	}
	return levels
}

// buildScaleLevels filters the fixed scale list the same way buildColorLevels does.
func buildScaleLevels(minScale float64) []float64 {
	levels := make([]float64, 0, len(scaleLevels))
	for _, s := range scaleLevels {
		if s >= minScale {
			levels = append(levels, s)
		}
	}
	if len(levels) == 0 {
		levels = []float64{minScale}
	}
	return levels
}

// buildCombos materializes the ordered cartesian space scale x quality x
// colors. Keeping the combinations in one flat slice lets the search driver
// stop on the first satisfying result without multi-level break logic.
func buildCombos(scales []float64, qualities, colors []int) []EncodeSettings {
	combos := make([]EncodeSettings, 0, len(scales)*len(qualities)*len(colors))
	for _, sc := range scales {
		for _, q := range qualities {
			for _, c := range colors {
				combos = append(combos, EncodeSettings{Quality: q, Colors: c, Scale: sc})
			}
		}
	}
	return combos
}
