package gifpress

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParams_ColorLevels(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]int{256, 192, 128, 96, 64, 32}, buildColorLevels(2))
	assert.Equal([]int{256, 192, 128}, buildColorLevels(100))
	assert.Equal([]int{256}, buildColorLevels(256))

	// A floor above every fixed level degenerates to the floor itself.
	assert.Equal([]int{300}, buildColorLevels(300))
}

func TestParams_ScaleLevels(t *testing.T) {
	assert := assert.New(t)

	assert.Equal([]float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4}, buildScaleLevels(0))
	assert.Equal([]float64{1.0, 0.9, 0.8}, buildScaleLevels(0.75))
	assert.Equal([]float64{0.95}, buildScaleLevels(0.95))
}

func TestParams_ComboOrdering(t *testing.T) {
	assert := assert.New(t)

	colors := buildColorLevels(2)
	combos := buildCombos([]float64{1.0}, qualityLevels, colors)

	assert.Len(combos, len(qualityLevels)*len(colors))

	// The gentlest combination always comes first.
	assert.Equal(EncodeSettings{Quality: 0, Colors: 256, Scale: 1.0}, combos[0])

	// Colors shrink before the quality level steps up.
	assert.Equal(EncodeSettings{Quality: 0, Colors: 192, Scale: 1.0}, combos[1])
	assert.Equal(EncodeSettings{Quality: 30, Colors: 256, Scale: 1.0}, combos[len(colors)])

	for _, c := range combos {
		assert.Equal(1.0, c.Scale)
	}
}

func TestParams_ScalePassCombos(t *testing.T) {
	assert := assert.New(t)

	scales := buildScaleLevels(0)
	colors := buildColorLevels(2)
	combos := buildCombos(scales[1:], scalePassQualities, colors)

	assert.Len(combos, (len(scales)-1)*len(scalePassQualities)*len(colors))
	for _, c := range combos {
		assert.Less(c.Scale, 1.0)
	}
	assert.Equal(EncodeSettings{Quality: 60, Colors: 256, Scale: 0.9}, combos[0])
}

func TestParams_SettingsString(t *testing.T) {
	s := EncodeSettings{Quality: 60, Colors: 128, Scale: 0.5}
	assert.Equal(t, "Lossy: 60, Colors: 128, Scale: 0.5", s.String())
}
