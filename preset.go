package gifpress

import (
	"fmt"
	"os"

	"github.com/gifpress/gifpress/utils"
	"gopkg.in/yaml.v3"
)

// Preset is a reusable compression profile loaded from a YAML file, so a
// recurring setup does not have to be re-spelled as command line flags.
type Preset struct {
	TargetSize     string  `yaml:"target_size"`
	MaxAttempts    int     `yaml:"max_attempts"`
	MinColors      int     `yaml:"min_colors"`
	MinScale       float64 `yaml:"min_scale"`
	ForceScaling   bool    `yaml:"force_scaling"`
	SampleRate     float64 `yaml:"frame_sample_rate"`
	DurationFactor float64 `yaml:"duration_factor"`
	Crop           []int   `yaml:"crop"` // left, top, right, bottom
}

// LoadPreset reads and parses a compression profile.
func LoadPreset(path string) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read the preset file: %w", err)
	}

	preset := &Preset{}
	if err := yaml.Unmarshal(data, preset); err != nil {
		return nil, fmt.Errorf("unable to parse the preset file: %w", err)
	}
	return preset, nil
}

// Apply copies the preset values onto the processor. Only the fields
// actually present in the preset override the processor's current options.
func (pr *Preset) Apply(p *Processor) error {
	if pr.TargetSize != "" {
		size, err := utils.ParseSize(pr.TargetSize)
		if err != nil {
			return err
		}
		p.TargetSize = size
	}
	if pr.MaxAttempts > 0 {
		p.MaxAttempts = pr.MaxAttempts
	}
	if pr.MinColors > 0 {
		p.MinColors = pr.MinColors
	}
	if pr.MinScale > 0 {
		p.MinScale = pr.MinScale
	}
	if pr.ForceScaling {
		p.ForceScaling = true
	}
	if pr.SampleRate > 0 {
		p.SampleRate = pr.SampleRate
	}
	if pr.DurationFactor > 0 {
		p.DurationFactor = pr.DurationFactor
	}
	if len(pr.Crop) > 0 {
		if len(pr.Crop) != 4 {
			return fmt.Errorf("the crop option expects 4 margins, got %d", len(pr.Crop))
		}
		p.Crop = &CropSpec{Left: pr.Crop[0], Top: pr.Crop[1], Right: pr.Crop[2], Bottom: pr.Crop[3]}
	}
	return nil
}
