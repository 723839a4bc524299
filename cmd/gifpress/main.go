package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gifpress/gifpress"
	"github.com/gifpress/gifpress/utils"
)

const HelpBanner = `
┌─┐┬┌─┐┌─┐┬─┐┌─┐┌─┐┌─┐
│ ┬│├┤ ├─┘├┬┘├┤ └─┐└─┐
└─┘┴┴  ┴  ┴└─└─┘└─┘└─┘

GIF size-targeting compression tool.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source         = flag.String("in", pipeName, "Source")
	destination    = flag.String("out", "", "Destination (default: <name>_compressed.gif next to the source)")
	targetSize     = flag.String("size", "1MB", "Target size, e.g. 1MB or 800KB")
	maxAttempts    = flag.Int("attempts", gifpress.DefaultMaxAttempts, "Maximum number of compression attempts")
	minColors      = flag.Int("min-colors", 2, "Palette floor; the search never tries fewer colors")
	minScale       = flag.Float64("min-scale", 0, "Scale floor in (0,1]; the search never downsizes below it")
	forceScale     = flag.Bool("force-scale", false, "Sweep the scale levels from the first pass on")
	sampleRate     = flag.Float64("sample-rate", 1, "Fraction of frames retained, in (0,1]")
	durationFactor = flag.Float64("duration-factor", 1, "Multiplier applied to every frame delay")
	crop           = flag.String("crop", "", "Pixel margins trimmed off the canvas: left,top,right,bottom")
	preset         = flag.String("preset", "", "YAML preset file with compression options")
	workers        = flag.Int("conc", 0, "Number of files processed concurrently in batch mode (0 = auto)")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	proc := &gifpress.Processor{}

	if *preset != "" {
		pr, err := gifpress.LoadPreset(*preset)
		if err == nil {
			err = pr.Apply(proc)
		}
		if err != nil {
			log.Fatalf(utils.DecorateText(fmt.Sprintf("Unable to apply the preset: %v", err), utils.ErrorMessage))
		}
	}

	// Flags given explicitly on the command line override the preset.
	var flagErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size":
			size, err := utils.ParseSize(*targetSize)
			if err != nil {
				flagErr = err
				return
			}
			proc.TargetSize = size
		case "attempts":
			proc.MaxAttempts = *maxAttempts
		case "min-colors":
			proc.MinColors = *minColors
		case "min-scale":
			proc.MinScale = *minScale
		case "force-scale":
			proc.ForceScaling = *forceScale
		case "sample-rate":
			proc.SampleRate = *sampleRate
		case "duration-factor":
			proc.DurationFactor = *durationFactor
		case "crop":
			spec, err := parseCrop(*crop)
			if err != nil {
				flagErr = err
				return
			}
			proc.Crop = spec
		}
	})
	if flagErr != nil {
		log.Fatalf(utils.DecorateText(fmt.Sprintf("Invalid option: %v", flagErr), utils.ErrorMessage))
	}

	op := &gifpress.Ops{
		Src:      *source,
		Dst:      defaultOutput(*source, *destination),
		PipeName: pipeName,
		Workers:  *workers,
	}
	proc.Execute(op)
}

// parseCrop converts the "left,top,right,bottom" flag value to a crop spec.
func parseCrop(s string) (*gifpress.CropSpec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("the crop option expects 4 margins, got %d", len(parts))
	}

	margins := make([]int, 4)
	for i, part := range parts {
		m, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid crop margin %q", part)
		}
		if m < 0 {
			return nil, fmt.Errorf("crop margins should not be negative, got %d", m)
		}
		margins[i] = m
	}
	return &gifpress.CropSpec{Left: margins[0], Top: margins[1], Right: margins[2], Bottom: margins[3]}, nil
}

// defaultOutput derives the destination when the -out flag is omitted: a
// pipe stays a pipe, a directory is compressed in place and a single file
// gets the _compressed suffix next to the source.
func defaultOutput(src, dst string) string {
	if dst != "" {
		return dst
	}
	if src == pipeName {
		return pipeName
	}

	name := src
	if utils.IsValidUrl(src) {
		if u, err := url.Parse(src); err == nil {
			name = filepath.Base(u.Path)
		}
	} else if fi, err := os.Stat(src); err == nil && fi.IsDir() {
		return src
	}

	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "_compressed" + ext
}
