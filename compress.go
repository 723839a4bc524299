package gifpress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gifpress/gifpress/utils"
)

// Default compression targets applied when the caller leaves them unset.
const (
	DefaultTargetSize  = 1 << 20 // 1MB
	DefaultMaxAttempts = 10
)

// Processor options.
type Processor struct {
	// TargetSize is the byte budget the output should fit under.
	TargetSize int64

	// MaxAttempts bounds the number of encode invocations per run.
	MaxAttempts int

	// MinColors is the palette floor in [2, 256]; the search never tries
	// fewer colors than this.
	MinColors int

	// MinScale is the geometry floor in (0, 1]; the search never scales
	// the animation below it. Zero disables the floor.
	MinScale float64

	// ForceScaling moves the scale sweep into the first pass, so scaled
	// attempts are made from the start.
	ForceScaling bool

	// SampleRate keeps every ceil(1/rate)-th frame before the search, in
	// (0, 1]. Zero or one keeps every frame.
	SampleRate float64

	// DurationFactor multiplies every frame delay before the search.
	// Zero or one keeps the original timing.
	DurationFactor float64

	// Crop trims the given pixel margins off the canvas before the search.
	Crop *CropSpec

	// Encoder performs the per-attempt compression. When nil, gifsicle is
	// probed and the built-in quantizer used as fallback.
	Encoder Encoder

	// Spinner is the progress indicator updated on every improvement.
	Spinner *utils.Spinner

	// OnProgress is invoked whenever an attempt improves on the best
	// result so far. Purely informational.
	OnProgress func(attempt int, bestSize int64, settings string)
}

// search carries the per-run state, so one Processor can serve concurrent
// runs with read-only options.
type search struct {
	enc        Encoder
	tr         *tracker
	input      string
	candidate  string
	budget     int
	attempts   int
	spinner    *utils.Spinner
	onProgress func(int, int64, string)
}

// Compress shrinks the animation at the input path until it fits under the
// target size or the attempt budget runs out, writing the best artifact
// produced to the output path. It returns the original and the final byte
// sizes. The final size can stay above the target when the budget or the
// color/scale floors are too conservative to reach it; that is reported
// through the returned size, not as an error.
func (proc *Processor) Compress(in, out string) (int64, int64, error) {
	// Work on a normalized copy so one Processor value can serve several
	// runs concurrently with read-only options.
	p := *proc
	p.normalize()

	fi, err := os.Stat(in)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to read the source file: %w", err)
	}
	origSize := fi.Size()

	// Nothing to do when the source already fits: the output becomes a
	// byte-identical copy and no attempt is spent.
	if origSize <= p.TargetSize {
		if _, err := copyFile(in, out); err != nil {
			return 0, 0, err
		}
		return origSize, origSize, nil
	}

	tmpDir, err := os.MkdirTemp("", "gifpress-")
	if err != nil {
		return 0, 0, err
	}
	defer os.RemoveAll(tmpDir)

	input, err := p.prepareInput(in, tmpDir)
	if err != nil {
		return 0, 0, err
	}

	enc := p.Encoder
	if enc == nil {
		enc, _ = NewEncoder()
	}

	s := &search{
		enc:        enc,
		tr:         newTracker(tmpDir, origSize, p.TargetSize),
		input:      input,
		candidate:  filepath.Join(tmpDir, "attempt.gif"),
		budget:     p.MaxAttempts,
		spinner:    p.Spinner,
		onProgress: p.OnProgress,
	}

	colors := buildColorLevels(p.MinColors)
	scales := buildScaleLevels(p.MinScale)

	// First pass: quality and color reduction, unscaled unless scaling is
	// forced, in which case the scale sweep moves up front.
	passScales := []float64{1.0}
	if p.ForceScaling {
		passScales = scales
	}
	met := s.run(buildCombos(passScales, qualityLevels, colors))

	// Second pass: if still above the target, sweep the downscale levels
	// with the more aggressive quality subset.
	if !met && !p.ForceScaling {
		s.run(buildCombos(scales[1:], scalePassQualities, colors))
	}

	if !s.tr.HasResult() {
		return 0, 0, fmt.Errorf("every compression attempt failed, no output produced")
	}

	finalSize, err := s.tr.Finalize(out)
	if err != nil {
		return 0, 0, err
	}
	return origSize, finalSize, nil
}

// run sweeps one ordered combination list, feeding every produced candidate
// to the tracker. It stops early once the target is met or the attempt
// budget is exhausted; both are ordinary terminations. A failing attempt
// still burns budget but contributes no candidate.
func (s *search) run(combos []EncodeSettings) (targetMet bool) {
	for _, set := range combos {
		if s.attempts >= s.budget {
			return false
		}
		s.attempts++

		if err := s.enc.Encode(s.input, s.candidate, set); err != nil {
			continue
		}
		fi, err := os.Stat(s.candidate)
		if err != nil || fi.Size() == 0 {
			continue
		}

		improved, met, err := s.tr.Offer(s.candidate, fi.Size())
		if err != nil {
			continue
		}
		if improved {
			s.report(set)
		}
		if met {
			return true
		}
	}
	return false
}

// report surfaces a newly adopted best result to the progress observers.
func (s *search) report(set EncodeSettings) {
	if s.spinner != nil {
		s.spinner.SetMessage(fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ GIFPRESS", utils.StatusMessage),
			utils.DecorateText(fmt.Sprintf("⇢ attempt %d: %s (%s)",
				s.attempts, utils.FormatSize(s.tr.BestSize()), set), utils.DefaultMessage),
		))
	}
	if s.onProgress != nil {
		s.onProgress(s.attempts, s.tr.BestSize(), set.String())
	}
}

// prepareInput runs the preprocessing pipeline when any of its options
// deviate from the defaults and materializes the normalized animation next
// to the run's other temp artifacts. With default options the original file
// is handed to the encoder untouched, so gifsicle works on the original
// bytes rather than a re-encoded copy.
func (p *Processor) prepareInput(in, tmpDir string) (string, error) {
	adjust := &FrameAdjustSpec{SampleRate: p.SampleRate, DurationFactor: p.DurationFactor}
	if p.Crop.empty() && adjust.empty() {
		return in, nil
	}

	anim, err := DecodeAnimationFile(in)
	if err != nil {
		return "", err
	}
	anim = preprocess(anim, p.Crop, adjust)

	path := filepath.Join(tmpDir, "normalized.gif")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := EncodeAnimation(f, anim, 256, true); err != nil {
		return "", err
	}
	return path, nil
}

// Process reads an animation from r, compresses it and writes the result to
// w. Since both the external encoder and the byte budget work on files, the
// stream is materialized to temporary files first. It makes the processor
// usable with stdin/stdout pipes the same way regular paths are.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	in, err := os.CreateTemp("", "gifpress-in-*.gif")
	if err != nil {
		return err
	}
	defer os.Remove(in.Name())

	if _, err := io.Copy(in, r); err != nil {
		in.Close()
		return fmt.Errorf("unable to buffer the source stream: %w", err)
	}
	if err := in.Close(); err != nil {
		return err
	}

	out, err := os.CreateTemp("", "gifpress-out-*.gif")
	if err != nil {
		return err
	}
	out.Close()
	defer os.Remove(out.Name())

	if _, _, err := p.Compress(in.Name(), out.Name()); err != nil {
		return err
	}

	res, err := os.Open(out.Name())
	if err != nil {
		return err
	}
	defer res.Close()

	_, err = io.Copy(w, res)
	return err
}

// normalize substitutes the documented defaults for unset or out-of-range
// options. Misconfigurations are resolved locally, never surfaced.
func (p *Processor) normalize() {
	if p.TargetSize <= 0 {
		p.TargetSize = DefaultTargetSize
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	p.MinColors = utils.Clamp(p.MinColors, 2, 256)
	p.MinScale = utils.Clamp(p.MinScale, 0, 1)
	if p.SampleRate <= 0 || p.SampleRate > 1 {
		p.SampleRate = 1
	}
	if p.DurationFactor <= 0 {
		p.DurationFactor = 1
	}
}
