package gifpress

import (
	"fmt"
	"image"
	"os"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
	"github.com/gifpress/gifpress/utils"
)

// ditherThreshold is the quality level above which Floyd-Steinberg
// dithering is turned off: dithering noise compresses badly, so the more
// aggressive levels trade it for banding.
const ditherThreshold = 100

// blurThreshold is the quality level above which a light blur approximates
// the artifacting the external lossy encoder would produce.
const blurThreshold = 30

// maxBlurSigma caps the blur so high quality levels do not smear the frames.
const maxBlurSigma = 0.8

// QuantizerEncoder is the built-in fallback used when gifsicle is not
// installed. It re-encodes the animation by quantizing every frame's palette,
// optionally downscaling and blurring to approximate lossy compression. It
// is less effective than the external tool but has no system dependencies.
type QuantizerEncoder struct {
	// The decoded animation is cached between attempts, since the search
	// re-encodes the same input with many parameter combinations.
	src     *Animation
	srcPath string
}

// Encode re-encodes the input animation with the given settings and writes
// the candidate to the output path.
func (e *QuantizerEncoder) Encode(in, out string, settings EncodeSettings) error {
	anim, err := e.animation(in)
	if err != nil {
		return err
	}

	frames := make([]*image.NRGBA, 0, len(anim.Frames))
	for _, frame := range anim.Frames {
		frames = append(frames, renderFrame(frame, settings))
	}

	candidate := &Animation{
		Frames:    frames,
		Delays:    anim.Delays,
		Disposals: anim.Disposals,
		LoopCount: anim.LoopCount,
		Width:     frames[0].Bounds().Dx(),
		Height:    frames[0].Bounds().Dy(),
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("unable to create the candidate file: %w", err)
	}
	defer f.Close()

	dither := settings.Quality <= ditherThreshold
	return EncodeAnimation(f, candidate, settings.Colors, dither)
}

// animation returns the cached source animation, decoding it on the first
// attempt or whenever the input path changes.
func (e *QuantizerEncoder) animation(path string) (*Animation, error) {
	if e.src != nil && e.srcPath == path {
		return e.src, nil
	}

	anim, err := DecodeAnimationFile(path)
	if err != nil {
		return nil, err
	}
	e.src, e.srcPath = anim, path
	return anim, nil
}

// renderFrame applies the pixel-level part of the settings to a single
// frame: Lanczos downscaling when a scale factor is requested and a light
// Gaussian blur scaling with the quality level.
func renderFrame(frame *image.NRGBA, settings EncodeSettings) *image.NRGBA {
	out := frame

	if settings.Scale < 1.0 {
		w := utils.Max(1, int(float64(frame.Bounds().Dx())*settings.Scale))
		h := utils.Max(1, int(float64(frame.Bounds().Dy())*settings.Scale))
		out = imaging.Resize(out, w, h, imaging.Lanczos)
	}

	if settings.Quality > blurThreshold {
		sigma := utils.Min(float32(settings.Quality)/200, maxBlurSigma)
		g := gift.New(gift.GaussianBlur(sigma))
		dst := image.NewNRGBA(g.Bounds(out.Bounds()))
		g.Draw(dst, out)
		out = dst
	}

	return out
}
