package gifpress

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// CropSpec holds the four pixel margins trimmed away from the canvas edges.
type CropSpec struct {
	Left, Top, Right, Bottom int
}

// empty reports whether the crop would leave the canvas untouched.
func (c *CropSpec) empty() bool {
	return c == nil || (c.Left == 0 && c.Top == 0 && c.Right == 0 && c.Bottom == 0)
}

// valid reports whether the margins leave a positive canvas area behind.
// Negative margins or margins consuming a whole axis make the crop invalid.
func (c *CropSpec) valid(width, height int) bool {
	if c.Left < 0 || c.Top < 0 || c.Right < 0 || c.Bottom < 0 {
		return false
	}
	return c.Left+c.Right < width && c.Top+c.Bottom < height
}

// FrameAdjustSpec controls frame decimation and playback duration rescaling.
type FrameAdjustSpec struct {
	// SampleRate is the fraction of frames retained, in (0, 1]. Every
	// ceil(1/SampleRate)-th frame is kept, starting at index 0.
	SampleRate float64

	// DurationFactor multiplies every frame delay; the result is truncated
	// to whole delay units.
	DurationFactor float64
}

// empty reports whether the adjustment would leave the animation untouched.
func (f *FrameAdjustSpec) empty() bool {
	return f == nil || ((f.SampleRate >= 1 || f.SampleRate <= 0) && f.DurationFactor == 1)
}

// preprocess applies the optional geometric crop followed by the optional
// frame adjustment, in that fixed order. Each step runs only when its
// parameters deviate from the defaults; an out-of-range crop is a guarded
// no-op rather than an error. The source animation is never mutated.
func preprocess(anim *Animation, crop *CropSpec, adjust *FrameAdjustSpec) *Animation {
	if !crop.empty() && crop.valid(anim.Width, anim.Height) {
		anim = cropAnimation(anim, crop)
	}
	if !adjust.empty() {
		anim = adjustFrames(anim, adjust)
	}
	return anim
}

// cropAnimation trims the given margins off every frame of the animation.
func cropAnimation(anim *Animation, crop *CropSpec) *Animation {
	rect := image.Rect(crop.Left, crop.Top, anim.Width-crop.Right, anim.Height-crop.Bottom)

	out := &Animation{
		Frames:    make([]*image.NRGBA, 0, len(anim.Frames)),
		Delays:    append([]int(nil), anim.Delays...),
		Disposals: append([]byte(nil), anim.Disposals...),
		LoopCount: anim.LoopCount,
		Width:     rect.Dx(),
		Height:    rect.Dy(),
	}
	for _, frame := range anim.Frames {
		out.Frames = append(out.Frames, imaging.Crop(frame, rect))
	}
	return out
}

// adjustFrames decimates the frame sequence and rescales the frame delays.
func adjustFrames(anim *Animation, adjust *FrameAdjustSpec) *Animation {
	step := 1
	if adjust.SampleRate > 0 && adjust.SampleRate < 1 {
		step = int(math.Ceil(1 / adjust.SampleRate))
	}
	factor := adjust.DurationFactor
	if factor <= 0 {
		factor = 1
	}

	out := &Animation{
		LoopCount: anim.LoopCount,
		Width:     anim.Width,
		Height:    anim.Height,
	}
	for i := range anim.Frames {
		if i%step != 0 {
			continue
		}
		out.Frames = append(out.Frames, cloneNRGBA(anim.Frames[i]))
		out.Delays = append(out.Delays, int(float64(anim.Delays[i])*factor))
		out.Disposals = append(out.Disposals, anim.Disposals[i])
	}
	return out
}
