package gifpress

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"io"
	"os"

	"github.com/ericpauley/go-quantize/quantize"
	xdraw "golang.org/x/image/draw"
)

// Animation is an in-memory animated image: an ordered sequence of frames
// sharing the same canvas dimensions, the per-frame display delay and
// disposal metadata and the animation loop count. Every frame is coalesced
// to the full canvas, so a frame can be transformed in isolation without
// knowing how the GIF format stacked the original sub-rectangles.
type Animation struct {
	Frames    []*image.NRGBA
	Delays    []int // display time per frame, in 100ths of a second
	Disposals []byte
	LoopCount int
	Width     int
	Height    int
}

// DecodeAnimation reads a GIF stream and coalesces its frames onto the
// logical canvas, honoring the per-frame disposal modes.
func DecodeAnimation(r io.Reader) (*Animation, error) {
	g, err := gif.DecodeAll(r)
	if err != nil {
		return nil, fmt.Errorf("unable to decode the animation: %w", err)
	}
	if len(g.Image) == 0 {
		return nil, fmt.Errorf("the animation does not contain any frame")
	}

	width, height := g.Config.Width, g.Config.Height
	if width == 0 || height == 0 {
		b := g.Image[0].Bounds()
		width, height = b.Max.X, b.Max.Y
	}

	anim := &Animation{
		Frames:    make([]*image.NRGBA, 0, len(g.Image)),
		Delays:    make([]int, 0, len(g.Image)),
		Disposals: make([]byte, 0, len(g.Image)),
		LoopCount: g.LoopCount,
		Width:     width,
		Height:    height,
	}

	canvas := image.NewNRGBA(image.Rect(0, 0, width, height))
	var prev *image.NRGBA

	for i, frame := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			prev = cloneNRGBA(canvas)
		}

		xdraw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, xdraw.Over)
		anim.Frames = append(anim.Frames, cloneNRGBA(canvas))

		delay := 10
		if i < len(g.Delay) {
			delay = g.Delay[i]
		}
		anim.Delays = append(anim.Delays, delay)
		anim.Disposals = append(anim.Disposals, disposal)

		// Prepare the canvas for the next frame.
		switch disposal {
		case gif.DisposalBackground:
			xdraw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, xdraw.Src)
		case gif.DisposalPrevious:
			if prev != nil {
				canvas = prev
			}
		}
	}

	return anim, nil
}

// DecodeAnimationFile reads and coalesces the GIF file found at the given path.
func DecodeAnimationFile(path string) (*Animation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open the source file: %w", err)
	}
	defer f.Close()

	return DecodeAnimation(f)
}

// EncodeAnimation quantizes every frame to at most the requested number of
// palette entries and writes the result as a GIF stream. Dithering trades
// banding for noise, which compresses worse, so the caller disables it on
// the more aggressive quality levels.
func EncodeAnimation(w io.Writer, anim *Animation, colors int, dither bool) error {
	if len(anim.Frames) == 0 {
		return fmt.Errorf("the animation does not contain any frame")
	}

	out := &gif.GIF{
		Image:     make([]*image.Paletted, 0, len(anim.Frames)),
		Delay:     make([]int, 0, len(anim.Frames)),
		Disposal:  make([]byte, 0, len(anim.Frames)),
		LoopCount: anim.LoopCount,
	}

	for i, frame := range anim.Frames {
		out.Image = append(out.Image, quantizeFrame(frame, colors, dither))
		out.Delay = append(out.Delay, anim.Delays[i])
		out.Disposal = append(out.Disposal, anim.Disposals[i])
	}

	if err := gif.EncodeAll(w, out); err != nil {
		return fmt.Errorf("unable to encode the animation: %w", err)
	}
	return nil
}

// quantizeFrame reduces a single frame to a paletted image of at most the
// requested number of colors using median cut quantization.
func quantizeFrame(frame *image.NRGBA, colors int, dither bool) *image.Paletted {
	if colors < 2 {
		colors = 2
	}
	if colors > 256 {
		colors = 256
	}

	q := quantize.MedianCutQuantizer{AddTransparent: true}
	pal := q.Quantize(make(color.Palette, 0, colors), frame)

	dst := image.NewPaletted(frame.Bounds(), pal)
	if dither {
		xdraw.FloydSteinberg.Draw(dst, frame.Bounds(), frame, image.Point{})
	} else {
		xdraw.Draw(dst, frame.Bounds(), frame, frame.Bounds().Min, xdraw.Src)
	}
	return dst
}

// cloneNRGBA returns a deep copy of the source image.
func cloneNRGBA(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}
