package gifpress

import (
	"bytes"
	"fmt"
	"os/exec"
)

// gifsicleBin is the external lossy GIF encoder the adapter shells out to.
const gifsicleBin = "gifsicle"

// GifsicleEncoder compresses through the gifsicle command line tool, which
// owns the actual compression algorithm. Quality, palette size and scale are
// mapped onto the corresponding tool flags.
type GifsicleEncoder struct{}

// gifsicleAvailable probes the binary once per run the same way the tool
// itself reports its presence.
func gifsicleAvailable() bool {
	if _, err := exec.LookPath(gifsicleBin); err != nil {
		return false
	}
	return exec.Command(gifsicleBin, "--version").Run() == nil
}

// Encode invokes gifsicle over the input file and writes the candidate to
// the output path. A non-zero exit status is returned as an error carrying
// the tool's stderr, so the caller can treat the attempt as unproductive.
func (e *GifsicleEncoder) Encode(in, out string, settings EncodeSettings) error {
	cmd := exec.Command(gifsicleBin, buildGifsicleArgs(in, out, settings)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("gifsicle failed: %v: %s", err, stderr.String())
	}
	return nil
}

// buildGifsicleArgs constructs the complete argument list for one attempt.
// A zero quality level is lossless-equivalent and omits the --lossy flag;
// an unscaled attempt omits --scale so gifsicle skips the resample entirely.
func buildGifsicleArgs(in, out string, settings EncodeSettings) []string {
	args := make([]string, 0, 8)
	args = append(args, "--optimize=3")

	if settings.Quality > 0 {
		args = append(args, fmt.Sprintf("--lossy=%d", settings.Quality))
	}
	args = append(args, fmt.Sprintf("--colors=%d", settings.Colors))

	if settings.Scale < 1.0 {
		args = append(args, fmt.Sprintf("--scale=%g", settings.Scale))
	}

	args = append(args, "-i", in, "-o", out)
	return args
}
