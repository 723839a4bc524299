package gifpress

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// stubEncoder scripts the encoder behavior so the search driver can be
// exercised without a real compression backend.
type stubEncoder struct {
	fn func(in, out string, settings EncodeSettings) error
}

func (e *stubEncoder) Encode(in, out string, settings EncodeSettings) error {
	return e.fn(in, out, settings)
}

// sizedOutput writes an artifact of exactly the given byte size.
func sizedOutput(out string, size int) error {
	return os.WriteFile(out, bytes.Repeat([]byte{'G'}, size), 0644)
}

// writeSource materializes a source file of the given byte size. The search
// only inspects the source through the encoder, so the content is arbitrary.
func writeSource(t *testing.T, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "src.gif")
	if err := os.WriteFile(path, bytes.Repeat([]byte{'x'}, size), 0644); err != nil {
		t.Fatalf("unable to write the source file: %v", err)
	}
	return path
}

func TestCompress_ShortCircuit(t *testing.T) {
	assert := assert.New(t)

	in := writeSource(t, 100)
	out := filepath.Join(t.TempDir(), "out.gif")

	calls := 0
	p := &Processor{
		TargetSize: 1000,
		Encoder: &stubEncoder{fn: func(_, _ string, _ EncodeSettings) error {
			calls++
			return nil
		}},
	}

	orig, final, err := p.Compress(in, out)
	assert.NoError(err)
	assert.Equal(int64(100), orig)
	assert.Equal(int64(100), final)
	assert.Zero(calls, "a source already under the target should spend no attempt")

	// The output is a byte-identical copy of the source.
	src, err := os.ReadFile(in)
	assert.NoError(err)
	dst, err := os.ReadFile(out)
	assert.NoError(err)
	assert.Equal(src, dst)
}

func TestCompress_TargetMetStopsEarly(t *testing.T) {
	assert := assert.New(t)

	in := writeSource(t, 1000)
	out := filepath.Join(t.TempDir(), "out.gif")

	calls := 0
	p := &Processor{
		TargetSize:  500,
		MaxAttempts: 10,
		Encoder: &stubEncoder{fn: func(_, o string, _ EncodeSettings) error {
			calls++
			return sizedOutput(o, 400)
		}},
	}

	orig, final, err := p.Compress(in, out)
	assert.NoError(err)
	assert.Equal(int64(1000), orig)
	assert.Equal(int64(400), final)
	assert.Equal(1, calls, "the search should stop on the first satisfying result")
}

func TestCompress_AttemptBudget(t *testing.T) {
	assert := assert.New(t)

	in := writeSource(t, 1000)
	out := filepath.Join(t.TempDir(), "out.gif")

	calls := 0
	p := &Processor{
		TargetSize:  10,
		MaxAttempts: 5,
		Encoder: &stubEncoder{fn: func(_, o string, _ EncodeSettings) error {
			calls++
			return sizedOutput(o, 999)
		}},
	}

	_, final, err := p.Compress(in, out)
	assert.NoError(err)
	assert.Equal(5, calls, "the attempt budget bounds the encode invocations")
	assert.Equal(int64(999), final, "a run out of budget keeps its best result")
}

func TestCompress_FailedAttemptsBurnBudget(t *testing.T) {
	assert := assert.New(t)

	in := writeSource(t, 1000)
	out := filepath.Join(t.TempDir(), "out.gif")

	calls := 0
	p := &Processor{
		TargetSize:  10,
		MaxAttempts: 3,
		Encoder: &stubEncoder{fn: func(_, o string, _ EncodeSettings) error {
			calls++
			if calls < 3 {
				return errors.New("encoder crashed")
			}
			return sizedOutput(o, 800)
		}},
	}

	_, final, err := p.Compress(in, out)
	assert.NoError(err)
	assert.Equal(3, calls)
	assert.Equal(int64(800), final)
}

func TestCompress_TotalFailure(t *testing.T) {
	assert := assert.New(t)

	in := writeSource(t, 1000)
	out := filepath.Join(t.TempDir(), "out.gif")

	p := &Processor{
		TargetSize:  10,
		MaxAttempts: 4,
		Encoder: &stubEncoder{fn: func(_, _ string, _ EncodeSettings) error {
			return errors.New("encoder crashed")
		}},
	}

	_, _, err := p.Compress(in, out)
	assert.Error(err)

	// No output file is left behind on total failure.
	_, err = os.Stat(out)
	assert.True(os.IsNotExist(err))
}

func TestCompress_MonotonicImprovement(t *testing.T) {
	assert := assert.New(t)

	in := writeSource(t, 1000)
	out := filepath.Join(t.TempDir(), "out.gif")

	sizes := []int{800, 900, 700, 700}
	calls := 0

	var reported []int64
	p := &Processor{
		TargetSize:  10,
		MaxAttempts: len(sizes),
		Encoder: &stubEncoder{fn: func(_, o string, _ EncodeSettings) error {
			size := sizes[calls]
			calls++
			return sizedOutput(o, size)
		}},
		OnProgress: func(_ int, best int64, _ string) {
			reported = append(reported, best)
		},
	}

	_, final, err := p.Compress(in, out)
	assert.NoError(err)
	assert.Equal(int64(700), final)

	// Only strict improvements surface: the regression to 900 and the
	// equal-sized 700 never replace the held best.
	assert.Equal([]int64{800, 700}, reported)
}

func TestCompress_PassOrdering(t *testing.T) {
	assert := assert.New(t)

	in := writeSource(t, 1000)
	out := filepath.Join(t.TempDir(), "out.gif")

	var recorded []EncodeSettings
	enc := &stubEncoder{fn: func(_, o string, set EncodeSettings) error {
		recorded = append(recorded, set)
		return sizedOutput(o, 999)
	}}

	t.Run("scaling deferred to the second pass", func(t *testing.T) {
		recorded = nil
		p := &Processor{TargetSize: 1, MaxAttempts: 200, Encoder: enc}

		_, _, err := p.Compress(in, out)
		assert.NoError(err)

		unscaled := len(qualityLevels) * len(colorLevels)
		scaled := (len(scaleLevels) - 1) * len(scalePassQualities) * len(colorLevels)
		assert.Len(recorded, unscaled+scaled)

		for _, set := range recorded[:unscaled] {
			assert.Equal(1.0, set.Scale)
		}
		// The scale sweep restarts with the aggressive quality subset.
		assert.Equal(EncodeSettings{Quality: 60, Colors: 256, Scale: 0.9}, recorded[unscaled])
	})

	t.Run("forced scaling sweeps scales up front", func(t *testing.T) {
		recorded = nil
		p := &Processor{TargetSize: 1, MaxAttempts: 50, ForceScaling: true, Encoder: enc}

		_, _, err := p.Compress(in, out)
		assert.NoError(err)
		assert.Len(recorded, 50)

		// Right after the unscaled block the sweep moves to the next scale
		// level with the full quality ladder, not the aggressive subset.
		unscaled := len(qualityLevels) * len(colorLevels)
		assert.Equal(EncodeSettings{Quality: 0, Colors: 256, Scale: 0.9}, recorded[unscaled])
	})
}

func TestCompress_Floors(t *testing.T) {
	assert := assert.New(t)

	in := writeSource(t, 1000)
	out := filepath.Join(t.TempDir(), "out.gif")

	var recorded []EncodeSettings
	p := &Processor{
		TargetSize:  1,
		MaxAttempts: 500,
		MinColors:   100,
		MinScale:    0.75,
		Encoder: &stubEncoder{fn: func(_, o string, set EncodeSettings) error {
			recorded = append(recorded, set)
			return sizedOutput(o, 999)
		}},
	}

	_, _, err := p.Compress(in, out)
	assert.NoError(err)

	for _, set := range recorded {
		assert.GreaterOrEqual(set.Colors, 100)
		assert.GreaterOrEqual(set.Scale, 0.75)
	}
}

func TestCompress_MissingSource(t *testing.T) {
	p := &Processor{Encoder: &stubEncoder{fn: func(_, _ string, _ EncodeSettings) error {
		return nil
	}}}

	_, _, err := p.Compress(filepath.Join(t.TempDir(), "nope.gif"), filepath.Join(t.TempDir(), "out.gif"))
	assert.Error(t, err)
}

func TestProcess_Pipes(t *testing.T) {
	assert := assert.New(t)

	p := &Processor{
		TargetSize: 10,
		Encoder: &stubEncoder{fn: func(_, o string, _ EncodeSettings) error {
			return os.WriteFile(o, []byte("RESULT"), 0644)
		}},
	}

	src := bytes.Repeat([]byte{'x'}, 1000)
	var out bytes.Buffer

	err := p.Process(bytes.NewReader(src), &out)
	assert.NoError(err)
	assert.Equal("RESULT", out.String())
}

func TestProcessor_SharedAcrossRuns(t *testing.T) {
	assert := assert.New(t)

	// The same Processor value serves several runs; the per-run state never
	// leaks back into the options.
	p := &Processor{
		TargetSize: 10,
		Encoder: &stubEncoder{fn: func(_, o string, _ EncodeSettings) error {
			return sizedOutput(o, 5)
		}},
	}

	for i := 0; i < 3; i++ {
		in := writeSource(t, 1000)
		out := filepath.Join(t.TempDir(), "out.gif")

		_, final, err := p.Compress(in, out)
		assert.NoError(err)
		assert.Equal(int64(5), final)
	}
	assert.Equal(int64(10), p.TargetSize)
	assert.Zero(p.MaxAttempts, "normalization should not write back the defaults")
}
