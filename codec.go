package gifpress

// Encoder produces a candidate artifact from an input animation file and one
// parameter combination. The two implementations, the external gifsicle
// binary and the built-in quantizer, are behaviorally substitutable: for
// the same inputs both yield a valid animation no larger in pixel dimensions
// than the scaled request, though not bit-identical to each other.
//
// An Encode failure means "this attempt produced no candidate"; the search
// driver counts the attempt and moves on, it never aborts the run for it.
type Encoder interface {
	Encode(in, out string, settings EncodeSettings) error
}

// NewEncoder probes the system once and returns the gifsicle adapter when
// the binary is reachable, otherwise the built-in fallback quantizer.
// The second return value reports whether gifsicle was selected.
func NewEncoder() (Encoder, bool) {
	if gifsicleAvailable() {
		return &GifsicleEncoder{}, true
	}
	return &QuantizerEncoder{}, false
}
