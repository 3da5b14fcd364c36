// Package audio provides the PCM plumbing shared by the synthesis engine and
// the playback path: WAV encode/decode, post-processing hooks, and the
// stateful resampler the host-synchronized player renders through.
package audio

// BufferInfo is a rendered mono buffer together with its native sample rate.
type BufferInfo struct {
	Samples    []float32
	SampleRate int
}

// LengthSeconds reports the buffer duration at its native rate.
func (b BufferInfo) LengthSeconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}
