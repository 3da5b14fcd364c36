package audio

import "math"

// Hook is a post-processing stage applied to a rendered buffer.
type Hook func(samples []float32) []float32

// ApplyHooks runs hooks over samples in order.
func ApplyHooks(samples []float32, hooks ...Hook) []float32 {
	out := samples
	for _, hook := range hooks {
		out = hook(out)
	}

	return out
}

// Resampler is a stateful cubic Lagrange interpolator for one channel.
// History carries across Process calls so contiguous blocks resample without
// seams; call Reset after any seek so stale history cannot leak into the
// output. The zero value is not ready to use; call NewResampler or Reset.
type Resampler struct {
	history [4]float32
	pos     float64
}

// NewResampler returns a reset resampler.
func NewResampler() *Resampler {
	r := &Resampler{}
	r.Reset()
	return r
}

// Reset clears the interpolation history.
func (r *Resampler) Reset() {
	r.history = [4]float32{}
	r.pos = 1.0
}

// Process fills out by reading from in at the given speed ratio
// (source rate / output rate). Reads past the end of in produce zeros.
// Returns the number of source positions advanced; this exceeds len(in)
// when the read ran into the zero padding.
func (r *Resampler) Process(ratio float64, in []float32, out []float32) int {
	used := 0
	for i := range out {
		for r.pos >= 1.0 {
			var s float32
			if used < len(in) {
				s = in[used]
			}
			r.push(s)
			used++
			r.pos -= 1.0
		}
		out[i] = lagrange(r.history, r.pos)
		r.pos += ratio
	}
	return used
}

func (r *Resampler) push(s float32) {
	r.history[0] = r.history[1]
	r.history[1] = r.history[2]
	r.history[2] = r.history[3]
	r.history[3] = s
}

// lagrange evaluates the 4-point Lagrange polynomial through y at nodes
// -1, 0, 1, 2, interpolating between y[1] and y[2] at alpha in [0, 1).
func lagrange(y [4]float32, alpha float64) float32 {
	a := float32(alpha)
	b0 := -a * (a - 1) * (a - 2) / 6
	b1 := (a + 1) * (a - 1) * (a - 2) / 2
	b2 := -(a + 1) * a * (a - 2) / 2
	b3 := (a + 1) * a * (a - 1) / 6
	return y[0]*b0 + y[1]*b1 + y[2]*b2 + y[3]*b3
}

// Resample converts in from fromRate to toRate in one shot.
func Resample(in []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(in) == 0 || fromRate <= 0 || toRate <= 0 {
		return append([]float32(nil), in...)
	}

	ratio := float64(fromRate) / float64(toRate)
	out := make([]float32, int(float64(len(in))/ratio))
	NewResampler().Process(ratio, in, out)
	return out
}

// PeakNormalize scales samples so the peak amplitude reaches 1.0.
// Silence is returned unchanged.
func PeakNormalize(samples []float32) []float32 {
	var peak float32
	for _, s := range samples {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return samples
	}

	gain := 1.0 / peak
	for i := range samples {
		samples[i] *= gain
	}
	return samples
}

// DCBlock removes DC offset from samples using a one-pole high-pass filter.
func DCBlock(samples []float32, sampleRate int) []float32 {
	if sampleRate <= 0 || len(samples) == 0 {
		return samples
	}

	// Pole placed for a ~10 Hz corner.
	r := float32(1.0 - (2*math.Pi*10.0)/float64(sampleRate))
	var prevIn, prevOut float32
	for i, s := range samples {
		out := s - prevIn + r*prevOut
		prevIn = s
		prevOut = out
		samples[i] = out
	}
	return samples
}

// FadeIn applies a linear fade-in ramp over the given duration in milliseconds.
func FadeIn(samples []float32, sampleRate int, ms float64) []float32 {
	n := rampLength(len(samples), sampleRate, ms)
	for i := 0; i < n; i++ {
		samples[i] *= float32(i) / float32(n)
	}
	return samples
}

// FadeOut applies a linear fade-out ramp over the given duration in milliseconds.
func FadeOut(samples []float32, sampleRate int, ms float64) []float32 {
	n := rampLength(len(samples), sampleRate, ms)
	for i := 0; i < n; i++ {
		samples[len(samples)-1-i] *= float32(i) / float32(n)
	}
	return samples
}

func rampLength(numSamples, sampleRate int, ms float64) int {
	if sampleRate <= 0 || ms <= 0 {
		return 0
	}
	n := int(float64(sampleRate) * ms / 1000.0)
	if n > numSamples {
		n = numSamples
	}
	return n
}
