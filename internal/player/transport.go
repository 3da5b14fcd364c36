package player

import (
	"sync/atomic"

	"github.com/cocotone/voicevox-juce-demo/internal/audio"
)

// Transport is the freestanding audition player: it advances its own clock
// instead of tracking a host, but renders through the same per-channel
// resamplers so a buffer sounds correct at any device rate.
//
// Control methods may be called from any goroutine; Render is expected on a
// single audio callback goroutine.
type Transport struct {
	state   atomic.Pointer[transportState]
	playing atomic.Bool

	seekPending atomic.Bool
	seekTo      atomic.Int64
}

type transportState struct {
	samples    []float32
	sampleRate float64
	resamplers [maxChannels]*audio.Resampler
	readPos    atomic.Int64
}

// NewTransport returns a stopped transport with no buffer loaded.
func NewTransport() *Transport {
	return &Transport{}
}

// SetBuffer stops playback and replaces the source with a new mono buffer at
// its native sample rate, rewound to the top.
func (t *Transport) SetBuffer(samples []float32, sampleRate int) {
	t.playing.Store(false)

	st := &transportState{
		samples:    samples,
		sampleRate: float64(sampleRate),
	}
	for i := range st.resamplers {
		st.resamplers[i] = audio.NewResampler()
	}
	t.state.Store(st)
}

// Start begins or resumes playback from the current position.
func (t *Transport) Start() { t.playing.Store(true) }

// Stop pauses playback, keeping the current position.
func (t *Transport) Stop() { t.playing.Store(false) }

// IsPlaying reports whether the transport is running.
func (t *Transport) IsPlaying() bool { return t.playing.Load() }

// SetPositionSeconds schedules a seek; the next render block starts there
// with fresh interpolation state.
func (t *Transport) SetPositionSeconds(seconds float64) {
	st := t.state.Load()
	if st == nil || st.sampleRate <= 0 {
		return
	}

	pos := int64(seconds * st.sampleRate)
	if pos < 0 {
		pos = 0
	}
	t.seekTo.Store(pos)
	t.seekPending.Store(true)
}

// PositionSeconds reports the current play position.
func (t *Transport) PositionSeconds() float64 {
	st := t.state.Load()
	if st == nil || st.sampleRate <= 0 {
		return 0
	}
	return float64(st.readPos.Load()) / st.sampleRate
}

// LengthSeconds reports the loaded buffer's duration, or 0 without a buffer.
func (t *Transport) LengthSeconds() float64 {
	st := t.state.Load()
	if st == nil || st.sampleRate <= 0 {
		return 0
	}
	return float64(len(st.samples)) / st.sampleRate
}

// Render fills out (one slice per channel) at the given device sample rate,
// advancing the transport clock by one block. Output is silent while
// stopped or past the end of the buffer.
func (t *Transport) Render(out [][]float32, deviceRate float64) {
	for _, ch := range out {
		clear(ch)
	}

	st := t.state.Load()
	if st == nil || !t.playing.Load() || deviceRate <= 0 || st.sampleRate <= 0 || len(out) == 0 {
		return
	}

	start := st.readPos.Load()
	if t.seekPending.CompareAndSwap(true, false) {
		start = t.seekTo.Load()
		for _, r := range st.resamplers {
			r.Reset()
		}
	}

	var src []float32
	if start < int64(len(st.samples)) {
		src = st.samples[start:]
	}

	ratio := st.sampleRate / deviceRate

	advanced := 0
	for i, ch := range out {
		if i >= maxChannels {
			break
		}
		advanced = st.resamplers[i].Process(ratio, src, ch)
	}
	st.readPos.Store(start + int64(advanced))
}
