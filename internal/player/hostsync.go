package player

import (
	"sync/atomic"

	"github.com/cocotone/voicevox-juce-demo/internal/audio"
)

// maxChannels is the widest output layout the player fills; extra output
// channels are cleared.
const maxChannels = 2

// Host positions within this many source samples of the predicted next read
// are treated as contiguous; beyond it the jump resets interpolation state.
const contiguityTolerance = 4

// HostSync plays a fixed pre-rendered mono buffer phase-locked to an
// external transport. The source buffer keeps its native sample rate; every
// render block is resampled on the fly to the device rate reported in the
// position snapshot.
//
// SetBuffer may be called from any goroutine while Render runs on the audio
// callback; the whole playback state is swapped through a single atomic
// pointer so the render path sees either the old or the new state, never a
// mixture.
type HostSync struct {
	state atomic.Pointer[syncState]
}

// syncState bundles the buffer with its resamplers so both are replaced in
// one step. The position fields are owned by the render goroutine.
type syncState struct {
	samples    []float32
	sampleRate float64
	resamplers [maxChannels]*audio.Resampler

	nextRead int64
	primed   bool
}

// NewHostSync returns a player with no buffer loaded.
func NewHostSync() *HostSync {
	return &HostSync{}
}

// SetBuffer atomically replaces the playback state with a new mono source
// buffer at its native sample rate, discarding all resampler history. The
// mono source feeds every output channel.
func (p *HostSync) SetBuffer(samples []float32, sampleRate int) {
	st := &syncState{
		samples:    samples,
		sampleRate: float64(sampleRate),
	}
	for i := range st.resamplers {
		st.resamplers[i] = audio.NewResampler()
	}
	p.state.Store(st)
}

// Clear removes the current buffer; subsequent renders are silent.
func (p *HostSync) Clear() {
	p.state.Store(nil)
}

// LengthSeconds reports the loaded buffer's duration at its native rate,
// or 0 when no buffer is set.
func (p *HostSync) LengthSeconds() float64 {
	st := p.state.Load()
	if st == nil || st.sampleRate <= 0 {
		return 0
	}
	return float64(len(st.samples)) / st.sampleRate
}

// Render fills out (one slice per channel) for the given transport
// snapshot. The block is silent when the transport is stopped, no buffer is
// loaded, or the requested time lies past the end of the buffer. A host
// position that does not follow contiguously from the previous block resets
// the interpolation state before rendering.
func (p *HostSync) Render(out [][]float32, pos PositionInfo) {
	for _, ch := range out {
		clear(ch)
	}

	st := p.state.Load()
	if st == nil || !pos.Playing || pos.SampleRate <= 0 || st.sampleRate <= 0 || len(out) == 0 {
		return
	}

	readPos := int64(pos.TimeSeconds * st.sampleRate)
	if readPos < 0 {
		readPos = 0
	}

	start := readPos
	jump := readPos - st.nextRead
	if st.primed && jump >= -contiguityTolerance && jump <= contiguityTolerance {
		// Small block-boundary jitter from truncated host times; keep the
		// resampler stream unbroken.
		start = st.nextRead
	} else {
		for _, r := range st.resamplers {
			r.Reset()
		}
	}
	st.primed = true

	var src []float32
	if start < int64(len(st.samples)) {
		src = st.samples[start:]
	}

	ratio := st.sampleRate / pos.SampleRate

	advanced := 0
	for i, ch := range out {
		if i >= maxChannels {
			break
		}
		advanced = st.resamplers[i].Process(ratio, src, ch)
	}
	st.nextRead = start + int64(advanced)
}
