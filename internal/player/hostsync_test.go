package player

import (
	"math"
	"testing"
)

const testRate = 24000

func sineBuffer(freq float64, rate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(rate)))
	}
	return out
}

func stereoBlock(n int) [][]float32 {
	return [][]float32{make([]float32, n), make([]float32, n)}
}

func playingAt(seconds float64) PositionInfo {
	return PositionInfo{Playing: true, TimeSeconds: seconds, SampleRate: testRate}
}

func maxAbs(s []float32) float64 {
	var peak float64
	for _, v := range s {
		if a := math.Abs(float64(v)); a > peak {
			peak = a
		}
	}
	return peak
}

func TestHostSyncSilentWithoutBuffer(t *testing.T) {
	p := NewHostSync()

	out := stereoBlock(64)
	out[0][0] = 1 // stale data must be cleared
	p.Render(out, playingAt(0))

	if maxAbs(out[0]) != 0 || maxAbs(out[1]) != 0 {
		t.Fatal("render without buffer produced audio")
	}
	if p.LengthSeconds() != 0 {
		t.Errorf("LengthSeconds = %v, want 0", p.LengthSeconds())
	}
}

func TestHostSyncSilentWhenStopped(t *testing.T) {
	p := NewHostSync()
	p.SetBuffer(sineBuffer(440, testRate, testRate), testRate)

	out := stereoBlock(64)
	p.Render(out, PositionInfo{Playing: false, TimeSeconds: 0, SampleRate: testRate})

	if maxAbs(out[0]) != 0 {
		t.Fatal("render while stopped produced audio")
	}
}

func TestHostSyncSilentPastEndOfBuffer(t *testing.T) {
	p := NewHostSync()
	p.SetBuffer(sineBuffer(440, testRate, testRate), testRate) // 1 second

	out := stereoBlock(64)
	p.Render(out, playingAt(2.0))

	if maxAbs(out[0]) != 0 {
		t.Fatal("render past end of buffer produced audio")
	}
}

func TestHostSyncLengthSeconds(t *testing.T) {
	p := NewHostSync()
	p.SetBuffer(make([]float32, testRate/2), testRate)

	if got := p.LengthSeconds(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("LengthSeconds = %v, want 0.5", got)
	}

	p.Clear()
	if p.LengthSeconds() != 0 {
		t.Errorf("LengthSeconds after Clear = %v, want 0", p.LengthSeconds())
	}
}

func TestHostSyncRendersBufferAtMatchingRate(t *testing.T) {
	p := NewHostSync()
	src := sineBuffer(440, testRate, testRate)
	p.SetBuffer(src, testRate)

	const block = 256
	out := stereoBlock(block)
	p.Render(out, playingAt(0))

	// Equal source and device rates: the output tracks the source with the
	// interpolator's fixed two-sample delay.
	for i := 8; i < block; i++ {
		want := float64(src[i-2])
		if diff := math.Abs(float64(out[0][i]) - want); diff > 1e-3 {
			t.Fatalf("channel 0 sample %d: got %f, want %f", i, out[0][i], want)
		}
		if out[0][i] != out[1][i] {
			t.Fatalf("channels diverge at sample %d", i)
		}
	}
}

func TestHostSyncContiguousBlocksKeepResamplerState(t *testing.T) {
	src := sineBuffer(440, testRate, testRate)

	// Whole render in one block.
	pWhole := NewHostSync()
	pWhole.SetBuffer(src, testRate)
	whole := stereoBlock(512)
	pWhole.Render(whole, playingAt(0))

	// Same span rendered as two contiguous blocks.
	pSplit := NewHostSync()
	pSplit.SetBuffer(src, testRate)
	first := stereoBlock(256)
	second := stereoBlock(256)
	pSplit.Render(first, playingAt(0))
	pSplit.Render(second, playingAt(256.0/testRate))

	for i := range 256 {
		if whole[0][i] != first[0][i] {
			t.Fatalf("first block diverges at sample %d", i)
		}
		if whole[0][256+i] != second[0][i] {
			t.Fatalf("second block diverges at sample %d: %f vs %f", i, whole[0][256+i], second[0][i])
		}
	}
}

func TestHostSyncSeekResetsInterpolationState(t *testing.T) {
	// First half loud, second half silent. After a jump into the silent
	// half, stale history from the loud region must not leak into the
	// rendered block.
	src := make([]float32, testRate)
	for i := range testRate / 2 {
		src[i] = 1.0
	}

	p := NewHostSync()
	p.SetBuffer(src, testRate)

	out := stereoBlock(64)
	p.Render(out, playingAt(0))
	if maxAbs(out[0]) == 0 {
		t.Fatal("expected audio from the loud region")
	}

	// Discontinuous jump to 0.75s, well inside the silent region.
	p.Render(out, playingAt(0.75))
	if peak := maxAbs(out[0]); peak != 0 {
		t.Fatalf("stale resampler history leaked across seek: peak %f", peak)
	}
}

func TestHostSyncDownsamplesToDeviceRate(t *testing.T) {
	// Source at 48k played on a 24k device: one output block consumes two
	// source samples per frame.
	src := sineBuffer(440, 48000, 48000)
	p := NewHostSync()
	p.SetBuffer(src, 48000)

	const block = 256
	out := stereoBlock(block)
	p.Render(out, PositionInfo{Playing: true, TimeSeconds: 0, SampleRate: 24000})

	// Compare against the source decimated by two, allowing for the
	// interpolator delay of one output frame.
	var maxErr float64
	for i := 8; i < block; i++ {
		want := float64(src[(i-1)*2])
		if diff := math.Abs(float64(out[0][i]) - want); diff > maxErr {
			maxErr = diff
		}
	}
	if maxErr > 0.05 {
		t.Fatalf("downsampled output deviates from decimated source: max error %f", maxErr)
	}
}

func TestHostSyncSetBufferSwapsWholeState(t *testing.T) {
	p := NewHostSync()
	p.SetBuffer(make([]float32, testRate), testRate)

	out := stereoBlock(64)
	p.Render(out, playingAt(0))

	// Replace the buffer mid-stream; the next render must come entirely
	// from the new state (fresh resamplers, new samples).
	loud := make([]float32, testRate)
	for i := range loud {
		loud[i] = 0.5
	}
	p.SetBuffer(loud, testRate)

	p.Render(out, playingAt(0))
	if maxAbs(out[0]) == 0 {
		t.Fatal("render after SetBuffer still used the old silent buffer")
	}
}

func TestPositionStore(t *testing.T) {
	var store PositionStore

	if got := store.Get(); got != (PositionInfo{}) {
		t.Fatalf("zero store returned %+v", got)
	}

	want := PositionInfo{Playing: true, TimeSeconds: 1.5, SampleRate: 48000, BPM: 120, TimeSigNum: 4, TimeSigDen: 4}
	store.Set(want)

	if got := store.Get(); got != want {
		t.Fatalf("Get = %+v, want %+v", got, want)
	}
}
