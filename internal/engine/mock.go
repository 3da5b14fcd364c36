package engine

import (
	"context"
	"math"
	"sync"

	"github.com/cocotone/voicevox-juce-demo/internal/audio"
	"github.com/cocotone/voicevox-juce-demo/internal/feature"
)

// mockHopLength is how many output samples MockBackend renders per feature
// frame.
const mockHopLength = 256

// MockBackend is a deterministic in-process Backend for tests and the demo
// CLI. Every call has a working default; set a *Func field to override one.
type MockBackend struct {
	LoadModelFunc    func(ctx context.Context, styleID uint32) error
	MetasJSONFunc    func() ([]byte, error)
	TextToSpeechFunc func(ctx context.Context, styleID uint32, text string) ([]byte, error)
	DecodeFramesFunc func(ctx context.Context, styleID uint32, src feature.DecodeSource) ([]float32, error)

	ConsonantLengthFunc func(ctx context.Context, styleID uint32, consonants, vowels, noteLengths []int64) ([]int64, error)
	F0Func              func(ctx context.Context, styleID uint32, phonemes, keys []int64) ([]float32, error)
	VolumeFunc          func(ctx context.Context, styleID uint32, phonemes, keys []int64, f0 []float32) ([]float32, error)

	SampleRate   int    // defaults to 24000
	SongTeacher  uint32 // defaults to 6000
	mu           sync.Mutex
	loadedModels map[uint32]bool
}

// NewMockBackend returns a mock with library defaults.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		SampleRate:   24000,
		SongTeacher:  6000,
		loadedModels: make(map[uint32]bool),
	}
}

func (m *MockBackend) LoadModel(ctx context.Context, styleID uint32) error {
	if m.LoadModelFunc != nil {
		if err := m.LoadModelFunc(ctx, styleID); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadedModels == nil {
		m.loadedModels = make(map[uint32]bool)
	}
	m.loadedModels[styleID] = true
	return nil
}

func (m *MockBackend) IsModelLoaded(styleID uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadedModels[styleID]
}

func (m *MockBackend) MetasJSON() ([]byte, error) {
	if m.MetasJSONFunc != nil {
		return m.MetasJSONFunc()
	}
	return []byte(`[
		{"name": "Demo Voice", "styles": [
			{"name": "Normal", "id": 0, "type": "talk"},
			{"name": "Humming", "id": 6000, "type": "frame_decode"}
		]}
	]`), nil
}

// TextToSpeech renders a short tone whose length tracks the text length;
// real speech needs a real core behind this interface.
func (m *MockBackend) TextToSpeech(ctx context.Context, styleID uint32, text string) ([]byte, error) {
	if m.TextToSpeechFunc != nil {
		return m.TextToSpeechFunc(ctx, styleID, text)
	}

	rate := m.outputRate()
	n := rate / 8 * max(1, len([]rune(text))) / 4
	if n > rate*10 {
		n = rate * 10
	}
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.2 * float32(math.Sin(2*math.Pi*220*float64(i)/float64(rate)))
	}
	return audio.EncodeWAV(samples, rate)
}

func (m *MockBackend) DecodeFrames(ctx context.Context, styleID uint32, src feature.DecodeSource) ([]float32, error) {
	if m.DecodeFramesFunc != nil {
		return m.DecodeFramesFunc(ctx, styleID, src)
	}

	// Sine following the per-frame F0 and volume contours, silent on pau.
	rate := float64(m.outputRate())
	out := make([]float32, src.Frames()*mockHopLength)
	var phase float64
	for frame := range src.Frames() {
		freq := float64(src.F0[frame])
		gain := float64(src.Volume[frame])
		if src.Phoneme[frame] == 0 || freq <= 0 {
			phase = 0
			continue
		}
		for i := range mockHopLength {
			out[frame*mockHopLength+i] = float32(gain * 0.5 * math.Sin(phase))
			phase += 2 * math.Pi * freq / rate
		}
	}
	return out, nil
}

func (m *MockBackend) PredictConsonantLength(ctx context.Context, styleID uint32, consonants, vowels, noteLengths []int64) ([]int64, error) {
	if m.ConsonantLengthFunc != nil {
		return m.ConsonantLengthFunc(ctx, styleID, consonants, vowels, noteLengths)
	}

	out := make([]int64, len(noteLengths))
	for i := range out {
		if consonants[i] != -1 {
			out[i] = -1 // let the converter's half-split rule decide
		}
	}
	return out, nil
}

func (m *MockBackend) PredictF0(ctx context.Context, styleID uint32, phonemes, keys []int64) ([]float32, error) {
	if m.F0Func != nil {
		return m.F0Func(ctx, styleID, phonemes, keys)
	}

	out := make([]float32, len(phonemes))
	for i := range out {
		if keys[i] >= 0 {
			// MIDI note number to Hz.
			out[i] = float32(440 * math.Pow(2, (float64(keys[i])-69)/12))
		}
	}
	return out, nil
}

func (m *MockBackend) PredictVolume(ctx context.Context, styleID uint32, phonemes, keys []int64, f0 []float32) ([]float32, error) {
	if m.VolumeFunc != nil {
		return m.VolumeFunc(ctx, styleID, phonemes, keys, f0)
	}

	out := make([]float32, len(phonemes))
	for i := range out {
		if phonemes[i] != 0 {
			out[i] = 0.8
		}
	}
	return out, nil
}

func (m *MockBackend) SongTeacherStyleID() uint32 { return m.SongTeacher }

func (m *MockBackend) OutputSampleRate() int { return m.outputRate() }

func (m *MockBackend) outputRate() int {
	if m.SampleRate > 0 {
		return m.SampleRate
	}
	return 24000
}
