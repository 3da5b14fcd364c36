package feature

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cocotone/voicevox-juce-demo/internal/phoneme"
)

// restKey marks a rest note's pitch in the flat phoneme/key stream.
const restKey = -1

// Predictor is the subset of the backend capability surface the score path
// needs. All slices are per-note or per-frame depending on the call; a nil
// result without an error is treated as a failure by the converter.
type Predictor interface {
	PredictConsonantLength(ctx context.Context, styleID uint32, consonants, vowels, noteLengths []int64) ([]int64, error)
	PredictF0(ctx context.Context, styleID uint32, phonemes, keys []int64) ([]float32, error)
	PredictVolume(ctx context.Context, styleID uint32, phonemes, keys []int64, f0 []float32) ([]float32, error)
}

// Converter turns audio-query and score JSON into DecodeSources. It is safe
// for concurrent use; the phoneme table it holds is immutable.
type Converter struct {
	table *phoneme.Table
	log   *slog.Logger
}

// NewConverter builds a converter over the given phoneme table. A nil logger
// falls back to slog.Default.
func NewConverter(table *phoneme.Table, log *slog.Logger) *Converter {
	if log == nil {
		log = slog.Default()
	}
	return &Converter{
		table: table,
		log:   log.With(slog.String("component", "feature-converter")),
	}
}

// FromAudioQuery converts an audio-query JSON document into a DecodeSource.
// The run-length encoded phoneme list is expanded to one index per frame.
// An unknown phoneme symbol aborts the whole conversion.
func (c *Converter) FromAudioQuery(raw []byte) (DecodeSource, error) {
	query, err := ParseAudioQuery(raw)
	if err != nil {
		return DecodeSource{}, err
	}

	indices := make([]int64, 0, len(query.Phonemes))
	lengths := make([]int64, 0, len(query.Phonemes))
	for _, p := range query.Phonemes {
		idx, err := c.table.Index(p.Phoneme)
		if err != nil {
			return DecodeSource{}, fmt.Errorf("audio query: %w", err)
		}
		indices = append(indices, int64(idx))
		lengths = append(lengths, p.FrameLength)
	}

	expanded, err := repeatByLengths(indices, lengths)
	if err != nil {
		return DecodeSource{}, fmt.Errorf("audio query: %w", err)
	}

	return DecodeSource{
		F0:         toFloat32(query.F0),
		Volume:     toFloat32(query.Volume),
		Phoneme:    expanded,
		SampleRate: query.OutputSamplingRate,
	}, nil
}

// FromScore converts a score JSON document into a DecodeSource, using pred
// for the consonant-length, F0 and volume predictions. styleID selects the
// prediction model (the song teacher, not the rendering voice). sampleRate
// is the decoder's output rate and is copied into the result.
//
// Unknown syllables are logged and skipped; any failed prediction aborts the
// whole conversion.
func (c *Converter) FromScore(ctx context.Context, pred Predictor, styleID uint32, raw []byte, sampleRate int) (DecodeSource, error) {
	score, err := ParseScore(raw)
	if err != nil {
		return DecodeSource{}, err
	}

	var (
		noteLengths    []int64
		noteConsonants []int64
		noteVowels     []int64
		phonemes       []int64
		phonemeKeys    []int64
	)

	for i, note := range score.Notes {
		if note.Lyric == "" {
			// Rest. A non-rest key on an empty lyric is a caller error the
			// original accepts; keep the behavior but leave a trace.
			if note.Key != restKey {
				c.log.Debug("rest note carries a pitch key", slog.Int("note", i), slog.Int64("key", note.Key))
			}
			noteLengths = append(noteLengths, note.FrameLength)
			noteConsonants = append(noteConsonants, -1)
			noteVowels = append(noteVowels, phoneme.PauseIndex)
			phonemes = append(phonemes, phoneme.PauseIndex)
			phonemeKeys = append(phonemeKeys, restKey)
			continue
		}

		if note.Key == restKey {
			c.log.Debug("lyric note without a pitch key", slog.Int("note", i), slog.String("lyric", note.Lyric))
		}

		mora, ok := phoneme.LookupMora(note.Lyric)
		if !ok {
			c.log.Warn("lyric not found in mora mapping, skipping note",
				slog.Int("note", i), slog.String("lyric", note.Lyric))
			continue
		}

		consonantID := int64(-1)
		if mora.Consonant != "" {
			idx, err := c.table.Index(mora.Consonant)
			if err != nil {
				return DecodeSource{}, fmt.Errorf("score note %d: %w", i, err)
			}
			consonantID = int64(idx)
		}

		vowelIdx, err := c.table.Index(mora.Vowel)
		if err != nil {
			return DecodeSource{}, fmt.Errorf("score note %d: %w", i, err)
		}
		vowelID := int64(vowelIdx)

		noteLengths = append(noteLengths, note.FrameLength)
		noteConsonants = append(noteConsonants, consonantID)
		noteVowels = append(noteVowels, vowelID)

		if consonantID != -1 {
			phonemes = append(phonemes, consonantID)
			phonemeKeys = append(phonemeKeys, note.Key)
		}
		phonemes = append(phonemes, vowelID)
		phonemeKeys = append(phonemeKeys, note.Key)
	}

	consonantLengths, err := pred.PredictConsonantLength(ctx, styleID, noteConsonants, noteVowels, noteLengths)
	if err != nil {
		return DecodeSource{}, fmt.Errorf("predict consonant length: %w", err)
	}
	if len(consonantLengths) != len(noteLengths) {
		return DecodeSource{}, fmt.Errorf("predict consonant length: got %d entries for %d notes",
			len(consonantLengths), len(noteLengths))
	}

	durations, err := phonemeDurations(consonantLengths, noteLengths)
	if err != nil {
		return DecodeSource{}, err
	}

	expandedPhonemes, err := repeatByLengths(phonemes, durations)
	if err != nil {
		return DecodeSource{}, fmt.Errorf("expand phonemes: %w", err)
	}
	expandedKeys, err := repeatByLengths(phonemeKeys, durations)
	if err != nil {
		return DecodeSource{}, fmt.Errorf("expand keys: %w", err)
	}

	f0, err := pred.PredictF0(ctx, styleID, expandedPhonemes, expandedKeys)
	if err != nil {
		return DecodeSource{}, fmt.Errorf("predict f0: %w", err)
	}
	if len(f0) != len(expandedPhonemes) {
		return DecodeSource{}, fmt.Errorf("predict f0: got %d frames, want %d", len(f0), len(expandedPhonemes))
	}

	volume, err := pred.PredictVolume(ctx, styleID, expandedPhonemes, expandedKeys, f0)
	if err != nil {
		return DecodeSource{}, fmt.Errorf("predict volume: %w", err)
	}
	if len(volume) != len(expandedPhonemes) {
		return DecodeSource{}, fmt.Errorf("predict volume: got %d frames, want %d", len(volume), len(expandedPhonemes))
	}

	return DecodeSource{
		F0:         f0,
		Volume:     volume,
		Phoneme:    expandedPhonemes,
		SampleRate: sampleRate,
	}, nil
}

// phonemeDurations derives the per-phoneme frame durations from predicted
// consonant lengths and note lengths. For every note but the last the vowel
// duration is the note length minus the next note's consonant length; an
// unset (negative) or overlong consonant falls back to half the note. The
// consonant duration is emitted after the vowel because the consonant
// phoneme opens the following syllable. The last note is vowel-only.
//
// The calculation works on an owned copy of the consonant lengths; the
// fallback writes propagate to later iterations, not to the caller.
func phonemeDurations(consonantLengths, noteLengths []int64) ([]int64, error) {
	cl := append([]int64(nil), consonantLengths...)

	durations := make([]int64, 0, len(cl)*2)
	for i := range cl {
		if i == len(cl)-1 {
			durations = append(durations, noteLengths[i])
			continue
		}

		if i == 0 && cl[0] != 0 {
			return nil, fmt.Errorf("%w: first note has consonant length %d", ErrMalformedInput, cl[0])
		}

		next := cl[i+1]
		note := noteLengths[i]

		if next < 0 {
			next = note / 2
			cl[i+1] = next
		}

		vowel := note - next
		if vowel < 0 {
			next = note / 2
			cl[i+1] = next
			vowel = note - next
		}

		durations = append(durations, vowel)
		if next > 0 {
			durations = append(durations, next)
		}
	}

	return durations, nil
}

// repeatByLengths expands values by repeating values[i] lengths[i] times.
func repeatByLengths[T any](values []T, lengths []int64) ([]T, error) {
	if len(values) != len(lengths) {
		return nil, fmt.Errorf("%w: %d values for %d lengths", ErrMalformedInput, len(values), len(lengths))
	}

	var total int64
	for _, n := range lengths {
		total += n
	}

	out := make([]T, 0, total)
	for i, v := range values {
		for range lengths[i] {
			out = append(out, v)
		}
	}
	return out, nil
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
