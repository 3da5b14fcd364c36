// Package feature converts JSON audio-query and score descriptions into the
// aligned per-frame feature bundle consumed by the frame decoder.
package feature

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedInput is returned when a JSON payload is missing required
// fields or carries values outside their domain.
var ErrMalformedInput = errors.New("malformed input")

// DecodeSource is the aligned per-frame feature bundle handed to the
// backend's waveform decoder. F0, Volume and Phoneme always have equal
// length, one entry per frame.
type DecodeSource struct {
	F0         []float32
	Volume     []float32
	Phoneme    []int64
	SampleRate int
}

// Frames reports the number of aligned feature frames.
func (s DecodeSource) Frames() int { return len(s.F0) }

// FramePhoneme is one run-length encoded phoneme entry of an audio query.
type FramePhoneme struct {
	Phoneme     string
	FrameLength int64
}

// AudioQuery is the pre-aligned per-frame description of a synthesis request.
type AudioQuery struct {
	F0                 []float64
	Volume             []float64
	Phonemes           []FramePhoneme
	OutputSamplingRate int
}

// Note is one entry of a score. Key -1 together with an empty lyric denotes
// a rest.
type Note struct {
	Key         int64
	FrameLength int64
	Lyric       string
}

// Score is a note-level description of a singing request.
type Score struct {
	Notes []Note
}

// Wire shapes use pointer fields so a missing key is distinguishable from a
// zero value; field names are the wire contract.
type audioQueryJSON struct {
	F0                 *[]float64          `json:"f0"`
	Volume             *[]float64          `json:"volume"`
	Phonemes           *[]framePhonemeJSON `json:"phonemes"`
	OutputSamplingRate *int                `json:"outputSamplingRate"`
}

type framePhonemeJSON struct {
	Phoneme     *string `json:"phoneme"`
	FrameLength *int64  `json:"frame_length"`
}

type scoreJSON struct {
	Notes *[]noteJSON `json:"notes"`
}

type noteJSON struct {
	Key         *int64  `json:"key"`
	FrameLength *int64  `json:"frame_length"`
	Lyric       *string `json:"lyric"`
}

// ParseAudioQuery decodes and validates an audio-query JSON document.
func ParseAudioQuery(raw []byte) (AudioQuery, error) {
	var wire audioQueryJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return AudioQuery{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	switch {
	case wire.F0 == nil:
		return AudioQuery{}, fmt.Errorf("%w: missing field %q", ErrMalformedInput, "f0")
	case wire.Volume == nil:
		return AudioQuery{}, fmt.Errorf("%w: missing field %q", ErrMalformedInput, "volume")
	case wire.Phonemes == nil:
		return AudioQuery{}, fmt.Errorf("%w: missing field %q", ErrMalformedInput, "phonemes")
	case wire.OutputSamplingRate == nil:
		return AudioQuery{}, fmt.Errorf("%w: missing field %q", ErrMalformedInput, "outputSamplingRate")
	case *wire.OutputSamplingRate <= 0:
		return AudioQuery{}, fmt.Errorf("%w: outputSamplingRate %d", ErrMalformedInput, *wire.OutputSamplingRate)
	}

	q := AudioQuery{
		F0:                 *wire.F0,
		Volume:             *wire.Volume,
		OutputSamplingRate: *wire.OutputSamplingRate,
		Phonemes:           make([]FramePhoneme, 0, len(*wire.Phonemes)),
	}

	for i, p := range *wire.Phonemes {
		if p.Phoneme == nil {
			return AudioQuery{}, fmt.Errorf("%w: phonemes[%d] missing %q", ErrMalformedInput, i, "phoneme")
		}
		if p.FrameLength == nil {
			return AudioQuery{}, fmt.Errorf("%w: phonemes[%d] missing %q", ErrMalformedInput, i, "frame_length")
		}
		if *p.FrameLength < 0 {
			return AudioQuery{}, fmt.Errorf("%w: phonemes[%d] frame_length %d", ErrMalformedInput, i, *p.FrameLength)
		}
		q.Phonemes = append(q.Phonemes, FramePhoneme{Phoneme: *p.Phoneme, FrameLength: *p.FrameLength})
	}

	return q, nil
}

// ParseScore decodes and validates a score JSON document.
func ParseScore(raw []byte) (Score, error) {
	var wire scoreJSON
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Score{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	if wire.Notes == nil {
		return Score{}, fmt.Errorf("%w: missing field %q", ErrMalformedInput, "notes")
	}

	s := Score{Notes: make([]Note, 0, len(*wire.Notes))}
	for i, n := range *wire.Notes {
		if n.Key == nil {
			return Score{}, fmt.Errorf("%w: notes[%d] missing %q", ErrMalformedInput, i, "key")
		}
		if n.FrameLength == nil {
			return Score{}, fmt.Errorf("%w: notes[%d] missing %q", ErrMalformedInput, i, "frame_length")
		}
		if *n.FrameLength < 0 {
			return Score{}, fmt.Errorf("%w: notes[%d] frame_length %d", ErrMalformedInput, i, *n.FrameLength)
		}

		lyric := ""
		if n.Lyric != nil {
			lyric = *n.Lyric
		}

		s.Notes = append(s.Notes, Note{Key: *n.Key, FrameLength: *n.FrameLength, Lyric: lyric})
	}

	return s, nil
}
