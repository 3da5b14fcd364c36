// Package engine owns the asynchronous synthesis pipeline: it accepts
// requests, runs them on a bounded worker pool against an opaque voice
// synthesis backend, and delivers exactly one artefact per request.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cocotone/voicevox-juce-demo/internal/feature"
)

// Backend is the opaque voice-synthesis capability the engine drives. The
// three prediction calls come from feature.Predictor; the rest covers model
// lifecycle, metadata and the two synthesis entry points.
//
// Implementations must be safe for concurrent use; the engine calls them
// from multiple worker goroutines.
type Backend interface {
	feature.Predictor

	LoadModel(ctx context.Context, styleID uint32) error
	IsModelLoaded(styleID uint32) bool

	// MetasJSON returns the backend's model/style catalog as JSON, an array
	// of objects {name, styles: [{name, id, type}]}.
	MetasJSON() ([]byte, error)

	// TextToSpeech renders text as a complete WAV byte stream.
	TextToSpeech(ctx context.Context, styleID uint32, text string) ([]byte, error)

	// DecodeFrames renders a per-frame feature bundle into mono samples at
	// the backend's output rate.
	DecodeFrames(ctx context.Context, styleID uint32, src feature.DecodeSource) ([]float32, error)

	// SongTeacherStyleID is the style used for score predictions, distinct
	// from the style that renders the audio.
	SongTeacherStyleID() uint32

	// OutputSampleRate is the native rate of DecodeFrames output.
	OutputSampleRate() int
}

// StyleMeta describes one style of a voice model.
type StyleMeta struct {
	Name string `json:"name"`
	ID   uint32 `json:"id"`
	Type string `json:"type"`
}

// ModelMeta describes one voice model and its styles.
type ModelMeta struct {
	Name   string      `json:"name"`
	Styles []StyleMeta `json:"styles"`
}

// parseMetas decodes the backend's metadata catalog.
func parseMetas(raw []byte) ([]ModelMeta, error) {
	var metas []ModelMeta
	if err := json.Unmarshal(raw, &metas); err != nil {
		return nil, fmt.Errorf("decode metas: %w", err)
	}
	return metas, nil
}
