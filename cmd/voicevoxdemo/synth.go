package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cocotone/voicevox-juce-demo/internal/audio"
	"github.com/cocotone/voicevox-juce-demo/internal/config"
	"github.com/cocotone/voicevox-juce-demo/internal/engine"
)

func newSynthCmd() *cobra.Command {
	var text string
	var scorePath string
	var queryPath string
	var mode string
	var voice string
	var out string
	var normalize bool
	var dcBlock bool
	var fadeInMS float64
	var fadeOutMS float64

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize speech or humming to WAV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			selectedMode, err := config.NormalizeMode(mode)
			if err != nil {
				return err
			}

			selectedVoice := cfg.Engine.Voice
			if voice != "" {
				selectedVoice = voice
			}

			eng := newEngine(cfg)
			defer eng.Close()

			req, err := buildRequest(buildRequestOptions{
				Engine:    eng,
				Mode:      selectedMode,
				Voice:     selectedVoice,
				Text:      text,
				ScorePath: scorePath,
				QueryPath: queryPath,
				Stdin:     os.Stdin,
			})
			if err != nil {
				return err
			}

			artefact, err := eng.Do(cmd.Context(), req)
			if err != nil {
				return err
			}
			if artefact.Err != nil {
				return fmt.Errorf("synthesis failed: %w", artefact.Err)
			}

			result, err := artefactWAV(artefact)
			if err != nil {
				return err
			}

			if normalize || cfg.Audio.Normalize || dcBlock || fadeInMS > 0 || fadeOutMS > 0 {
				result, err = applyDSPToWAV(result, synthDSPOptions{
					Normalize: normalize || cfg.Audio.Normalize,
					DCBlock:   dcBlock,
					FadeInMS:  fadeInMS,
					FadeOutMS: fadeOutMS,
				})
				if err != nil {
					return err
				}
			}

			return writeSynthOutput(out, result, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to synthesize (if empty, read from stdin)")
	cmd.Flags().StringVar(&scorePath, "score", "", "Path to a score JSON file (humming mode)")
	cmd.Flags().StringVar(&queryPath, "audio-query", "", "Path to an audio query JSON file (humming mode)")
	cmd.Flags().StringVar(&mode, "mode", "talk", "Synthesis mode (talk|humming)")
	cmd.Flags().StringVar(&voice, "voice", "", "Voice label substring or style id")
	cmd.Flags().StringVar(&out, "out", "out.wav", "Output WAV path ('-' for stdout)")
	cmd.Flags().BoolVar(&normalize, "normalize", false, "Peak-normalize the output")
	cmd.Flags().BoolVar(&dcBlock, "dc-block", false, "Remove DC offset from the output")
	cmd.Flags().Float64Var(&fadeInMS, "fade-in-ms", 0, "Fade-in length in milliseconds")
	cmd.Flags().Float64Var(&fadeOutMS, "fade-out-ms", 0, "Fade-out length in milliseconds")

	return cmd
}

type buildRequestOptions struct {
	Engine    *engine.Engine
	Mode      string
	Voice     string
	Text      string
	ScorePath string
	QueryPath string
	Stdin     io.Reader
}

// buildRequest assembles the engine request for one synth invocation,
// resolving the voice against the live catalog and loading any score or
// audio query payload from disk.
func buildRequest(opts buildRequestOptions) (engine.Request, error) {
	cat, err := opts.Engine.Catalog()
	if err != nil {
		return engine.Request{}, err
	}

	switch opts.Mode {
	case config.ModeTalk:
		styleID, err := resolveVoice(opts.Voice, cat.Talk)
		if err != nil {
			return engine.Request{}, err
		}

		req := engine.NewRequest(styleID, engine.ModeTalk)
		req.Text, err = readSynthText(opts.Text, opts.Stdin)
		if err != nil {
			return engine.Request{}, err
		}
		return req, nil

	case config.ModeHumming:
		styleID, err := resolveVoice(opts.Voice, cat.Humming)
		if err != nil {
			return engine.Request{}, err
		}

		req := engine.NewRequest(styleID, engine.ModeHumming)
		switch {
		case opts.ScorePath != "" && opts.QueryPath != "":
			return engine.Request{}, fmt.Errorf("--score and --audio-query are mutually exclusive")
		case opts.ScorePath != "":
			req.ScoreJSON, err = os.ReadFile(opts.ScorePath)
		case opts.QueryPath != "":
			req.AudioQueryJSON, err = os.ReadFile(opts.QueryPath)
		default:
			return engine.Request{}, fmt.Errorf("humming mode needs --score or --audio-query")
		}
		if err != nil {
			return engine.Request{}, err
		}
		return req, nil
	}

	return engine.Request{}, fmt.Errorf("unsupported mode %q", opts.Mode)
}

// resolveVoice picks a style id from the catalog by numeric id or by a
// case-insensitive label substring. An empty selector takes the first entry.
func resolveVoice(selector string, entries []engine.VoiceEntry) (uint32, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("no voices available for this mode")
	}

	selector = strings.TrimSpace(selector)
	if selector == "" {
		return entries[0].StyleID, nil
	}

	if id, err := strconv.ParseUint(selector, 10, 32); err == nil {
		for _, e := range entries {
			if e.StyleID == uint32(id) {
				return e.StyleID, nil
			}
		}
		return 0, fmt.Errorf("style id %d not in the catalog", id)
	}

	needle := strings.ToLower(selector)
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Label), needle) {
			return e.StyleID, nil
		}
	}

	return 0, fmt.Errorf("no voice matches %q", selector)
}

func readSynthText(text string, stdin io.Reader) (string, error) {
	if text != "" {
		return text, nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read text from stdin: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return "", fmt.Errorf("no text to synthesize")
	}
	return trimmed, nil
}

// artefactWAV returns the artefact's audio as WAV bytes, encoding raw
// buffers on the fly.
func artefactWAV(a engine.Artefact) ([]byte, error) {
	if len(a.WAV) > 0 {
		return a.WAV, nil
	}
	if a.Buffer != nil {
		return audio.EncodeWAV(a.Buffer.Samples, a.Buffer.SampleRate)
	}
	return nil, fmt.Errorf("artefact carries no audio")
}

type synthDSPOptions struct {
	Normalize bool
	DCBlock   bool
	FadeInMS  float64
	FadeOutMS float64
}

// applyDSPToWAV decodes, post-processes and re-encodes WAV bytes.
func applyDSPToWAV(wavBytes []byte, opts synthDSPOptions) ([]byte, error) {
	samples, rate, err := audio.DecodeWAV(wavBytes)
	if err != nil {
		return nil, fmt.Errorf("decode for post-processing: %w", err)
	}

	var hooks []audio.Hook
	if opts.DCBlock {
		hooks = append(hooks, func(s []float32) []float32 { return audio.DCBlock(s, rate) })
	}
	if opts.Normalize {
		hooks = append(hooks, audio.PeakNormalize)
	}
	if opts.FadeInMS > 0 {
		hooks = append(hooks, func(s []float32) []float32 { return audio.FadeIn(s, rate, opts.FadeInMS) })
	}
	if opts.FadeOutMS > 0 {
		hooks = append(hooks, func(s []float32) []float32 { return audio.FadeOut(s, rate, opts.FadeOutMS) })
	}

	return audio.EncodeWAV(audio.ApplyHooks(samples, hooks...), rate)
}

func writeSynthOutput(out string, data []byte, stdout io.Writer) error {
	if out == "-" {
		if _, err := stdout.Write(data); err != nil {
			return fmt.Errorf("write WAV to stdout: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("write WAV: %w", err)
	}
	return nil
}
