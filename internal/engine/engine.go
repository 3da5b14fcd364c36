package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cocotone/voicevox-juce-demo/internal/audio"
	"github.com/cocotone/voicevox-juce-demo/internal/feature"
	"github.com/cocotone/voicevox-juce-demo/internal/phoneme"
)

// ErrEngineClosed is returned by Submit after Close has been called.
var ErrEngineClosed = errors.New("engine closed")

// ErrBackendUnavailable is returned when a backend call produced no result.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Mode selects the synthesis path of a request.
type Mode int

const (
	// ModeTalk renders text through the backend's text-to-speech call.
	ModeTalk Mode = iota
	// ModeHumming renders a score or audio query through the frame decoder.
	ModeHumming
)

// Request describes one synthesis job. Exactly one of Text, ScoreJSON or
// AudioQueryJSON is consumed, depending on Mode and which payload is set.
// Immutable once submitted.
type Request struct {
	ID      uuid.UUID
	StyleID uint32
	Mode    Mode

	Text           string
	ScoreJSON      []byte
	AudioQueryJSON []byte

	// TargetSampleRate, when positive, resamples a raw-buffer result to the
	// requested rate before delivery. Zero keeps the backend's native rate.
	TargetSampleRate int
}

// NewRequest returns a request with a fresh id.
func NewRequest(styleID uint32, mode Mode) Request {
	return Request{ID: uuid.New(), StyleID: styleID, Mode: mode}
}

// Artefact is the single result of a request: WAV bytes for talk, a raw
// buffer for humming, or a failure. Delivered exactly once.
type Artefact struct {
	RequestID uuid.UUID
	WAV       []byte
	Buffer    *audio.BufferInfo
	Err       error
}

// Failed reports whether the request produced no audio.
func (a Artefact) Failed() bool {
	return a.Err != nil || (len(a.WAV) == 0 && a.Buffer == nil)
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	workers        int
	requestTimeout time.Duration
	shutdownGrace  time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		workers:        2,
		requestTimeout: 0, // disabled
		shutdownGrace:  time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the engine.
type Option func(*options)

// WithWorkers sets the maximum number of concurrently executing jobs.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets a per-job deadline. Zero disables it.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithShutdownGrace bounds how long Close waits for outstanding jobs.
func WithShutdownGrace(d time.Duration) Option {
	return func(o *options) { o.shutdownGrace = d }
}

// WithLogger sets the slog.Logger used by the engine and its converter.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// Engine
// ---------------------------------------------------------------------------

// Engine runs synthesis jobs on a bounded worker pool. Submission never
// blocks; completion callbacks fire on worker goroutines in whatever order
// jobs finish. Correlate results by request id, not by submission order.
type Engine struct {
	backend Backend
	conv    *feature.Converter
	opts    options
	log     *slog.Logger

	sem chan struct{} // bounds concurrently running jobs
	wg  sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New builds an engine over the given backend.
func New(backend Backend, optFns ...Option) *Engine {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.workers < 1 {
		opts.workers = 1
	}

	log := opts.logger.With(slog.String("component", "synthesis-engine"))

	return &Engine{
		backend: backend,
		conv:    feature.NewConverter(phoneme.Shared(), opts.logger),
		opts:    opts,
		log:     log,
		sem:     make(chan struct{}, opts.workers),
	}
}

// Submit enqueues a request and returns immediately. onComplete fires
// exactly once, on a worker goroutine, with the request's artefact. Callers
// needing delivery on a particular goroutine must re-dispatch themselves.
func (e *Engine) Submit(req Request, onComplete func(Artefact)) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()

		e.sem <- struct{}{}
		defer func() { <-e.sem }()

		ctx := context.Background()
		if e.opts.requestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, e.opts.requestTimeout)
			defer cancel()
		}

		artefact := e.run(ctx, req)
		if onComplete != nil {
			onComplete(artefact)
		}
	}()

	return nil
}

// Do runs a request synchronously, waiting for its artefact or ctx.
func (e *Engine) Do(ctx context.Context, req Request) (Artefact, error) {
	done := make(chan Artefact, 1)
	if err := e.Submit(req, func(a Artefact) { done <- a }); err != nil {
		return Artefact{}, err
	}

	select {
	case a := <-done:
		return a, nil
	case <-ctx.Done():
		return Artefact{}, ctx.Err()
	}
}

// Close stops intake and waits up to the shutdown grace period for
// outstanding jobs. Jobs still running afterwards are abandoned; their
// callbacks may still fire but no ordering against Close is guaranteed.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(e.opts.shutdownGrace):
		e.log.Warn("shutdown grace period elapsed, abandoning outstanding jobs",
			slog.Duration("grace", e.opts.shutdownGrace))
	}
}

// run executes one job to completion. Every failure path degrades to a
// Failed artefact; nothing here is fatal to the process.
func (e *Engine) run(ctx context.Context, req Request) Artefact {
	artefact := Artefact{RequestID: req.ID}

	start := time.Now()
	e.log.Debug("job started",
		slog.String("request_id", req.ID.String()),
		slog.Int("style_id", int(req.StyleID)))

	e.ensureModelLoaded(ctx, req.StyleID)

	switch req.Mode {
	case ModeTalk:
		artefact = e.runTalk(ctx, req)
	case ModeHumming:
		artefact = e.runHumming(ctx, req)
	default:
		artefact.Err = fmt.Errorf("unknown mode %d", req.Mode)
	}

	if artefact.Err != nil {
		e.log.Warn("job failed",
			slog.String("request_id", req.ID.String()),
			slog.Any("error", artefact.Err))
	} else {
		e.log.Debug("job finished",
			slog.String("request_id", req.ID.String()),
			slog.Duration("elapsed", time.Since(start)))
	}

	return artefact
}

func (e *Engine) runTalk(ctx context.Context, req Request) Artefact {
	artefact := Artefact{RequestID: req.ID}

	wav, err := e.backend.TextToSpeech(ctx, req.StyleID, req.Text)
	if err != nil {
		artefact.Err = fmt.Errorf("text to speech: %w", err)
		return artefact
	}
	if len(wav) == 0 {
		artefact.Err = fmt.Errorf("text to speech: %w", ErrBackendUnavailable)
		return artefact
	}

	artefact.WAV = wav
	return artefact
}

func (e *Engine) runHumming(ctx context.Context, req Request) Artefact {
	artefact := Artefact{RequestID: req.ID}

	var (
		src feature.DecodeSource
		err error
	)

	switch {
	case len(req.ScoreJSON) > 0:
		// Score predictions run on the song teacher model, which may differ
		// from the rendering style.
		teacher := e.backend.SongTeacherStyleID()
		e.ensureModelLoaded(ctx, teacher)
		src, err = e.conv.FromScore(ctx, e.backend, teacher, req.ScoreJSON, e.backend.OutputSampleRate())
	case len(req.AudioQueryJSON) > 0:
		src, err = e.conv.FromAudioQuery(req.AudioQueryJSON)
	default:
		err = fmt.Errorf("%w: humming request carries neither score nor audio query", feature.ErrMalformedInput)
	}

	if err != nil {
		artefact.Err = err
		return artefact
	}

	samples, err := e.backend.DecodeFrames(ctx, req.StyleID, src)
	if err != nil {
		artefact.Err = fmt.Errorf("decode frames: %w", err)
		return artefact
	}
	if len(samples) == 0 {
		artefact.Err = fmt.Errorf("decode frames: %w", ErrBackendUnavailable)
		return artefact
	}

	rate := src.SampleRate
	if req.TargetSampleRate > 0 && req.TargetSampleRate != rate {
		samples = audio.Resample(samples, rate, req.TargetSampleRate)
		rate = req.TargetSampleRate
	}

	artefact.Buffer = &audio.BufferInfo{Samples: samples, SampleRate: rate}
	return artefact
}

// ensureModelLoaded loads the model on demand. Failure is logged but not
// fatal: the synthesis call itself reports the real error.
func (e *Engine) ensureModelLoaded(ctx context.Context, styleID uint32) {
	if e.backend.IsModelLoaded(styleID) {
		return
	}
	if err := e.backend.LoadModel(ctx, styleID); err != nil {
		e.log.Warn("load model failed",
			slog.Int("style_id", int(styleID)),
			slog.Any("error", err))
	}
}
