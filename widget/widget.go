/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package widget runs one candidate point-cloud widget per browser
// connection. All widget state is owned by a single event loop; browser
// events, network completions and timer firings are all delivered to it.
package widget

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Seednode/pokenator/backend"
	"github.com/Seednode/pokenator/enrich"
	"github.com/Seednode/pokenator/game"
	"github.com/Seednode/pokenator/pointcloud"
	"github.com/Seednode/pokenator/pokeapi"
)

type Backend interface {
	Start(ctx context.Context) (*backend.StartResponse, error)
	Answer(ctx context.Context, sessionID string, answer backend.Answer) (*backend.StepResponse, error)
	Candidates(ctx context.Context, sessionID string) (*backend.CandidatesResponse, error)
}

type Details interface {
	Pokemon(ctx context.Context, nameOrID string) (*pokeapi.Pokemon, error)
}

type Options struct {
	MaxLabels      int
	RequestTimeout time.Duration
	Screen         game.Options

	// Viewport width reported before the browser sends its first resize.
	InitialWidth float64

	Metrics *Metrics
	Logger  zerolog.Logger
	Rand    *rand.Rand
}

// completions delivered back to the loop
type (
	startDone struct {
		resp *backend.StartResponse
		err  error
	}
	answerDone struct {
		step *backend.StepResponse
		err  error
	}
	candidatesDone struct {
		seq  uint64
		resp *backend.CandidatesResponse
		err  error
	}
	lookupDone struct {
		c enrich.Completion
	}
	confettiDone struct {
		burst uint64
	}
)

type Widget struct {
	ID string

	opts    Options
	backend Backend
	details Details
	out     chan<- any
	done    chan any
	log     zerolog.Logger
	rng     *rand.Rand

	screen   *game.Screen
	cache    *enrich.Cache
	resolver *enrich.Resolver
	viewport *pointcloud.Viewport
	world    pointcloud.World
	layout   pointcloud.Layout
	labels   map[string]string // uri -> label of placed points

	candSeq    uint64
	guessLabel string
	hover      pointcloud.Candidate

	burst  uint64
	timers map[uint64]*time.Timer

	lastActive atomic.Int64
}

// New creates a widget that writes its outbound messages to out.
func New(b Backend, d Details, out chan<- any, opts Options) *Widget {
	if opts.MaxLabels == 0 {
		opts.MaxLabels = pointcloud.DefaultMaxLabels
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}

	id := uuid.NewString()
	cache := enrich.NewCache()

	w := &Widget{
		ID:       id,
		opts:     opts,
		backend:  b,
		details:  d,
		out:      out,
		done:     make(chan any),
		log:      opts.Logger.With().Str("widget", id).Logger(),
		rng:      opts.Rand,
		screen:   game.NewScreen(opts.Screen),
		cache:    cache,
		resolver: enrich.NewResolver(cache),
		viewport: pointcloud.NewViewport(),
		world:    pointcloud.WorldFor(opts.InitialWidth),
		labels:   make(map[string]string),
		timers:   make(map[uint64]*time.Timer),
	}
	w.touch()

	return w
}

// LastActive is safe to call from other goroutines.
func (w *Widget) LastActive() time.Time {
	return time.Unix(0, w.lastActive.Load())
}

func (w *Widget) touch() {
	w.lastActive.Store(time.Now().UnixNano())
}

// Run starts a game and processes events until ctx is done or in is closed.
// Pending confetti timers are stopped on return; lookups still in flight
// are abandoned.
func (w *Widget) Run(ctx context.Context, in <-chan Event) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer w.stopTimers()
	defer func() {
		w.log.Debug().
			Int("pending", w.resolver.Pending()).
			Int("cached", w.cache.Len()).
			Uint64("generation", w.resolver.Generation()).
			Msg("GAMES: Widget closed")
	}()

	w.opts.Metrics.Live.Inc()
	defer w.opts.Metrics.Live.Dec()

	w.emitState(ctx)
	w.emitCloud(ctx)
	w.emitViewport(ctx)
	w.start(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-in:
			if !ok {
				return nil
			}
			w.touch()
			w.handle(ctx, ev)
		case r := <-w.done:
			w.complete(ctx, r)
		}
	}
}

func (w *Widget) handle(ctx context.Context, ev Event) {
	switch ev.Type {
	case "start":
		w.start(ctx)
	case "answer":
		w.answer(ctx, backend.Answer(strings.ToUpper(ev.Answer)))
	case "wrong":
		w.answer(ctx, backend.AnswerNo)
	case "correct":
		if e, ok := w.screen.Correct(); ok {
			w.apply(ctx, e)
			w.emitState(ctx)
		}
	case "hover":
		w.hoverOn(ctx, ev.URI)
	case "leave":
		w.hover = pointcloud.Candidate{}
		w.resolver.Clear(enrich.SlotHover)
		w.emitHover(ctx)
	case "wheel":
		if ev.DeltaY == 0 {
			return
		}
		w.viewport.Wheel(ev.DeltaY)
		w.emitViewport(ctx)
	case "zoom_in":
		w.viewport.ZoomIn()
		w.emitViewport(ctx)
	case "zoom_out":
		w.viewport.ZoomOut()
		w.emitViewport(ctx)
	case "reset_view":
		w.viewport.Reset()
		w.emitViewport(ctx)
	case "pointer_down":
		if ev.Button != pointcloud.PrimaryButton {
			return
		}
		w.viewport.PointerDown(ev.Button, pointcloud.Point{X: ev.X, Y: ev.Y})
		w.emitViewport(ctx)
	case "pointer_move":
		if w.viewport.PointerMove(pointcloud.Point{X: ev.X, Y: ev.Y}) {
			w.emitViewport(ctx)
		}
	case "pointer_up", "pointer_leave":
		if !w.viewport.Dragging() {
			return
		}
		w.viewport.PointerUp()
		w.emitViewport(ctx)
	case "resize":
		if ev.Width <= 0 {
			return
		}
		w.world = pointcloud.WorldFor(ev.Width)
		w.emitCloud(ctx)
	default:
		w.log.Debug().Str("type", ev.Type).Msg("GAMES: Ignoring unknown event")
	}
}

func (w *Widget) start(ctx context.Context) {
	e, ok := w.screen.BeginStart()
	if !ok {
		return
	}

	w.stopTimers()
	w.send(ctx, ConfettiMessage{Type: "confetti", Pieces: []game.Piece{}})
	w.apply(ctx, e)
	w.emitState(ctx)

	w.call(ctx, func(ctx context.Context) any {
		resp, err := w.backend.Start(ctx)
		return startDone{resp: resp, err: err}
	})
}

func (w *Widget) answer(ctx context.Context, a backend.Answer) {
	if !a.Valid() {
		w.log.Debug().Str("answer", string(a)).Msg("GAMES: Ignoring invalid answer")
		return
	}

	if !w.screen.BeginAnswer() {
		return
	}
	w.emitState(ctx)

	session := w.screen.SessionID
	w.call(ctx, func(ctx context.Context) any {
		step, err := w.backend.Answer(ctx, session, a)
		return answerDone{step: step, err: err}
	})
}

func (w *Widget) refreshCandidates(ctx context.Context) {
	session := w.screen.SessionID
	if session == "" {
		return
	}

	w.candSeq++
	seq := w.candSeq
	w.call(ctx, func(ctx context.Context) any {
		resp, err := w.backend.Candidates(ctx, session)
		return candidatesDone{seq: seq, resp: resp, err: err}
	})
}

func (w *Widget) hoverOn(ctx context.Context, uri string) {
	label, ok := w.labels[uri]
	if !ok {
		return
	}

	w.hover = pointcloud.Candidate{URI: uri, Label: label}
	w.selectDetail(ctx, enrich.SlotHover, pokeapi.LookupKey(uri, label))
	w.emitHover(ctx)
}

func (w *Widget) selectDetail(ctx context.Context, s enrich.Slot, key string) {
	d, req := w.resolver.Select(s, key)
	if req == nil {
		if d.Status != enrich.StatusLoading {
			w.opts.Metrics.CacheHits.Inc()
		}
		return
	}

	w.opts.Metrics.Lookups.Inc()
	w.call(ctx, func(ctx context.Context) any {
		p, err := w.details.Pokemon(ctx, req.Key)
		return lookupDone{c: enrich.Completion{Key: req.Key, Gen: req.Gen, Detail: p, Err: err}}
	})
}

// call runs fn off the loop with the request timeout and hands its result
// back to Run. The result is dropped if the widget has gone away.
func (w *Widget) call(ctx context.Context, fn func(context.Context) any) {
	go func() {
		cctx, cancel := context.WithTimeout(ctx, w.opts.RequestTimeout)
		defer cancel()

		r := fn(cctx)

		select {
		case w.done <- r:
		case <-ctx.Done():
		}
	}()
}

func (w *Widget) complete(ctx context.Context, r any) {
	switch r := r.(type) {
	case startDone:
		if r.err != nil {
			w.backendError("start", r.err)
		}
		e := w.screen.FinishStart(r.resp, r.err)
		if r.err == nil {
			w.log.Info().Str("session", r.resp.SessionID).Msg("GAMES: Started game")
		}
		w.apply(ctx, e)
		w.emitState(ctx)

	case answerDone:
		if r.err != nil {
			w.backendError("answer", r.err)
		}
		e := w.screen.FinishAnswer(r.step, r.err)
		w.apply(ctx, e)
		w.emitState(ctx)

	case candidatesDone:
		if r.seq != w.candSeq {
			return
		}
		if r.err != nil {
			w.backendError("candidates", r.err)
			return
		}
		w.setCandidates(r.resp.Candidates)
		w.emitCloud(ctx)

	case lookupDone:
		if r.c.Err != nil && !errors.Is(r.c.Err, pokeapi.ErrNotFound) {
			w.log.Debug().Err(r.c.Err).Str("key", r.c.Key).Msg("GAMES: Detail lookup failed")
		}

		updated := w.resolver.Complete(r.c)
		if len(updated) == 0 {
			w.opts.Metrics.Stale.Inc()
		}

		for _, s := range updated {
			switch s {
			case enrich.SlotHover:
				w.emitHover(ctx)
			case enrich.SlotGuess:
				w.guessResolved(ctx)
			}
		}

	case confettiDone:
		delete(w.timers, r.burst)
		if r.burst == w.burst {
			w.send(ctx, ConfettiMessage{Type: "confetti", Pieces: []game.Piece{}})
		}
	}
}

func (w *Widget) backendError(op string, err error) {
	w.opts.Metrics.BackendErrors.WithLabelValues(op).Inc()

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		w.log.Warn().Str("op", op).Str("session", w.screen.SessionID).Msg("GAMES: Backend session not found")
		return
	}

	w.log.Warn().Err(err).Str("op", op).Msg("GAMES: Backend call failed")
}

func (w *Widget) setCandidates(candidates []pointcloud.Candidate) {
	w.layout = pointcloud.Arrange(candidates, w.opts.MaxLabels)

	clear(w.labels)
	for _, p := range w.layout.Points {
		w.labels[p.URI] = p.Label
	}
}

// apply carries out the side effects of a screen transition.
func (w *Widget) apply(ctx context.Context, e game.Effect) {
	if e.ClearDetail {
		w.guessLabel = ""
		w.resolver.Clear(enrich.SlotGuess)
		w.emitGuessDetail(ctx)
	}

	if e.LookupGuess != "" {
		w.guessLabel = e.LookupGuess

		key := pokeapi.Slug(e.LookupGuess)
		if key == "" {
			w.screen.GuessLookupFailed(e.LookupGuess, key)
		} else {
			w.selectDetail(ctx, enrich.SlotGuess, key)
			if d := w.resolver.Current(enrich.SlotGuess); d.Status == enrich.StatusNotFound {
				w.screen.GuessLookupFailed(e.LookupGuess, key)
			}
		}
		w.emitGuessDetail(ctx)
	}

	if e.Celebrate > 0 {
		w.celebrate(ctx, e.Celebrate, e.CelebrateFor)
	}

	if e.RefreshCandidates {
		w.refreshCandidates(ctx)
	}
}

func (w *Widget) guessResolved(ctx context.Context) {
	w.emitGuessDetail(ctx)

	if d := w.resolver.Current(enrich.SlotGuess); d.Status == enrich.StatusNotFound {
		w.screen.GuessLookupFailed(w.guessLabel, d.Key)
		w.emitState(ctx)
	}
}

func (w *Widget) celebrate(ctx context.Context, n int, d time.Duration) {
	w.burst++
	burst := w.burst

	w.send(ctx, ConfettiMessage{Type: "confetti", Pieces: game.Confetti(burst, n, w.rng)})

	w.timers[burst] = time.AfterFunc(d, func() {
		select {
		case w.done <- confettiDone{burst: burst}:
		case <-ctx.Done():
		}
	})
}

func (w *Widget) stopTimers() {
	for burst, t := range w.timers {
		t.Stop()
		delete(w.timers, burst)
	}
}

func (w *Widget) send(ctx context.Context, msg any) {
	select {
	case w.out <- msg:
	case <-ctx.Done():
	}
}

func (w *Widget) emitState(ctx context.Context) {
	w.send(ctx, GameStateMessage{Type: "game_state", State: w.screen.State()})
}

func (w *Widget) emitViewport(ctx context.Context) {
	w.send(ctx, ViewportMessage{Type: "viewport", ViewState: w.viewport.State()})
}

func (w *Widget) emitCloud(ctx context.Context) {
	msg := CloudMessage{
		Type:   "cloud",
		World:  w.world,
		Labels: make([]CloudLabel, 0, len(w.layout.Points)),
		Dots:   make([]pointcloud.Point, 0, len(w.layout.Density)),
		Extra:  w.layout.Extra,
		Total:  w.layout.Total,
	}

	for _, p := range w.layout.Points {
		px := w.world.Pixel(p.X, p.Y)
		msg.Labels = append(msg.Labels, CloudLabel{URI: p.URI, Label: p.Label, Left: px.X, Top: px.Y})
	}

	for _, d := range w.layout.Density {
		msg.Dots = append(msg.Dots, w.world.Pixel(d.X, d.Y))
	}

	w.send(ctx, msg)
}

func (w *Widget) emitHover(ctx context.Context) {
	d := w.resolver.Current(enrich.SlotHover)

	w.send(ctx, HoverMessage{
		Type:   "hover",
		Active: w.hover.URI != "",
		URI:    w.hover.URI,
		Label:  w.hover.Label,
		Status: d.Status,
		Card:   newCard(d.Detail),
	})
}

func (w *Widget) emitGuessDetail(ctx context.Context) {
	d := w.resolver.Current(enrich.SlotGuess)

	w.send(ctx, GuessDetailMessage{
		Type:   "guess_detail",
		Status: d.Status,
		Card:   newCard(d.Detail),
	})
}
