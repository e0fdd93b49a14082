package widget

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/pokenator/backend"
	"github.com/Seednode/pokenator/enrich"
	"github.com/Seednode/pokenator/game"
	"github.com/Seednode/pokenator/pointcloud"
	"github.com/Seednode/pokenator/pokeapi"
)

const waitTimeout = 2 * time.Second

func ptr[T any](v T) *T { return &v }

type fakeBackend struct {
	mu       sync.Mutex
	steps    []*backend.StepResponse
	answers  []backend.Answer
	startErr error
	gate     chan struct{}
}

func (f *fakeBackend) Start(ctx context.Context) (*backend.StartResponse, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}

	return &backend.StartResponse{
		SessionID: "s1",
		Question:  backend.Question{Text: "Is it yellow?", Kind: "COLOR"},
	}, nil
}

func (f *fakeBackend) Answer(ctx context.Context, sessionID string, a backend.Answer) (*backend.StepResponse, error) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.answers = append(f.answers, a)
	if len(f.steps) == 0 {
		return &backend.StepResponse{Kind: backend.StepNoCandidates}, nil
	}

	step := f.steps[0]
	f.steps = f.steps[1:]

	return step, nil
}

func (f *fakeBackend) Candidates(ctx context.Context, sessionID string) (*backend.CandidatesResponse, error) {
	return &backend.CandidatesResponse{Candidates: []pointcloud.Candidate{
		{URI: "http://ex/Pikachu", Label: "Pikachu"},
		{URI: "http://ex/Eevee", Label: "Eevee"},
	}}, nil
}

func (f *fakeBackend) answered() []backend.Answer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.Answer(nil), f.answers...)
}

var dex = map[string]*pokeapi.Pokemon{
	"pikachu": {ID: 25, Name: "pikachu"},
	"eevee":   {ID: 133, Name: "eevee"},
}

type fakeDetails struct {
	mu    sync.Mutex
	calls map[string]int
	gates map[string]chan struct{}
}

func newFakeDetails() *fakeDetails {
	return &fakeDetails{
		calls: make(map[string]int),
		gates: make(map[string]chan struct{}),
	}
}

func (f *fakeDetails) Pokemon(ctx context.Context, name string) (*pokeapi.Pokemon, error) {
	f.mu.Lock()
	f.calls[name]++
	gate := f.gates[name]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p, ok := dex[name]; ok {
		return p, nil
	}

	return nil, pokeapi.ErrNotFound
}

func (f *fakeDetails) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

type harness struct {
	t       *testing.T
	w       *Widget
	in      chan Event
	out     chan any
	metrics *Metrics
	stop    func()
}

func newHarness(t *testing.T, b Backend, d Details, screen game.Options) *harness {
	t.Helper()

	out := make(chan any, 512)
	m := NewMetrics(prometheus.NewRegistry())

	w := New(b, d, out, Options{
		Screen:       screen,
		Metrics:      m,
		Logger:       zerolog.Nop(),
		Rand:         rand.New(rand.NewPCG(1, 2)),
		InitialWidth: 1000,
	})

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan Event)
	errc := make(chan error, 1)

	go func() { errc <- w.Run(ctx, in) }()

	var once sync.Once
	h := &harness{
		t:       t,
		w:       w,
		in:      in,
		out:     out,
		metrics: m,
		stop: func() {
			once.Do(func() {
				cancel()
				<-errc
			})
		},
	}
	t.Cleanup(h.stop)

	return h
}

func (h *harness) send(ev Event) {
	h.t.Helper()

	select {
	case h.in <- ev:
	case <-time.After(waitTimeout):
		h.t.Fatalf("widget did not accept %q", ev.Type)
	}
}

func waitFor[T any](h *harness, match func(T) bool) T {
	h.t.Helper()

	deadline := time.After(waitTimeout)
	for {
		select {
		case msg := <-h.out:
			if m, ok := msg.(T); ok && (match == nil || match(m)) {
				return m
			}
		case <-deadline:
			var zero T
			h.t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

// until returns every message received before the first T.
func until[T any](h *harness) []any {
	h.t.Helper()

	var seen []any
	deadline := time.After(waitTimeout)
	for {
		select {
		case msg := <-h.out:
			if _, ok := msg.(T); ok {
				return seen
			}
			seen = append(seen, msg)
		case <-deadline:
			var zero T
			h.t.Fatalf("timed out waiting for %T", zero)
			return seen
		}
	}
}

func assertNotCelebrated(t *testing.T, msgs []any) {
	t.Helper()

	for _, msg := range msgs {
		switch m := msg.(type) {
		case ConfettiMessage:
			assert.Empty(t, m.Pieces)
		case GameStateMessage:
			assert.Nil(t, m.Lock)
		}
	}
}

func (h *harness) ready() {
	h.t.Helper()

	// candidates are only fetched once the game has started
	waitFor(h, func(m CloudMessage) bool { return len(m.Labels) == 2 })
}

func TestHoverLooksUpOnceThenServesFromCache(t *testing.T) {
	details := newFakeDetails()
	h := newHarness(t, &fakeBackend{}, details, game.Options{})
	h.ready()

	h.send(Event{Type: "hover", URI: "http://ex/Pikachu"})

	loading := waitFor[HoverMessage](h, nil)
	assert.True(t, loading.Active)
	assert.Equal(t, enrich.StatusLoading, loading.Status)
	assert.Equal(t, "Pikachu", loading.Label)

	found := waitFor[HoverMessage](h, nil)
	assert.Equal(t, enrich.StatusFound, found.Status)
	require.NotNil(t, found.Card)
	assert.Equal(t, 25, found.Card.ID)

	h.send(Event{Type: "leave"})
	left := waitFor[HoverMessage](h, nil)
	assert.False(t, left.Active)
	assert.Equal(t, enrich.StatusIdle, left.Status)

	h.send(Event{Type: "hover", URI: "http://ex/Pikachu"})
	again := waitFor[HoverMessage](h, nil)
	assert.Equal(t, enrich.StatusFound, again.Status)
	assert.Equal(t, 25, again.Card.ID)

	assert.Equal(t, 1, details.count("pikachu"))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Lookups))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CacheHits))
}

func TestHoverOnUnknownURIIsIgnored(t *testing.T) {
	details := newFakeDetails()
	h := newHarness(t, &fakeBackend{}, details, game.Options{})
	h.ready()

	h.send(Event{Type: "hover", URI: "http://ex/Mew"})
	h.send(Event{Type: "zoom_in"})

	for {
		msg := waitFor[any](h, nil)
		_, hover := msg.(HoverMessage)
		assert.False(t, hover)
		if _, ok := msg.(ViewportMessage); ok {
			break
		}
	}

	assert.Equal(t, 0, details.count("mew"))
}

func TestStaleHoverCompletionIsSuppressed(t *testing.T) {
	details := newFakeDetails()
	gate := make(chan struct{})
	details.gates["pikachu"] = gate

	h := newHarness(t, &fakeBackend{}, details, game.Options{})
	h.ready()

	h.send(Event{Type: "hover", URI: "http://ex/Pikachu"})
	waitFor(h, func(m HoverMessage) bool { return m.Status == enrich.StatusLoading })

	h.send(Event{Type: "hover", URI: "http://ex/Eevee"})
	eevee := waitFor(h, func(m HoverMessage) bool { return m.Status == enrich.StatusFound })
	assert.Equal(t, 133, eevee.Card.ID)

	close(gate)
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(h.metrics.Stale) == 1
	}, waitTimeout, 10*time.Millisecond)

	h.send(Event{Type: "zoom_in"})
	for {
		msg := waitFor[any](h, nil)
		if hm, ok := msg.(HoverMessage); ok {
			assert.Equal(t, "http://ex/Eevee", hm.URI)
		}
		if _, ok := msg.(ViewportMessage); ok {
			break
		}
	}

	h.send(Event{Type: "hover", URI: "http://ex/Pikachu"})
	cached := waitFor[HoverMessage](h, nil)
	assert.Equal(t, enrich.StatusFound, cached.Status)
	assert.Equal(t, 25, cached.Card.ID)
	assert.Equal(t, 1, details.count("pikachu"))
}

func TestRepeatedGuessLocksWithoutSecondLookup(t *testing.T) {
	b := &fakeBackend{steps: []*backend.StepResponse{
		{Kind: backend.StepGuess, GuessLabel: ptr("Pikachu"), GuessURI: ptr("http://ex/Pikachu"), RemainingCandidates: ptr[int64](3)},
		{Kind: backend.StepGuess, GuessLabel: ptr("Pikachu"), GuessURI: ptr("http://ex/Pikachu"), RemainingCandidates: ptr[int64](2)},
	}}
	details := newFakeDetails()

	h := newHarness(t, b, details, game.Options{RepeatGuard: true})
	h.ready()

	h.send(Event{Type: "answer", Answer: "yes"})
	guess := waitFor(h, func(m GuessDetailMessage) bool { return m.Status == enrich.StatusFound })
	assert.Equal(t, 25, guess.Card.ID)

	h.send(Event{Type: "wrong"})
	state := waitFor(h, func(m GameStateMessage) bool { return m.Lock != nil })
	assert.Equal(t, game.LockRepeatedGuess, state.Lock.Reason)
	assert.Equal(t, "guess", state.Mode)

	assert.Equal(t, []backend.Answer{backend.AnswerYes, backend.AnswerNo}, b.answered())
	assert.Equal(t, 1, details.count("pikachu"))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.Lookups))

	h.stop()
	assert.Equal(t, 1, h.w.cache.Len())
	assert.Zero(t, h.w.resolver.Pending())
}

func TestGuessWithoutDetailShowsNotice(t *testing.T) {
	b := &fakeBackend{steps: []*backend.StepResponse{
		{Kind: backend.StepGuess, GuessLabel: ptr("Missingno"), RemainingCandidates: ptr[int64](1)},
	}}
	h := newHarness(t, b, newFakeDetails(), game.Options{})
	h.ready()

	h.send(Event{Type: "answer", Answer: "YES"})
	waitFor(h, func(m GuessDetailMessage) bool { return m.Status == enrich.StatusNotFound })

	state := waitFor(h, func(m GameStateMessage) bool { return m.Err != "" })
	assert.Contains(t, state.Err, `"missingno"`)
	assert.Equal(t, "guess", state.Mode)
}

func TestBusyWidgetRefusesSecondAnswer(t *testing.T) {
	b := &fakeBackend{
		gate: make(chan struct{}),
		steps: []*backend.StepResponse{
			{Kind: backend.StepQuestion, Question: &backend.Question{Text: "Can it fly?"}},
		},
	}
	h := newHarness(t, b, newFakeDetails(), game.Options{})
	h.ready()

	h.send(Event{Type: "answer", Answer: "YES"})
	waitFor(h, func(m GameStateMessage) bool { return m.Busy })

	h.send(Event{Type: "answer", Answer: "NO"})
	h.send(Event{Type: "start"})
	close(b.gate)

	state := waitFor(h, func(m GameStateMessage) bool { return !m.Busy })
	assert.Equal(t, "Can it fly?", state.Question)
	assert.Equal(t, []backend.Answer{backend.AnswerYes}, b.answered())
}

func TestInvalidAnswerIsIgnored(t *testing.T) {
	b := &fakeBackend{}
	h := newHarness(t, b, newFakeDetails(), game.Options{})
	h.ready()

	h.send(Event{Type: "answer", Answer: "MAYBE"})
	h.send(Event{Type: "zoom_out"})
	waitFor[ViewportMessage](h, nil)

	assert.Empty(t, b.answered())
}

func TestStartFailureIsReported(t *testing.T) {
	b := &fakeBackend{startErr: &backend.APIError{StatusCode: 503, Body: "down"}}
	h := newHarness(t, b, newFakeDetails(), game.Options{})

	state := waitFor(h, func(m GameStateMessage) bool { return m.Err != "" })
	assert.Equal(t, "HTTP 503 - down", state.Err)
	assert.False(t, state.CanAnswer)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.BackendErrors.WithLabelValues("start")))
}

func TestExpiredSessionIsCountedAsBackendError(t *testing.T) {
	b := &fakeBackend{startErr: &backend.APIError{StatusCode: 404, Body: "no such session"}}
	h := newHarness(t, b, newFakeDetails(), game.Options{})

	state := waitFor(h, func(m GameStateMessage) bool { return m.Err != "" })
	assert.Equal(t, "HTTP 404 - no such session", state.Err)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.BackendErrors.WithLabelValues("start")))
}

func TestCorrectCelebratesAndTeardownStopsTimers(t *testing.T) {
	b := &fakeBackend{steps: []*backend.StepResponse{
		{Kind: backend.StepGuess, GuessLabel: ptr("Pikachu"), GuessURI: ptr("http://ex/Pikachu"), RemainingCandidates: ptr[int64](3)},
	}}
	h := newHarness(t, b, newFakeDetails(), game.Options{Confetti: true})
	h.ready()

	h.send(Event{Type: "answer", Answer: "YES"})
	waitFor(h, func(m GuessDetailMessage) bool { return m.Status == enrich.StatusFound })

	h.send(Event{Type: "correct"})
	burst := waitFor(h, func(m ConfettiMessage) bool { return len(m.Pieces) > 0 })
	assert.Len(t, burst.Pieces, 130)

	state := waitFor(h, func(m GameStateMessage) bool { return m.Lock != nil })
	assert.Equal(t, game.LockCorrect, state.Lock.Reason)
	assert.False(t, state.CanAnswer)

	h.stop()
	assert.Empty(t, h.w.timers)
}

func TestCorrectWithoutGuessIsIgnored(t *testing.T) {
	h := newHarness(t, &fakeBackend{}, newFakeDetails(), game.Options{Confetti: true})
	h.ready()

	h.send(Event{Type: "correct"})
	h.send(Event{Type: "zoom_in"})

	assertNotCelebrated(t, until[ViewportMessage](h))
	assert.Empty(t, h.w.timers)
}

func TestCorrectWhileAnsweringIsIgnored(t *testing.T) {
	b := &fakeBackend{steps: []*backend.StepResponse{
		{Kind: backend.StepGuess, GuessLabel: ptr("Pikachu"), GuessURI: ptr("http://ex/Pikachu"), RemainingCandidates: ptr[int64](3)},
		{Kind: backend.StepGuess, GuessLabel: ptr("Eevee"), GuessURI: ptr("http://ex/Eevee"), RemainingCandidates: ptr[int64](2)},
	}}
	h := newHarness(t, b, newFakeDetails(), game.Options{Confetti: true})
	h.ready()

	h.send(Event{Type: "answer", Answer: "YES"})
	waitFor(h, func(m GuessDetailMessage) bool { return m.Status == enrich.StatusFound })

	b.mu.Lock()
	b.gate = make(chan struct{})
	b.mu.Unlock()

	h.send(Event{Type: "wrong"})
	waitFor(h, func(m GameStateMessage) bool { return m.Busy })

	h.send(Event{Type: "correct"})
	h.send(Event{Type: "zoom_in"})
	assertNotCelebrated(t, until[ViewportMessage](h))

	close(b.gate)
	state := waitFor(h, func(m GameStateMessage) bool { return !m.Busy })
	require.NotNil(t, state.Guess)
	assert.Equal(t, "Eevee", state.Guess.Label)
	assert.Nil(t, state.Lock)
}

func TestZeroWheelDeltaLeavesZoom(t *testing.T) {
	h := newHarness(t, &fakeBackend{}, newFakeDetails(), game.Options{})
	h.ready()

	h.send(Event{Type: "wheel", DeltaY: 0})
	h.send(Event{Type: "zoom_in"})

	vp := waitFor[ViewportMessage](h, nil)
	assert.InDelta(t, pointcloud.ButtonStep, vp.Zoom, 1e-9)
}

func TestViewportEvents(t *testing.T) {
	h := newHarness(t, &fakeBackend{}, newFakeDetails(), game.Options{})
	h.ready()

	h.send(Event{Type: "wheel", DeltaY: -100})
	vp := waitFor[ViewportMessage](h, nil)
	assert.InDelta(t, pointcloud.WheelStep, vp.Zoom, 1e-9)

	h.send(Event{Type: "pointer_down", Button: 0, X: 10, Y: 10})
	vp = waitFor[ViewportMessage](h, nil)
	assert.True(t, vp.Dragging)

	h.send(Event{Type: "pointer_move", X: 30, Y: 40})
	vp = waitFor[ViewportMessage](h, nil)
	assert.Equal(t, pointcloud.Point{X: 20, Y: 30}, vp.Pan)

	h.send(Event{Type: "pointer_leave"})
	vp = waitFor[ViewportMessage](h, nil)
	assert.False(t, vp.Dragging)

	h.send(Event{Type: "reset_view"})
	vp = waitFor[ViewportMessage](h, nil)
	assert.Equal(t, "translate(0px, 0px) scale(1)", vp.Transform)
}

func TestResizeRescalesCloud(t *testing.T) {
	h := newHarness(t, &fakeBackend{}, newFakeDetails(), game.Options{})
	h.ready()

	h.send(Event{Type: "resize", Width: 2000})
	cloud := waitFor[CloudMessage](h, nil)

	assert.Equal(t, 2800.0, cloud.World.Width)
	assert.Equal(t, 520.0, cloud.World.Height)
	require.Len(t, cloud.Labels, 2)
	for _, l := range cloud.Labels {
		assert.GreaterOrEqual(t, l.Left, 26.0)
		assert.LessOrEqual(t, l.Left, 2800.0-26)
	}
}
