/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Seednode/pokenator/backend"
)

type LockReason string

const (
	LockCorrect       LockReason = "CORRECT"
	LockNoMoreGuesses LockReason = "NO_MORE_GUESSES"
	LockRepeatedGuess LockReason = "REPEATED_GUESS"
)

type Lock struct {
	Reason   LockReason `json:"reason"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
}

type Guess struct {
	Label string `json:"label"`
	URI   string `json:"uri,omitempty"`
}

type Options struct {
	Copy        Copy
	RepeatGuard bool
	Confetti    bool
}

// Effect lists the side effects a transition asks the caller to carry out.
// The screen itself never performs I/O.
type Effect struct {
	// LookupGuess is the guess label whose detail should be resolved.
	LookupGuess string

	// ClearDetail drops whatever guess detail is currently shown.
	ClearDetail bool

	// Celebrate is the number of confetti pieces to launch, cleared after
	// CelebrateFor.
	Celebrate    int
	CelebrateFor time.Duration

	RefreshCandidates bool
}

// Screen is the game screen: question mode, guess mode, or locked.
type Screen struct {
	opts Options

	SessionID string
	Question  string
	Remaining *int64
	Guess     *Guess
	Lock      *Lock
	Err       string
	Busy      bool

	lastGuessKey string
}

// State is the serializable snapshot of a Screen.
type State struct {
	SessionID string `json:"sessionId,omitempty"`
	Mode      string `json:"mode"`
	Question  string `json:"question"`
	Remaining *int64 `json:"remaining,omitempty"`
	Guess     *Guess `json:"guess,omitempty"`
	Lock      *Lock  `json:"lock,omitempty"`
	Err       string `json:"error,omitempty"`
	Busy      bool   `json:"busy"`
	CanAnswer bool   `json:"canAnswer"`
	Copy      Copy   `json:"copy"`
}

func NewScreen(opts Options) *Screen {
	if opts.Copy.Lang == "" {
		opts.Copy = English
	}

	return &Screen{
		opts:     opts,
		Question: opts.Copy.Loading,
	}
}

func (s *Screen) Copy() Copy {
	return s.opts.Copy
}

func (s *Screen) Mode() string {
	if s.Guess != nil {
		return "guess"
	}

	return "question"
}

func (s *Screen) Locked() bool {
	return s.Lock != nil
}

// CanAnswer reports whether an answer may be submitted now. A repeated-guess
// lock still accepts answers; the other locks only allow a new game.
func (s *Screen) CanAnswer() bool {
	if s.SessionID == "" || s.Busy {
		return false
	}

	return s.Lock == nil || s.Lock.Reason == LockRepeatedGuess
}

func (s *Screen) State() State {
	return State{
		SessionID: s.SessionID,
		Mode:      s.Mode(),
		Question:  s.Question,
		Remaining: s.Remaining,
		Guess:     s.Guess,
		Lock:      s.Lock,
		Err:       s.Err,
		Busy:      s.Busy,
		CanAnswer: s.CanAnswer(),
		Copy:      s.opts.Copy,
	}
}

// BeginStart resets the screen for a new game. It returns false while another
// backend call is still outstanding.
func (s *Screen) BeginStart() (Effect, bool) {
	if s.Busy {
		return Effect{}, false
	}

	s.Busy = true
	s.Err = ""
	s.Guess = nil
	s.Lock = nil
	s.Question = s.opts.Copy.Loading
	s.lastGuessKey = ""

	return Effect{ClearDetail: true}, true
}

func (s *Screen) FinishStart(resp *backend.StartResponse, err error) Effect {
	s.Busy = false

	if err != nil {
		s.Err = errorText(err, s.opts.Copy.StartFailed)
		return Effect{}
	}

	s.SessionID = resp.SessionID
	s.Question = resp.Question.Text
	s.Remaining = nil

	return Effect{RefreshCandidates: true}
}

func (s *Screen) BeginAnswer() bool {
	if !s.CanAnswer() {
		return false
	}

	s.Busy = true
	s.Err = ""

	return true
}

// FinishAnswer applies the backend's reply to an answer. On failure the
// previous state is kept and only the notice changes.
func (s *Screen) FinishAnswer(step *backend.StepResponse, err error) Effect {
	s.Busy = false

	if err != nil {
		s.Err = errorText(err, s.opts.Copy.AnswerFailed)
		return Effect{}
	}

	return s.handleStep(step)
}

// Correct confirms the current guess. It is refused while locked, while an
// answer is in flight, or when no guess is on screen.
func (s *Screen) Correct() (Effect, bool) {
	if s.Lock != nil || s.Busy || s.Guess == nil {
		return Effect{}, false
	}

	s.Err = ""
	s.Lock = &Lock{
		Reason:   LockCorrect,
		Title:    s.opts.Copy.CorrectTitle,
		Subtitle: s.opts.Copy.CorrectSubtitle,
	}

	return s.celebrate(confettiCorrect, celebrateLong), true
}

// GuessLookupFailed records a notice that the guessed label had no detail.
func (s *Screen) GuessLookupFailed(label, key string) {
	s.Err = fmt.Sprintf(s.opts.Copy.LookupFailed, label, key)
}

func (s *Screen) handleStep(step *backend.StepResponse) Effect {
	rem := step.RemainingCandidates

	switch step.Kind {
	case backend.StepQuestion:
		var q backend.Question
		if step.Question != nil {
			q = *step.Question
		}

		if strings.EqualFold(q.Kind, backend.QuestionKindGuess) {
			label := GuessLabelFromText(q.Text)
			if label == "" {
				label = s.opts.Copy.UnknownGuess
			}

			return s.applyGuess(Guess{Label: label, URI: deref(q.ObjectURI)}, rem)
		}

		if rem != nil && *rem <= 0 {
			return s.endNoMoreGuesses(0)
		}

		s.Guess = nil
		s.lastGuessKey = ""
		s.Question = q.Text
		if rem != nil {
			s.Remaining = rem
		}

		return Effect{ClearDetail: true, RefreshCandidates: true}
	case backend.StepGuess:
		return s.applyGuess(Guess{Label: deref(step.GuessLabel), URI: deref(step.GuessURI)}, rem)
	}

	var left int64
	if rem != nil {
		left = *rem
	}

	return s.endNoMoreGuesses(left)
}

func (s *Screen) applyGuess(g Guess, rem *int64) Effect {
	if rem != nil && *rem <= 0 {
		return s.endNoMoreGuesses(0)
	}

	key := guessKey(g)
	s.Guess = &g
	if rem != nil {
		s.Remaining = rem
	}

	if s.opts.RepeatGuard && s.lastGuessKey != "" && key == s.lastGuessKey {
		s.Lock = &Lock{
			Reason:   LockRepeatedGuess,
			Title:    s.opts.Copy.RepeatedTitle,
			Subtitle: s.opts.Copy.RepeatedSubtitle,
		}

		return s.celebrate(confettiRepeated, celebrateShort)
	}

	s.lastGuessKey = key
	s.Lock = nil

	return Effect{LookupGuess: g.Label, ClearDetail: true}
}

func (s *Screen) endNoMoreGuesses(rem int64) Effect {
	s.Guess = nil
	s.lastGuessKey = ""
	s.Question = s.opts.Copy.NoCandidates
	s.Remaining = &rem
	s.Lock = &Lock{
		Reason:   LockNoMoreGuesses,
		Title:    s.opts.Copy.NoMoreTitle,
		Subtitle: s.opts.Copy.NoMoreSubtitle,
	}

	e := s.celebrate(confettiNoMore, celebrateShort)
	e.ClearDetail = true

	return e
}

func (s *Screen) celebrate(n int, d time.Duration) Effect {
	if !s.opts.Confetti {
		return Effect{}
	}

	return Effect{Celebrate: n, CelebrateFor: d}
}

var (
	guessText  = regexp.MustCompile(`(?i)^is it\s+(.+?)\s*\?\s*$`)
	whitespace = regexp.MustCompile(`\s+`)
)

// GuessLabelFromText extracts the name from a question like "Is it Marshtomp?".
// It returns "" when the text has another shape.
func GuessLabelFromText(text string) string {
	t := whitespace.ReplaceAllString(strings.TrimSpace(text), " ")

	m := guessText.FindStringSubmatch(t)
	if m == nil {
		return ""
	}

	return strings.TrimSpace(m[1])
}

func guessKey(g Guess) string {
	return strings.ToLower(strings.TrimSpace(g.Label)) + "|" + strings.ToLower(strings.TrimSpace(g.URI))
}

func errorText(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}

	return fallback
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
