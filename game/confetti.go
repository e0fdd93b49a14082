/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const (
	confettiCorrect  = 130
	confettiNoMore   = 85
	confettiRepeated = 90

	celebrateShort = 1700 * time.Millisecond
	celebrateLong  = 1900 * time.Millisecond
)

// Piece is one falling confetti rectangle; the browser animates it.
type Piece struct {
	ID         string  `json:"id"`
	LeftPct    float64 `json:"leftPct"`
	Size       float64 `json:"size"`
	DurationMs int     `json:"durationMs"`
	DelayMs    int     `json:"delayMs"`
	RotateDeg  int     `json:"rotateDeg"`
	DriftPx    float64 `json:"driftPx"`
	Hue        int     `json:"hue"`
}

func Confetti(burst uint64, count int, rng *rand.Rand) []Piece {
	out := make([]Piece, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, Piece{
			ID:         fmt.Sprintf("%d-%d", burst, i),
			LeftPct:    rng.Float64() * 100,
			Size:       6 + rng.Float64()*10,
			DurationMs: 900 + rng.IntN(1100),
			DelayMs:    rng.IntN(220),
			RotateDeg:  rng.IntN(860),
			DriftPx:    -90 + rng.Float64()*180,
			Hue:        rng.IntN(360),
		})
	}

	return out
}
