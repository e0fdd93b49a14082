package pointcloud

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCandidates(n int) []Candidate {
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Candidate{
			URI:   fmt.Sprintf("http://ex/species/%d", i),
			Label: fmt.Sprintf("Species %d", i),
		})
	}
	return out
}

func TestArrangePermutationInvariant(t *testing.T) {
	base := sampleCandidates(300)

	want := Arrange(base, 40)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10; i++ {
		shuffled := append([]Candidate(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := Arrange(shuffled, 40)
		assert.Equal(t, want.Points, got.Points)
		assert.Equal(t, want.Extra, got.Extra)
		assert.Equal(t, want.Total, got.Total)
	}
}

func TestArrangeBounds(t *testing.T) {
	layout := Arrange(sampleCandidates(500), 500)
	require.Len(t, layout.Points, 500)

	for _, p := range layout.Points {
		assert.GreaterOrEqual(t, p.X, 0.03)
		assert.LessOrEqual(t, p.X, 0.97)
		assert.GreaterOrEqual(t, p.Y, 0.08)
		assert.LessOrEqual(t, p.Y, 0.92)
	}

	for _, d := range layout.Density {
		assert.GreaterOrEqual(t, d.X, 0.0)
		assert.Less(t, d.X, 1.0)
		assert.GreaterOrEqual(t, d.Y, 0.08)
		assert.Less(t, d.Y, 0.92)
	}
}

func TestArrangeExtraCount(t *testing.T) {
	for _, tc := range []struct {
		n, maxLabels, points, extra int
	}{
		{n: 0, maxLabels: 90, points: 0, extra: 0},
		{n: 10, maxLabels: 90, points: 10, extra: 0},
		{n: 90, maxLabels: 90, points: 90, extra: 0},
		{n: 150, maxLabels: 90, points: 90, extra: 60},
		{n: 5, maxLabels: 0, points: 0, extra: 5},
		{n: 5, maxLabels: -3, points: 0, extra: 5},
	} {
		layout := Arrange(sampleCandidates(tc.n), tc.maxLabels)
		assert.Len(t, layout.Points, tc.points, "n=%d max=%d", tc.n, tc.maxLabels)
		assert.Equal(t, tc.extra, layout.Extra, "n=%d max=%d", tc.n, tc.maxLabels)
		assert.Equal(t, tc.n, layout.Total)
	}
}

func TestArrangeFiltersAndDeduplicates(t *testing.T) {
	layout := Arrange([]Candidate{
		{URI: "", Label: "Nameless"},
		{URI: "http://ex/Ghost", Label: "  "},
		{URI: "http://ex/Pikachu", Label: "Pikachu"},
		{URI: "http://ex/Pikachu", Label: "Pika"},
		{URI: "http://ex/Eevee", Label: "Eevee"},
	}, 10)

	require.Len(t, layout.Points, 2)
	assert.Equal(t, 2, layout.Total)
	assert.Len(t, layout.Density, 2)

	for _, p := range layout.Points {
		if p.URI == "http://ex/Pikachu" {
			assert.Equal(t, "Pika", p.Label)
		}
	}
}

func TestArrangeKnownCoordinates(t *testing.T) {
	layout := Arrange([]Candidate{{URI: "http://ex/Pikachu", Label: "Pikachu"}}, DefaultMaxLabels)
	require.Len(t, layout.Points, 1)

	assert.InDelta(t, 0.53358, layout.Points[0].X, 1e-9)
	assert.InDelta(t, 0.10+0.30977*0.80, layout.Points[0].Y, 1e-9)
}

func TestArrangeSelectionIsLowestHashes(t *testing.T) {
	cands := sampleCandidates(50)
	layout := Arrange(cands, 5)
	require.Len(t, layout.Points, 5)

	cutoff := HashToUnit(layout.Points[4].URI)
	for i := 1; i < len(layout.Points); i++ {
		assert.LessOrEqual(t, HashToUnit(layout.Points[i-1].URI), HashToUnit(layout.Points[i].URI))
	}

	selected := make(map[string]bool)
	for _, p := range layout.Points {
		selected[p.URI] = true
	}
	for _, c := range cands {
		if !selected[c.URI] {
			assert.GreaterOrEqual(t, HashToUnit(c.URI), cutoff)
		}
	}
}

func TestArrangeKeepsCoordinatesWhenSetGrows(t *testing.T) {
	before := Arrange(sampleCandidates(20), 90)
	after := Arrange(sampleCandidates(40), 90)

	coords := make(map[string]Placed)
	for _, p := range after.Points {
		coords[p.URI] = p
	}

	for _, p := range before.Points {
		q, ok := coords[p.URI]
		require.True(t, ok)
		assert.Equal(t, p.X, q.X)
		assert.Equal(t, p.Y, q.Y)
	}
}

func TestArrangeDensitySampleCap(t *testing.T) {
	layout := Arrange(sampleCandidates(400), 10)
	assert.Len(t, layout.Density, DensitySample)
}
