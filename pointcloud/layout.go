/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pointcloud

import (
	"cmp"
	"slices"
	"strings"
)

const (
	DefaultMaxLabels = 90
	DensitySample    = 220
)

// Candidate is one entity the backend still considers possible.
type Candidate struct {
	URI   string `json:"uri"`
	Label string `json:"label"`
}

// Placed is a labelled candidate with normalized coordinates in [0,1].
type Placed struct {
	Candidate
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dot is an unlabelled density point.
type Dot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Layout struct {
	Points  []Placed `json:"points"`
	Density []Dot    `json:"density"`
	Extra   int      `json:"extra"`
	Total   int      `json:"total"`
}

type keyed struct {
	c Candidate
	h float64
}

// Arrange places up to maxLabels candidates. The selected subset and every
// coordinate depend only on the set of candidates, never on their order.
func Arrange(candidates []Candidate, maxLabels int) Layout {
	maxLabels = max(maxLabels, 0)

	usable := filter(candidates)

	list := make([]keyed, 0, len(usable))
	for _, c := range usable {
		list = append(list, keyed{c: c, h: HashToUnit(c.URI)})
	}

	slices.SortFunc(list, func(a, b keyed) int {
		return cmp.Or(
			cmp.Compare(a.h, b.h),
			strings.Compare(a.c.URI, b.c.URI),
			strings.Compare(a.c.Label, b.c.Label),
		)
	})

	selected := list[:min(maxLabels, len(list))]

	points := make([]Placed, 0, len(selected))
	for _, k := range selected {
		points = append(points, Placed{
			Candidate: k.c,
			X:         clamp(HashToUnit(k.c.URI+"|x"), 0.03, 0.97),
			Y:         clamp(0.10+HashToUnit(k.c.URI+"|y")*0.80, 0.08, 0.92),
		})
	}

	sample := usable[:min(DensitySample, len(usable))]
	density := make([]Dot, 0, len(sample))
	for _, c := range sample {
		density = append(density, Dot{
			X: HashToUnit(c.URI + "|dx"),
			Y: 0.08 + HashToUnit(c.URI+"|dy")*0.84,
		})
	}

	return Layout{
		Points:  points,
		Density: density,
		Extra:   max(0, len(list)-len(points)),
		Total:   len(list),
	}
}

// filter drops candidates without a usable uri or label and collapses
// duplicate uris, keeping arrival order of first sight. When a uri repeats
// with different labels the smallest label wins.
func filter(candidates []Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	seen := make(map[string]int, len(candidates))

	for _, c := range candidates {
		if strings.TrimSpace(c.URI) == "" || strings.TrimSpace(c.Label) == "" {
			continue
		}

		if i, ok := seen[c.URI]; ok {
			if c.Label < out[i].Label {
				out[i].Label = c.Label
			}
			continue
		}

		seen[c.URI] = len(out)
		out = append(out, c)
	}

	return out
}
