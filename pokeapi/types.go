/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pokeapi

import "strings"

// Pokemon is the subset of the PokeAPI pokemon resource the game displays.
type Pokemon struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Sprites Sprites `json:"sprites"`
	Types   []Slot  `json:"types"`
	Height  int     `json:"height"` // decimetres
	Weight  int     `json:"weight"` // hectograms
	Stats   []Stat  `json:"stats"`
}

type Sprites struct {
	FrontDefault *string      `json:"front_default"`
	Other        *OtherSprite `json:"other,omitempty"`
}

type OtherSprite struct {
	OfficialArtwork *Artwork `json:"official-artwork,omitempty"`
}

type Artwork struct {
	FrontDefault *string `json:"front_default"`
}

type Slot struct {
	Type NamedResource `json:"type"`
}

type Stat struct {
	BaseStat int           `json:"base_stat"`
	Stat     NamedResource `json:"stat"`
}

type NamedResource struct {
	Name string `json:"name"`
}

// Sprite prefers the official artwork over the default front sprite.
func (p *Pokemon) Sprite() string {
	if p == nil {
		return ""
	}

	if o := p.Sprites.Other; o != nil && o.OfficialArtwork != nil && o.OfficialArtwork.FrontDefault != nil {
		return *o.OfficialArtwork.FrontDefault
	}

	if p.Sprites.FrontDefault != nil {
		return *p.Sprites.FrontDefault
	}

	return ""
}

func (p *Pokemon) TypeNames() []string {
	if p == nil {
		return nil
	}

	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		names = append(names, strings.ToUpper(t.Type.Name))
	}

	return names
}

func (p *Pokemon) HeightMeters() float64 { return float64(p.Height) / 10 }

func (p *Pokemon) WeightKilograms() float64 { return float64(p.Weight) / 10 }
