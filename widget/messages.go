/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package widget

import (
	"github.com/Seednode/pokenator/enrich"
	"github.com/Seednode/pokenator/game"
	"github.com/Seednode/pokenator/pointcloud"
	"github.com/Seednode/pokenator/pokeapi"
)

// Event is a message coming from the browser.
type Event struct {
	Type   string  `json:"type"`             // "start", "answer", "correct", "wrong", "hover", "leave", "wheel", ...
	Answer string  `json:"answer,omitempty"` // answer
	URI    string  `json:"uri,omitempty"`    // hover
	DeltaY float64 `json:"deltaY,omitempty"` // wheel
	Button int     `json:"button,omitempty"` // pointer_down
	X      float64 `json:"x,omitempty"`      // pointer_down / pointer_move
	Y      float64 `json:"y,omitempty"`      // pointer_down / pointer_move
	Width  float64 `json:"width,omitempty"`  // resize
}

// GameStateMessage carries the whole game screen.
type GameStateMessage struct {
	Type string `json:"type"` // "game_state"
	game.State
}

type CloudLabel struct {
	URI   string  `json:"uri"`
	Label string  `json:"label"`
	Left  float64 `json:"left"`
	Top   float64 `json:"top"`
}

// CloudMessage is the laid-out point cloud in world pixels.
type CloudMessage struct {
	Type   string             `json:"type"` // "cloud"
	World  pointcloud.World   `json:"world"`
	Labels []CloudLabel       `json:"labels"`
	Dots   []pointcloud.Point `json:"dots"`
	Extra  int                `json:"extra"`
	Total  int                `json:"total"`
}

type ViewportMessage struct {
	Type string `json:"type"` // "viewport"
	pointcloud.ViewState
}

// Card is the subset of a Pokémon record the widget displays.
type Card struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Sprite   string   `json:"sprite,omitempty"`
	Types    []string `json:"types"`
	HeightM  float64  `json:"heightM"`
	WeightKg float64  `json:"weightKg"`
}

func newCard(p *pokeapi.Pokemon) *Card {
	if p == nil {
		return nil
	}

	return &Card{
		ID:       p.ID,
		Name:     p.Name,
		Sprite:   p.Sprite(),
		Types:    p.TypeNames(),
		HeightM:  p.HeightMeters(),
		WeightKg: p.WeightKilograms(),
	}
}

// HoverMessage drives the hover tooltip. Active is false once the pointer
// has left every label.
type HoverMessage struct {
	Type   string        `json:"type"` // "hover"
	Active bool          `json:"active"`
	URI    string        `json:"uri,omitempty"`
	Label  string        `json:"label,omitempty"`
	Status enrich.Status `json:"status"`
	Card   *Card         `json:"card,omitempty"`
}

type GuessDetailMessage struct {
	Type   string        `json:"type"` // "guess_detail"
	Status enrich.Status `json:"status"`
	Card   *Card         `json:"card,omitempty"`
}

// ConfettiMessage starts a burst; an empty Pieces clears the screen.
type ConfettiMessage struct {
	Type   string       `json:"type"` // "confetti"
	Pieces []game.Piece `json:"pieces"`
}
