/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pointcloud

import (
	"fmt"
	"strconv"
)

const (
	MinZoom    = 0.75
	MaxZoom    = 2.8
	ButtonStep = 1.15
	WheelStep  = 1.08

	PrimaryButton = 0
)

const (
	minWorldWidth = 900
	worldHeight   = 520
	worldStretch  = 1.4
	worldPad      = 26
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// World is the pannable content layer, larger than the visible viewport.
type World struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func WorldFor(viewportWidth float64) World {
	return World{
		Width:  max(minWorldWidth, viewportWidth*worldStretch),
		Height: worldHeight,
	}
}

// Pixel converts normalized coordinates to padded world pixels.
func (w World) Pixel(x, y float64) Point {
	return Point{
		X: worldPad + x*(w.Width-worldPad*2),
		Y: worldPad + y*(w.Height-worldPad*2),
	}
}

type drag struct {
	down     bool
	start    Point
	startPan Point
}

// Viewport owns the zoom and pan of the point cloud. Zoom is anchored at the
// top-left of the content, so zooming never moves the pan offset.
type Viewport struct {
	zoom float64
	pan  Point
	drag drag
}

func NewViewport() *Viewport {
	return &Viewport{zoom: 1}
}

func (v *Viewport) Zoom() float64 { return v.zoom }

func (v *Viewport) Pan() Point { return v.pan }

func (v *Viewport) Dragging() bool { return v.drag.down }

func (v *Viewport) ZoomIn() { v.scale(ButtonStep) }

func (v *Viewport) ZoomOut() { v.scale(1 / ButtonStep) }

// Wheel zooms in for negative deltaY (wheel up) and out for positive.
func (v *Viewport) Wheel(deltaY float64) {
	switch {
	case deltaY < 0:
		v.scale(WheelStep)
	case deltaY > 0:
		v.scale(1 / WheelStep)
	}
}

func (v *Viewport) scale(factor float64) {
	v.zoom = clamp(v.zoom*factor, MinZoom, MaxZoom)
}

// PointerDown starts a drag; only the primary button pans.
func (v *Viewport) PointerDown(button int, at Point) {
	if button != PrimaryButton {
		return
	}

	v.drag = drag{down: true, start: at, startPan: v.pan}
}

// PointerMove reports whether the pan changed.
func (v *Viewport) PointerMove(at Point) bool {
	if !v.drag.down {
		return false
	}

	v.pan = Point{
		X: v.drag.startPan.X + (at.X - v.drag.start.X),
		Y: v.drag.startPan.Y + (at.Y - v.drag.start.Y),
	}

	return true
}

func (v *Viewport) PointerUp() {
	v.drag.down = false
}

func (v *Viewport) Reset() {
	v.zoom = 1
	v.pan = Point{}
	v.drag = drag{}
}

// Transform is the single CSS transform applied to the world layer.
func (v *Viewport) Transform() string {
	return fmt.Sprintf("translate(%spx, %spx) scale(%s)",
		formatFloat(v.pan.X),
		formatFloat(v.pan.Y),
		formatFloat(v.zoom),
	)
}

type ViewState struct {
	Zoom      float64 `json:"zoom"`
	Pan       Point   `json:"pan"`
	Dragging  bool    `json:"dragging"`
	Transform string  `json:"transform"`
}

func (v *Viewport) State() ViewState {
	return ViewState{
		Zoom:      v.zoom,
		Pan:       v.pan,
		Dragging:  v.drag.down,
		Transform: v.Transform(),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
