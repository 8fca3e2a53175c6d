package viz

import (
	"math"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

const (
	MinScale = 20.0
	MaxScale = 5000.0
)

// Camera maps world coordinates to canvas dots. (X, Y) is the world point
// at the canvas centre and S is dots per world unit.
type Camera struct {
	X, Y, S float64
	home    float64
}

// NewCamera returns a camera centred on the origin. Reset returns to scale.
func NewCamera(scale float64) *Camera {
	s := clampScale(scale)
	return &Camera{S: s, home: s}
}

func (c *Camera) Reset() {
	c.X, c.Y, c.S = 0, 0, c.home
}

func (c *Camera) WorldToScreen(p dynamo.Vec2, cw, ch float64) (float64, float64) {
	return (p.X-c.X)*c.S + cw/2, (p.Y-c.Y)*c.S + ch/2
}

func (c *Camera) ScreenToWorld(sx, sy, cw, ch float64) dynamo.Vec2 {
	return dynamo.V((sx-cw/2)/c.S+c.X, (sy-ch/2)/c.S+c.Y)
}

// ZoomAt scales by factor while keeping the world point under (sx, sy)
// fixed on screen.
func (c *Camera) ZoomAt(sx, sy, cw, ch, factor float64) {
	before := c.ScreenToWorld(sx, sy, cw, ch)
	c.S = clampScale(c.S * factor)
	after := c.ScreenToWorld(sx, sy, cw, ch)
	c.X += before.X - after.X
	c.Y += before.Y - after.Y
}

// Pan moves the view by a screen-space offset in dots.
func (c *Camera) Pan(dx, dy float64) {
	c.X -= dx / c.S
	c.Y -= dy / c.S
}

func clampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}
