package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/nbodylab/internal/dynamo"
)

const padding = 0.1

// bounds is the world rectangle an SVG is framed on.
type bounds struct {
	minX, minY, maxX, maxY float64
}

func frameBounds(frames []dynamo.Frame) (bounds, bool) {
	b := bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	found := false
	for _, f := range frames {
		for i := 0; i+1 < len(f.Positions); i += 2 {
			x, y := f.Positions[i], f.Positions[i+1]
			if !finite(x, y) {
				continue
			}
			b.minX, b.maxX = math.Min(b.minX, x), math.Max(b.maxX, x)
			b.minY, b.maxY = math.Min(b.minY, y), math.Max(b.maxY, y)
			found = true
		}
	}
	if !found {
		return b, false
	}

	rangeX, rangeY := b.maxX-b.minX, b.maxY-b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minX -= rangeX * padding
	b.maxX += rangeX * padding
	b.minY -= rangeY * padding
	b.maxY += rangeY * padding
	return b, true
}

func finite(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsNaN(y) && !math.IsInf(x, 0) && !math.IsInf(y, 0)
}

// projector maps world points into a width x height viewport with one
// scale for both axes and y pointing up.
type projector struct {
	scale, offX, offY float64
	height            float64
}

func newProjector(b bounds, width, height int) projector {
	w, h := float64(width), float64(height)
	scale := math.Min(w/(b.maxX-b.minX), h/(b.maxY-b.minY))
	return projector{
		scale:  scale,
		offX:   (w-(b.maxX-b.minX)*scale)/2 - b.minX*scale,
		offY:   (h-(b.maxY-b.minY)*scale)/2 - b.minY*scale,
		height: h,
	}
}

func (p projector) point(x, y float64) (float64, float64) {
	return x*p.scale + p.offX, p.height - (y*p.scale + p.offY)
}

// BodyColor spreads n body colors evenly around the hue wheel.
func BodyColor(i, n int) string {
	if n < 1 {
		n = 1
	}
	return fmt.Sprintf("hsl(%d, 70%%, 60%%)", i*360/n)
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
}

// FrameToSVG draws the bodies of a single frame as dots.
func FrameToSVG(f dynamo.Frame, width, height int) string {
	return TrajectoriesToSVG([]dynamo.Frame{f}, width, height)
}

// TrajectoriesToSVG draws each body's path through frames, with a dot at
// its last position. It returns "" when there is nothing to draw.
func TrajectoriesToSVG(frames []dynamo.Frame, width, height int) string {
	b, ok := frameBounds(frames)
	if !ok || width <= 0 || height <= 0 {
		return ""
	}
	proj := newProjector(b, width, height)
	n := frames[0].NumBodies()

	var sb strings.Builder
	header(&sb, width, height)

	if len(frames) > 1 {
		sb.WriteString("<g fill=\"none\" stroke-width=\"1\" stroke-opacity=\"0.6\">\n")
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, `<path stroke="%s" d="`, BodyColor(i, n))
			started := false
			for _, f := range frames {
				if 2*i+1 >= len(f.Positions) {
					break
				}
				if !finite(f.Positions[2*i], f.Positions[2*i+1]) {
					continue
				}
				x, y := proj.point(f.Positions[2*i], f.Positions[2*i+1])
				if !started {
					fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
					started = true
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}
		sb.WriteString("</g>\n")
	}

	last := frames[len(frames)-1]
	sb.WriteString("<g>\n")
	for i := 0; i < last.NumBodies(); i++ {
		if !finite(last.Positions[2*i], last.Positions[2*i+1]) {
			continue
		}
		x, y := proj.point(last.Positions[2*i], last.Positions[2*i+1])
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"2.5\" fill=\"%s\"/>\n", x, y, BodyColor(i, n))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
