package viz

import (
	"strings"
	"testing"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	if c.DotWidth() != 4 || c.DotHeight() != 4 {
		t.Fatalf("unexpected dot size %dx%d", c.DotWidth(), c.DotHeight())
	}

	c.Set(0, 0)
	c.Set(1, 3)
	if c.Grid[0][0] != 0x2800|0x1|0x80 {
		t.Errorf("unexpected cell %U", c.Grid[0][0])
	}
	if !c.IsSet(0, 0) || !c.IsSet(1, 3) || c.IsSet(1, 0) {
		t.Error("IsSet disagrees with Set")
	}
}

func TestCanvasIgnoresOutOfRange(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(-1, 0)
	c.Set(0, -1)
	c.Set(4, 0)
	c.Set(0, 8)
	c.Plot(1e12, 0)

	empty := NewCanvas(2, 2)
	if c.String() != empty.String() {
		t.Error("out-of-range dots should not draw")
	}
}

func TestCanvasPlotAndClear(t *testing.T) {
	c := NewCanvas(3, 2)
	c.Plot(2.7, 5.2)
	if !c.IsSet(2, 5) {
		t.Error("Plot should floor to the containing dot")
	}

	c.Clear()
	if strings.ContainsFunc(c.String(), func(r rune) bool { return r != 0x2800 && r != '\n' }) {
		t.Error("Clear should blank every cell")
	}

	lines := strings.Split(c.String(), "\n")
	if len(lines) != 2 {
		t.Errorf("expected 2 rows, got %d", len(lines))
	}
}
