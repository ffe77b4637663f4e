package project

import (
	"slices"

	"github.com/pixel-editor/backend/internal/models"
)

type point struct{ x, y int }

// pixelIndex maps a coordinate to its position in Layer.Pixels.
type pixelIndex map[point]int

// index returns the coordinate index of l, building it on first use.
func (s *Store) index(l *models.Layer) pixelIndex {
	if idx, ok := s.pixels[l.ID]; ok {
		return idx
	}
	idx := make(pixelIndex, len(l.Pixels))
	for i, px := range l.Pixels {
		idx[point{px.X, px.Y}] = i
	}
	s.pixels[l.ID] = idx
	return idx
}

func (s *Store) dropLayerIndexes(frames ...models.Frame) {
	for _, f := range frames {
		for _, l := range f.Layers {
			delete(s.pixels, l.ID)
		}
	}
}

// paint sets (x, y) of l to the current color and reports whether the layer
// changed.
func (s *Store) paint(l *models.Layer, x, y int) bool {
	idx := s.index(l)
	c := s.p.CurrentColorIndex
	if i, ok := idx[point{x, y}]; ok {
		if l.Pixels[i].ColorIndex == c {
			return false
		}
		l.Pixels[i].ColorIndex = c
		return true
	}
	idx[point{x, y}] = len(l.Pixels)
	l.Pixels = append(l.Pixels, models.Pixel{X: x, Y: y, ColorIndex: c})
	return true
}

// DrawPixel paints (x, y) on the current layer with the current color,
// replacing any pixel already there. It does nothing without a current layer.
func (s *Store) DrawPixel(x, y int) bool {
	l := s.currentLayer()
	if l == nil || !s.paint(l, x, y) {
		return false
	}
	s.emit(Event{Kind: EventPixelsChanged, ID: l.ID, Value: 1})
	return true
}

// ErasePixel removes the pixel at (x, y) from the current layer, if any.
func (s *Store) ErasePixel(x, y int) bool {
	l := s.currentLayer()
	if l == nil {
		return false
	}
	idx := s.index(l)
	i, ok := idx[point{x, y}]
	if !ok {
		return false
	}
	// Pixels keep their drawing order; later entries shift down by one.
	l.Pixels = slices.Delete(l.Pixels, i, i+1)
	delete(idx, point{x, y})
	for j := i; j < len(l.Pixels); j++ {
		idx[point{l.Pixels[j].X, l.Pixels[j].Y}] = j
	}
	s.emit(Event{Kind: EventPixelsChanged, ID: l.ID, Value: 1})
	return true
}

// DrawLine paints every cell on the line from (x0, y0) to (x1, y1) and
// returns the number of pixels that changed.
func (s *Store) DrawLine(x0, y0, x1, y1 int) int {
	l := s.currentLayer()
	if l == nil {
		return 0
	}
	n := 0
	for _, p := range Line(x0, y0, x1, y1) {
		if s.paint(l, p.X, p.Y) {
			n++
		}
	}
	if n > 0 {
		s.emit(Event{Kind: EventPixelsChanged, ID: l.ID, Value: n})
	}
	return n
}

// Point is a canvas coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Line returns the cells between two points inclusive (Bresenham).
func Line(x0, y0, x1, y1 int) []Point {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx, sy := 1, 1
	if x0 >= x1 {
		sx = -1
	}
	if y0 >= y1 {
		sy = -1
	}
	err := dx - dy

	points := make([]Point, 0, max(dx, dy)+1)
	x, y := x0, y0
	for {
		points = append(points, Point{x, y})
		if x == x1 && y == y1 {
			return points
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
