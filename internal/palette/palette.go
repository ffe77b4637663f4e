// Package palette builds the editor's fixed indexed color table.
package palette

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	"github.com/pixel-editor/backend/internal/models"
)

const (
	// Size is the number of entries in every palette.
	Size = 256
	// EraserIndex is the fully transparent entry.
	EraserIndex = 0
	// BlockSize is the number of hues per alpha block.
	BlockSize = 64
)

// CreateDefault returns the default palette: four blocks of 64 hues with
// ascending alpha (0.25, 0.5, 0.75, 1.0). Index 0 has alpha 0.
func CreateDefault() models.Palette {
	p := make(models.Palette, Size)
	step := 360.0 / BlockSize
	for i := range p {
		hue := math.Floor(float64(i%BlockSize) * step)
		alpha := 0.25 + float64(i/BlockSize)*0.25
		if i == EraserIndex {
			alpha = 0
		}
		p[i] = models.PaletteColor{Hue: hue, Alpha: alpha}
	}
	return p
}

// Valid reports whether index addresses a palette entry.
func Valid(index int) bool {
	return index >= 0 && index < Size
}

// CSS formats c as an hsla() color with full saturation and half lightness.
func CSS(c models.PaletteColor) string {
	return fmt.Sprintf("hsla(%s, 100%%, 50%%, %s)",
		strconv.FormatFloat(c.Hue, 'f', -1, 64),
		strconv.FormatFloat(c.Alpha, 'f', -1, 64))
}

// NRGBA converts c to a non-premultiplied RGBA color (S=1, L=0.5).
func NRGBA(c models.PaletteColor) color.NRGBA {
	h := math.Mod(c.Hue, 360)
	if h < 0 {
		h += 360
	}
	// With S=1 and L=0.5 chroma is 1.
	x := 1 - math.Abs(math.Mod(h/60, 2)-1)
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = 1, x, 0
	case h < 120:
		r, g, b = x, 1, 0
	case h < 180:
		r, g, b = 0, 1, x
	case h < 240:
		r, g, b = 0, x, 1
	case h < 300:
		r, g, b = x, 0, 1
	default:
		r, g, b = 1, 0, x
	}
	return color.NRGBA{
		R: to8(r),
		G: to8(g),
		B: to8(b),
		A: to8(clamp01(c.Alpha)),
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(v * 255))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
