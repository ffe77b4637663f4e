package project

import "github.com/pixel-editor/backend/internal/models"

func clonePalette(p models.Palette) models.Palette {
	if p == nil {
		return nil
	}
	return append(models.Palette(nil), p...)
}

func cloneActions(in []models.Action) []models.Action {
	out := make([]models.Action, len(in))
	for i, a := range in {
		out[i] = cloneAction(a)
	}
	return out
}

func cloneAction(a models.Action) models.Action {
	frames := make([]models.Frame, len(a.Frames))
	for i, f := range a.Frames {
		frames[i] = cloneFrame(f)
	}
	a.Frames = frames
	return a
}

func cloneFrame(f models.Frame) models.Frame {
	layers := make([]models.Layer, len(f.Layers))
	for i, l := range f.Layers {
		layers[i] = cloneLayer(l)
	}
	f.Layers = layers
	return f
}

func cloneLayer(l models.Layer) models.Layer {
	l.Pixels = append(make([]models.Pixel, 0, len(l.Pixels)), l.Pixels...)
	return l
}
