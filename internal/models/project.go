// Package models contains domain types for the pixel animation editor.
package models

// PaletteColor is one indexed palette entry.
type PaletteColor struct {
	Hue   float64 `json:"hue" msgpack:"hue" yaml:"hue"`       // 0-360
	Alpha float64 `json:"alpha" msgpack:"alpha" yaml:"alpha"` // 0-1
}

// Palette is the fixed 256 entry color table. Index 0 is the eraser color.
type Palette []PaletteColor

// Pixel is a painted cell of a layer. Cells without a Pixel are unpainted.
type Pixel struct {
	X          int `json:"x" msgpack:"x" yaml:"x"`
	Y          int `json:"y" msgpack:"y" yaml:"y"`
	ColorIndex int `json:"colorIndex" msgpack:"colorIndex" yaml:"colorIndex"`
}

// Layer is a sparse pixel set inside a frame. (X, Y) pairs are unique.
type Layer struct {
	ID      string  `json:"id" msgpack:"id" yaml:"id"`
	Name    string  `json:"name" msgpack:"name" yaml:"name"`
	Visible bool    `json:"visible" msgpack:"visible" yaml:"visible"`
	Pixels  []Pixel `json:"pixels" msgpack:"pixels" yaml:"pixels"`
}

// Frame is a single drawable canvas with its own layer stack.
// X, Y, Width and Height place the frame on an animation sheet; they do not
// clip layer pixels.
type Frame struct {
	ID     string  `json:"id" msgpack:"id" yaml:"id"`
	X      int     `json:"x" msgpack:"x" yaml:"x"`
	Y      int     `json:"y" msgpack:"y" yaml:"y"`
	Width  int     `json:"width" msgpack:"width" yaml:"width"`
	Height int     `json:"height" msgpack:"height" yaml:"height"`
	Layers []Layer `json:"layers" msgpack:"layers" yaml:"layers"`
}

// Action is a named sequence of frames, e.g. one animation clip.
type Action struct {
	ID     string  `json:"id" msgpack:"id" yaml:"id"`
	Name   string  `json:"name" msgpack:"name" yaml:"name"`
	Frames []Frame `json:"frames" msgpack:"frames" yaml:"frames"`
}

// Project is the full editable document plus its selection cursor.
// An empty selection id means "none"; ids are either all empty (only when
// Actions is empty) or all valid and nested.
type Project struct {
	Name              string   `json:"name"`
	CanvasWidth       int      `json:"canvasWidth"`
	CanvasHeight      int      `json:"canvasHeight"`
	Palette           Palette  `json:"palette"`
	Actions           []Action `json:"actions"`
	CurrentActionID   string   `json:"currentActionId"`
	CurrentFrameID    string   `json:"currentFrameId"`
	CurrentLayerID    string   `json:"currentLayerId"`
	CurrentColorIndex int      `json:"currentColorIndex"`
}

// SerializedProject is the persisted form of a Project. Selection state is
// session data and is regenerated on load.
type SerializedProject struct {
	Name         string   `json:"name" msgpack:"name" yaml:"name"`
	CanvasWidth  int      `json:"canvasWidth" msgpack:"canvasWidth" yaml:"canvasWidth"`
	CanvasHeight int      `json:"canvasHeight" msgpack:"canvasHeight" yaml:"canvasHeight"`
	Palette      Palette  `json:"palette" msgpack:"palette" yaml:"palette"`
	Actions      []Action `json:"actions" msgpack:"actions" yaml:"actions"`
}

// Selection is the current action/frame/layer/color cursor.
type Selection struct {
	ActionID   string `json:"actionId"`
	FrameID    string `json:"frameId"`
	LayerID    string `json:"layerId"`
	ColorIndex int    `json:"colorIndex"`
}
