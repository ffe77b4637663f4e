package project

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pixel-editor/backend/internal/models"
	"github.com/pixel-editor/backend/internal/palette"
)

// Document returns a deep copy of the persisted part of the project.
func (s *Store) Document() models.SerializedProject {
	return models.SerializedProject{
		Name:         s.p.Name,
		CanvasWidth:  s.p.CanvasWidth,
		CanvasHeight: s.p.CanvasHeight,
		Palette:      clonePalette(s.p.Palette),
		Actions:      cloneActions(s.p.Actions),
	}
}

// Serialize encodes the project as JSON. Selection state is not included.
func (s *Store) Serialize() ([]byte, error) {
	data, err := json.Marshal(models.SerializedProject{
		Name:         s.p.Name,
		CanvasWidth:  s.p.CanvasWidth,
		CanvasHeight: s.p.CanvasHeight,
		Palette:      s.p.Palette,
		Actions:      s.p.Actions,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding project: %w", err)
	}
	return data, nil
}

// wireProject detects missing required fields in JSON input.
type wireProject struct {
	Name         *string          `json:"name"`
	CanvasWidth  *int             `json:"canvasWidth"`
	CanvasHeight *int             `json:"canvasHeight"`
	Palette      *models.Palette  `json:"palette"`
	Actions      *[]models.Action `json:"actions"`
}

// Deserialize replaces the project with the JSON document in data and
// selects the first action, frame and layer. On error the store is left
// untouched.
func (s *Store) Deserialize(data []byte) error {
	var w wireProject
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	var missing []error
	if w.Name == nil {
		missing = append(missing, errors.New("name is required"))
	}
	if w.CanvasWidth == nil {
		missing = append(missing, errors.New("canvasWidth is required"))
	}
	if w.CanvasHeight == nil {
		missing = append(missing, errors.New("canvasHeight is required"))
	}
	if w.Palette == nil {
		missing = append(missing, errors.New("palette is required"))
	}
	if w.Actions == nil {
		missing = append(missing, errors.New("actions is required"))
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProject, errors.Join(missing...))
	}
	return s.Load(models.SerializedProject{
		Name:         *w.Name,
		CanvasWidth:  *w.CanvasWidth,
		CanvasHeight: *w.CanvasHeight,
		Palette:      *w.Palette,
		Actions:      *w.Actions,
	})
}

// Load replaces the project with doc after validating its structure. Ids
// are taken from doc as-is. On error the store is left untouched.
func (s *Store) Load(doc models.SerializedProject) error {
	if err := Validate(doc); err != nil {
		return err
	}

	actions := cloneActions(doc.Actions)
	for a := range actions {
		for f := range actions[a].Frames {
			for l := range actions[a].Frames[f].Layers {
				if actions[a].Frames[f].Layers[l].Pixels == nil {
					actions[a].Frames[f].Layers[l].Pixels = []models.Pixel{}
				}
			}
		}
	}

	s.p.Name = doc.Name
	s.p.CanvasWidth = doc.CanvasWidth
	s.p.CanvasHeight = doc.CanvasHeight
	s.p.Palette = clonePalette(doc.Palette)
	s.p.Actions = actions
	s.pixels = make(map[string]pixelIndex)

	if len(s.p.Actions) > 0 {
		s.selectFirstOf(&s.p.Actions[0])
	} else {
		s.setCursor("", "", "")
	}
	if !palette.Valid(s.p.CurrentColorIndex) {
		s.p.CurrentColorIndex = DefaultColorIndex
	}
	s.emit(Event{Kind: EventProjectLoaded})
	return nil
}

// Validate checks that doc can be loaded without breaking the selection
// invariants. Canvas size is taken as-is. It requires a full palette, at
// least one frame per action and one layer per frame, unique non-empty ids,
// and per layer unique pixels with valid color indexes.
func Validate(doc models.SerializedProject) error {
	if len(doc.Palette) != palette.Size {
		return fmt.Errorf("%w: palette has %d entries, want %d", ErrInvalidProject, len(doc.Palette), palette.Size)
	}

	seen := make(map[string]struct{})
	checkID := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidProject, kind)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalidProject, id)
		}
		seen[id] = struct{}{}
		return nil
	}

	for _, a := range doc.Actions {
		if err := checkID("action", a.ID); err != nil {
			return err
		}
		if len(a.Frames) == 0 {
			return fmt.Errorf("%w: action %q has no frames", ErrInvalidProject, a.ID)
		}
		for _, f := range a.Frames {
			if err := checkID("frame", f.ID); err != nil {
				return err
			}
			if len(f.Layers) == 0 {
				return fmt.Errorf("%w: frame %q has no layers", ErrInvalidProject, f.ID)
			}
			for _, l := range f.Layers {
				if err := checkID("layer", l.ID); err != nil {
					return err
				}
				if err := validatePixels(l); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func validatePixels(l models.Layer) error {
	coords := make(map[point]struct{}, len(l.Pixels))
	for _, px := range l.Pixels {
		if !palette.Valid(px.ColorIndex) {
			return fmt.Errorf("%w: layer %q pixel (%d,%d) has color index %d", ErrInvalidProject, l.ID, px.X, px.Y, px.ColorIndex)
		}
		p := point{px.X, px.Y}
		if _, dup := coords[p]; dup {
			return fmt.Errorf("%w: layer %q has two pixels at (%d,%d)", ErrInvalidProject, l.ID, px.X, px.Y)
		}
		coords[p] = struct{}{}
	}
	return nil
}
