// Package project holds the editable project tree, its selection cursor and
// every mutation the editor performs on it.
//
// A Store is not safe for concurrent use. Callers serialize access, for
// example through session.Manager.
package project

import (
	"fmt"

	"github.com/pixel-editor/backend/internal/models"
	"github.com/pixel-editor/backend/internal/palette"
)

// Default names used when a caller does not supply one.
const (
	DefaultProjectName = "Untitled"
	DefaultActionName  = "default"
	NewActionName      = "action"
	NewLayerName       = "layer"
	DefaultCanvasSize  = 32
	DefaultColorIndex  = 1
)

// DefaultLayerNames is the layer template of every new frame. The first
// entry is selected when the frame is selected.
var DefaultLayerNames = [...]string{"primary", "shadow"}

// Store owns one project.
type Store struct {
	p       models.Project
	ids     IDGenerator
	pixels  map[string]pixelIndex // layer id -> coordinate index
	subs    []subscription
	nextSub int
}

// Option configures a new Store.
type Option func(*options)

type options struct {
	ids    IDGenerator
	name   string
	width  int
	height int
}

// WithIDGenerator replaces the UUID id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithName sets the initial project name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithCanvasSize sets the initial canvas size.
func WithCanvasSize(width, height int) Option {
	return func(o *options) {
		o.width = width
		o.height = height
	}
}

// New creates a store holding a default project: one action with one frame
// holding the default layers, a 32x32 canvas, and color 1 selected.
func New(opts ...Option) *Store {
	o := options{
		ids:    UUIDGenerator{},
		name:   DefaultProjectName,
		width:  DefaultCanvasSize,
		height: DefaultCanvasSize,
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		ids:    o.ids,
		pixels: make(map[string]pixelIndex),
	}
	s.p = models.Project{
		Name:              o.name,
		CanvasWidth:       o.width,
		CanvasHeight:      o.height,
		Palette:           palette.CreateDefault(),
		Actions:           []models.Action{},
		CurrentColorIndex: DefaultColorIndex,
	}
	s.p.Actions = append(s.p.Actions, s.newAction(DefaultActionName))
	s.selectFirstOf(&s.p.Actions[0])
	return s
}

// Name returns the project name.
func (s *Store) Name() string { return s.p.Name }

// SetName renames the project.
func (s *Store) SetName(name string) {
	s.p.Name = name
	s.emit(Event{Kind: EventProjectRenamed})
}

// Snapshot returns a deep copy of the project including its selection.
func (s *Store) Snapshot() models.Project {
	out := s.p
	out.Palette = clonePalette(s.p.Palette)
	out.Actions = cloneActions(s.p.Actions)
	return out
}

// Selection returns the current cursor.
func (s *Store) Selection() models.Selection {
	return models.Selection{
		ActionID:   s.p.CurrentActionID,
		FrameID:    s.p.CurrentFrameID,
		LayerID:    s.p.CurrentLayerID,
		ColorIndex: s.p.CurrentColorIndex,
	}
}

// CurrentAction returns a copy of the selected action.
func (s *Store) CurrentAction() (models.Action, bool) {
	a := s.currentAction()
	if a == nil {
		return models.Action{}, false
	}
	return cloneAction(*a), true
}

// CurrentFrame returns a copy of the selected frame.
func (s *Store) CurrentFrame() (models.Frame, bool) {
	f := s.currentFrame()
	if f == nil {
		return models.Frame{}, false
	}
	return cloneFrame(*f), true
}

// CurrentLayer returns a copy of the selected layer.
func (s *Store) CurrentLayer() (models.Layer, bool) {
	l := s.currentLayer()
	if l == nil {
		return models.Layer{}, false
	}
	return cloneLayer(*l), true
}

// CurrentColor returns the palette entry at the current color index.
func (s *Store) CurrentColor() (models.PaletteColor, bool) {
	i := s.p.CurrentColorIndex
	if i < 0 || i >= len(s.p.Palette) {
		return models.PaletteColor{}, false
	}
	return s.p.Palette[i], true
}

// SelectColor selects a palette index. Out of range indexes are ignored.
func (s *Store) SelectColor(index int) bool {
	if !palette.Valid(index) || index >= len(s.p.Palette) {
		return false
	}
	s.p.CurrentColorIndex = index
	s.emit(Event{Kind: EventColorSelected, Value: index})
	return true
}

// SelectAction selects an action and its first frame and layer.
func (s *Store) SelectAction(actionID string) bool {
	a := s.findAction(actionID)
	if a == nil {
		return false
	}
	s.selectFirstOf(a)
	s.emit(Event{Kind: EventActionSelected, ID: actionID})
	return true
}

// SelectFrame selects a frame of the current action and its first layer.
func (s *Store) SelectFrame(frameID string) bool {
	a := s.currentAction()
	if a == nil {
		return false
	}
	f := findFrame(a, frameID)
	if f == nil {
		return false
	}
	s.setCursor(a.ID, f.ID, firstLayerID(f))
	s.emit(Event{Kind: EventFrameSelected, ID: frameID})
	return true
}

// SelectLayer selects a layer of the current frame.
func (s *Store) SelectLayer(layerID string) bool {
	f := s.currentFrame()
	if f == nil || findLayer(f, layerID) == nil {
		return false
	}
	s.p.CurrentLayerID = layerID
	s.emit(Event{Kind: EventLayerSelected, ID: layerID})
	return true
}

// AddAction appends a new action with one default frame and selects it.
func (s *Store) AddAction(name string) string {
	if name == "" {
		name = NewActionName
	}
	s.p.Actions = append(s.p.Actions, s.newAction(name))
	a := &s.p.Actions[len(s.p.Actions)-1]
	s.selectFirstOf(a)
	s.emit(Event{Kind: EventActionAdded, ID: a.ID})
	return a.ID
}

// AddFrame appends a default frame to the current action and selects it.
func (s *Store) AddFrame() (string, error) {
	a := s.currentAction()
	if a == nil {
		return "", ErrNoCurrentAction
	}
	a.Frames = append(a.Frames, s.newFrame())
	f := &a.Frames[len(a.Frames)-1]
	s.setCursor(a.ID, f.ID, firstLayerID(f))
	s.emit(Event{Kind: EventFrameAdded, ID: f.ID})
	return f.ID, nil
}

// AddLayer appends an empty layer to the current frame and selects it.
func (s *Store) AddLayer(name string) (string, error) {
	f := s.currentFrame()
	if f == nil {
		return "", ErrNoCurrentFrame
	}
	if name == "" {
		name = NewLayerName
	}
	l := s.newLayer(name)
	f.Layers = append(f.Layers, l)
	s.p.CurrentLayerID = l.ID
	s.emit(Event{Kind: EventLayerAdded, ID: l.ID})
	return l.ID, nil
}

// DeleteAction removes an action. The last action cannot be removed.
func (s *Store) DeleteAction(actionID string) error {
	if len(s.p.Actions) <= 1 {
		return ErrLastAction
	}
	i := indexOfAction(s.p.Actions, actionID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
	}
	s.dropLayerIndexes(s.p.Actions[i].Frames...)
	s.p.Actions = append(s.p.Actions[:i], s.p.Actions[i+1:]...)
	if s.p.CurrentActionID == actionID {
		s.selectFirstOf(&s.p.Actions[0])
	}
	s.emit(Event{Kind: EventActionDeleted, ID: actionID})
	return nil
}

// DeleteFrame removes a frame of the current action. The last frame of an
// action cannot be removed.
func (s *Store) DeleteFrame(frameID string) error {
	a := s.currentAction()
	if a == nil {
		return ErrNoCurrentAction
	}
	if len(a.Frames) <= 1 {
		return ErrLastFrame
	}
	i := indexOfFrame(a.Frames, frameID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrFrameNotFound, frameID)
	}
	s.dropLayerIndexes(a.Frames[i])
	a.Frames = append(a.Frames[:i], a.Frames[i+1:]...)
	if s.p.CurrentFrameID == frameID {
		f := &a.Frames[0]
		s.setCursor(a.ID, f.ID, firstLayerID(f))
	}
	s.emit(Event{Kind: EventFrameDeleted, ID: frameID})
	return nil
}

// DeleteLayer removes a layer of the current frame. The last layer of a
// frame cannot be removed.
func (s *Store) DeleteLayer(layerID string) error {
	f := s.currentFrame()
	if f == nil {
		return ErrNoCurrentFrame
	}
	if len(f.Layers) <= 1 {
		return ErrLastLayer
	}
	i := indexOfLayer(f.Layers, layerID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	delete(s.pixels, layerID)
	f.Layers = append(f.Layers[:i], f.Layers[i+1:]...)
	if s.p.CurrentLayerID == layerID {
		s.p.CurrentLayerID = f.Layers[0].ID
	}
	s.emit(Event{Kind: EventLayerDeleted, ID: layerID})
	return nil
}

// RenameAction changes the name of any action.
func (s *Store) RenameAction(actionID, name string) error {
	a := s.findAction(actionID)
	if a == nil {
		return fmt.Errorf("%w: %s", ErrActionNotFound, actionID)
	}
	a.Name = name
	s.emit(Event{Kind: EventActionRenamed, ID: actionID})
	return nil
}

// RenameLayer changes the name of a layer of the current frame.
func (s *Store) RenameLayer(layerID, name string) error {
	l, err := s.frameLayer(layerID)
	if err != nil {
		return err
	}
	l.Name = name
	s.emit(Event{Kind: EventLayerRenamed, ID: layerID})
	return nil
}

// SetLayerVisible toggles visibility of a layer of the current frame.
func (s *Store) SetLayerVisible(layerID string, visible bool) error {
	l, err := s.frameLayer(layerID)
	if err != nil {
		return err
	}
	l.Visible = visible
	s.emit(Event{Kind: EventLayerVisible, ID: layerID})
	return nil
}

// ResizeCanvas sets the canvas size used for new frames. Existing frames
// keep their own size and pixels.
func (s *Store) ResizeCanvas(width, height int) {
	s.p.CanvasWidth = width
	s.p.CanvasHeight = height
	s.emit(Event{Kind: EventCanvasResized})
}

// Canvas returns the current canvas size.
func (s *Store) Canvas() (width, height int) {
	return s.p.CanvasWidth, s.p.CanvasHeight
}

func (s *Store) frameLayer(layerID string) (*models.Layer, error) {
	f := s.currentFrame()
	if f == nil {
		return nil, ErrNoCurrentFrame
	}
	l := findLayer(f, layerID)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, layerID)
	}
	return l, nil
}

func (s *Store) newAction(name string) models.Action {
	return models.Action{
		ID:     s.ids.NewID(),
		Name:   name,
		Frames: []models.Frame{s.newFrame()},
	}
}

func (s *Store) newFrame() models.Frame {
	f := models.Frame{
		ID:     s.ids.NewID(),
		Width:  s.p.CanvasWidth,
		Height: s.p.CanvasHeight,
		Layers: make([]models.Layer, 0, len(DefaultLayerNames)),
	}
	for _, name := range DefaultLayerNames {
		f.Layers = append(f.Layers, s.newLayer(name))
	}
	return f
}

func (s *Store) newLayer(name string) models.Layer {
	return models.Layer{
		ID:      s.ids.NewID(),
		Name:    name,
		Visible: true,
		Pixels:  []models.Pixel{},
	}
}

// setCursor writes all three selection ids in one step.
func (s *Store) setCursor(actionID, frameID, layerID string) {
	s.p.CurrentActionID = actionID
	s.p.CurrentFrameID = frameID
	s.p.CurrentLayerID = layerID
}

func (s *Store) selectFirstOf(a *models.Action) {
	if len(a.Frames) == 0 {
		s.setCursor(a.ID, "", "")
		return
	}
	f := &a.Frames[0]
	s.setCursor(a.ID, f.ID, firstLayerID(f))
}

func (s *Store) findAction(id string) *models.Action {
	if i := indexOfAction(s.p.Actions, id); i >= 0 {
		return &s.p.Actions[i]
	}
	return nil
}

func (s *Store) currentAction() *models.Action {
	if s.p.CurrentActionID == "" {
		return nil
	}
	return s.findAction(s.p.CurrentActionID)
}

func (s *Store) currentFrame() *models.Frame {
	a := s.currentAction()
	if a == nil || s.p.CurrentFrameID == "" {
		return nil
	}
	return findFrame(a, s.p.CurrentFrameID)
}

func (s *Store) currentLayer() *models.Layer {
	f := s.currentFrame()
	if f == nil || s.p.CurrentLayerID == "" {
		return nil
	}
	return findLayer(f, s.p.CurrentLayerID)
}

func findFrame(a *models.Action, id string) *models.Frame {
	if i := indexOfFrame(a.Frames, id); i >= 0 {
		return &a.Frames[i]
	}
	return nil
}

func findLayer(f *models.Frame, id string) *models.Layer {
	if i := indexOfLayer(f.Layers, id); i >= 0 {
		return &f.Layers[i]
	}
	return nil
}

func firstLayerID(f *models.Frame) string {
	if len(f.Layers) == 0 {
		return ""
	}
	return f.Layers[0].ID
}

func indexOfAction(actions []models.Action, id string) int {
	for i := range actions {
		if actions[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfFrame(frames []models.Frame, id string) int {
	for i := range frames {
		if frames[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfLayer(layers []models.Layer, id string) int {
	for i := range layers {
		if layers[i].ID == id {
			return i
		}
	}
	return -1
}
