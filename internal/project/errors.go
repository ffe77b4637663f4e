package project

import "errors"

// Guard refusals. Unknown ids passed to the Select* methods are not errors;
// those methods report false instead.
var (
	ErrNoCurrentAction = errors.New("no current action")
	ErrNoCurrentFrame  = errors.New("no current frame")
	ErrLastAction      = errors.New("cannot delete the last action")
	ErrLastFrame       = errors.New("cannot delete the last frame")
	ErrLastLayer       = errors.New("cannot delete the last layer")
	ErrActionNotFound  = errors.New("action not found")
	ErrFrameNotFound   = errors.New("frame not found")
	ErrLayerNotFound   = errors.New("layer not found")
	ErrInvalidProject  = errors.New("invalid project")
)
