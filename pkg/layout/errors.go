package layout

import "errors"

var (
	// ErrOffGrid reports a physical coordinate that is not a grid point.
	ErrOffGrid = errors.New("coordinate is not on the grid")
	// ErrNotPlaced reports use of an instance before it was placed.
	ErrNotPlaced = errors.New("instance is not placed")
	// ErrNotStraight reports a route whose endpoints do not share a row or
	// column, or coincide.
	ErrNotStraight = errors.New("route is not a straight segment")
	// ErrUnknownPin reports a pin lookup that does not match any pin.
	ErrUnknownPin = errors.New("unknown pin")
	// ErrUnknownTemplate reports a template lookup miss.
	ErrUnknownTemplate = errors.New("unknown template")
	// ErrUnknownGrid reports a grid lookup miss.
	ErrUnknownGrid = errors.New("unknown grid")
	// ErrDanglingPin reports a pin region not backed by wire geometry in the
	// same design.
	ErrDanglingPin = errors.New("pin is not backed by design geometry")
	// ErrDuplicateName reports a second object registered under a used name.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrInvalidParam reports a template parameter outside its accepted range.
	ErrInvalidParam = errors.New("invalid template parameter")
)
