package network

import "errors"

// WeightsError implements errors unique to weight persistence.
type WeightsError struct {
	Op  string
	ID  string
	Err error
}

// Error satisfies the error interface
func (e *WeightsError) Error() string {
	return e.Op + " " + e.ID + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *WeightsError) Unwrap() error {
	return e.Err
}

var errNotFound = errors.New("no weights stored under identifier")

var errShapeMismatch = errors.New("stored weights do not match network " +
	"architecture")

// IsNotFound returns whether an error reports that a weight identifier
// does not resolve to any persisted state.
func IsNotFound(err error) bool {
	if wErr, ok := err.(*WeightsError); ok {
		err = wErr.Err
	}
	return errors.Is(err, errNotFound)
}

// IsShapeMismatch returns whether an error reports that persisted weights
// were found but describe a different network architecture.
func IsShapeMismatch(err error) bool {
	if wErr, ok := err.(*WeightsError); ok {
		err = wErr.Err
	}
	return errors.Is(err, errShapeMismatch)
}
