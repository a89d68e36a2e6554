package dynamics

import "github.com/pkg/errors"

var (
	// ErrZeroMass is returned when a center of mass is requested for a set of links with no mass.
	ErrZeroMass = errors.New("links have zero total mass")
	// ErrCOMNotComputed is returned by COM getters before ComputeCOM has run on the current positions.
	ErrCOMNotComputed = errors.New("center of mass has not been computed for the current positions")
)

// NewSizeMismatchError returns an error indicating that a vector has the wrong length.
func NewSizeMismatchError(what string, expected, got int) error {
	return errors.Errorf("%s has length %d, expected %d", what, got, expected)
}

// NewMatrixSizeError returns an error indicating that a destination matrix has the wrong shape.
func NewMatrixSizeError(what string, rows, cols, gotRows, gotCols int) error {
	return errors.Errorf("%s is %dx%d, expected %dx%d", what, gotRows, gotCols, rows, cols)
}

// NewPartNotFoundError returns an error indicating that no part has the given name.
func NewPartNotFoundError(name string) error {
	return errors.Errorf("part %q not found", name)
}

// NewSensorIndexError returns an error indicating that a sensor index is out of range.
func NewSensorIndexError(index int) error {
	return errors.Errorf("FT sensor index %d out of range", index)
}

// NewPhaseError returns an error indicating that op ran before the pipeline reached the required phase.
func NewPhaseError(op string, required, current Phase) error {
	return errors.Errorf("%s requires phase %q, engine is in phase %q", op, required, current)
}

// NewSensorJointNotFixedError returns an error indicating that an FT sensor was placed on a moving joint.
func NewSensorJointNotFixedError(joint, jointType string) error {
	return errors.Errorf("FT sensor joint %q must be fixed, got %s", joint, jointType)
}

// NewInvalidContactError returns an error describing why the contact at position i of a list was rejected.
func NewInvalidContactError(i int, reason string) error {
	return errors.Errorf("contact %d: %s", i, reason)
}
