package kinematics

import "github.com/pkg/errors"

// ErrCircularReference is returned when the joints of a model close a loop.
var ErrCircularReference = errors.New("joints form a closed loop")

// NewNotATreeError returns an error indicating that the joints of a model do not form a single tree.
func NewNotATreeError(reason error) error {
	if reason == nil {
		return errors.New("model is not a tree")
	}
	return errors.Wrap(reason, "model is not a tree")
}

// NewMultipleParentsError returns an error indicating that a link is the child of more than one joint.
func NewMultipleParentsError(link string) error {
	return errors.Errorf("link %q is the child of more than one joint", link)
}

// NewLinkIndexError returns an error indicating that a link index is outside the topology.
func NewLinkIndexError(index int) error {
	return errors.Errorf("link index %d out of range", index)
}
