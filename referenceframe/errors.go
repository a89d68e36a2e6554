package referenceframe

import "github.com/pkg/errors"

// NewUnsupportedJointTypeError returns an error indicating that a given joint type is not supported by the current
// model parsing implementation.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}

// NewUnsupportedFileExtensionError returns an error indicating that a model file extension cannot be parsed.
func NewUnsupportedFileExtensionError(ext string) error {
	return errors.Errorf("unsupported model file extension %q, supported extensions are json, yaml, yml and urdf", ext)
}

// NewDuplicateNameError returns an error indicating that two elements of the same kind share a name.
func NewDuplicateNameError(kind, name string) error {
	return errors.Errorf("duplicate %s name %q", kind, name)
}

// NewLinkNotFoundError returns an error indicating that a referenced link is not in the model.
func NewLinkNotFoundError(name string) error {
	return errors.Errorf("link %q not found in model", name)
}

// NewJointNotFoundError returns an error indicating that a referenced joint is not in the model.
func NewJointNotFoundError(name string) error {
	return errors.Errorf("joint %q not found in model", name)
}
