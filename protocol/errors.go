package protocol

import "fmt"

// UnexpectedStatusError represents an unexpected chip status after a command.
// Contains the status the command should have produced and the one read
// back.
type UnexpectedStatusError struct {
	// Operation is the command that failed
	Operation string

	// Want is the status the command should have produced
	Want Status

	// Got is the status read back from the chip
	Got Status
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%s failed: status is %s, expected %s", e.Operation, e.Got, e.Want)
}

// IsUnexpectedStatusError returns true if the error is an
// UnexpectedStatusError.
func IsUnexpectedStatusError(err error) bool {
	_, ok := err.(*UnexpectedStatusError)
	return ok
}
