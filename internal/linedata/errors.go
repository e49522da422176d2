package linedata

import "fmt"

// MalformedError is returned for a line file that cannot be loaded.
type MalformedError struct {
	Line   string
	Reason string
}

// Error implements the error interface for MalformedError.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed line data for %s: %s", e.Line, e.Reason)
}
