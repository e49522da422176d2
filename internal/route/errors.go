package route

import "fmt"

// NoPathError is returned when no sequence of connections joins two stations.
type NoPathError struct {
	From string
	To   string
}

// Error implements the error interface for NoPathError.
func (e *NoPathError) Error() string {
	return fmt.Sprintf("no path from %s to %s", e.From, e.To)
}
