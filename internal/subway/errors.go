package subway

import (
	"fmt"
	"strings"
)

// StationNotFoundError is returned when a station pattern matches nothing.
type StationNotFoundError struct {
	Name string
}

// Error implements the error interface for StationNotFoundError.
func (e *StationNotFoundError) Error() string {
	return fmt.Sprintf("no such station: %s", e.Name)
}

// AmbiguousStationError is returned when a station pattern matches more than
// one station. Candidates lists every matching name in id order.
type AmbiguousStationError struct {
	Name       string
	Candidates []string
}

// Error implements the error interface for AmbiguousStationError.
func (e *AmbiguousStationError) Error() string {
	return fmt.Sprintf("disambiguate your station %q: %s", e.Name, strings.Join(e.Candidates, ", "))
}
