// Package query parses the one-line text protocol clients speak:
//
//	from <station> to <station>
//	disable <station>
//	enable <station>
//
// Station text is a pattern resolved against the graph, see
// subway.Subway.FindStation.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vk/tquery/internal/subway"
)

var (
	routeRegex   = regexp.MustCompile(`^from (?P<from>.+) to (?P<to>.+)$`)
	disableRegex = regexp.MustCompile(`^disable (?P<station>.+)$`)
	enableRegex  = regexp.MustCompile(`^enable (?P<station>.+)$`)
)

// Resolver turns station text into a station id.
type Resolver interface {
	FindStation(pattern string) (subway.StationID, error)
}

// Query is a parsed request. The concrete type is one of Route, Enable or
// Disable.
type Query interface {
	// Kind names the query type for logs and metrics.
	Kind() string
	isQuery()
}

// Route asks for an itinerary between two stations.
type Route struct {
	From subway.StationID
	To   subway.StationID
}

// Enable brings a station back into service.
type Enable struct {
	Station subway.StationID
}

// Disable takes a station out of service.
type Disable struct {
	Station subway.StationID
}

func (Route) Kind() string   { return "route" }
func (Enable) Kind() string  { return "enable" }
func (Disable) Kind() string { return "disable" }

func (Route) isQuery()   {}
func (Enable) isQuery()  {}
func (Disable) isQuery() {}

// UnparseableError is returned for a line that matches none of the query forms.
type UnparseableError struct {
	Line string
}

// Error implements the error interface for UnparseableError.
func (e *UnparseableError) Error() string {
	return fmt.Sprintf("unable to parse query: %s", e.Line)
}

// Parse parses one query line and resolves its station names. A resolution
// failure on either side of a route fails the whole query.
func Parse(r Resolver, line string) (Query, error) {
	line = strings.TrimSpace(line)

	if m := routeRegex.FindStringSubmatch(line); m != nil {
		from, err := r.FindStation(m[routeRegex.SubexpIndex("from")])
		if err != nil {
			return nil, err
		}
		to, err := r.FindStation(m[routeRegex.SubexpIndex("to")])
		if err != nil {
			return nil, err
		}
		return Route{From: from, To: to}, nil
	}

	if m := disableRegex.FindStringSubmatch(line); m != nil {
		id, err := r.FindStation(m[disableRegex.SubexpIndex("station")])
		if err != nil {
			return nil, err
		}
		return Disable{Station: id}, nil
	}

	if m := enableRegex.FindStringSubmatch(line); m != nil {
		id, err := r.FindStation(m[enableRegex.SubexpIndex("station")])
		if err != nil {
			return nil, err
		}
		return Enable{Station: id}, nil
	}

	return nil, &UnparseableError{Line: line}
}
