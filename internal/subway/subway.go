package subway

import (
	"regexp"
	"slices"
)

// StationID is the dense index of a station, assigned on first insertion.
type StationID int

// Info tags a connection with the line it belongs to and the branch of that
// line. Branch equals Line when the line has no branches.
type Info struct {
	Line   string
	Branch string
}

// Label returns the name a rider looks for on the platform: the branch when
// the line is branched, the line otherwise.
func (i Info) Label() string {
	if i.Branch == "" || i.Branch == i.Line {
		return i.Line
	}
	return i.Branch
}

// Connection is a directed edge to another station.
type Connection struct {
	To     StationID
	Cost   int
	Active bool
	Info   Info
}

// Subway is the station graph. The zero value is not usable, call New.
type Subway struct {
	stations    []string
	ids         map[string]StationID
	connections [][]Connection
	disabled    map[StationID]struct{}
}

// New creates an empty graph.
func New() *Subway {
	return &Subway{
		ids:      make(map[string]StationID),
		disabled: make(map[StationID]struct{}),
	}
}

// AddStation adds a station by name and returns its id. Adding a name that
// already exists is not an error, the existing id is returned.
func (s *Subway) AddStation(name string) StationID {
	if id, exists := s.ids[name]; exists {
		return id
	}
	id := StationID(len(s.stations))
	s.stations = append(s.stations, name)
	s.connections = append(s.connections, nil)
	s.ids[name] = id
	return id
}

// AddConnection adds the directed connection from -> to with a base cost of 1.
// If from already has a connection to `to`, the existing one is kept and
// false is returned. Unknown station ids are ignored.
func (s *Subway) AddConnection(from, to StationID, line, branch string) bool {
	if !s.valid(from) || !s.valid(to) {
		return false
	}
	for _, c := range s.connections[from] {
		if c.To == to {
			return false
		}
	}
	s.connections[from] = append(s.connections[from], Connection{
		To:     to,
		Cost:   1,
		Active: true,
		Info:   Info{Line: line, Branch: branch},
	})
	return true
}

// Station returns the name of the station with the given id.
func (s *Subway) Station(id StationID) (string, bool) {
	if !s.valid(id) {
		return "", false
	}
	return s.stations[id], true
}

// StationID returns the id of the station with exactly the given name.
func (s *Subway) StationID(name string) (StationID, bool) {
	id, ok := s.ids[name]
	return id, ok
}

// FindStation matches pattern as a regular expression against every station
// name. It succeeds only when exactly one station matches. A pattern that does
// not compile is matched literally.
func (s *Subway) FindStation(pattern string) (StationID, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = regexp.MustCompile(regexp.QuoteMeta(pattern))
	}

	var matches []StationID
	for id, name := range s.stations {
		if re.MatchString(name) {
			matches = append(matches, StationID(id))
		}
	}

	switch len(matches) {
	case 0:
		return 0, &StationNotFoundError{Name: pattern}
	case 1:
		return matches[0], nil
	default:
		candidates := make([]string, 0, len(matches))
		for _, id := range matches {
			candidates = append(candidates, s.stations[id])
		}
		return 0, &AmbiguousStationError{Name: pattern, Candidates: candidates}
	}
}

// Connections returns the outbound connections of a station. The returned
// slice belongs to the graph and must not be modified.
func (s *Subway) Connections(from StationID) []Connection {
	if !s.valid(from) {
		return nil
	}
	return s.connections[from]
}

// Connection returns the connection from -> to, if there is one.
func (s *Subway) Connection(from, to StationID) (Connection, bool) {
	if c := s.connection(from, to); c != nil {
		return *c, true
	}
	return Connection{}, false
}

// SetConnectionActive changes the state of the single directed connection
// from -> to. The reverse direction is left untouched.
func (s *Subway) SetConnectionActive(from, to StationID, active bool) bool {
	c := s.connection(from, to)
	if c == nil {
		return false
	}
	c.Active = active
	return true
}

// DisableStation marks every connection out of and into the station inactive.
func (s *Subway) DisableStation(id StationID) {
	if !s.valid(id) {
		return
	}
	s.setStationState(id, false)
	s.disabled[id] = struct{}{}
}

// EnableStation marks every connection out of and into the station active.
func (s *Subway) EnableStation(id StationID) {
	if !s.valid(id) {
		return
	}
	s.setStationState(id, true)
	delete(s.disabled, id)
}

// DisabledStations returns the stations switched off with DisableStation
// and not enabled since, in id order. Neighbors whose connections were
// switched off along with them are not included.
func (s *Subway) DisabledStations() []StationID {
	disabled := make([]StationID, 0, len(s.disabled))
	for id := range s.disabled {
		disabled = append(disabled, id)
	}
	slices.Sort(disabled)
	return disabled
}

// Size returns the number of stations.
func (s *Subway) Size() int {
	return len(s.stations)
}

// Stations returns all station names in id order.
func (s *Subway) Stations() []string {
	names := make([]string, len(s.stations))
	copy(names, s.stations)
	return names
}

func (s *Subway) setStationState(id StationID, active bool) {
	if !s.valid(id) {
		return
	}
	conns := s.connections[id]
	for i := range conns {
		conns[i].Active = active
		// inbound side: the neighbor's edge back to id
		if back := s.connection(conns[i].To, id); back != nil {
			back.Active = active
		}
	}
}

func (s *Subway) connection(from, to StationID) *Connection {
	if !s.valid(from) {
		return nil
	}
	conns := s.connections[from]
	for i := range conns {
		if conns[i].To == to {
			return &conns[i]
		}
	}
	return nil
}

func (s *Subway) valid(id StationID) bool {
	return id >= 0 && int(id) < len(s.stations)
}
