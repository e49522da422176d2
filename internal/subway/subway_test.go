package subway

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddStation_Idempotent(t *testing.T) {
	s := New()

	a := s.AddStation("A")
	assert.Equal(t, StationID(0), a)
	b := s.AddStation("B")
	assert.Equal(t, StationID(1), b)

	again := s.AddStation("A")
	assert.Equal(t, a, again)
	assert.Equal(t, 2, s.Size())
	assert.Equal(t, []string{"A", "B"}, s.Stations())
}

func TestAddStation_CaseSensitive(t *testing.T) {
	s := New()
	lower := s.AddStation("park")
	upper := s.AddStation("Park")
	assert.NotEqual(t, lower, upper)
}

func TestAddConnection(t *testing.T) {
	s := New()
	a := s.AddStation("A")
	b := s.AddStation("B")

	require.True(t, s.AddConnection(a, b, "foo", "bar"))

	conns := s.Connections(a)
	require.Len(t, conns, 1)
	c := conns[0]
	assert.Equal(t, b, c.To)
	assert.Equal(t, 1, c.Cost)
	assert.True(t, c.Active)
	assert.Equal(t, Info{Line: "foo", Branch: "bar"}, c.Info)

	// b has no outbound connections of its own
	assert.Empty(t, s.Connections(b))
}

func TestAddConnection_NoDuplicates(t *testing.T) {
	s := New()
	a := s.AddStation("A")
	b := s.AddStation("B")

	require.True(t, s.AddConnection(a, b, "red", "red"))
	// First write wins, even with different tags.
	assert.False(t, s.AddConnection(a, b, "green", "E"))

	conns := s.Connections(a)
	require.Len(t, conns, 1)
	assert.Equal(t, "red", conns[0].Info.Line)
}

func TestAddConnection_UnknownStation(t *testing.T) {
	s := New()
	a := s.AddStation("A")
	assert.False(t, s.AddConnection(a, 7, "red", "red"))
	assert.False(t, s.AddConnection(-1, a, "red", "red"))
	assert.Empty(t, s.Connections(a))
}

func TestStationLookup(t *testing.T) {
	s := New()
	a := s.AddStation("A")

	name, ok := s.Station(a)
	require.True(t, ok)
	assert.Equal(t, "A", name)

	_, ok = s.Station(100)
	assert.False(t, ok)

	id, ok := s.StationID("A")
	require.True(t, ok)
	assert.Equal(t, a, id)

	_, ok = s.StationID("B")
	assert.False(t, ok)
}

func TestConnection(t *testing.T) {
	s := New()
	a := s.AddStation("A")
	b := s.AddStation("B")
	c := s.AddStation("C")
	s.AddConnection(a, b, "foo", "bar")

	conn, ok := s.Connection(a, b)
	require.True(t, ok)
	assert.Equal(t, b, conn.To)

	_, ok = s.Connection(a, c)
	assert.False(t, ok)
}

func TestFindStation(t *testing.T) {
	s := New()
	a1 := s.AddStation("A1")
	a2 := s.AddStation("A2")
	s.AddStation("Park Street Station")

	testCases := []struct {
		name       string
		pattern    string
		expectID   StationID
		notFound   bool
		candidates []string
	}{
		{name: "exact unique match", pattern: "A1", expectID: a1},
		{name: "regex unique match", pattern: "^A2$", expectID: a2},
		{name: "substring match", pattern: "Park", expectID: 2},
		{name: "ambiguous", pattern: "A", candidates: []string{"A1", "A2"}},
		{name: "not found", pattern: "B", notFound: true},
		{name: "invalid regex is matched literally", pattern: "Park (", notFound: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := s.FindStation(tc.pattern)

			switch {
			case tc.notFound:
				var nf *StationNotFoundError
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, tc.pattern, nf.Name)
				assert.Contains(t, err.Error(), "no such station")
			case tc.candidates != nil:
				var amb *AmbiguousStationError
				require.ErrorAs(t, err, &amb)
				assert.Equal(t, tc.candidates, amb.Candidates)
				assert.Contains(t, err.Error(), "disambiguate")
			default:
				require.NoError(t, err)
				assert.Equal(t, tc.expectID, id)
			}
		})
	}
}

func TestDisableEnableStation(t *testing.T) {
	s := New()
	a := s.AddStation("A")
	b := s.AddStation("B")
	c := s.AddStation("C")
	s.AddConnection(a, b, "", "")
	s.AddConnection(b, a, "", "")
	s.AddConnection(c, b, "", "")

	s.DisableStation(a)

	ab, _ := s.Connection(a, b)
	assert.False(t, ab.Active)
	ba, _ := s.Connection(b, a)
	assert.False(t, ba.Active)
	cb, _ := s.Connection(c, b)
	assert.True(t, cb.Active, "unrelated connection must stay active")
	assert.Equal(t, []StationID{a}, s.DisabledStations())

	s.EnableStation(a)

	ab, _ = s.Connection(a, b)
	assert.True(t, ab.Active)
	ba, _ = s.Connection(b, a)
	assert.True(t, ba.Active)
	assert.Empty(t, s.DisabledStations())
}

func TestDisabledStations_ExcludesNeighbors(t *testing.T) {
	s := New()
	a := s.AddStation("A")
	b := s.AddStation("B")
	c := s.AddStation("C")
	for _, pair := range [][2]StationID{{a, b}, {b, c}} {
		s.AddConnection(pair[0], pair[1], "red", "red")
		s.AddConnection(pair[1], pair[0], "red", "red")
	}

	s.DisableStation(b)

	// the termini lost their only connections but were not disabled themselves
	ab, _ := s.Connection(a, b)
	assert.False(t, ab.Active)
	cb, _ := s.Connection(c, b)
	assert.False(t, cb.Active)
	assert.Equal(t, []StationID{b}, s.DisabledStations())

	s.DisableStation(c)
	assert.Equal(t, []StationID{b, c}, s.DisabledStations())

	s.EnableStation(b)
	assert.Equal(t, []StationID{c}, s.DisabledStations())

	// unknown ids are ignored
	s.DisableStation(StationID(42))
	assert.Equal(t, []StationID{c}, s.DisabledStations())
}

func TestDisableStation_Symmetry(t *testing.T) {
	s := New()
	hub := s.AddStation("Hub")
	for _, name := range []string{"N", "E", "S", "W"} {
		id := s.AddStation(name)
		s.AddConnection(hub, id, "red", "red")
		s.AddConnection(id, hub, "red", "red")
	}

	s.DisableStation(hub)
	for _, out := range s.Connections(hub) {
		assert.False(t, out.Active)
		in, ok := s.Connection(out.To, hub)
		require.True(t, ok)
		assert.False(t, in.Active)
	}

	s.EnableStation(hub)
	for _, out := range s.Connections(hub) {
		assert.True(t, out.Active)
		in, _ := s.Connection(out.To, hub)
		assert.True(t, in.Active)
	}
}

func TestSetConnectionActive_IsAsymmetric(t *testing.T) {
	s := New()
	a := s.AddStation("A")
	b := s.AddStation("B")
	s.AddConnection(a, b, "red", "red")
	s.AddConnection(b, a, "red", "red")

	require.True(t, s.SetConnectionActive(a, b, false))

	ab, _ := s.Connection(a, b)
	ba, _ := s.Connection(b, a)
	assert.False(t, ab.Active)
	assert.True(t, ba.Active)

	assert.False(t, s.SetConnectionActive(b, 9, false))
}

func TestInfoLabel(t *testing.T) {
	assert.Equal(t, "red", Info{Line: "red", Branch: "red"}.Label())
	assert.Equal(t, "red", Info{Line: "red"}.Label())
	assert.Equal(t, "Braintree", Info{Line: "red", Branch: "Braintree"}.Label())
}

func TestErrorsAreDistinct(t *testing.T) {
	s := New()
	_, err := s.FindStation("nowhere")
	var amb *AmbiguousStationError
	assert.False(t, errors.As(err, &amb))
}
