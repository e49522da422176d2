package route

import (
	"fmt"
	"strings"

	"github.com/vk/tquery/internal/subway"
)

// FindRoute resolves both station names with FindStation and renders the
// itinerary between them.
func FindRoute(g *subway.Subway, startName, endName string) (string, error) {
	start, err := g.FindStation(startName)
	if err != nil {
		return "", err
	}
	end, err := g.FindStation(endName)
	if err != nil {
		return "", err
	}
	return Between(g, start, end)
}

// Between renders the itinerary between two known stations.
func Between(g *subway.Subway, start, end subway.StationID) (string, error) {
	path, ok := FindPath(g, start, end)
	if !ok {
		from, _ := g.Station(start)
		to, _ := g.Station(end)
		return "", &NoPathError{From: from, To: to}
	}
	return Render(g, path), nil
}

// Render turns a path into rider instructions. Consecutive connections with
// the same line and branch become one "take" segment listing its stations.
func Render(g *subway.Subway, path []Step) string {
	var b strings.Builder
	if len(path) == 1 {
		name, _ := g.Station(path[0].Station)
		fmt.Fprintf(&b, "you are already at %s\n", name)
		return b.String()
	}

	var prev *subway.Info
	for i := 0; i < len(path)-1; i++ {
		info := path[i].Info
		if prev == nil || *prev != info {
			if prev != nil {
				switch {
				case prev.Line != info.Line:
					fmt.Fprintf(&b, "---switch from %s to %s\n", prev.Line, info.Line)
				case info.Branch != info.Line:
					fmt.Fprintf(&b, "---ensure you are on %s\n", info.Branch)
				}
			}
			fmt.Fprintf(&b, "take %s\n", info.Label())
			writeStation(&b, g, path[i].Station)
			prev = &path[i].Info
		}
		writeStation(&b, g, path[i+1].Station)
	}
	return b.String()
}

func writeStation(b *strings.Builder, g *subway.Subway, id subway.StationID) {
	name, _ := g.Station(id)
	fmt.Fprintf(b, "  %s\n", name)
}
