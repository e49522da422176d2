package route

import (
	"container/heap"
	"math"
	"slices"

	"github.com/vk/tquery/internal/subway"
)

const (
	lineChangeCost   = 3
	branchChangeCost = 2
	disabledPenalty  = 100
)

// Step is one station of a path. Info describes the connection used to leave
// the station; the final step carries the connection used to arrive.
type Step struct {
	Station subway.StationID
	Info    subway.Info
}

// FindPath returns the cheapest path from start to end, both included.
// It reports false when end cannot be reached.
func FindPath(g *subway.Subway, start, end subway.StationID) ([]Step, bool) {
	n := g.Size()
	if start < 0 || int(start) >= n || end < 0 || int(end) >= n {
		return nil, false
	}
	if start == end {
		return []Step{{Station: start}}, true
	}
	if len(g.Connections(start)) == 0 {
		return nil, false
	}

	// dist[node] = current cheapest known cost from start to node
	dist := make([]int, n)
	for i := range dist {
		dist[i] = math.MaxInt
	}
	cameFrom := make(map[subway.StationID]hop)

	dist[start] = 0
	pq := &frontier{{station: start, cost: 0}}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(entry)
		if cur.station == end {
			return reconstruct(cameFrom, start, end), true
		}
		if cur.cost > dist[cur.station] {
			continue
		}

		prev, hasPrev := cameFrom[cur.station]
		for _, c := range g.Connections(cur.station) {
			next := cur.cost + weight(c, prev.info, hasPrev)
			if next < dist[c.To] {
				dist[c.To] = next
				cameFrom[c.To] = hop{from: cur.station, info: c.Info}
				heap.Push(pq, entry{station: c.To, cost: next})
			}
		}
	}
	return nil, false
}

// weight is the cost of taking c after arriving over a connection tagged prev.
func weight(c subway.Connection, prev subway.Info, hasPrev bool) int {
	w := c.Cost
	if hasPrev {
		switch {
		case prev.Line != c.Info.Line:
			w = lineChangeCost
		case prev.Branch != c.Info.Branch:
			w = branchChangeCost
		}
	}
	if !c.Active {
		w += disabledPenalty
	}
	return w
}

type hop struct {
	from subway.StationID
	info subway.Info
}

func reconstruct(cameFrom map[subway.StationID]hop, start, end subway.StationID) []Step {
	path := []Step{{Station: end, Info: cameFrom[end].info}}
	for cur := end; cur != start; {
		h := cameFrom[cur]
		path = append(path, Step{Station: h.from, Info: h.info})
		cur = h.from
	}
	slices.Reverse(path)
	return path
}

type entry struct {
	station subway.StationID
	cost    int
}

// frontier is a min-heap of entries ordered by cost.
type frontier []entry

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return f[i].cost < f[j].cost }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) {
	*f = append(*f, x.(entry))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}
