package linedata

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/vk/tquery/internal/subway"
)

const (
	convergePrefix = "--- "
	branchPrefix   = "----"
)

// Link is one physical track segment between two stations.
type Link struct {
	From   string
	To     string
	Branch string
}

// Line is a parsed, validated line file that has not been applied yet.
type Line struct {
	Name     string
	Branches []string
	// Stations lists every station in file order, without repeats.
	Stations []string
	Links    []Link
}

// Parse reads a line file. name is the line name every connection is tagged
// with; it is also the only branch a line without branch markers may declare.
func Parse(name string, r io.Reader) (*Line, error) {
	sc := bufio.NewScanner(r)

	header, ok := nextRow(sc)
	if !ok {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("failed to read line %s: %w", name, err)
		}
		return nil, &MalformedError{Line: name, Reason: "missing header"}
	}
	if !strings.HasPrefix(header, "---") {
		return nil, &MalformedError{Line: name, Reason: fmt.Sprintf("header must start with ---, got %q", header)}
	}

	line := &Line{
		Name:     name,
		Branches: strings.Fields(strings.TrimLeft(header, "- ")),
	}
	if len(line.Branches) == 0 {
		return nil, &MalformedError{Line: name, Reason: "header names no branches"}
	}

	var (
		branch   = name
		prev     string // last station linked on the current run
		fork     string // last trunk station, where branches start
		inBranch bool
		started  []string
		seen     = make(map[string]struct{})
	)

	for {
		row, ok := nextRow(sc)
		if !ok {
			break
		}

		switch {
		case strings.HasPrefix(row, convergePrefix):
			branch = strings.TrimSpace(strings.TrimLeft(row, "- "))
			inBranch = false
			prev = fork
			fork = ""
			continue
		case strings.HasPrefix(row, branchPrefix):
			branch = strings.TrimSpace(strings.TrimLeft(row, "- "))
			if branch == "" {
				return nil, &MalformedError{Line: name, Reason: "branch marker without a name"}
			}
			inBranch = true
			// the first station of a branch hangs off the fork point
			prev = fork
			started = append(started, branch)
			continue
		}

		station := row
		if _, dup := seen[station]; !dup {
			seen[station] = struct{}{}
			line.Stations = append(line.Stations, station)
		}
		if !inBranch {
			fork = station
		}
		if prev != "" {
			line.Links = append(line.Links, Link{From: prev, To: station, Branch: branch})
		}
		prev = station
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read line %s: %w", name, err)
	}

	if err := validateBranches(line, started); err != nil {
		return nil, err
	}
	return line, nil
}

// validateBranches checks the header against the branches actually started.
func validateBranches(line *Line, started []string) error {
	if len(started) == 0 {
		if len(line.Branches) != 1 || line.Branches[0] != line.Name {
			return &MalformedError{
				Line:   line.Name,
				Reason: fmt.Sprintf("unbranched line must declare only %q, got %s", line.Name, strings.Join(line.Branches, " ")),
			}
		}
		return nil
	}

	want := uniqueSorted(line.Branches)
	got := uniqueSorted(started)
	if !slices.Equal(want, got) {
		return &MalformedError{
			Line:   line.Name,
			Reason: fmt.Sprintf("header declares branches %s but file starts %s", strings.Join(want, " "), strings.Join(got, " ")),
		}
	}
	return nil
}

// Apply adds the line's stations and both directions of every link to g.
// It returns the number of directed connections that were new.
func (l *Line) Apply(g *subway.Subway) int {
	for _, name := range l.Stations {
		g.AddStation(name)
	}
	added := 0
	for _, link := range l.Links {
		from := g.AddStation(link.From)
		to := g.AddStation(link.To)
		if g.AddConnection(from, to, l.Name, link.Branch) {
			added++
		}
		if g.AddConnection(to, from, l.Name, link.Branch) {
			added++
		}
	}
	return added
}

// nextRow returns the next non-blank row, trimmed.
func nextRow(sc *bufio.Scanner) (string, bool) {
	for sc.Scan() {
		if row := strings.TrimSpace(sc.Text()); row != "" {
			return row, true
		}
	}
	return "", false
}

func uniqueSorted(names []string) []string {
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}
