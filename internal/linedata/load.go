package linedata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/vk/tquery/internal/ctxlog"
	"github.com/vk/tquery/internal/fsutil"
	"github.com/vk/tquery/internal/subway"
)

// FileExtension is the extension of line files found inside directories.
const FileExtension = ".txt"

var lineNameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Source names a line and the file that describes it.
type Source struct {
	Name string
	Path string
}

// SourceFor derives the line name from a file name without its extension.
func SourceFor(path string) Source {
	base := filepath.Base(path)
	return Source{
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Path: path,
	}
}

// LoadFile parses the file behind src and applies it to g. Nothing is added
// to g unless the whole file is valid.
func LoadFile(ctx context.Context, g *subway.Subway, src Source) error {
	logger := ctxlog.FromContext(ctx).With("line", src.Name, "path", src.Path)

	if !lineNameRegex.MatchString(src.Name) {
		return &MalformedError{Line: src.Name, Reason: "unrecognized line name"}
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return fmt.Errorf("failed to open line file: %w", err)
	}
	defer f.Close()

	line, err := Parse(src.Name, f)
	if err != nil {
		return err
	}

	added := line.Apply(g)
	logger.Debug("Line applied to graph.", "stations", len(line.Stations), "connections", added, "branches", line.Branches)
	return nil
}

// LoadSources loads every source in order. A source that fails is logged and
// skipped; the names of the lines that loaded are returned.
func LoadSources(ctx context.Context, g *subway.Subway, sources []Source) []string {
	logger := ctxlog.FromContext(ctx)

	var loaded []string
	for _, src := range sources {
		if err := LoadFile(ctx, g, src); err != nil {
			logger.Error("Skipping line file.", "line", src.Name, "path", src.Path, "error", err)
			continue
		}
		loaded = append(loaded, src.Name)
	}
	logger.Info("Line data loaded.", "lines", loaded, "stations", g.Size())
	return loaded
}

// LoadFiles loads line files by path, naming each line after its file.
// Directories are searched for files ending in FileExtension. A path that
// cannot be read is logged and skipped like a malformed file.
func LoadFiles(ctx context.Context, g *subway.Subway, paths []string) []string {
	logger := ctxlog.FromContext(ctx)

	var sources []Source
	for _, p := range paths {
		files, err := fsutil.ExpandPaths([]string{p}, FileExtension)
		if err != nil {
			logger.Error("Skipping line file.", "path", p, "error", err)
			continue
		}
		for _, f := range files {
			sources = append(sources, SourceFor(f))
		}
	}
	return LoadSources(ctx, g, sources)
}
