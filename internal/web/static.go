package web

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/vk/tquery/internal/ctxlog"
)

// indexFiles are tried in order when a directory is requested.
var indexFiles = []string{"index.html", "index.shtml", "index.txt"}

// Static serves files below a root directory. Only GET and HEAD are allowed,
// paths climbing out with .. are refused, and files are served as text/html
// or text/plain depending on their extension.
type Static struct {
	root string
}

// NewStatic creates a Static responder for root.
func NewStatic(root string) *Static {
	return &Static{root: root}
}

// ServeHTTP implements http.Handler.
func (s *Static) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if hasDotDot(r.URL.Path) {
		logger.Warn("Refusing path outside the static root.", "path", r.URL.Path)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	name := filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
	f, info, err := s.open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Error("Failed to open static file.", "path", name, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType(info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// open returns the file at name, or for a directory its first index file.
func (s *Static) open(name string) (*os.File, os.FileInfo, error) {
	info, err := os.Stat(name)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		for _, index := range indexFiles {
			if f, info, err := s.open(filepath.Join(name, index)); err == nil {
				return f, info, nil
			}
		}
		return nil, nil, fs.ErrNotExist
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

func hasDotDot(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".shtml":
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}
