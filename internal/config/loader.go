package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tquery/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Load parses and decodes the HCL file at path.
func Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configuration file.", "path", path)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %s: %w", path, err)
	}
	dir := filepath.Dir(abs)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(abs)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(dir, os.Environ()), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	model, err := translate(&root, dir)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", path, err)
	}
	logger.Debug("Configuration loaded.", "lines", len(model.Lines))
	return model, nil
}

// evalContext exposes config_dir, env and a few string functions to expressions.
func evalContext(dir string, environ []string) *hcl.EvalContext {
	env := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = cty.StringVal(v)
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"config_dir": cty.StringVal(dir),
			"env":        cty.ObjectVal(env),
		},
		Functions: map[string]function.Function{
			"lower":    stdlib.LowerFunc,
			"upper":    stdlib.UpperFunc,
			"format":   stdlib.FormatFunc,
			"join":     stdlib.JoinFunc,
			"coalesce": stdlib.CoalesceFunc,
		},
	}
}

func translate(root *fileRoot, dir string) (*Model, error) {
	model := &Model{}
	if b := root.Server; b != nil {
		model.Listen = b.Listen
		model.MaxQueryLength = b.MaxQueryLength
	}
	if b := root.HTTP; b != nil {
		model.HTTPPort = b.Port
		model.StaticDir = b.StaticDir
	}
	if b := root.Log; b != nil {
		model.LogLevel = b.Level
		model.LogFormat = b.Format
	}

	seen := make(map[string]struct{}, len(root.Lines))
	for _, l := range root.Lines {
		if _, dup := seen[l.Name]; dup {
			return nil, fmt.Errorf("line %q is declared more than once", l.Name)
		}
		seen[l.Name] = struct{}{}

		file := l.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		model.Lines = append(model.Lines, Line{Name: l.Name, File: file})
	}
	return model, nil
}
