// Package corpus loads the table of contents from a directory of YAML files.
//
// Each file declares one category:
//
//	category: office
//	label: Daily Office
//	pages:
//	  - version: RiteII
//	    page:
//	      kind: document
//	      slug: morning-prayer
//	      document: {...}
//
// Files are read in lexical order and pages keep their order within a file, so
// the resulting entry order is stable across loads.
package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/commonprayer-backend/internal/domain"
	"github.com/heartmarshall/commonprayer-backend/internal/toc"
)

type fileSchema struct {
	Category string       `yaml:"category"`
	Label    string       `yaml:"label"`
	Pages    []pageSchema `yaml:"pages"`
}

type pageSchema struct {
	Version *domain.Version `yaml:"version"`
	Page    domain.Page     `yaml:"page"`
}

// Loader reads a corpus directory. It satisfies toc.Source.
type Loader struct {
	dir string
	log *slog.Logger
}

// NewLoader creates a loader for dir.
func NewLoader(logger *slog.Logger, dir string) *Loader {
	return &Loader{dir: dir, log: logger.With("adapter", "corpus")}
}

// Load parses every *.yaml and *.yml file in the directory.
func (l *Loader) Load(ctx context.Context) ([]toc.Entry, map[string]string, error) {
	files, err := l.files()
	if err != nil {
		return nil, nil, err
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("corpus %s: no yaml files", l.dir)
	}

	var entries []toc.Entry
	labels := make(map[string]string)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}

		parsed, err := parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}

		for _, f := range parsed {
			if f.Label != "" {
				if prev, ok := labels[f.Category]; ok && prev != f.Label {
					l.log.WarnContext(ctx, "category label redefined",
						slog.String("category", f.Category),
						slog.String("file", filepath.Base(path)),
					)
				}
				labels[f.Category] = f.Label
			}
			for _, p := range f.Pages {
				entries = append(entries, toc.Entry{Category: f.Category, Version: p.Version, Page: p.Page})
			}
		}
	}

	l.log.InfoContext(ctx, "corpus parsed",
		slog.String("dir", l.dir),
		slog.Int("files", len(files)),
		slog.Int("entries", len(entries)),
	)
	return entries, labels, nil
}

func (l *Loader) files() ([]string, error) {
	if _, err := os.Stat(l.dir); err != nil {
		return nil, fmt.Errorf("corpus dir: %w", err)
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(l.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob corpus dir: %w", err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}

// parse decodes one YAML stream. A stream may hold several documents separated
// by "---", each declaring a category. Unknown fields are rejected.
func parse(data []byte) ([]fileSchema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var out []fileSchema
	for {
		var f fileSchema
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		if f.Category == "" {
			return nil, domain.NewValidationError("category", "required")
		}
		for i, p := range f.Pages {
			if p.Version != nil && !p.Version.IsValid() {
				return nil, domain.NewValidationError(
					fmt.Sprintf("%s.pages[%d].version", f.Category, i),
					fmt.Sprintf("unknown version %q", *p.Version),
				)
			}
		}
		out = append(out, f)
	}
	return out, nil
}
