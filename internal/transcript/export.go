// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is one session with its turns, as written by Export.
type ExportEntry struct {
	SessionRecord `yaml:",inline"`
	Log           []TurnRecord `json:"log" yaml:"log"`
}

const exportLimit = 100000

// Export writes every logged session and its turns to w as YAML.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	entries, err := s.exportEntries(ctx)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportFile writes the YAML export to dir/export.yaml and returns its path.
func (s *Store) ExportFile(ctx context.Context) (string, error) {
	path := filepath.Join(s.dir, "export.yaml")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating export file: %w", err)
	}
	if err := s.Export(ctx, f); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

func (s *Store) exportEntries(ctx context.Context) ([]ExportEntry, error) {
	sessions, err := s.Sessions(ctx, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(sessions))
	for i, sess := range sessions {
		turns, err := s.Turns(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		entries[i] = ExportEntry{SessionRecord: sess, Log: turns}
	}
	return entries, nil
}
