// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the knowledge base to w as a YAML list of diseases.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	records, err := s.Diseases(ctx)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the knowledge base to w as an indented JSON array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	records, err := s.Diseases(ctx)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// writeExport refreshes data-dir/export.yaml.
func (s *Store) writeExport(ctx context.Context) error {
	f, err := os.Create(filepath.Join(s.dataDir, exportFile))
	if err != nil {
		return err
	}
	if err := s.ExportYAML(ctx, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
