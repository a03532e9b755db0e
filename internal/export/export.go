// Package export writes the JSON product snapshot to a blob store.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

// ContentType is the MIME type of the snapshot.
const ContentType = "application/json"

// RowSource yields the rows to export.
type RowSource interface {
	ExportRows(ctx context.Context) ([]catalog.ExportRow, error)
}

// Destination is a parsed export target.
type Destination struct {
	// Bucket is set for gs:// targets.
	Bucket string
	// BaseDir is set for local targets.
	BaseDir string
	// Object is the path inside Bucket or BaseDir.
	Object string
}

// IsGCS reports whether the destination is a GCS object.
func (d Destination) IsGCS() bool { return d.Bucket != "" }

// ParseDestination splits an export path into a blob store root and object name.
func ParseDestination(path string) (Destination, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Destination{}, fmt.Errorf("export path is required")
	}
	if rest, ok := strings.CutPrefix(path, "gs://"); ok {
		bucket, object, found := strings.Cut(rest, "/")
		if !found || bucket == "" || strings.Trim(object, "/") == "" {
			return Destination{}, fmt.Errorf("invalid gcs export path %q: want gs://bucket/object", path)
		}
		return Destination{Bucket: bucket, Object: object}, nil
	}
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) || strings.HasSuffix(path, string(filepath.Separator)) {
		return Destination{}, fmt.Errorf("invalid export path %q: want a file name", path)
	}
	return Destination{BaseDir: filepath.Dir(path), Object: base}, nil
}

// Exporter renders rows as indented JSON and uploads them.
type Exporter struct {
	blobs  catalog.BlobStore
	object string
}

// New creates an Exporter writing object into blobs.
func New(blobs catalog.BlobStore, object string) *Exporter {
	return &Exporter{blobs: blobs, object: object}
}

// Export writes the snapshot and returns its URI.
func (e *Exporter) Export(ctx context.Context, rows RowSource) (string, error) {
	data, err := rows.ExportRows(ctx)
	if err != nil {
		return "", fmt.Errorf("load export rows: %w", err)
	}
	body, err := Encode(data)
	if err != nil {
		return "", err
	}
	uri, err := e.blobs.PutObject(ctx, e.object, ContentType, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return uri, nil
}

// Encode renders rows as a two-space indented JSON array without HTML escaping.
func Encode(rows []catalog.ExportRow) ([]byte, error) {
	if rows == nil {
		rows = []catalog.ExportRow{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return buf.Bytes(), nil
}
