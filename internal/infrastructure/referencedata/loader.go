// Package referencedata loads the engine's rule tables from YAML.
// The tables are read once at startup; a default set is compiled into the binary.
package referencedata

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wellpack/engine/internal/domain/reference"
)

//go:embed defaults.yaml
var defaultTables []byte

// Load reads the tables at path, or the embedded defaults when path is empty
func Load(path string, logger *zap.Logger) (*reference.Data, error) {
	raw := defaultTables
	source := "embedded"
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read reference data: %w", err)
		}
		raw, source = b, path
	}

	data, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("reference data %s: %w", source, err)
	}

	logger.Info("Reference data loaded",
		zap.String("source", source),
		zap.Int("catalog_items", data.Catalog().Len()),
		zap.Int("interactions", data.Interactions().Edges()),
		zap.Int("contraindications", len(data.Contraindications())),
		zap.Int("patterns", len(data.Patterns())),
		zap.Int("excess_rules", len(data.ExcessRules())),
	)
	return data, nil
}

// Defaults returns the embedded tables
func Defaults() (*reference.Data, error) {
	return Parse(defaultTables)
}

// Parse decodes and validates a YAML table document. Unknown fields are rejected.
func Parse(raw []byte) (*reference.Data, error) {
	var tables reference.Tables
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&tables); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, reference.ErrEmptyCatalog
		}
		return nil, fmt.Errorf("failed to decode tables: %w", err)
	}
	return reference.NewData(tables)
}
