// Package templatefile reads and writes keypoint structure files and watches
// them for changes. Files are validated against an embedded JSON schema
// before they are decoded.
package templatefile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/menta2k/pose-template/pkg/types"
)

//go:embed keypoint-structure.schema.json
var schemaJSON []byte

const schemaURL = "keypoint-structure.schema.json"

var schema = jsonschema.MustCompileString(schemaURL, string(schemaJSON))

// Decode validates data against the keypoint structure schema and decodes it
func Decode(data []byte) (types.KeypointStructure, error) {
	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return types.KeypointStructure{}, fmt.Errorf("parse template: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return types.KeypointStructure{}, fmt.Errorf("invalid template: %w", err)
	}

	var structure types.KeypointStructure
	if err := json.Unmarshal(data, &structure); err != nil {
		return types.KeypointStructure{}, fmt.Errorf("decode template: %w", err)
	}
	return structure, nil
}

// Encode serializes a structure the way Save writes it
func Encode(structure types.KeypointStructure) ([]byte, error) {
	if structure.Edges == nil {
		structure.Edges = []types.EdgeDescriptor{}
	}
	if structure.Positions == nil {
		structure.Positions = []types.Position{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(structure); err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and validates a template file
func Load(path string) (types.KeypointStructure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.KeypointStructure{}, fmt.Errorf("read template: %w", err)
	}
	structure, err := Decode(data)
	if err != nil {
		return types.KeypointStructure{}, fmt.Errorf("%s: %w", path, err)
	}
	return structure, nil
}

// Save writes a template file. The file is replaced atomically so a watcher
// never sees it half written.
func Save(path string, structure types.KeypointStructure) error {
	data, err := Encode(structure)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create template directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write template: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace template: %w", err)
	}
	return nil
}
