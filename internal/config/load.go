package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. EVSTAR_STORAGE_DB_DSN.
const EnvPrefix = "EVSTAR"

// Load reads a pipeline file (.json, .yaml or .yml), applies EVSTAR_*
// environment overrides and fills defaults. It does not validate; call
// ValidatePipeline for that.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read pipeline: %w", err)
	}
	p, err := Decode(b, filepath.Ext(path))
	if err != nil {
		return Pipeline{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := envconfig.Process(EnvPrefix, &p); err != nil {
		return Pipeline{}, fmt.Errorf("env overrides: %w", err)
	}
	p.ApplyDefaults()
	return p, nil
}

// Decode parses a pipeline document. ext selects the format; anything other
// than .yaml/.yml is treated as JSON. Unknown fields are rejected.
func Decode(b []byte, ext string) (Pipeline, error) {
	var p Pipeline
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, err
		}
	}
	return p, nil
}
