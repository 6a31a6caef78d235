// Package config reads and writes filter configuration files.
//
// A file names every quantizer of the datapath and the real coefficients:
//
//	kind: iir
//	input:   {q: "0.15", ovfl: sat, quant: round}
//	output:  {q: "0.15", ovfl: sat, quant: round}
//	coeff_b: {q: "0.15"}
//	coeff_a: {q: "0.15", mode: auto}
//	accu:    {ovfl: wrap, quant: floor, mode: full}
//	b: [0.0675, 0.135, 0.0675]
//	a: [1, -1.143, 0.4128]
//
// a is the full denominator including a[0]. Missing blocks and fields take
// the defaults of fixpoint.DefaultConfig. YAML and JSON are selected by
// file extension.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for file extensions other than
// .yaml, .yml and .json.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Quant is one quantizer block. Q ("WI.WF") and WI/WF are alternatives;
// WI and WF override the matching half of Q.
type Quant struct {
	Q     string `yaml:"q,omitempty" json:"q,omitempty"`
	WI    *int   `yaml:"wi,omitempty" json:"wi,omitempty"`
	WF    *int   `yaml:"wf,omitempty" json:"wf,omitempty"`
	Ovfl  string `yaml:"ovfl,omitempty" json:"ovfl,omitempty"`
	Quant string `yaml:"quant,omitempty" json:"quant,omitempty"`

	// Mode selects automatic sizing for accu (man, auto, full) and
	// coeff_a (man, auto).
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty"`
}

// File is the on-disk configuration.
type File struct {
	Kind    string    `yaml:"kind,omitempty" json:"kind,omitempty"`
	Input   *Quant    `yaml:"input,omitempty" json:"input,omitempty"`
	Output  *Quant    `yaml:"output,omitempty" json:"output,omitempty"`
	CoeffB  *Quant    `yaml:"coeff_b,omitempty" json:"coeff_b,omitempty"`
	CoeffA  *Quant    `yaml:"coeff_a,omitempty" json:"coeff_a,omitempty"`
	Accu    *Quant    `yaml:"accu,omitempty" json:"accu,omitempty"`
	Product *Quant    `yaml:"product,omitempty" json:"product,omitempty"`
	B       []float64 `yaml:"b" json:"b"`
	A       []float64 `yaml:"a,omitempty" json:"a,omitempty"`
}

// Load reads and parses a configuration file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	f, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes data in the format named by ext. Unknown fields are errors.
func Parse(data []byte, ext string) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("config: yaml: %w", err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("config: json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return &f, nil
}

// Marshal encodes f in the format named by ext.
func Marshal(f *File, ext string) ([]byte, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return nil, fmt.Errorf("config: yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("config: yaml: %w", err)
		}
		return buf.Bytes(), nil
	case ".json":
		data, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("config: json: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Save writes f to path in the format its extension names.
func Save(path string, f *File) error {
	data, err := Marshal(f, filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
