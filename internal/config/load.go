package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// ErrUnsupportedFormat is returned for files that are neither YAML nor CUE.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Format is a configuration file format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFor returns the format implied by path's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	default:
		return "", fmt.Errorf("%w: extension %q (want .yaml, .yml or .cue)", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads, decodes and validates the configuration file at path.
func Load(path string) (*Config, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, format, path)
}

// Parse decodes and validates data. name is used in CUE error positions.
func Parse(data []byte, format Format, name string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch format {
	case FormatYAML:
		cfg, err = parseYAML(data)
	case FormatCUE:
		cfg, err = parseCUE(data, name)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func parseYAML(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("failed to parse YAML: empty document")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &cfg, nil
}

// parseCUE unifies the file with #Config, which closes it against unknown
// fields and supplies defaults, then decodes the concrete result.
func parseCUE(data []byte, name string) (*Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	user := ctx.CompileBytes(data, cue.Filename(name))
	if err := user.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse CUE: %w", err)
	}

	value := def.Unify(user)
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("failed to validate CUE: %w", err)
	}

	raw, err := value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export CUE: %w", err)
	}

	cfg := Default()
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}
	return &cfg, nil
}
