// Package config provides the package descriptor loader for brewplan.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"go.trai.ch/brewplan/internal/core/domain"
	"go.trai.ch/brewplan/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.DescriptorLoader = (*Loader)(nil)

// Loader implements ports.DescriptorLoader for YAML and HCL descriptor files.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load reads, converts and validates the descriptor at path. The format is
// chosen by file extension. The returned advisories are load-time notices
// such as deprecated checksum algorithms.
func (l *Loader) Load(path string) (*domain.PackageDescriptor, []string, error) {
	dto, err := decodeFile(path)
	if err != nil {
		return nil, nil, zerr.With(err, "path", path)
	}

	b := newBuilder()
	desc, err := b.descriptor(dto)
	if err != nil {
		return nil, nil, zerr.With(zerr.With(err, "package", dto.Name), "path", path)
	}

	if err := validate(desc); err != nil {
		return nil, nil, zerr.With(zerr.With(err, "package", desc.Name), "path", path)
	}

	if base := descriptorBaseName(path); base != desc.Name && l.Logger != nil {
		l.Logger.Warn(fmt.Sprintf("descriptor %s declares package %q", filepath.Base(path), desc.Name))
	}

	return desc, b.advisories, nil
}

func descriptorBaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func decodeFile(path string) (*PackageDTO, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var dto PackageDTO
		if err := readAndUnmarshalYAML(path, &dto); err != nil {
			return nil, err
		}
		return &dto, nil
	case ".hcl":
		var file hclFile
		if err := readAndDecodeHCL(path, &file); err != nil {
			return nil, err
		}
		return &file.Package, nil
	default:
		return nil, zerr.With(domain.ErrUnsupportedDescriptorFormat, "extension", filepath.Ext(path))
	}
}

// readAndUnmarshalYAML reads a YAML file and unmarshals it into the target struct.
// Unknown keys are rejected.
func readAndUnmarshalYAML[T any](path string, target *T) error {
	// #nosec G304 -- path is supplied by the user on purpose
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.Wrap(err, domain.ErrDescriptorReadFailed.Error())
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if parseErr := dec.Decode(target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrDescriptorParseFailed.Error())
	}
	return nil
}

// readAndDecodeHCL reads an HCL file and decodes its body into the target struct.
func readAndDecodeHCL[T any](path string, target *T) error {
	// #nosec G304 -- path is supplied by the user on purpose
	data, err := os.ReadFile(path)
	if err != nil {
		return zerr.Wrap(err, domain.ErrDescriptorReadFailed.Error())
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, path)
	if diags.HasErrors() {
		return zerr.Wrap(diags, domain.ErrDescriptorParseFailed.Error())
	}

	if diags := gohcl.DecodeBody(file.Body, nil, target); diags.HasErrors() {
		return zerr.Wrap(diags, domain.ErrDescriptorParseFailed.Error())
	}
	return nil
}
