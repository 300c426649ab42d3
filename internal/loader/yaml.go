// Package loader reads provider registration tables from YAML.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"settingscatalog/internal/domain"
	"settingscatalog/internal/provider"
)

// CurrentVersion is the provider table format version this loader reads
const CurrentVersion = 1

// TableYAML represents the YAML file structure
type TableYAML struct {
	Version   int            `yaml:"version"`
	Providers []ProviderYAML `yaml:"providers"`
	Roots     []PageYAML     `yaml:"roots,omitempty"`
}

// ProviderYAML represents one provider
type ProviderYAML struct {
	Name       string      `yaml:"name"`
	Title      string      `yaml:"title,omitempty"`
	Root       bool        `yaml:"root,omitempty"`
	Parameters []string    `yaml:"parameters,omitempty"`
	Entries    []EntryYAML `yaml:"entries,omitempty"`
}

// EntryYAML represents an entry declaration. Exactly one of Name and Inject is set.
type EntryYAML struct {
	Name   string    `yaml:"name,omitempty"`
	Label  string    `yaml:"label,omitempty"`
	Inject string    `yaml:"inject,omitempty"`
	Args   []ArgYAML `yaml:"args,omitempty"`
}

// ArgYAML is a single page argument. A list keeps argument order, which is
// part of page identity.
type ArgYAML struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// PageYAML names an extra root page, usually a parameterized one
type PageYAML struct {
	Provider string    `yaml:"provider"`
	Args     []ArgYAML `yaml:"args,omitempty"`
}

// LoadYAML loads a provider table from a YAML file
func LoadYAML(path string) (*provider.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return ParseYAML(data)
}

// ParseYAML parses a provider table from YAML bytes
func ParseYAML(data []byte) (*provider.Registry, error) {
	var table TableYAML
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&table); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return convertYAMLToRegistry(&table)
}

func convertYAMLToRegistry(t *TableYAML) (*provider.Registry, error) {
	if t.Version != 0 && t.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported provider table version %d", t.Version)
	}

	reg := provider.NewRegistry()
	for i, py := range t.Providers {
		if py.Name == "" {
			return nil, fmt.Errorf("provider %d: name is required", i)
		}

		static := &provider.Static{
			ProviderName: py.Name,
			PageTitle:    py.Title,
			Parameters:   py.Parameters,
			Entries:      make([]provider.EntryDecl, 0, len(py.Entries)),
		}
		for j, ey := range py.Entries {
			if (ey.Name == "") == (ey.Inject == "") {
				return nil, fmt.Errorf("provider %s: entry %d must set exactly one of name and inject", py.Name, j)
			}
			if ey.Name != "" && len(ey.Args) > 0 {
				return nil, fmt.Errorf("provider %s: entry %s: args only apply to injections", py.Name, ey.Name)
			}
			static.Entries = append(static.Entries, provider.EntryDecl{
				Name:   ey.Name,
				Label:  ey.Label,
				Inject: ey.Inject,
				Args:   convertArgs(ey.Args),
			})
		}

		if err := reg.Register(static, py.Root); err != nil {
			return nil, err
		}
	}

	for _, root := range t.Roots {
		if err := reg.AddRoot(domain.NewPage(root.Provider, convertArgs(root.Args)...)); err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func convertArgs(args []ArgYAML) domain.Params {
	if len(args) == 0 {
		return nil
	}
	params := make(domain.Params, 0, len(args))
	for _, a := range args {
		params = append(params, domain.Param{Key: a.Key, Value: a.Value})
	}
	return params
}
