package codec

import (
	"fmt"
	"io"

	"settingscatalog/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML export. The layout is meant for reading and
// reviewing: pages carry their entries inline, referenced by label.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the HTTP content type of exported data
func (c *YAMLCodec) ContentType() string {
	return "application/x-yaml"
}

type yamlCatalog struct {
	Pages []yamlPage `yaml:"pages"`
}

type yamlPage struct {
	ID         string            `yaml:"id"`
	Provider   string            `yaml:"provider"`
	Title      string            `yaml:"title,omitempty"`
	Args       map[string]string `yaml:"args,omitempty"`
	InjectedBy string            `yaml:"injected_by,omitempty"`
	Entries    []yamlEntry       `yaml:"entries"`
}

type yamlEntry struct {
	ID    string `yaml:"id"`
	Kind  string `yaml:"kind"`
	Label string `yaml:"label"`
	Opens string `yaml:"opens,omitempty"`
}

// Export exports the catalog to YAML
func (c *YAMLCodec) Export(catalog *domain.Catalog, w io.Writer) error {
	yc := yamlCatalog{
		Pages: make([]yamlPage, 0, len(catalog.Pages)),
	}

	for _, pwe := range catalog.Pages {
		yp := yamlPage{
			ID:       string(pwe.Page.ID),
			Provider: pwe.Page.Name,
			Title:    pwe.Title,
			Entries:  make([]yamlEntry, 0, len(pwe.Entries)),
		}
		if len(pwe.Page.Params) > 0 {
			yp.Args = make(map[string]string, len(pwe.Page.Params))
			for _, p := range pwe.Page.Params {
				yp.Args[p.Key] = p.Value
			}
		}
		if pwe.InjectEntry != nil {
			yp.InjectedBy = string(pwe.InjectEntry.ID)
		}

		for _, e := range pwe.Entries {
			ye := yamlEntry{
				ID:    string(e.ID),
				Kind:  string(e.Kind()),
				Label: e.Label,
			}
			if to, ok := e.LinksTo(); ok {
				ye.Opens = to.DisplayName()
			}
			yp.Entries = append(yp.Entries, ye)
		}
		yc.Pages = append(yc.Pages, yp)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&yc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
