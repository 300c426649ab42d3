package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"settingscatalog/internal/domain"
)

// JSONCodec handles JSON export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// ContentType returns the HTTP content type of exported data
func (c *JSONCodec) ContentType() string {
	return "application/json"
}

// Parse reads a catalog previously written by Export
func (c *JSONCodec) Parse(r io.Reader) (*domain.Catalog, error) {
	catalog := domain.NewCatalog()
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(catalog); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	return catalog, nil
}

// Export exports the catalog to JSON
func (c *JSONCodec) Export(catalog *domain.Catalog, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(catalog); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
