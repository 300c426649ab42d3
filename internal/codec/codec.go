package codec

import (
	"fmt"
	"io"
	"sort"

	"settingscatalog/internal/domain"
)

// Exporter writes a catalog snapshot in some format
type Exporter interface {
	Export(catalog *domain.Catalog, w io.Writer) error
	Format() string
	ContentType() string
}

var exporters = map[string]Exporter{
	"json": NewJSONCodec(),
	"yaml": NewYAMLCodec(),
}

// ForFormat returns the exporter for format
func ForFormat(format string) (Exporter, error) {
	e, ok := exporters[format]
	if !ok {
		return nil, fmt.Errorf("unsupported export format %q (want one of %v)", format, Formats())
	}
	return e, nil
}

// Formats lists the supported export formats
func Formats() []string {
	formats := make([]string, 0, len(exporters))
	for f := range exporters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
