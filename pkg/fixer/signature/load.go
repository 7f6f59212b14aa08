package signature

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ErrTableLoad indicates a signature table file could not be read or parsed.
var ErrTableLoad = errors.New("failed to load signature table")

// tableFile is the on-disk layout. A list keeps rule order explicit, which a
// YAML mapping would not guarantee.
type tableFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads a YAML signature table from path.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTableLoad, err)
	}
	return Parse(data)
}

// Parse decodes a YAML signature table. Unknown keys are rejected.
func Parse(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.UnmarshalWithOptions(data, &f, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTableLoad, err)
	}
	t := Table(f.Rules)
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTableLoad, err)
	}
	return t, nil
}

// Marshal renders the table in the layout LoadFile accepts.
func (t Table) Marshal() ([]byte, error) {
	return yaml.Marshal(tableFile{Rules: t})
}
