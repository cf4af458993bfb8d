package query

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var defaultExamples []byte

// Showcase is a labelled example card.
type Showcase struct {
	Label string `yaml:"label"`
	Tone  string `yaml:"tone"`
	Query string `yaml:"query"`
}

// Examples are the canned queries the page offers.
type Examples struct {
	Quick    []string   `yaml:"quick"`
	Showcase []Showcase `yaml:"showcase"`
}

// LoadExamples reads the catalogue from path, or the built-in one when path
// is empty.
func LoadExamples(path string) (*Examples, error) {
	data := defaultExamples
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading examples: %w", err)
		}
		data = b
	}

	var ex Examples
	if err := yaml.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("parsing examples: %w", err)
	}
	return &ex, nil
}

// At returns the i-th quick example.
func (e *Examples) At(i int) (string, bool) {
	if e == nil || i < 0 || i >= len(e.Quick) {
		return "", false
	}
	return e.Quick[i], true
}
