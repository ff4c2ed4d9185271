package journey

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/journeylab-dev/journey-runner/pkg/core"
)

// Definition is a declarative journey loaded from YAML. It names the
// entry page, seed data, and the blocks to run in order; a compiler
// turns it into an executable pipeline.
type Definition struct {
	Name       string         `yaml:"name" validate:"required"`
	Entry      string         `yaml:"entry" validate:"required,journey_path"`
	Data       map[string]any `yaml:"data"`
	Steps      []StepDef      `yaml:"steps" validate:"required,min=1,dive"`
	SourcePath string         `yaml:"-"`
}

// StepDef is one step of a declarative journey. Which fields apply
// depends on the block.
type StepDef struct {
	Block    string                     `yaml:"block" validate:"required"`
	Heading  string                     `yaml:"heading"`
	Value    string                     `yaml:"value"`
	Question string                     `yaml:"question"`
	Answer   *bool                      `yaml:"answer"`
	Fields   map[string]core.FieldValue `yaml:"fields"`
	Expect   []string                   `yaml:"expect"`
	Rows     map[string]string          `yaml:"rows"`
	Key      string                     `yaml:"key"`

	// Line is the step's position in the source file, for diagnostics.
	Line int `yaml:"-"`
}

// UnmarshalYAML decodes the step and records its source line.
func (s *StepDef) UnmarshalYAML(node *yaml.Node) error {
	type raw StepDef
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*s = StepDef(r)
	s.Line = node.Line
	return nil
}

// ParseFile parses a single YAML journey definition file.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-provided journey file
	if err != nil {
		return nil, fmt.Errorf("failed to read journey file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses YAML journey definition content.
func Parse(data []byte, sourcePath string) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Message: fmt.Sprintf("invalid journey definition: %v", err),
		}
	}
	def.SourcePath = sourcePath
	if err := validateDefinition(&def, sourcePath); err != nil {
		return nil, err
	}
	return &def, nil
}
