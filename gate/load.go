package gate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type policyFile struct {
	DescriptionPrefix string              `yaml:"description_prefix"`
	Tools             map[string]ruleSpec `yaml:"tools"`
}

type conditionSpec struct {
	Field   string   `yaml:"field"`
	Pattern string   `yaml:"pattern"`
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
}

// ruleSpec accepts either a boolean or a mapping for each tool entry.
type ruleSpec struct {
	Rule
	enabled bool
}

func (r *ruleSpec) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var on bool
		if err := value.Decode(&on); err != nil {
			return fmt.Errorf("line %d: tool entry must be a boolean or a mapping", value.Line)
		}
		r.enabled = on
		r.Always = on
		return nil
	case yaml.MappingNode:
		var spec struct {
			Always           *bool           `yaml:"always"`
			When             []conditionSpec `yaml:"when"`
			AllowedDecisions []string        `yaml:"allowed_decisions"`
			Description      string          `yaml:"description"`
		}
		if err := value.Decode(&spec); err != nil {
			return err
		}
		r.enabled = true
		r.Description = spec.Description
		for _, c := range spec.When {
			r.When = append(r.When, Condition{Field: c.Field, Pattern: c.Pattern, Min: c.Min, Max: c.Max})
		}
		switch {
		case spec.Always != nil:
			r.Always = *spec.Always
		default:
			r.Always = len(spec.When) == 0
		}
		for _, s := range spec.AllowedDecisions {
			d, err := ParseDecision(s)
			if err != nil {
				return fmt.Errorf("line %d: %w", value.Line, err)
			}
			r.Allowed = append(r.Allowed, d)
		}
		return nil
	default:
		return fmt.Errorf("line %d: tool entry must be a boolean or a mapping", value.Line)
	}
}

// ParsePolicy builds a Policy from YAML. Each entry under tools is either a
// boolean or a mapping with always, when, allowed_decisions and description.
// A mapping without when gates every call unless always is false.
func ParsePolicy(data []byte) (*Policy, error) {
	var file policyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("gate: parse policy: %w", err)
	}

	rules := make(map[string]Rule, len(file.Tools))
	for name, spec := range file.Tools {
		if !spec.enabled {
			continue
		}
		rules[name] = spec.Rule
	}

	var opts []PolicyOption
	if file.DescriptionPrefix != "" {
		opts = append(opts, WithDescriptionPrefix(file.DescriptionPrefix))
	}
	return NewPolicy(rules, opts...)
}

// LoadPolicy reads a YAML policy file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gate: read policy: %w", err)
	}
	return ParsePolicy(data)
}
