package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// Problem represents a constraint problem file.
type Problem struct {
	Timeout Duration          `yaml:"timeout"`
	Vars    map[string]string `yaml:"vars"`
	Assert  []string          `yaml:"assert"`
	Checks  []Check           `yaml:"checks"`
}

// Check is a single satisfiability query against a problem's assertions.
type Check struct {
	Name   string   `yaml:"name"`
	Assume []string `yaml:"assume"`
	Want   string   `yaml:"want"` // "sat", "unsat" or empty
}

// Duration is a time.Duration written as a Go duration string.
type Duration time.Duration

// UnmarshalYAML parses a duration such as "1.5s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// ReadProblemFile reads and validates the problem at path.
func ReadProblemFile(path string) (*Problem, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var p Problem
	if err := yaml.Unmarshal(buf, &p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	} else if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// Validate returns an error if the problem declares an unknown type or an
// invalid expectation.
func (p *Problem) Validate() error {
	for _, name := range p.VarNames() {
		if _, ok := kinds[p.Vars[name]]; !ok {
			return fmt.Errorf("var %q: unknown type %q", name, p.Vars[name])
		}
	}
	for i, c := range p.Checks {
		switch c.Want {
		case "", "sat", "unsat":
		default:
			return fmt.Errorf("check %q: invalid want %q", c.Label(i), c.Want)
		}
	}
	return nil
}

// VarNames returns the declared variable names in sorted order.
func (p *Problem) VarNames() []string {
	a := make([]string, 0, len(p.Vars))
	for name := range p.Vars {
		a = append(a, name)
	}
	sort.Strings(a)
	return a
}

// Label returns the check name, or its position if unnamed.
func (c *Check) Label(i int) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("check#%d", i+1)
}
