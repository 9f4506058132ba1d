package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a YAML-defined edit script. Each step performs one
// structural operation against a fresh session; the expect block
// checks the final expression.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Catalog is inline CUE source declaring the tables the script may
	// reference.
	Catalog string `yaml:"catalog"`

	// Steps run in order. A step with an `error` field is expected to
	// fail with that substring; any other failure aborts the run.
	Steps []Step `yaml:"steps"`

	// Expect checks the final expression after all steps ran.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Step is one scripted operation. Node references are symbolic: a step
// that mints an id binds it to `ref`, later steps name it by that ref.
// An empty ref means "no node" (a new root position).
type Step struct {
	Op string `yaml:"op"` // add_leaf, update_leaf, update_combinator, connect, remove, reparent

	Ref string `yaml:"ref,omitempty"` // binding for the minted id

	// add_leaf
	Table  string `yaml:"table,omitempty"`
	Column string `yaml:"column,omitempty"`
	Parent string `yaml:"parent,omitempty"`

	// add_leaf / update_leaf
	Left  *BoundSpec `yaml:"left,omitempty"`
	Right *BoundSpec `yaml:"right,omitempty"`

	// connect
	Target string `yaml:"target,omitempty"`
	Query  string `yaml:"query,omitempty"`

	// connect / update_combinator
	Bool string `yaml:"bool,omitempty"`

	// update_leaf, update_combinator, remove, reparent
	Node string `yaml:"node,omitempty"`

	// Expected failure substring. Empty means the step must succeed.
	Error string `yaml:"error,omitempty"`
}

// BoundSpec is one side of a leaf condition in script form.
type BoundSpec struct {
	Op    string `yaml:"op"`
	Value string `yaml:"value"`
}

// Expect describes the final expression.
type Expect struct {
	Valid    *bool    `yaml:"valid,omitempty"`
	Roots    *int     `yaml:"roots,omitempty"`
	Nodes    *int     `yaml:"nodes,omitempty"`
	Problems []string `yaml:"problems,omitempty"` // expected problem codes
}

// LoadScenario reads and validates one scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Catalog == "" {
		return nil, fmt.Errorf("scenario %s: catalog is required", path)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s: at least one step is required", path)
	}
	return &s, nil
}

// LoadScenarioDir loads every *.yaml scenario in dir, sorted by file
// name for stable test ordering.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
