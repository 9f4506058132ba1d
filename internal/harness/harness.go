// Package harness runs YAML edit-script scenarios against a fresh
// session and checks the resulting expression, optionally against
// golden snapshots of the serialized forms.
package harness

import (
	"fmt"
	"strings"

	"github.com/siftql/sift/internal/catalog"
	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/forest"
	"github.com/siftql/sift/internal/session"
)

// Result is the outcome of one scenario run. Failures are expectation
// mismatches; infrastructure problems surface as errors from Run
// instead.
type Result struct {
	Scenario *Scenario
	Session  *session.Session
	Failures []string
}

// Passed reports whether every expectation held.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// Run executes a scenario from an empty session.
func Run(scenario *Scenario) (*Result, error) {
	cat, err := catalog.CompileBytes([]byte(scenario.Catalog))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: catalog: %w", scenario.Name, err)
	}
	sess := session.New(cat, session.WithTokenGenerator(session.FixedGenerator{Token: "harness-" + scenario.Name}))

	refs := map[string]expr.ID{}
	for i, step := range scenario.Steps {
		minted, err := runStep(sess, refs, step)
		if step.Error != "" {
			if err == nil {
				return nil, fmt.Errorf("scenario %s: step %d (%s): expected failure containing %q, got none",
					scenario.Name, i+1, step.Op, step.Error)
			}
			if !strings.Contains(err.Error(), step.Error) {
				return nil, fmt.Errorf("scenario %s: step %d (%s): error %q does not contain %q",
					scenario.Name, i+1, step.Op, err.Error(), step.Error)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scenario %s: step %d (%s): %w", scenario.Name, i+1, step.Op, err)
		}
		if step.Ref != "" {
			refs[step.Ref] = minted
		}
	}

	result := &Result{Scenario: scenario, Session: sess}
	checkExpect(result, scenario.Expect, sess.Expression())
	return result, nil
}

func runStep(sess *session.Session, refs map[string]expr.ID, step Step) (expr.ID, error) {
	switch step.Op {
	case "add_leaf":
		parent, err := resolveRef(refs, step.Parent)
		if err != nil {
			return expr.NoID, err
		}
		return sess.AddLeaf(parent, step.Table, step.Column, bound(step.Left), bound(step.Right))

	case "update_leaf":
		node, err := resolveRef(refs, step.Node)
		if err != nil {
			return expr.NoID, err
		}
		return expr.NoID, sess.UpdateLeaf(node, bound(step.Left), bound(step.Right))

	case "update_combinator":
		node, err := resolveRef(refs, step.Node)
		if err != nil {
			return expr.NoID, err
		}
		return expr.NoID, sess.UpdateCombinator(node, expr.BoolOp(step.Bool))

	case "connect":
		target, err := resolveRef(refs, step.Target)
		if err != nil {
			return expr.NoID, err
		}
		query, err := resolveRef(refs, step.Query)
		if err != nil {
			return expr.NoID, err
		}
		return sess.Connect(target, query, expr.BoolOp(step.Bool))

	case "remove":
		node, err := resolveRef(refs, step.Node)
		if err != nil {
			return expr.NoID, err
		}
		return expr.NoID, sess.Remove(node)

	case "reparent":
		node, err := resolveRef(refs, step.Node)
		if err != nil {
			return expr.NoID, err
		}
		parent, err := resolveRef(refs, step.Parent)
		if err != nil {
			return expr.NoID, err
		}
		return expr.NoID, sess.Reparent(node, parent)
	}
	return expr.NoID, fmt.Errorf("unknown op %q", step.Op)
}

// resolveRef maps a symbolic node reference to its minted id. The
// empty reference is NoID (root position).
func resolveRef(refs map[string]expr.ID, ref string) (expr.ID, error) {
	if ref == "" {
		return expr.NoID, nil
	}
	id, ok := refs[ref]
	if !ok {
		return expr.NoID, fmt.Errorf("unknown node reference %q", ref)
	}
	return id, nil
}

func bound(spec *BoundSpec) *session.Bound {
	if spec == nil {
		return nil
	}
	return &session.Bound{Op: expr.ComparisonOp(spec.Op), Literal: spec.Value}
}

func checkExpect(result *Result, expect *Expect, e forest.Expression) {
	if expect == nil {
		return
	}
	validation := e.Validate()

	if expect.Valid != nil && validation.Valid != *expect.Valid {
		result.Failures = append(result.Failures,
			fmt.Sprintf("valid: got %v, want %v", validation.Valid, *expect.Valid))
	}
	if expect.Roots != nil && len(e.Roots()) != *expect.Roots {
		result.Failures = append(result.Failures,
			fmt.Sprintf("roots: got %d, want %d", len(e.Roots()), *expect.Roots))
	}
	if expect.Nodes != nil && e.Len() != *expect.Nodes {
		result.Failures = append(result.Failures,
			fmt.Sprintf("nodes: got %d, want %d", e.Len(), *expect.Nodes))
	}
	for _, code := range expect.Problems {
		found := false
		for _, p := range validation.Problems {
			if p.Code == code {
				found = true
				break
			}
		}
		if !found {
			result.Failures = append(result.Failures,
				fmt.Sprintf("problems: expected code %q not reported", code))
		}
	}
}
