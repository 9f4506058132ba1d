package forest

import (
	"fmt"
	"strings"

	"github.com/siftql/sift/internal/expr"
)

// Problem codes reported by Validate.
const (
	// Structural problems. Any of these makes the expression invalid.
	ProblemCycle       = "cycle"            // a node is its own ancestor
	ProblemDangling    = "dangling-child"   // child id with no node entry
	ProblemUnreachable = "unreachable-node" // node not reachable from any root
	ProblemBadParent   = "parent-mismatch"  // children/parents maps disagree
	ProblemBadRoot     = "root-mismatch"    // roots set disagrees with parents
	ProblemLeafChild   = "leaf-with-child"  // child list on a non-combinator

	// Advisory problems. Legal transient editing states, flagged so the
	// calling layer can mark the expression as unfinished.
	ProblemUnboundedLeaf  = "leaf-unbounded"  // leaf with neither side set
	ProblemThinCombinator = "thin-combinator" // combinator with <2 children
)

// Problem describes one validation finding.
type Problem struct {
	// Code identifies the problem category.
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// Path holds the node id path for cycle problems, e.g. ["3", "5", "3"].
	Path []string `json:"path,omitempty"`

	// Advisory problems do not make the expression invalid.
	Advisory bool `json:"advisory,omitempty"`
}

// ValidationResult is the outcome of a full validation pass.
type ValidationResult struct {
	// Valid is false if any non-advisory problem was found.
	Valid bool `json:"valid"`

	// Problems lists everything found, advisory findings included.
	Problems []Problem `json:"problems,omitempty"`
}

// IsValid reports whether the forest structure is sound: no cycles, no
// dangling child references, and every node reachable from some root.
//
// Pure predicate; never mutates. Validity is advisory during interactive
// editing - the engine deliberately allows invalid intermediate forests.
func (e Expression) IsValid() bool {
	return e.Validate().Valid
}

// Validate performs a depth-first traversal from each root, tracking the
// recursion path to detect cycles, and checks that the union of visited
// nodes covers the whole node set. It additionally cross-checks the
// adjacency maps against each other and flags transient editing states as
// advisory findings.
func (e Expression) Validate() ValidationResult {
	v := &validator{e: e, visited: map[expr.ID]struct{}{}}

	for _, root := range e.Roots() {
		if !e.Has(root) {
			v.add(Problem{
				Code:    ProblemDangling,
				Message: fmt.Sprintf("root %s has no node entry", root),
			})
			continue
		}
		if _, hasParent := e.parents[root]; hasParent {
			v.add(Problem{
				Code:    ProblemBadRoot,
				Message: fmt.Sprintf("root %s has a parent entry", root),
			})
		}
		v.walk(root, nil, map[expr.ID]struct{}{})
	}

	// A node with no parent entry must be in the root set.
	for _, id := range e.NodeIDs() {
		if _, hasParent := e.parents[id]; hasParent {
			continue
		}
		if _, isRoot := e.roots[id]; !isRoot {
			v.add(Problem{
				Code:    ProblemBadRoot,
				Message: fmt.Sprintf("node %s has no parent but is not a root", id),
			})
		}
	}

	// Coverage: every node must have been visited from some root.
	for _, id := range e.NodeIDs() {
		if _, ok := v.visited[id]; !ok {
			v.add(Problem{
				Code:    ProblemUnreachable,
				Message: fmt.Sprintf("node %s is not reachable from any root", id),
			})
		}
	}

	v.checkNodes()

	return ValidationResult{Valid: !v.invalid, Problems: v.problems}
}

type validator struct {
	e        Expression
	problems []Problem
	invalid  bool
	visited  map[expr.ID]struct{}
}

func (v *validator) add(p Problem) {
	if !p.Advisory {
		v.invalid = true
	}
	v.problems = append(v.problems, p)
}

// walk visits id and its subtree. path is the current recursion stack,
// onPath its membership set.
func (v *validator) walk(id expr.ID, path []expr.ID, onPath map[expr.ID]struct{}) {
	if _, ok := onPath[id]; ok {
		v.add(Problem{
			Code:    ProblemCycle,
			Message: fmt.Sprintf("cycle detected: %s", formatCyclePath(path, id)),
			Path:    appendCyclePath(path, id),
		})
		return
	}
	v.visited[id] = struct{}{}

	onPath[id] = struct{}{}
	path = append(path, id)
	for _, child := range v.e.children[id] {
		if !v.e.Has(child) {
			v.add(Problem{
				Code:    ProblemDangling,
				Message: fmt.Sprintf("node %s references missing child %s", id, child),
			})
			continue
		}
		if p, ok := v.e.parents[child]; !ok || p != id {
			v.add(Problem{
				Code:    ProblemBadParent,
				Message: fmt.Sprintf("child %s of %s has mismatched parent entry", child, id),
			})
		}
		v.walk(child, path, onPath)
	}
	delete(onPath, id)
}

// checkNodes verifies per-node invariants: child lists only on combinators,
// and flags transient states (unbounded leaves, thin combinators).
func (v *validator) checkNodes() {
	for _, id := range v.e.NodeIDs() {
		node := v.e.nodes[id]
		kids := v.e.children[id]

		switch q := node.(type) {
		case expr.ParentQuery:
			if len(kids) < 2 {
				v.add(Problem{
					Code:     ProblemThinCombinator,
					Message:  fmt.Sprintf("combinator %s has %d children", id, len(kids)),
					Advisory: true,
				})
			}
		case expr.EqualityQuery:
			if len(kids) > 0 {
				v.add(Problem{
					Code:    ProblemLeafChild,
					Message: fmt.Sprintf("leaf %s has a child list", id),
				})
			}
			if !q.Bounded() {
				v.add(Problem{
					Code:     ProblemUnboundedLeaf,
					Message:  fmt.Sprintf("leaf %s has neither side set", id),
					Advisory: true,
				})
			}
		}
	}
}

// formatCyclePath renders "3 -> 5 -> 3" starting from the repeated node.
func formatCyclePath(path []expr.ID, repeat expr.ID) string {
	parts := appendCyclePath(path, repeat)
	return strings.Join(parts, " -> ")
}

// appendCyclePath trims path to the segment beginning at repeat and closes
// the loop.
func appendCyclePath(path []expr.ID, repeat expr.ID) []string {
	start := 0
	for i, id := range path {
		if id == repeat {
			start = i
			break
		}
	}
	out := make([]string, 0, len(path)-start+1)
	for _, id := range path[start:] {
		out = append(out, id.String())
	}
	return append(out, repeat.String())
}
