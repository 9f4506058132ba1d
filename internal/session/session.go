// Package session is the calling layer over the expression engine. A
// session owns the identifier generator, the current expression value,
// and the catalog that scopes what may be built. The engine underneath
// stays pure; every mutation here swaps the held expression for the
// next version.
package session

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/siftql/sift/internal/catalog"
	"github.com/siftql/sift/internal/codec"
	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/forest"
	"github.com/siftql/sift/internal/ident"
	"github.com/siftql/sift/internal/logging"
	"github.com/siftql/sift/internal/sqlgen"
)

// TokenGenerator mints session tokens for log correlation.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator issues time-ordered RFC 4122 UUIDs.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator always returns the same token. Test use only.
type FixedGenerator struct {
	Token string
}

func (g FixedGenerator) Generate() string { return g.Token }

// Bound is an operator plus an untyped literal as received from a
// caller. The session types it against the catalog before it reaches
// the engine.
type Bound struct {
	Op      expr.ComparisonOp
	Literal string
}

// Session holds one editing session's state.
type Session struct {
	token string
	cat   *catalog.Catalog
	gen   *ident.Generator
	expr  forest.Expression
}

// Option configures a Session at construction.
type Option func(*Session)

// WithTokenGenerator overrides the session token source.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(s *Session) {
		s.token = g.Generate()
	}
}

// New starts an empty session against cat.
func New(cat *catalog.Catalog, opts ...Option) *Session {
	s := &Session{
		token: UUIDv7Generator{}.Generate(),
		cat:   cat,
		gen:   ident.NewGenerator(),
		expr:  forest.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	logging.Debug().Str("session", s.token).Msg("session started")
	return s
}

// Token returns the session's correlation token.
func (s *Session) Token() string { return s.token }

// Expression returns the current expression value.
func (s *Session) Expression() forest.Expression { return s.expr }

// AddLeaf validates field and bounds against the catalog, mints an id,
// and inserts the leaf under parent (NoID for a new root). A leaf may
// start with no bounds at all; each given bound must check out.
func (s *Session) AddLeaf(parent expr.ID, table, column string, left, right *Bound) (expr.ID, error) {
	field, err := s.cat.Field(table, column)
	if err != nil {
		return expr.NoID, err
	}
	leftBound, err := s.typedBound(field, left, true)
	if err != nil {
		return expr.NoID, err
	}
	rightBound, err := s.typedBound(field, right, false)
	if err != nil {
		return expr.NoID, err
	}

	id := s.gen.Next()
	next, err := s.expr.AddNode(expr.EqualityQuery{
		ID:    id,
		Field: field,
		Left:  leftBound,
		Right: rightBound,
	}, parent)
	if err != nil {
		return expr.NoID, err
	}
	s.expr = next
	logging.Debug().
		Str("session", s.token).
		Stringer("id", id).
		Str("field", field.Wire()).
		Msg("leaf added")
	return id, nil
}

// UpdateLeaf replaces the bounds of an existing leaf in place. The
// field stays as it is; pass both bounds as nil to clear the leaf back
// to its transient unbounded state.
func (s *Session) UpdateLeaf(id expr.ID, left, right *Bound) error {
	node, ok := s.expr.Node(id)
	if !ok {
		return fmt.Errorf("node %s not found", id)
	}
	leaf, ok := node.(expr.EqualityQuery)
	if !ok {
		return fmt.Errorf("node %s is not a leaf", id)
	}
	leftBound, err := s.typedBound(leaf.Field, left, true)
	if err != nil {
		return err
	}
	rightBound, err := s.typedBound(leaf.Field, right, false)
	if err != nil {
		return err
	}
	leaf.Left = leftBound
	leaf.Right = rightBound
	next, err := s.expr.UpdateNode(leaf)
	if err != nil {
		return err
	}
	s.expr = next
	return nil
}

// UpdateCombinator changes the boolean operator of a combinator node.
func (s *Session) UpdateCombinator(id expr.ID, op expr.BoolOp) error {
	if !op.Valid() {
		return fmt.Errorf("invalid boolean operator %q", op)
	}
	next, err := s.expr.UpdateNode(expr.ParentQuery{ID: id, Op: op})
	if err != nil {
		return err
	}
	s.expr = next
	return nil
}

// Connect joins two root queries under a freshly minted combinator and
// returns the combinator's id.
func (s *Session) Connect(target, query expr.ID, op expr.BoolOp) (expr.ID, error) {
	id := s.gen.Next()
	next, err := s.expr.ConnectQueries(target, query, op, id)
	if err != nil {
		return expr.NoID, err
	}
	s.expr = next
	logging.Debug().
		Str("session", s.token).
		Stringer("combinator", id).
		Str("op", string(op)).
		Msg("queries connected")
	return id, nil
}

// Remove deletes a node and its subtree, collapsing a thinned parent.
func (s *Session) Remove(id expr.ID) error {
	next, err := s.expr.RemoveNode(id)
	if err != nil {
		return err
	}
	s.expr = next
	return nil
}

// Reparent moves a node under a new combinator, or to root with NoID.
func (s *Session) Reparent(id, newParent expr.ID) error {
	next, err := s.expr.ReparentNode(id, newParent)
	if err != nil {
		return err
	}
	s.expr = next
	return nil
}

// Validate reports the expression's structural findings.
func (s *Session) Validate() forest.ValidationResult {
	return s.expr.Validate()
}

// SaveJSON renders the session's expression in the durable
// round-trip format.
func (s *Session) SaveJSON() ([]byte, error) {
	return codec.Marshal(s.expr)
}

// LoadJSON replaces the session's expression with a persisted one and
// reseeds the generator past the highest id in use. The load is
// rejected when the document is structurally invalid.
func (s *Session) LoadJSON(data []byte) error {
	loaded, err := codec.Unmarshal(data)
	if err != nil {
		return err
	}
	if result := loaded.Validate(); !result.Valid {
		return fmt.Errorf("loaded expression is invalid: %s", result.Problems[0].Message)
	}
	s.expr = loaded
	s.gen.SetNext(loaded.MaxID() + 1)
	logging.Debug().
		Str("session", s.token).
		Int("nodes", loaded.Len()).
		Msg("expression loaded")
	return nil
}

// Command renders the expression as a one-way submission command.
func (s *Session) Command() (*codec.CommandNode, error) {
	return codec.BuildCommand(s.expr)
}

// Fingerprint returns the content hash of the current expression.
func (s *Session) Fingerprint() (string, error) {
	return codec.Fingerprint(s.expr)
}

// SQL compiles the expression to a parameterized WHERE fragment.
func (s *Session) SQL() (sqlgen.Fragment, error) {
	return sqlgen.Compile(s.expr)
}

func (s *Session) typedBound(field expr.FieldRef, b *Bound, left bool) (*expr.Bound, error) {
	if b == nil {
		return nil, nil
	}
	if left {
		if _, ok := b.Op.LeftWireName(); !ok {
			return nil, fmt.Errorf("operator %q has no left-of-field form", b.Op)
		}
	}
	value, err := catalog.CheckBound(field, b.Op, b.Literal)
	if err != nil {
		return nil, err
	}
	return &expr.Bound{Op: b.Op, Value: value}, nil
}
