package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siftql/sift/internal/expr"
	"github.com/siftql/sift/internal/forest"
	"github.com/siftql/sift/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sift.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleExpression(t *testing.T) forest.Expression {
	t.Helper()
	e, err := forest.New().AddNode(
		testutil.Leaf(1, testutil.NumField("orders", "amount"), nil, testutil.NumBound(expr.OpLt, "100")), expr.NoID)
	require.NoError(t, err)
	e, err = e.AddNode(
		testutil.Leaf(2, testutil.TextField("orders", "status"), nil, testutil.TextBound(expr.OpEq, "open")), expr.NoID)
	require.NoError(t, err)
	e, err = e.ConnectQueries(1, 2, expr.BoolAnd, 3)
	require.NoError(t, err)
	return e
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sift.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	e := sampleExpression(t)

	meta, err := s.Save(ctx, "open-orders", e)
	require.NoError(t, err)
	assert.Equal(t, "open-orders", meta.Name)
	assert.Equal(t, int64(3), meta.MaxID)
	assert.Equal(t, 3, meta.NodeCount)
	assert.NotEmpty(t, meta.Fingerprint)

	loaded, loadedMeta, err := s.Load(ctx, "open-orders")
	require.NoError(t, err)
	assert.Equal(t, e, loaded)
	assert.Equal(t, meta.Fingerprint, loadedMeta.Fingerprint)
}

func TestSaveUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, "wip", sampleExpression(t))
	require.NoError(t, err)

	smaller, err := forest.New().AddNode(
		testutil.Leaf(1, testutil.NumField("orders", "amount"), nil, testutil.NumBound(expr.OpEq, "5")), expr.NoID)
	require.NoError(t, err)

	second, err := s.Save(ctx, "wip", smaller)
	require.NoError(t, err)

	assert.NotEqual(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, 1, second.NodeCount)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSaveRejectsEmptyName(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Save(context.Background(), "", forest.New())
	require.Error(t, err)
}

func TestListOrdersByName(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	e := sampleExpression(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.Save(ctx, name, e)
		require.NoError(t, err)
	}

	all, err := s.List(ctx)
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, meta := range all {
		names[i] = meta.Name
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Save(ctx, "doomed", sampleExpression(t))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "doomed"))
	assert.ErrorIs(t, s.Delete(ctx, "doomed"), ErrNotFound)

	_, _, err = s.Load(ctx, "doomed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Stat(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
