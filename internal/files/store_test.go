package files

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sys3222/akshare-mcp-adapter/internal/errors"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestUploadListDeleteRoundTrip(t *testing.T) {
	store := testStore(t)

	_, err := store.Upload("alice", "data.csv", strings.NewReader("a,b\n1,2\n"), 8)
	require.NoError(t, err)

	names, err := store.List("alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"data.csv"}, names)

	require.NoError(t, store.Delete("alice", "data.csv"))
	names, err = store.List("alice")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	store := testStore(t)
	_, err := store.Upload("alice", "big.csv", strings.NewReader("x"), maxUploadBytes+1)
	assert.True(t, errors.Is(err, errors.KindTooLarge))

	names, lerr := store.List("alice")
	require.NoError(t, lerr)
	assert.Empty(t, names)
}

func TestResolveRejectsPathTraversal(t *testing.T) {
	store := testStore(t)
	_, err := store.Upload("alice", "../escape.csv", strings.NewReader("x"), 1)
	assert.True(t, errors.Is(err, errors.KindPathViolation))

	_, err = store.Upload("alice", "nested/escape.csv", strings.NewReader("x"), 1)
	assert.True(t, errors.Is(err, errors.KindPathViolation))
}

func TestUsersCannotSeeEachOthersFiles(t *testing.T) {
	store := testStore(t)
	_, err := store.Upload("alice", "secret.csv", strings.NewReader("a\n1\n"), 4)
	require.NoError(t, err)

	bobFiles, err := store.List("bob")
	require.NoError(t, err)
	assert.Empty(t, bobFiles)

	err = store.Delete("bob", "secret.csv")
	assert.True(t, errors.Is(err, errors.KindNotFound))
}

func TestDeleteNonexistentFileReturnsNotFound(t *testing.T) {
	store := testStore(t)
	err := store.Delete("alice", "missing.csv")
	assert.True(t, errors.Is(err, errors.KindNotFound))
}
