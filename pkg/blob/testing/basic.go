package testing

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zotdav/zotdav/pkg/blob"
)

// RunGetTests executes Get and Stat contract tests.
func (suite *StoreTestSuite) RunGetTests(t *testing.T) {
	t.Run("Get_NotFound", suite.testGetNotFound)
	t.Run("Get_Roundtrip", suite.testGetRoundtrip)
	t.Run("Get_Empty", suite.testGetEmpty)
	t.Run("Stat_NotFound", suite.testStatNotFound)
	t.Run("Stat_Success", suite.testStatSuccess)
}

func (suite *StoreTestSuite) testGetNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, _, err := store.Get(testContext(), "missing/key")
	assert.ErrorIs(t, err, blob.ErrObjectNotFound)
}

func (suite *StoreTestSuite) testGetRoundtrip(t *testing.T) {
	store := suite.NewStore(t)

	data := []byte("the quick brown fox")
	putInfo := mustPut(t, store, "docs/fox.txt", data)

	reader, info, err := store.Get(testContext(), "docs/fox.txt")
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.NotEmpty(t, info.ETag)
	assert.Equal(t, putInfo.ETag, info.ETag, "Get must report the ETag assigned at Put time")
}

func (suite *StoreTestSuite) testGetEmpty(t *testing.T) {
	store := suite.NewStore(t)

	mustPut(t, store, "empty", nil)

	reader, info, err := store.Get(testContext(), "empty")
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, info.Size)
}

func (suite *StoreTestSuite) testStatNotFound(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Stat(testContext(), "missing/key")
	assert.ErrorIs(t, err, blob.ErrObjectNotFound)
}

func (suite *StoreTestSuite) testStatSuccess(t *testing.T) {
	store := suite.NewStore(t)

	data := []byte("stat me")
	putInfo := mustPut(t, store, "a/b/c", data)

	info, err := store.Stat(testContext(), "a/b/c")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, putInfo.ETag, info.ETag)
	assert.False(t, info.LastModified.IsZero(), "stored objects carry a last-modified time")
}

// RunPutTests executes Put contract tests.
func (suite *StoreTestSuite) RunPutTests(t *testing.T) {
	t.Run("Put_Overwrite", suite.testPutOverwrite)
	t.Run("Put_EmptyKey", suite.testPutEmptyKey)
	t.Run("Put_ContentType", suite.testPutContentType)
}

func (suite *StoreTestSuite) testPutOverwrite(t *testing.T) {
	store := suite.NewStore(t)

	first := mustPut(t, store, "doc", []byte("version one"))
	second := mustPut(t, store, "doc", []byte("version two, longer"))

	assert.NotEqual(t, first.ETag, second.ETag, "overwrite must change the ETag")

	reader, info, err := store.Get(testContext(), "doc")
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, []byte("version two, longer"), got)
	assert.Equal(t, second.ETag, info.ETag)
}

func (suite *StoreTestSuite) testPutEmptyKey(t *testing.T) {
	store := suite.NewStore(t)

	_, err := store.Put(testContext(), "", bytes.NewReader([]byte("x")), 1, "")
	assert.ErrorIs(t, err, blob.ErrInvalidKey)
}

func (suite *StoreTestSuite) testPutContentType(t *testing.T) {
	store := suite.NewStore(t)

	data := []byte(`{"ok":true}`)
	_, err := store.Put(testContext(), "meta.json", bytes.NewReader(data), int64(len(data)), "application/json")
	require.NoError(t, err)

	reader, info, err := store.Get(testContext(), "meta.json")
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	assert.Equal(t, "application/json", info.ContentType)
}

// RunDeleteTests executes Delete contract tests.
func (suite *StoreTestSuite) RunDeleteTests(t *testing.T) {
	t.Run("Delete_Existing", suite.testDeleteExisting)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
}

func (suite *StoreTestSuite) testDeleteExisting(t *testing.T) {
	store := suite.NewStore(t)

	mustPut(t, store, "victim", []byte("bytes"))
	require.NoError(t, store.Delete(testContext(), "victim"))

	_, err := store.Stat(testContext(), "victim")
	assert.ErrorIs(t, err, blob.ErrObjectNotFound)
}

func (suite *StoreTestSuite) testDeleteIdempotent(t *testing.T) {
	store := suite.NewStore(t)

	// Deleting a key that never existed succeeds, and so does deleting twice.
	require.NoError(t, store.Delete(testContext(), "never-existed"))

	mustPut(t, store, "twice", []byte("bytes"))
	require.NoError(t, store.Delete(testContext(), "twice"))
	require.NoError(t, store.Delete(testContext(), "twice"))
}

// RunListTests executes List contract tests.
func (suite *StoreTestSuite) RunListTests(t *testing.T) {
	t.Run("List_Empty", suite.testListEmpty)
	t.Run("List_Prefix", suite.testListPrefix)
	t.Run("List_PrefixBoundary", suite.testListPrefixBoundary)
	t.Run("List_All", suite.testListAll)
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	store := suite.NewStore(t)

	infos, err := store.List(testContext(), "nothing/here/")
	require.NoError(t, err)
	assert.Empty(t, infos)
}

func (suite *StoreTestSuite) testListPrefix(t *testing.T) {
	store := suite.NewStore(t)

	mustPut(t, store, "storage/a.zip", []byte("aa"))
	mustPut(t, store, "storage/b.zip", []byte("bb"))
	mustPut(t, store, "other/c.zip", []byte("cc"))

	infos, err := store.List(testContext(), "storage/")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	keys := []string{infos[0].Key, infos[1].Key}
	assert.ElementsMatch(t, []string{"storage/a.zip", "storage/b.zip"}, keys)

	for _, info := range infos {
		assert.Equal(t, int64(2), info.Size)
		assert.NotEmpty(t, info.ETag)
	}
}

func (suite *StoreTestSuite) testListPrefixBoundary(t *testing.T) {
	store := suite.NewStore(t)

	// "a/" must not match "ab": prefix matching is byte-wise, not
	// segment-wise, so the caller-supplied trailing separator is the only
	// thing separating sibling names.
	mustPut(t, store, "a/x", []byte("1"))
	mustPut(t, store, "ab", []byte("2"))

	infos, err := store.List(testContext(), "a/")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "a/x", infos[0].Key)
}

func (suite *StoreTestSuite) testListAll(t *testing.T) {
	store := suite.NewStore(t)

	mustPut(t, store, "one", []byte("1"))
	mustPut(t, store, "two", []byte("2"))

	infos, err := store.List(testContext(), "")
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}
