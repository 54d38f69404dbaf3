package testing

import (
	"testing"

	"github.com/marmos91/dittosync/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDirectoryTests covers List and Create.
func (suite *StorageTestSuite) RunDirectoryTests(t *testing.T) {
	t.Run("EmptyList", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		assert.Empty(t, ListNames(t, dir))
	})

	t.Run("CreateAndList", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		MustCreate(t, dir, "a.txt", nil)
		MustCreate(t, dir, "b", []byte("data"))

		assert.Equal(t, []string{"a.txt", "b"}, ListNames(t, dir))
	})

	t.Run("CreateIsEmpty", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "empty.bin", nil)

		assert.Equal(t, "empty.bin", f.Name())
		assert.Empty(t, MustRead(t, f))
	})

	t.Run("CreateConflict", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		MustCreate(t, dir, "a.txt", []byte("keep me"))

		_, err := dir.Create(testContext(), "a.txt")
		assert.ErrorIs(t, err, storage.ErrNameConflict)

		files := MustList(t, dir)
		require.Contains(t, files, "a.txt")
		assert.Equal(t, []byte("keep me"), MustRead(t, files["a.txt"]))
	})

	t.Run("CreateInvalidName", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		for _, name := range []string{"", ".", "..", "sub/file"} {
			_, err := dir.Create(testContext(), name)
			assert.ErrorIs(t, err, storage.ErrInvalidName, "name %q", name)
		}
	})

	t.Run("CreateBackslashName", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, `report\2024.txt`, []byte("q4"))

		assert.Equal(t, []string{`report\2024.txt`}, ListNames(t, dir))
		assert.Equal(t, []byte("q4"), MustRead(t, f))
	})

	t.Run("ListedHandlesAreUsable", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		MustCreate(t, dir, "a.txt", []byte("alpha"))

		files := MustList(t, dir)
		require.Contains(t, files, "a.txt")
		assert.Equal(t, []byte("alpha"), MustRead(t, files["a.txt"]))
	})
}

// RunRenameTests covers Rename.
func (suite *StorageTestSuite) RunRenameTests(t *testing.T) {
	t.Run("RenameKeepsIdentity", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a.txt", []byte("payload"))

		require.NoError(t, f.Rename(testContext(), "b.txt"))

		assert.Equal(t, "b.txt", f.Name())
		assert.Equal(t, []string{"b.txt"}, ListNames(t, dir))
		assert.Equal(t, []byte("payload"), MustRead(t, f))
	})

	t.Run("RenameTwice", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", []byte("x"))

		require.NoError(t, f.Rename(testContext(), "a_for_rename"))
		require.NoError(t, f.Rename(testContext(), "c"))

		assert.Equal(t, []string{"c"}, ListNames(t, dir))
	})

	t.Run("RenameConflict", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		a := MustCreate(t, dir, "a", []byte("first"))
		MustCreate(t, dir, "b", []byte("second"))

		err := a.Rename(testContext(), "b")
		assert.ErrorIs(t, err, storage.ErrNameConflict)
		assert.Equal(t, "a", a.Name())

		assert.Equal(t, map[string]string{"a": "first", "b": "second"}, Snapshot(t, dir))
	})

	t.Run("RenameBackslashName", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, `a\b`, []byte("x"))

		require.NoError(t, f.Rename(testContext(), `a\b_for_rename`))
		require.NoError(t, f.Rename(testContext(), `c\d`))

		assert.Equal(t, map[string]string{`c\d`: "x"}, Snapshot(t, dir))
	})

	t.Run("RenameInvalidName", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		a := MustCreate(t, dir, "a", nil)

		assert.ErrorIs(t, a.Rename(testContext(), "x/y"), storage.ErrInvalidName)
		assert.Equal(t, []string{"a"}, ListNames(t, dir))
	})
}

// RunRemoveTests covers Remove.
func (suite *StorageTestSuite) RunRemoveTests(t *testing.T) {
	t.Run("Remove", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		a := MustCreate(t, dir, "a", []byte("x"))
		MustCreate(t, dir, "b", []byte("y"))

		require.NoError(t, a.Remove(testContext()))
		assert.Equal(t, []string{"b"}, ListNames(t, dir))
	})

	t.Run("RemoveRenamed", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		a := MustCreate(t, dir, "a", []byte("x"))

		require.NoError(t, a.Rename(testContext(), "a_for_rename"))
		require.NoError(t, a.Remove(testContext()))
		assert.Empty(t, ListNames(t, dir))
	})

	t.Run("RemoveMissing", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		a := MustCreate(t, dir, "a", nil)
		require.NoError(t, a.Remove(testContext()))

		err := a.Remove(testContext())
		assert.Error(t, err, "second Remove should fail")
	})
}
