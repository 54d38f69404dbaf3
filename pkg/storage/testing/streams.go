package testing

import (
	"testing"

	"github.com/marmos91/dittosync/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStreamTests covers Open, ReadChunk, WriteChunk and Close.
func (suite *StorageTestSuite) RunStreamTests(t *testing.T) {
	t.Run("WriteThenRead", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "data.bin", nil)
		data := generateTestData(10_000)

		err := storage.WithOpen(testContext(), f, storage.ModeWrite, func() error {
			for off := 0; off < len(data); off += 3000 {
				end := min(off+3000, len(data))
				if err := f.WriteChunk(data[off:end]); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, data, MustRead(t, f))
	})

	t.Run("ShortChunkOnlyAtEnd", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "data.bin", generateTestData(10))

		require.NoError(t, f.Open(testContext(), storage.ModeRead))
		defer f.Close()

		sizes := []int{}
		for {
			chunk, err := f.ReadChunk(4)
			require.NoError(t, err)
			sizes = append(sizes, len(chunk))
			if len(chunk) == 0 {
				break
			}
		}
		assert.Equal(t, []int{4, 4, 2, 0}, sizes)
	})

	t.Run("Append", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "log", []byte("hello"))

		MustWrite(t, f, storage.ModeAppend, []byte(", world"))
		assert.Equal(t, []byte("hello, world"), MustRead(t, f))
	})

	t.Run("WriteTruncates", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "log", []byte("a long first version"))

		MustWrite(t, f, storage.ModeWrite, []byte("short"))
		assert.Equal(t, []byte("short"), MustRead(t, f))
	})

	t.Run("ReopenAfterClose", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", []byte("abc"))

		assert.Equal(t, []byte("abc"), MustRead(t, f))
		assert.Equal(t, []byte("abc"), MustRead(t, f))
	})

	t.Run("TwoFilesOpenTogether", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		a := MustCreate(t, dir, "a", []byte("aaaa"))
		b := MustCreate(t, dir, "b", []byte("bbbb"))

		require.NoError(t, a.Open(testContext(), storage.ModeRead))
		defer a.Close()
		require.NoError(t, b.Open(testContext(), storage.ModeRead))
		defer b.Close()

		ca, err := a.ReadChunk(2)
		require.NoError(t, err)
		cb, err := b.ReadChunk(2)
		require.NoError(t, err)
		assert.Equal(t, []byte("aa"), ca)
		assert.Equal(t, []byte("bb"), cb)
	})
}

// RunContractTests covers the open/closed state machine of a File.
func (suite *StorageTestSuite) RunContractTests(t *testing.T) {
	t.Run("DoubleOpen", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", []byte("x"))

		require.NoError(t, f.Open(testContext(), storage.ModeRead))
		defer f.Close()
		assert.ErrorIs(t, f.Open(testContext(), storage.ModeRead), storage.ErrAlreadyOpen)
	})

	t.Run("ReadWhenClosed", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", []byte("x"))

		_, err := f.ReadChunk(1)
		assert.ErrorIs(t, err, storage.ErrNotOpen)
	})

	t.Run("WriteWhenClosed", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", nil)

		assert.ErrorIs(t, f.WriteChunk([]byte("x")), storage.ErrNotOpen)
	})

	t.Run("WriteOnReadStream", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", []byte("x"))

		require.NoError(t, f.Open(testContext(), storage.ModeRead))
		defer f.Close()
		assert.ErrorIs(t, f.WriteChunk([]byte("y")), storage.ErrNotOpen)
	})

	t.Run("ReadOnWriteStream", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", []byte("x"))

		require.NoError(t, f.Open(testContext(), storage.ModeAppend))
		defer f.Close()
		_, err := f.ReadChunk(1)
		assert.ErrorIs(t, err, storage.ErrNotOpen)
	})

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", []byte("x"))

		assert.NoError(t, f.Close())
		require.NoError(t, f.Open(testContext(), storage.ModeRead))
		assert.NoError(t, f.Close())
		assert.NoError(t, f.Close())
	})

	t.Run("OpenMissing", func(t *testing.T) {
		dir := suite.NewDirectory(t)
		f := MustCreate(t, dir, "a", []byte("x"))
		require.NoError(t, f.Remove(testContext()))

		assert.Error(t, f.Open(testContext(), storage.ModeRead))
	})
}
