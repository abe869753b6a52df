package fio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileIO_WriteReadAt(t *testing.T) {
	path := "./tmp-file-io-data"
	defer os.Remove(path)

	f, err := NewFileIO(path)
	assert.Nil(t, err)
	defer f.Close()

	n, err := f.WriteAt([]byte("hello"), 0)
	assert.Nil(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = f.ReadAt(buf, 0)
	assert.Nil(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestFileIO_WriteAtOffset(t *testing.T) {
	path := "./tmp-file-io-offset"
	defer os.Remove(path)

	f, err := NewFileIO(path)
	assert.Nil(t, err)
	defer f.Close()

	_, err = f.WriteAt([]byte("AAAA"), 0)
	assert.Nil(t, err)
	_, err = f.WriteAt([]byte("BB"), 4)
	assert.Nil(t, err)

	size, err := f.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(6), size)

	buf := make([]byte, 6)
	_, err = f.ReadAt(buf, 0)
	assert.Nil(t, err)
	assert.Equal(t, "AAAABB", string(buf))
}

func TestFileIO_Truncate(t *testing.T) {
	path := "./tmp-file-io-truncate"
	defer os.Remove(path)

	f, err := NewFileIO(path)
	assert.Nil(t, err)
	defer f.Close()

	_, err = f.WriteAt([]byte("data"), 0)
	assert.Nil(t, err)
	assert.Nil(t, f.Truncate(0))

	size, err := f.Size()
	assert.Nil(t, err)
	assert.Equal(t, int64(0), size)
}

func TestFileIO_Sync(t *testing.T) {
	path := "./tmp-file-io-sync"
	defer os.Remove(path)

	f, err := NewFileIO(path)
	assert.Nil(t, err)
	defer f.Close()
	assert.Nil(t, f.Sync())
}
