package fio

import "os"

// FileIO is the default IOManager implementation, backed directly by
// *os.File. Unlike an append-only log, the store needs to overwrite bytes
// at arbitrary offsets (freeing a header, writing an in-place update), so
// the file is opened without O_APPEND.
type FileIO struct {
	fd *os.File
}

// NewFileIO opens (creating if necessary) file for random-access
// read/write.
func NewFileIO(file string) (*FileIO, error) {
	fd, err := os.OpenFile(file, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &FileIO{fd: fd}, nil
}

func (f *FileIO) ReadAt(p []byte, off int64) (int, error) {
	return f.fd.ReadAt(p, off)
}

func (f *FileIO) WriteAt(p []byte, off int64) (int, error) {
	return f.fd.WriteAt(p, off)
}

func (f *FileIO) Sync() error {
	return f.fd.Sync()
}

func (f *FileIO) Size() (int64, error) {
	info, err := f.fd.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *FileIO) Truncate(size int64) error {
	return f.fd.Truncate(size)
}

func (f *FileIO) Close() error {
	return f.fd.Close()
}
