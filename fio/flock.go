package fio

import (
	"github.com/gofrs/flock"
)

const lockSuffix = ".lock"

// NewFlock returns a FileLocker guarding the data file at path: since the
// store is a single file rather than a directory of files, the lock lives
// alongside it as path+".lock".
func NewFlock(path string) *flock.Flock {
	return flock.New(path + lockSuffix)
}
