package flashkv

import (
	"github.com/flashkv/flashkv/fio"
)

const (
	defaultPaddingFraction = 0.20
	defaultMaxPathLength   = 255
)

type options struct {
	paddingFraction  float64
	maxPathLength    int
	ioManagerCreator func(path string) (fio.IOManager, error)
}

func defaultOptions() options {
	return options{
		paddingFraction:  defaultPaddingFraction,
		maxPathLength:    defaultMaxPathLength,
		ioManagerCreator: func(path string) (fio.IOManager, error) { return fio.NewFileIO(path) },
	}
}

// Option configures a Store at construction time.
type Option func(*options)

// WithPaddingFraction sets the proportional headroom (spec §6.3, default
// 0.20) added to newly allocated blocks that hold variable-length fields,
// so later in-place growth is less likely to force a reallocation.
func WithPaddingFraction(f float64) Option {
	return func(o *options) { o.paddingFraction = f }
}

// WithMaxPathLength bounds the length of the data-file path Load will
// accept (spec §6.3), rejecting anything longer with ErrIoError.
func WithMaxPathLength(n int) Option {
	return func(o *options) { o.maxPathLength = n }
}

// WithIOManagerCreator overrides how the data file is opened, e.g. to
// substitute an in-memory IOManager in tests.
func WithIOManagerCreator(fn func(path string) (fio.IOManager, error)) Option {
	return func(o *options) { o.ioManagerCreator = fn }
}
