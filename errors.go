package flashkv

import (
	"errors"
	"fmt"
)

// Sentinel errors matching the error taxonomy in spec §7. IoError wraps the
// underlying cause with fmt.Errorf's multi-%w support so both
// errors.Is(err, ErrIoError) and inspection of the original cause work.
var (
	ErrNotFound    = errors.New("flashkv: not found")
	ErrBadAlloc    = errors.New("flashkv: bad alloc")
	ErrOutOfRange  = errors.New("flashkv: out of range")
	ErrNotUnique   = errors.New("flashkv: not unique")
	ErrDataChanged = errors.New("flashkv: data changed")
	ErrIoError     = errors.New("flashkv: io error")
	ErrCantDoItNow = errors.New("flashkv: can't do it now")
)

func wrapIO(cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrIoError, cause)
}

// ErrFlag is the sticky, bitwise-OR'd error accumulator described in
// spec §6.4/§7: every error observed by the store is folded into it until
// ClearErrorFlags is called.
type ErrFlag uint8

const (
	FlagNotFound ErrFlag = 1 << iota
	FlagBadAlloc
	FlagOutOfRange
	FlagNotUnique
	FlagDataChanged
	FlagIoError
	FlagCantDoItNow
)

func flagFor(err error) ErrFlag {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotFound):
		return FlagNotFound
	case errors.Is(err, ErrBadAlloc):
		return FlagBadAlloc
	case errors.Is(err, ErrOutOfRange):
		return FlagOutOfRange
	case errors.Is(err, ErrNotUnique):
		return FlagNotUnique
	case errors.Is(err, ErrDataChanged):
		return FlagDataChanged
	case errors.Is(err, ErrIoError):
		return FlagIoError
	case errors.Is(err, ErrCantDoItNow):
		return FlagCantDoItNow
	default:
		return 0
	}
}
