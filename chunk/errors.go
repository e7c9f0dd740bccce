package chunk

import "errors"

var (
	ErrInvalidArgument = errors.New("chunk: invalid argument")
	ErrNotBorrowed      = errors.New("chunk: not borrowed, cannot proxy")
	ErrClosed           = errors.New("chunk: scope released")
)
