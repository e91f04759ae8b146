package permtree

import "errors"

// Custom errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("resource not found")
	ErrLoadFailed   = errors.New("load failed")
	ErrSaveFailed   = errors.New("save failed")
)
