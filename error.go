package beacon

import "errors"

var (
	ErrBadConfig   = errors.New("bad config")
	ErrMissingData = errors.New("missing data")
	ErrNotValid    = errors.New("invalid")
)
