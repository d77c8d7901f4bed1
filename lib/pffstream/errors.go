package pffstream

import "errors"

var (
	errNegativeArg = errors.New("negative offset or length")
	errShortStream = errors.New("requested range extends past stream end")
)
