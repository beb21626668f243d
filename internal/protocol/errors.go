package protocol

import "errors"

var (
	ErrMalformed    = errors.New("protocol: malformed command line")
	ErrUUIDRequired = errors.New("protocol: register uuid required")
)
