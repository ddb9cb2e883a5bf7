package dlib

import "errors"

var (
	ErrSidecarUnavailable = errors.New("dlib sidecar unavailable")
	ErrInvalidResponse    = errors.New("invalid response from dlib sidecar")
	ErrNoEncoding         = errors.New("no face encoding in sidecar response")
)
