package crawler

import "errors"

var (
	// ErrConfiguration is returned when the options cannot be used to
	// start a crawl.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrNotFound is returned when the registry has no page for a target.
	ErrNotFound = errors.New("entity not found")
)
