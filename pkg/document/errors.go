package document

import "errors"

// ErrPathNotFound is returned by Get when a path segment does not resolve.
var ErrPathNotFound = errors.New("document: path not found")

// ErrUnsupportedSource is returned by Open for a source scheme it cannot
// load.
var ErrUnsupportedSource = errors.New("document: unsupported source")

// ErrUnsupportedValue is returned by the encoders for a value that has no
// document representation, such as a function.
var ErrUnsupportedValue = errors.New("document: unsupported value")
