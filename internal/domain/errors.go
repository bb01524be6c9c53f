package domain

import "errors"

// ErrMalformedBackendResponse marks a 2xx backend response whose body is not
// valid JSON.
var ErrMalformedBackendResponse = errors.New("backend response is not valid JSON")
