package worker

import "errors"

// ErrPanic wraps a recovered panic value.
var ErrPanic = errors.New("panic in worker process")
