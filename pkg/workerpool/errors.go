package workerpool

import "errors"

// ErrClosed is reported for work submitted to a closed pool.
var ErrClosed = errors.New("workerpool: pool closed")
